package usci

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Tx implements i2c.Bus.
//
// The peripheral is driven without repeated start, so a write followed by a
// read is issued as two transactions.
func (m *Master) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return ErrLength
	}
	if len(w) != 0 {
		if err := m.Send(addr, w); err != nil {
			return err
		}
	}
	if len(r) != 0 {
		return m.Receive(addr, r)
	}
	return nil
}

// SetSpeed implements i2c.Bus. It reprograms the prescaler against the source
// clock given to Init.
func (m *Master) SetSpeed(f physic.Frequency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == 0 {
		return errors.New("usci: SetSpeed called before Init")
	}
	return m.init(m.source, f)
}

// String implements i2c.Bus.
func (m *Master) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("usci.Master{%s}", m.speed)
}

var _ i2c.Bus = &Master{}
