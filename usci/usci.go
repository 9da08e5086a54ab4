// Package usci drives a USCI_B style two-wire serial interface as a polled
// I²C bus master.
//
// The peripheral is reached through the Registers interface so the same
// master works against memory-mapped hardware or the uscitest model.
// Every hardware wait is a bounded poll; see Opts.Timeout.
package usci

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// CTL0 bits.
const (
	UCSYNC  = 0x01 // Synchronous mode
	UCMODE3 = 0x06 // I²C mode
	UCMST   = 0x08 // Master mode
)

// CTL1 bits.
const (
	UCSWRST = 0x01 // Software reset
	UCTXSTT = 0x02 // Generate start condition
	UCTXSTP = 0x04 // Generate stop condition
	UCTR    = 0x10 // Transmitter
	UCSSEL2 = 0x80 // SMCLK clock source
)

// IFG bits.
const (
	UCRXIFG = 0x01 // Receive buffer full
	UCTXIFG = 0x02 // Transmit buffer empty
)

// DefaultTimeout bounds each individual hardware wait.
const DefaultTimeout = 10 * time.Millisecond

var (
	// ErrTimeout is returned when a status flag did not reach the expected
	// state in time. The bus may be wedged; ForceStop can be tried.
	ErrTimeout = errors.New("usci: timeout waiting for hardware")
	// ErrAddress is returned for addresses that don't fit in 7 bits.
	ErrAddress = errors.New("usci: address out of range")
	// ErrLength is returned for empty transfers.
	ErrLength = errors.New("usci: transfer length must be at least 1")
)

// Registers is the register file of one USCI_B instance.
type Registers interface {
	WriteCtl0(v uint8)
	ReadCtl1() uint8
	WriteCtl1(v uint8)
	// WriteBaudRate programs BR0 (low byte) and BR1 (high byte).
	WriteBaudRate(br uint16)
	WriteSlaveAddr(addr uint16)
	ReadIFG() uint8
	WriteTxBuf(b uint8)
	ReadRxBuf() uint8
}

// Opts is the configuration for the master.
type Opts struct {
	// Timeout bounds each flag poll. Zero means DefaultTimeout, a negative
	// value waits forever like the bare hardware loop.
	Timeout time.Duration
}

// Master is a polled I²C master. It is safe for concurrent use; transactions
// are serialized.
type Master struct {
	mu      sync.Mutex
	regs    Registers
	timeout time.Duration
	source  physic.Frequency
	speed   physic.Frequency
}

// New returns a Master on regs. Init must be called before any transfer.
func New(regs Registers, opts *Opts) *Master {
	m := &Master{regs: regs, timeout: DefaultTimeout}
	if opts != nil && opts.Timeout != 0 {
		m.timeout = opts.Timeout
	}
	return m
}

// Init configures the peripheral as bus master clocked from source and
// programs the prescaler source/bus, truncated toward zero.
func (m *Master) Init(source, bus physic.Frequency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.init(source, bus)
}

func (m *Master) init(source, bus physic.Frequency) error {
	if bus <= 0 {
		return fmt.Errorf("usci: invalid bus frequency %s", bus)
	}
	div := source / bus
	if div <= 0 || div > 0xFFFF {
		return fmt.Errorf("usci: prescaler %d for %s/%s does not fit 16 bits", int64(div), source, bus)
	}
	m.regs.WriteCtl1(UCSWRST)
	m.regs.WriteCtl0(UCMST | UCMODE3 | UCSYNC)
	m.regs.WriteCtl1(m.regs.ReadCtl1() | UCSSEL2)
	m.regs.WriteBaudRate(uint16(div))
	m.regs.WriteCtl1(m.regs.ReadCtl1() &^ UCSWRST)
	m.source = source
	m.speed = bus
	return nil
}

// Send writes w to the device at addr in a single transaction.
//
// A nil error only means no failure was observed: the peripheral does not
// report NACK or arbitration loss in this mode.
func (m *Master) Send(addr uint16, w []byte) error {
	if err := checkTransfer(addr, len(w)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.waitCtl1Clear(UCTXSTP, "prior stop"); err != nil {
		return err
	}
	m.regs.WriteSlaveAddr(addr)
	m.regs.WriteCtl1(m.regs.ReadCtl1() | UCTR | UCTXSTT)
	for _, b := range w {
		if err := m.waitIFG(UCTXIFG, "tx buffer"); err != nil {
			return err
		}
		m.regs.WriteTxBuf(b)
	}
	if err := m.waitIFG(UCTXIFG, "last byte"); err != nil {
		return err
	}
	m.regs.WriteCtl1(m.regs.ReadCtl1() | UCTXSTP)
	return m.waitCtl1Clear(UCTXSTP, "stop")
}

// SendByte writes a single byte to the device at addr.
func (m *Master) SendByte(addr uint16, b byte) error {
	return m.Send(addr, []byte{b})
}

// Receive fills r from the device at addr in a single transaction.
//
// The stop condition is queued while the second to last byte is still in the
// receive buffer (or right after start for single byte reads); requesting it
// later makes the controller clock out one byte too many.
func (m *Master) Receive(addr uint16, r []byte) error {
	if err := checkTransfer(addr, len(r)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.waitCtl1Clear(UCTXSTP, "prior stop"); err != nil {
		return err
	}
	m.regs.WriteSlaveAddr(addr)
	m.regs.WriteCtl1(m.regs.ReadCtl1() &^ UCTR)
	m.regs.WriteCtl1(m.regs.ReadCtl1() | UCTXSTT)
	if err := m.waitCtl1Clear(UCTXSTT, "start"); err != nil {
		return err
	}
	if len(r) == 1 {
		m.regs.WriteCtl1(m.regs.ReadCtl1() | UCTXSTP)
	}
	for i := range r {
		if err := m.waitIFG(UCRXIFG, "rx buffer"); err != nil {
			return err
		}
		if i == len(r)-2 {
			m.regs.WriteCtl1(m.regs.ReadCtl1() | UCTXSTP)
		}
		r[i] = m.regs.ReadRxBuf()
	}
	return nil
}

// ReceiveByte reads a single byte from the device at addr.
func (m *Master) ReceiveByte(addr uint16) (byte, error) {
	var b [1]byte
	err := m.Receive(addr, b[:])
	return b[0], err
}

// Ready reports whether neither a start nor a stop condition is pending.
func (m *Master) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs.ReadCtl1()&(UCTXSTP|UCTXSTT) == 0
}

// ForceStop unconditionally generates a stop condition and waits for it.
func (m *Master) ForceStop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs.WriteCtl1(m.regs.ReadCtl1() | UCTXSTP)
	return m.waitCtl1Clear(UCTXSTP, "forced stop")
}

func checkTransfer(addr uint16, n int) error {
	if addr > 0x7F {
		return fmt.Errorf("%w: 0x%X", ErrAddress, addr)
	}
	if n < 1 {
		return ErrLength
	}
	return nil
}

func (m *Master) waitCtl1Clear(mask uint8, what string) error {
	return m.poll(what, func() bool { return m.regs.ReadCtl1()&mask == 0 })
}

func (m *Master) waitIFG(mask uint8, what string) error {
	return m.poll(what, func() bool { return m.regs.ReadIFG()&mask != 0 })
}

// poll spins on ready until it returns true or the timeout elapses.
func (m *Master) poll(what string, ready func() bool) error {
	if ready() {
		return nil
	}
	var deadline time.Time
	if m.timeout > 0 {
		deadline = time.Now().Add(m.timeout)
	}
	for !ready() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w (%s)", ErrTimeout, what)
		}
	}
	return nil
}
