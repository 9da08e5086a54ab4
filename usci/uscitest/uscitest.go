// Package uscitest is meant to be used to test drivers built on top of
// usci.Master without the real peripheral.
//
// Regs models the USCI_B register file closely enough to observe the wire
// level sequence: start and stop conditions complete immediately unless
// stalled, the transmit buffer is always empty and received bytes come from
// a queue.
package uscitest

import (
	"sync"

	"github.com/flavioheleno/ssd1306/usci"
)

// Op is one recorded transaction.
type Op struct {
	// Addr is the slave address register value when start was asserted.
	Addr uint16
	// Write is true for transmitter mode.
	Write bool
	W     []byte
	R     []byte
	// StopAt is the number of bytes read out of RXBUF when the stop was
	// requested, -1 if no stop was requested.
	StopAt int
}

// Regs implements usci.Registers.
type Regs struct {
	sync.Mutex
	Ctl0     uint8
	Ctl1     uint8
	BaudRate uint16
	Addr     uint16
	// Rx feeds RXBUF, one byte per read. Reads past the end return 0.
	Rx []byte
	// StallStart, StallStop and StallTx keep the matching flag from ever
	// completing, modelling a wedged bus.
	StallStart bool
	StallStop  bool
	StallTx    bool
	// Ops are the transactions seen so far.
	Ops []Op
	// Stops counts completed stop conditions, including forced ones.
	Stops int
}

// WriteCtl0 implements usci.Registers.
func (r *Regs) WriteCtl0(v uint8) {
	r.Lock()
	defer r.Unlock()
	r.Ctl0 = v
}

// ReadCtl1 implements usci.Registers.
func (r *Regs) ReadCtl1() uint8 {
	r.Lock()
	defer r.Unlock()
	return r.Ctl1
}

// WriteCtl1 implements usci.Registers.
func (r *Regs) WriteCtl1(v uint8) {
	r.Lock()
	defer r.Unlock()
	rising := v &^ r.Ctl1
	r.Ctl1 = v
	if rising&usci.UCTXSTT != 0 {
		r.Ops = append(r.Ops, Op{Addr: r.Addr, Write: v&usci.UCTR != 0, StopAt: -1})
		if !r.StallStart {
			r.Ctl1 &^= usci.UCTXSTT
		}
	}
	if rising&usci.UCTXSTP != 0 {
		if op := r.current(); op != nil && op.StopAt < 0 {
			op.StopAt = len(op.R)
		}
		if !r.StallStop {
			r.Ctl1 &^= usci.UCTXSTP
			r.Stops++
		}
	}
}

// WriteBaudRate implements usci.Registers.
func (r *Regs) WriteBaudRate(br uint16) {
	r.Lock()
	defer r.Unlock()
	r.BaudRate = br
}

// WriteSlaveAddr implements usci.Registers.
func (r *Regs) WriteSlaveAddr(addr uint16) {
	r.Lock()
	defer r.Unlock()
	r.Addr = addr
}

// ReadIFG implements usci.Registers.
func (r *Regs) ReadIFG() uint8 {
	r.Lock()
	defer r.Unlock()
	var ifg uint8
	if !r.StallTx {
		ifg |= usci.UCTXIFG
	}
	if op := r.current(); op != nil && !op.Write {
		ifg |= usci.UCRXIFG
	}
	return ifg
}

// WriteTxBuf implements usci.Registers.
func (r *Regs) WriteTxBuf(b uint8) {
	r.Lock()
	defer r.Unlock()
	if op := r.current(); op != nil {
		op.W = append(op.W, b)
	}
}

// ReadRxBuf implements usci.Registers.
func (r *Regs) ReadRxBuf() uint8 {
	r.Lock()
	defer r.Unlock()
	var b uint8
	if len(r.Rx) != 0 {
		b = r.Rx[0]
		r.Rx = r.Rx[1:]
	}
	if op := r.current(); op != nil {
		op.R = append(op.R, b)
	}
	return b
}

func (r *Regs) current() *Op {
	if len(r.Ops) == 0 {
		return nil
	}
	return &r.Ops[len(r.Ops)-1]
}

var _ usci.Registers = &Regs{}
