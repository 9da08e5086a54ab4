package usci_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/flavioheleno/ssd1306/usci"
	"github.com/flavioheleno/ssd1306/usci/uscitest"
)

func newMaster(t *testing.T, regs *uscitest.Regs) *usci.Master {
	m := usci.New(regs, &usci.Opts{Timeout: time.Millisecond})
	require.NoError(t, m.Init(physic.MegaHertz, 100*physic.KiloHertz))
	return m
}

func TestInit(t *testing.T) {
	regs := &uscitest.Regs{}
	m := usci.New(regs, nil)
	require.NoError(t, m.Init(physic.MegaHertz, 100*physic.KiloHertz))

	assert.Equal(t, uint8(usci.UCMST|usci.UCMODE3|usci.UCSYNC), regs.Ctl0)
	assert.Equal(t, uint16(10), regs.BaudRate)
	assert.Equal(t, uint8(usci.UCSSEL2), regs.Ctl1, "reset must be released")
	assert.True(t, m.Ready())
}

func TestInitTruncatesPrescaler(t *testing.T) {
	regs := &uscitest.Regs{}
	m := usci.New(regs, nil)
	require.NoError(t, m.Init(1048576*physic.Hertz, 400*physic.KiloHertz))
	assert.Equal(t, uint16(2), regs.BaudRate)
}

func TestInitRejectsUnrepresentablePrescaler(t *testing.T) {
	tests := []struct {
		name        string
		source, bus physic.Frequency
	}{
		{"zero bus", physic.MegaHertz, 0},
		{"bus faster than source", physic.KiloHertz, physic.MegaHertz},
		{"prescaler above 16 bits", 100 * physic.MegaHertz, physic.KiloHertz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := &uscitest.Regs{}
			err := usci.New(regs, nil).Init(tt.source, tt.bus)
			require.Error(t, err)
			assert.Zero(t, regs.BaudRate)
		})
	}
}

func TestSendProgramsAddressBeforeStart(t *testing.T) {
	regs := &uscitest.Regs{}
	m := newMaster(t, regs)
	for a := uint16(0); a < 128; a++ {
		require.NoError(t, m.Send(a, []byte{byte(a)}))
	}
	require.Len(t, regs.Ops, 128)
	for a, op := range regs.Ops {
		assert.Equal(t, uint16(a), op.Addr)
		assert.True(t, op.Write)
		assert.Equal(t, []byte{byte(a)}, op.W)
	}
	assert.Equal(t, 128, regs.Stops)
}

func TestReceiveProgramsAddressBeforeStart(t *testing.T) {
	regs := &uscitest.Regs{}
	m := newMaster(t, regs)
	for a := uint16(0); a < 128; a++ {
		_, err := m.ReceiveByte(a)
		require.NoError(t, err)
	}
	require.Len(t, regs.Ops, 128)
	for a, op := range regs.Ops {
		assert.Equal(t, uint16(a), op.Addr)
		assert.False(t, op.Write)
	}
}

func TestSendPayload(t *testing.T) {
	regs := &uscitest.Regs{}
	m := newMaster(t, regs)
	require.NoError(t, m.Send(0x3C, []byte{0x00, 0xAE}))
	require.NoError(t, m.SendByte(0x3C, 0x40))

	require.Len(t, regs.Ops, 2)
	assert.Equal(t, []byte{0x00, 0xAE}, regs.Ops[0].W)
	assert.Equal(t, []byte{0x40}, regs.Ops[1].W)
	assert.True(t, m.Ready())
}

func TestReceiveStopTiming(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		wantStopAt int
	}{
		{"single byte stops right after start", 1, 0},
		{"two bytes", 2, 0},
		{"four bytes", 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := &uscitest.Regs{Rx: []byte{1, 2, 3, 4}}
			m := newMaster(t, regs)
			buf := make([]byte, tt.n)
			require.NoError(t, m.Receive(0x3C, buf))
			require.Len(t, regs.Ops, 1)
			assert.Equal(t, tt.wantStopAt, regs.Ops[0].StopAt)
			assert.Equal(t, []byte{1, 2, 3, 4}[:tt.n], buf)
		})
	}
}

func TestReceiveByte(t *testing.T) {
	regs := &uscitest.Regs{Rx: []byte{0x43}}
	m := newMaster(t, regs)
	b, err := m.ReceiveByte(0x3C)
	require.NoError(t, err)
	assert.Equal(t, byte(0x43), b)
}

func TestTransferValidation(t *testing.T) {
	regs := &uscitest.Regs{}
	m := newMaster(t, regs)

	assert.ErrorIs(t, m.Send(0x80, []byte{0}), usci.ErrAddress)
	assert.ErrorIs(t, m.Receive(0x80, make([]byte, 1)), usci.ErrAddress)
	assert.ErrorIs(t, m.Send(0x3C, nil), usci.ErrLength)
	assert.ErrorIs(t, m.Receive(0x3C, nil), usci.ErrLength)
	assert.Empty(t, regs.Ops)
}

func TestTimeouts(t *testing.T) {
	t.Run("stop never completes", func(t *testing.T) {
		regs := &uscitest.Regs{}
		m := newMaster(t, regs)
		regs.StallStop = true
		assert.ErrorIs(t, m.Send(0x3C, []byte{0}), usci.ErrTimeout)
		assert.False(t, m.Ready())
		assert.ErrorIs(t, m.Send(0x3C, []byte{0}), usci.ErrTimeout, "prior stop still pending")
	})
	t.Run("tx buffer never empties", func(t *testing.T) {
		regs := &uscitest.Regs{StallTx: true}
		m := newMaster(t, regs)
		assert.ErrorIs(t, m.Send(0x3C, []byte{0}), usci.ErrTimeout)
	})
	t.Run("start never completes", func(t *testing.T) {
		regs := &uscitest.Regs{StallStart: true}
		m := newMaster(t, regs)
		assert.ErrorIs(t, m.Receive(0x3C, make([]byte, 2)), usci.ErrTimeout)
		assert.False(t, m.Ready())
	})
}

func TestForceStop(t *testing.T) {
	regs := &uscitest.Regs{}
	m := newMaster(t, regs)
	require.NoError(t, m.ForceStop())
	assert.Equal(t, 1, regs.Stops)
	assert.True(t, m.Ready())

	regs.StallStop = true
	assert.ErrorIs(t, m.ForceStop(), usci.ErrTimeout)
}

func TestTx(t *testing.T) {
	regs := &uscitest.Regs{Rx: []byte{0xAA, 0xBB}}
	m := newMaster(t, regs)
	r := make([]byte, 2)
	require.NoError(t, m.Tx(0x3C, []byte{0x00}, r))
	require.Len(t, regs.Ops, 2)
	assert.True(t, regs.Ops[0].Write)
	assert.False(t, regs.Ops[1].Write)
	assert.Equal(t, []byte{0xAA, 0xBB}, r)
	assert.ErrorIs(t, m.Tx(0x3C, nil, nil), usci.ErrLength)
}

func TestSetSpeed(t *testing.T) {
	regs := &uscitest.Regs{}
	require.Error(t, usci.New(regs, nil).SetSpeed(physic.KiloHertz))

	m := newMaster(t, regs)
	require.NoError(t, m.SetSpeed(400*physic.KiloHertz))
	assert.Equal(t, uint16(2), regs.BaudRate)
	assert.Equal(t, "usci.Master{400kHz}", m.String())
}
