package ssd1306

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/flavioheleno/ssd1306/image1bit"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

// Control bytes prefixing every transaction.
const (
	controlCommand    = 0x00
	controlDataStream = 0x40
)

// Commands.
const (
	cmdDisplayOff         = 0xAE
	cmdDisplayOn          = 0xAF
	cmdSetDisplayClockDiv = 0xD5
	cmdSetMultiplexRatio  = 0xA8
	cmdSetDisplayOffset   = 0xD3
	cmdSetStartLine       = 0x40
	cmdChargePump         = 0x8D
	cmdSetMemoryMode      = 0x20
	cmdSegmentRemap       = 0xA0
	cmdComScanDec         = 0xC8
	cmdSetComPins         = 0xDA
	cmdSetContrast        = 0x81
	cmdSetPrecharge       = 0xD9
	cmdSetVcomDeselect    = 0xDB
	cmdDisplayAllOnResume = 0xA4
	cmdNormalDisplay      = 0xA6
	cmdInvertDisplay      = 0xA7
	cmdSetColumnAddress   = 0x21
	cmdSetPageAddress     = 0x22
)

// Addr is the I²C address of the display.
const Addr = 0x3C

// clearGroups is the number of 16 byte data runs sent per page by Clear.
const clearGroups = 16

// ErrHalted is returned by drawing operations after Halt.
var ErrHalted = errors.New("ssd1306: halted")

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:    128,
	H:    64,
	Addr: Addr,
}

// Opts is the configuration for the SSD1306 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 128, multiple of 16, ≤128)
	H int // Height (default: 64, multiple of 8, ≤64)

	// The I²C address of the display (default: 0x3C).
	Addr uint16

	// LegacyFraming sends the data control byte as its own 1-byte
	// transaction before every glyph, matching captures of older firmware.
	LegacyFraming bool
}

// Cursor is the position where the next character is rendered.
type Cursor struct {
	X    int // Pixel column
	Page int // Page row, 8 pixels high
}

// window mirrors the controller addressing window. Every data byte lands at
// (col, page) and advances it, wrapping inside the programmed range.
type window struct {
	startCol, endCol   int
	startPage, endPage int
	col, page          int
}

func (w *window) advance() {
	w.col++
	if w.col > w.endCol {
		w.col = w.startCol
		w.page++
		if w.page > w.endPage {
			w.page = w.startPage
		}
	}
}

// Dev is the device handle for the SSD1306 display.
//
// Operations are serialized; a Dev can be shared between goroutines.
type Dev struct {
	mu sync.Mutex

	// Communication
	c      conn.Conn
	legacy bool

	// Display geometry
	rect  image.Rectangle
	pages int

	// Software mirror of the controller state
	win    window
	cursor Cursor
	buffer []byte                 // Display RAM shadow, image1bit.VerticalLSB layout
	next   *image1bit.VerticalLSB // Lazily allocated by Draw

	halted bool
}

// New creates a new SSD1306 device on an I²C bus and initializes it.
//
// opts can be nil to use DefaultOpts.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	o, err := validate(opts)
	if err != nil {
		return nil, err
	}
	d := newDev(&i2c.Dev{Bus: bus, Addr: o.Addr}, o)
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

func validate(opts *Opts) (Opts, error) {
	o := DefaultOpts
	if opts != nil {
		o.LegacyFraming = opts.LegacyFraming
		if opts.W != 0 {
			o.W = opts.W
		}
		if opts.H != 0 {
			o.H = opts.H
		}
		if opts.Addr != 0 {
			o.Addr = opts.Addr
		}
	}
	if o.W < 16 || o.W > 128 || o.W%16 != 0 {
		return o, fmt.Errorf("ssd1306: invalid width %d", o.W)
	}
	if o.H < 8 || o.H > 64 || o.H%8 != 0 {
		return o, fmt.Errorf("ssd1306: invalid height %d", o.H)
	}
	if o.Addr > 0x7F {
		return o, fmt.Errorf("ssd1306: invalid address 0x%X", o.Addr)
	}
	return o, nil
}

func newDev(c conn.Conn, o Opts) *Dev {
	d := &Dev{
		c:      c,
		legacy: o.LegacyFraming,
		rect:   image.Rect(0, 0, o.W, o.H),
		pages:  o.H / 8,
		buffer: make([]byte, o.W*o.H/8),
	}
	d.win = window{endCol: o.W - 1, endPage: d.pages - 1}
	return d
}

// Init sends the initialization sequence, one command per transaction, and
// turns the panel on.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cmd := range d.initSequence() {
		if err := d.command(cmd); err != nil {
			return fmt.Errorf("ssd1306: init: %w", err)
		}
	}
	d.halted = false
	return nil
}

func (d *Dev) initSequence() []byte {
	return []byte{
		cmdDisplayOff,
		cmdSetDisplayClockDiv, 0x80, // Suggested ratio
		cmdSetMultiplexRatio, byte(d.rect.Dy() - 1),
		cmdSetDisplayOffset, 0x00,
		cmdSetStartLine | 0x00,
		cmdChargePump, 0x14, // Internal VCC
		cmdSetMemoryMode, 0x00, // Horizontal addressing
		cmdSegmentRemap | 0x01, // Flip horizontally
		cmdComScanDec,          // Reverse scan direction
		cmdSetComPins, 0x12,
		cmdSetContrast, 0xCF,
		cmdSetPrecharge, 0xF1,
		cmdSetVcomDeselect, 0x40,
		cmdDisplayAllOnResume,
		cmdNormalDisplay,
		cmdDisplayOn,
	}
}

// Reset turns the panel off, clears it and turns it back on.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(cmdDisplayOff); err != nil {
		return err
	}
	if err := d.clear(); err != nil {
		return err
	}
	if err := d.command(cmdDisplayOn); err != nil {
		return err
	}
	d.halted = false
	return nil
}

// Command sends a single command byte.
func (d *Dev) Command(cmd byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(cmd)
}

func (d *Dev) command(cmd byte) error {
	return d.c.Tx([]byte{controlCommand, cmd}, nil)
}

// sendData transmits a data stream frame: the data control byte followed by
// the bytes in p. The shadow buffer and the window follow along.
func (d *Dev) sendData(p []byte) error {
	frame := make([]byte, 0, len(p)+1)
	frame = append(frame, controlDataStream)
	frame = append(frame, p...)
	if err := d.c.Tx(frame, nil); err != nil {
		return err
	}
	w := d.rect.Dx()
	for _, b := range p {
		d.buffer[d.win.page*w+d.win.col] = b
		d.win.advance()
	}
	return nil
}

// Clear blanks the whole display RAM.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.clear()
}

func (d *Dev) clear() error {
	if err := d.setCursor(0, 0); err != nil {
		return err
	}
	var zeros [16]byte
	for page := 0; page < d.pages; page++ {
		for group := 0; group < clearGroups; group++ {
			if err := d.sendData(zeros[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetCursor moves the addressing window to start at column and page. Out of
// range values are reset to 0. The window always ends at the bottom right
// corner of the panel.
func (d *Dev) SetCursor(column, page int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.setCursor(column, page)
}

func (d *Dev) setCursor(column, page int) error {
	column, page = d.clamp(column, page)
	lastCol, lastPage := d.rect.Dx()-1, d.pages-1
	for _, cmd := range []byte{
		cmdSetColumnAddress, byte(column), byte(lastCol),
		cmdSetPageAddress, byte(page), byte(lastPage),
	} {
		if err := d.command(cmd); err != nil {
			return err
		}
	}
	d.win = window{
		startCol: column, endCol: lastCol,
		startPage: page, endPage: lastPage,
		col: column, page: page,
	}
	d.cursor = Cursor{X: column, Page: page}
	return nil
}

func (d *Dev) clamp(column, page int) (int, int) {
	if column < 0 || column >= d.rect.Dx() {
		column = 0
	}
	if page < 0 || page >= d.pages {
		page = 0
	}
	return column, page
}

// Cursor returns the position where the next character will be rendered.
func (d *Dev) Cursor() Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// The image is composed over the current display content, text included, and
// only the pages that changed are sent.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	if d.next == nil {
		d.next = image1bit.NewVerticalLSB(d.rect)
	}
	copy(d.next.Pix, d.buffer)
	draw.Draw(d.next, dst, src, sp, draw.Src)
	return d.writePages(d.next.Pix, d.changedPages(d.next.Pix))
}

// Write writes a full frame of raw pixels in image1bit.VerticalLSB layout.
func (d *Dev) Write(pixels []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != len(d.buffer) {
		return 0, fmt.Errorf("ssd1306: invalid pixel stream length; expected %d bytes, got %d bytes", len(d.buffer), len(pixels))
	}
	all := make([]int, d.pages)
	for i := range all {
		all[i] = i
	}
	if err := d.writePages(pixels, all); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// changedPages returns the pages of next that differ from the shadow buffer.
func (d *Dev) changedPages(next []byte) []int {
	w := d.rect.Dx()
	var pages []int
	for p := 0; p < d.pages; p++ {
		for x := p * w; x < (p+1)*w; x++ {
			if d.buffer[x] != next[x] {
				pages = append(pages, p)
				break
			}
		}
	}
	return pages
}

func (d *Dev) writePages(pixels []byte, pages []int) error {
	w := d.rect.Dx()
	for _, p := range pages {
		if err := d.setCursor(0, p); err != nil {
			return err
		}
		row := pixels[p*w : (p+1)*w]
		for i := 0; i < w; i += 16 {
			if err := d.sendData(row[i : i+16]); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(level byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(cmdSetContrast); err != nil {
		return err
	}
	return d.command(level)
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(blackOnWhite bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	mode := byte(cmdNormalDisplay)
	if blackOnWhite {
		mode = cmdInvertDisplay
	}
	return d.command(mode)
}

// Halt turns off the display. Drawing operations fail until Init or Reset
// is called.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(cmdDisplayOff); err != nil {
		return err
	}
	d.halted = true
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1306.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

var _ display.Drawer = &Dev{}
