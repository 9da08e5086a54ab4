package ssd1306

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/flavioheleno/ssd1306/font5x7"
)

// glyphColumns returns the 6 columns sent for c.
func glyphColumns(c byte) []byte {
	g, _ := font5x7.Glyph(c)
	return append(g[:], 0x00)
}

// shadowAt returns n bytes of the display RAM shadow at (x, page).
func shadowAt(d *Dev, x, page, n int) []byte {
	off := page*d.rect.Dx() + x
	return d.buffer[off : off+n]
}

func TestPrintFrames(t *testing.T) {
	d, rec := newTestDev(t, nil)
	if err := d.Print(12, 2, "Hi"); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 6+2 {
		t.Fatalf("Print() sent %d transactions, want 8", len(rec.Ops))
	}
	if got, want := commands(t, rec.Ops[:6]), []byte{0x21, 12, 127, 0x22, 2, 7}; !bytes.Equal(got, want) {
		t.Errorf("Print() window = % X, want % X", got, want)
	}
	for i, c := range []byte("Hi") {
		want := append([]byte{0x40}, glyphColumns(c)...)
		if got := rec.Ops[6+i].W; !bytes.Equal(got, want) {
			t.Errorf("glyph %q = % X, want % X", c, got, want)
		}
	}
	if got, want := d.Cursor(), (Cursor{X: 24, Page: 2}); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
	if got := shadowAt(d, 12, 2, 6); !bytes.Equal(got, glyphColumns('H')) {
		t.Errorf("shadow = % X, want glyph H", got)
	}
}

func TestPrintLegacyFraming(t *testing.T) {
	d, rec := newTestDev(t, &Opts{LegacyFraming: true})
	if err := d.Print(0, 0, "A"); err != nil {
		t.Fatal(err)
	}
	ops := rec.Ops[6:]
	if len(ops) != 2 {
		t.Fatalf("Print() sent %d data transactions, want 2", len(ops))
	}
	if !bytes.Equal(ops[0].W, []byte{0x40}) {
		t.Errorf("first op = % X, want lone data control byte", ops[0].W)
	}
	if len(ops[1].W) != 7 {
		t.Errorf("glyph op has %d bytes, want 7", len(ops[1].W))
	}
	// The lone control byte carries no pixel.
	if got := shadowAt(d, 0, 0, 6); !bytes.Equal(got, glyphColumns('A')) {
		t.Errorf("shadow = % X, want glyph A", got)
	}
}

func TestPrintWrapsAfter21Characters(t *testing.T) {
	d, rec := newTestDev(t, nil)
	if err := d.Print(0, 0, strings.Repeat("A", 22)); err != nil {
		t.Fatal(err)
	}
	// Window, 21 glyphs, window on the next page, last glyph.
	if len(rec.Ops) != 6+21+6+1 {
		t.Fatalf("Print() sent %d transactions, want 34", len(rec.Ops))
	}
	if got, want := commands(t, rec.Ops[27:33]), []byte{0x21, 0, 127, 0x22, 1, 7}; !bytes.Equal(got, want) {
		t.Errorf("wrap window = % X, want % X", got, want)
	}
	if got := shadowAt(d, 120, 0, 6); !bytes.Equal(got, glyphColumns('A')) {
		t.Errorf("21st glyph = % X, want at column 120", got)
	}
	if got, want := d.Cursor(), (Cursor{X: 6, Page: 1}); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
}

func TestPrintWrapsFromLastPage(t *testing.T) {
	d, _ := newTestDev(t, nil)
	if err := d.Print(120, 7, "AB"); err != nil {
		t.Fatal(err)
	}
	if got, want := d.Cursor(), (Cursor{X: 6, Page: 0}); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
}

func TestPrintOutOfRangeStart(t *testing.T) {
	d, rec := newTestDev(t, nil)
	if err := d.Print(200, 9, "A"); err != nil {
		t.Fatal(err)
	}
	if got, want := commands(t, rec.Ops[:6]), []byte{0x21, 0, 127, 0x22, 0, 7}; !bytes.Equal(got, want) {
		t.Errorf("window = % X, want % X", got, want)
	}
}

func TestPrintStartPastRightEdge(t *testing.T) {
	d, rec := newTestDev(t, nil)
	if err := d.Print(200, 2, "A"); err != nil {
		t.Fatal(err)
	}
	// Clamped window, wrap window on the next page, one glyph.
	if len(rec.Ops) != 6+6+1 {
		t.Fatalf("Print() sent %d transactions, want 13", len(rec.Ops))
	}
	if got, want := commands(t, rec.Ops[:6]), []byte{0x21, 0, 127, 0x22, 2, 7}; !bytes.Equal(got, want) {
		t.Errorf("window = % X, want % X", got, want)
	}
	if got, want := commands(t, rec.Ops[6:12]), []byte{0x21, 0, 127, 0x22, 3, 7}; !bytes.Equal(got, want) {
		t.Errorf("wrap window = % X, want % X", got, want)
	}
	if got := shadowAt(d, 0, 3, 6); !bytes.Equal(got, glyphColumns('A')) {
		t.Errorf("shadow at (0, 3) = % X, want glyph A", got)
	}
	if got, want := d.Cursor(), (Cursor{X: 6, Page: 3}); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
}

func TestPrintPastLastPagePinsToFirst(t *testing.T) {
	d, _ := newTestDev(t, nil)
	s := strings.Repeat("A", 21) + strings.Repeat("B", 21) + "C"
	if err := d.Print(0, 7, s); err != nil {
		t.Fatal(err)
	}
	if got := shadowAt(d, 0, 0, 6); !bytes.Equal(got, glyphColumns('C')) {
		t.Errorf("shadow at (0, 0) = % X, want glyph C", got)
	}
	if got := shadowAt(d, 6, 0, 6); !bytes.Equal(got, glyphColumns('B')) {
		t.Errorf("shadow at (6, 0) = % X, want glyph B", got)
	}
	if got := shadowAt(d, 0, 1, 6); !bytes.Equal(got, make([]byte, 6)) {
		t.Errorf("shadow at (0, 1) = % X, want blank", got)
	}
	if got, want := d.Cursor(), (Cursor{X: 6, Page: 0}); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
}

func TestPrintRejectsUnprintable(t *testing.T) {
	for _, s := range []string{"a\nb", "tab\t", "caf\xc3\xa9", "\x7f"} {
		d, rec := newTestDev(t, nil)
		if err := d.Print(0, 0, s); !errors.Is(err, ErrUnprintable) {
			t.Errorf("Print(%q) error = %v, want ErrUnprintable", s, err)
		}
		if err := d.PrintWrapped(0, 0, s); !errors.Is(err, ErrUnprintable) {
			t.Errorf("PrintWrapped(%q) error = %v, want ErrUnprintable", s, err)
		}
		if len(rec.Ops) != 0 {
			t.Errorf("Print(%q) sent %d transactions", s, len(rec.Ops))
		}
	}
}

func TestPrintWrappedNarrowPanel(t *testing.T) {
	d, _ := newTestDev(t, &Opts{W: 32, H: 64})
	if err := d.PrintWrapped(0, 2, "AB CDE"); err != nil {
		t.Fatal(err)
	}
	for i, c := range []byte("AB") {
		if got := shadowAt(d, i*6, 2, 6); !bytes.Equal(got, glyphColumns(c)) {
			t.Errorf("%q at (%d, 2) = % X", c, i*6, got)
		}
	}
	for i, c := range []byte("CDE") {
		if got := shadowAt(d, i*6, 3, 6); !bytes.Equal(got, glyphColumns(c)) {
			t.Errorf("%q at (%d, 3) = % X", c, i*6, got)
		}
	}
}

func TestPrintWrappedLayout(t *testing.T) {
	tests := []struct {
		name       string
		x          int
		s          string
		wantCursor Cursor
	}{
		{"single line", 0, "one two", Cursor{X: 42, Page: 0}},
		{"trailing space consumed", 0, "one ", Cursor{X: 18, Page: 0}},
		{"double space keeps a gap", 0, "a  b", Cursor{X: 24, Page: 0}},
		// 15 characters from column 60 reach 150 and wrap.
		{"wrap from indent", 60, "abcdefghijklmno", Cursor{X: 90, Page: 1}},
		// "abcdefghij" ends at 60, the space at 66, "klmnopqrstu" would reach 132.
		{"wrap second word", 0, "abcdefghij klmnopqrstu", Cursor{X: 66, Page: 1}},
		// After a wrap the next word follows the wrapped one without a gap.
		{"word after wrap", 0, "abcdefghij klmnopqrstu v", Cursor{X: 72, Page: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDev(t, nil)
			if err := d.PrintWrapped(tt.x, 0, tt.s); err != nil {
				t.Fatal(err)
			}
			if got := d.Cursor(); got != tt.wantCursor {
				t.Errorf("Cursor() = %+v, want %+v", got, tt.wantCursor)
			}
		})
	}
}

func TestPrintWrappedWordTooLong(t *testing.T) {
	d, rec := newTestDev(t, nil)
	err := d.PrintWrapped(0, 0, "short "+strings.Repeat("x", MaxWordLen+1))
	if !errors.Is(err, ErrWordTooLong) {
		t.Errorf("PrintWrapped() error = %v, want ErrWordTooLong", err)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("PrintWrapped() sent %d transactions", len(rec.Ops))
	}

	if err := d.PrintWrapped(0, 0, strings.Repeat("x", MaxWordLen)); err != nil {
		t.Errorf("PrintWrapped() of %d characters error = %v", MaxWordLen, err)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"AB CDE", []string{"AB", "CDE"}},
		{"AB ", []string{"AB"}},
		{" AB", []string{"", "AB"}},
		{"A  B", []string{"A", "", "B"}},
	}
	for _, tt := range tests {
		got := splitWords(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitWords(%q) = %q, want %q", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitWords(%q) = %q, want %q", tt.in, got, tt.want)
				break
			}
		}
	}
}
