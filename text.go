package ssd1306

import (
	"errors"
	"fmt"

	"github.com/flavioheleno/ssd1306/font5x7"
)

// charWidth is the horizontal advance of one character: the glyph plus one
// blank column.
const charWidth = font5x7.Width + 1

// MaxWordLen is the longest word PrintWrapped accepts.
const MaxWordLen = 15

var (
	// ErrUnprintable is returned for characters outside 0x20-0x7E.
	ErrUnprintable = errors.New("ssd1306: unprintable character")
	// ErrWordTooLong is returned by PrintWrapped for words longer than
	// MaxWordLen.
	ErrWordTooLong = errors.New("ssd1306: word too long")
)

// Print renders s starting at pixel column x on page y.
//
// When the next character would reach the right edge, printing continues at
// column 0 of the next page. Nothing is sent if s holds a character without
// a glyph.
func (d *Dev) Print(x, y int, s string) error {
	if err := checkPrintable(s); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.print(x, y, s)
}

func checkPrintable(s string) error {
	for i := 0; i < len(s); i++ {
		if !font5x7.Printable(s[i]) {
			return fmt.Errorf("%w 0x%02X at offset %d", ErrUnprintable, s[i], i)
		}
	}
	return nil
}

// print tracks x and y unclamped. A start column past the right edge wraps
// before the first glyph, and lines past the last page land on page 0 where
// the cursor command clamps them.
func (d *Dev) print(x, y int, s string) error {
	x, y = max(x, 0), max(y, 0)
	if err := d.setCursor(x, y); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if x+charWidth >= d.rect.Dx() {
			x = 0
			y++
			if err := d.setCursor(x, y); err != nil {
				return err
			}
		}
		g, _ := font5x7.Glyph(s[i])
		if d.legacy {
			if err := d.c.Tx([]byte{controlDataStream}, nil); err != nil {
				return err
			}
		}
		if err := d.sendData([]byte{g[0], g[1], g[2], g[3], g[4], 0x00}); err != nil {
			return err
		}
		x += charWidth
		d.cursor.X = x
	}
	return nil
}

// PrintWrapped renders s starting at pixel column x on page y, breaking
// lines between words.
//
// Words are runs of non-space characters separated by one column of space.
// A word that would reach the right edge moves to column 0 of the next page
// and the following word starts right after it. Nothing is sent if a word is
// longer than MaxWordLen or s holds a character without a glyph.
func (d *Dev) PrintWrapped(x, y int, s string) error {
	if err := checkPrintable(s); err != nil {
		return err
	}
	words := splitWords(s)
	for _, w := range words {
		if len(w) > MaxWordLen {
			return fmt.Errorf("%w: %q has %d characters, max %d", ErrWordTooLong, w, len(w), MaxWordLen)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}

	x, y = max(x, 0), max(y, 0)
	for _, w := range words {
		width := len(w) * charWidth
		if x+width >= d.rect.Dx() {
			y++
			if err := d.print(0, y, w); err != nil {
				return err
			}
			x = width
			continue
		}
		if err := d.print(x, y, w); err != nil {
			return err
		}
		x += width + charWidth
	}
	return nil
}

// splitWords cuts s at single spaces. Consecutive spaces yield empty words,
// each of which still takes the room of one space.
func splitWords(s string) []string {
	var words []string
	for len(s) != 0 {
		i := 0
		for i < len(s) && s[i] != ' ' {
			i++
		}
		words = append(words, s[:i])
		s = s[i:]
		if len(s) != 0 && s[0] == ' ' {
			s = s[1:]
		}
	}
	return words
}
