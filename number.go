package ssd1306

// centerOffsets is the left pixel column that centers a grouped number of a
// given digit count on a 128 pixel wide panel. Index 0 is unused.
var centerOffsets = [11]int{
	0,
	61, 58, 55, // 1-3 digits
	49, 46, 43, // 4-6 digits + 1 separator
	37, 34, 31, // 7-9 digits + 2 separators
	25, // 10 digits + 3 separators
}

// CountDigits returns the number of decimal digits of v, 1 to 10.
func CountDigits(v uint32) int {
	n := 1
	for v >= 10 {
		v /= 10
		n++
	}
	return n
}

// FormatUint returns the decimal representation of v with a ',' between
// every group of three digits, e.g. "1,234,567".
func FormatUint(v uint32) string {
	var buf [13]byte
	return string(AppendUint(buf[:0], v))
}

// AppendUint appends the grouped decimal representation of v to dst.
func AppendUint(dst []byte, v uint32) []byte {
	start := len(dst)
	group := 0
	for {
		if group == 3 {
			dst = append(dst, ',')
			group = 0
		}
		dst = append(dst, byte('0'+v%10))
		group++
		v /= 10
		if v == 0 {
			break
		}
	}
	reverse(dst[start:])
	return dst
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// CenterOffset returns the pixel column where a grouped number with the given
// digit count starts when centered on a panel of width w.
func CenterOffset(w, digits int) int {
	if digits < 1 {
		return 0
	}
	if w == DefaultOpts.W && digits < len(centerOffsets) {
		return centerOffsets[digits]
	}
	chars := digits + (digits-1)/3
	if off := (w - chars*charWidth) / 2; off > 0 {
		return off
	}
	return 0
}

// PrintNumber renders v in grouped decimal form at (x, y), or horizontally
// centered on page y when centered is set.
func (d *Dev) PrintNumber(x, y int, v uint32, centered bool) error {
	var buf [13]byte
	s := string(AppendUint(buf[:0], v))
	if centered {
		x = CenterOffset(d.rect.Dx(), CountDigits(v))
	}
	return d.Print(x, y, s)
}
