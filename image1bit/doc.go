// Package image1bit provides a 1-bit image format for the SSD1306 display
// controller.
//
// The SSD1306 GDDRAM is split into pages, each page an horizontal band of 8
// rows. Every byte holds 8 vertical pixels of one column, least significant
// bit on top.
//
// Memory layout example for the first two columns of page 0:
//
//	Column:  0     1
//	Rows:    0-7   0-7
//	Bytes:   0x01  0x80
//	         (0x01 = only row 0 lit)
//	         (0x80 = only row 7 lit)
//
// This package provides:
//
// - Bit: A color type, on or off
// - BitModel: A color model converting standard Go colors to Bit
// - VerticalLSB: An image.Image implementation using the page layout
//
// Example usage:
//
//	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
//	img.SetBit(10, 20, image1bit.On)
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.On), image.Point{}, draw.Src)
package image1bit
