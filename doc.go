// Package ssd1306 controls a SSD1306 OLED display via I²C.
//
// The SSD1306 is a monochrome OLED controller driving up to 128×64 pixels.
// Its display RAM is organised in pages: horizontal bands of 8 rows where
// every byte holds one column of 8 pixels. This driver renders text with a
// fixed 5×7 font, one 6 pixel wide cell per character, and implements the
// display.Drawer interface from periph.io for images.
//
// # Hardware Connection
//
// Connect the SSD1306 display to your system via I²C:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCL         → I²C Clock (SCL)
//	SDA         → I²C Data (SDA)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"github.com/flavioheleno/ssd1306"
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//		b, _ := i2creg.Open("")
//		defer b.Close()
//
//		dev, _ := ssd1306.New(b, nil) // 128×64 at 0x3C
//		defer dev.Halt()
//
//		dev.Clear()
//		dev.Print(0, 0, "Hello")
//		dev.PrintWrapped(0, 2, "long text is broken between words")
//		dev.PrintNumber(0, 7, 1234567, true) // "1,234,567" centered
//	}
//
// On microcontrollers without an operating system I²C driver, the usci
// package provides a polled bus master implementing i2c.Bus on top of a
// USCI_B register file.
//
// # Coordinates
//
// Text positions are given as a pixel column (0-127) and a page (0-7).
// Positions outside the panel silently fall back to 0. Text running past the
// right edge continues on the next page, and past the last page on page 0.
//
// # Write-only Controller
//
// The controller is never read back. The driver mirrors the addressing
// window and the display RAM as it sends commands and data, which lets Draw
// compose images over text and only send the pages that changed.
//
// # Transactions
//
// Every command is sent as its own two byte transaction, control byte 0x00
// followed by the command. Pixel data is sent as control byte 0x40 followed
// by the column bytes. Opts.LegacyFraming additionally sends a lone 0x40
// before every glyph, as older firmware did.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
package ssd1306
