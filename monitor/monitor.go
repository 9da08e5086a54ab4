// Package monitor shows the state of a sampled PWM feedback loop on a text
// display.
//
// An asynchronous producer (typically an ADC conversion handler) feeds raw
// samples into a Sampler; a Loop periodically reads a snapshot and renders it.
package monitor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the refresh period of a Loop.
const DefaultInterval = 200 * time.Millisecond

// adcMax is the full scale value of a 12-bit conversion.
const adcMax = 4095

// Cell holds the latest value written by a producer. Loads never observe a
// partially written value.
type Cell struct {
	v atomic.Uint32
}

// Store publishes v.
func (c *Cell) Store(v uint32) { c.v.Store(v) }

// Load returns the latest published value.
func (c *Cell) Load() uint32 { return c.v.Load() }

// Reading is a snapshot of the feedback loop.
type Reading struct {
	Timer   uint16 // PWM timer counter
	Compare uint16 // PWM compare value
	Period  uint16 // PWM period
	Sensor  uint16 // Last ADC sample
}

// Duty returns the PWM duty cycle in percent.
func (r Reading) Duty() uint32 {
	if r.Period == 0 {
		return 0
	}
	return uint32(r.Compare) * 100 / uint32(r.Period)
}

// Source provides readings.
type Source interface {
	Read() Reading
}

// Sampler turns raw ADC samples into a PWM compare value proportional to the
// input. Feed may be called from any goroutine.
type Sampler struct {
	period  uint16
	timer   func() uint16
	sensor  Cell
	compare Cell
}

// NewSampler returns a Sampler for a PWM with the given period. timer reads
// the free running PWM counter; it can be nil.
func NewSampler(period uint16, timer func() uint16) *Sampler {
	return &Sampler{period: period, timer: timer}
}

// Feed records a 12-bit sample and updates the compare value. Samples above
// full scale count as full scale.
func (s *Sampler) Feed(adc uint16) {
	adc = min(adc, adcMax)
	s.sensor.Store(uint32(adc))
	s.compare.Store(uint32(adc) * uint32(s.period) / adcMax)
}

// Read implements Source.
func (s *Sampler) Read() Reading {
	r := Reading{
		Compare: uint16(s.compare.Load()),
		Period:  s.period,
		Sensor:  uint16(s.sensor.Load()),
	}
	if s.timer != nil {
		r.Timer = s.timer()
	}
	return r
}

// Printer renders text at a pixel column and page.
type Printer interface {
	Print(x, y int, s string) error
}

// Screen lays a Reading out on four lines.
type Screen struct {
	P Printer
}

// Lines returns the text rendered for r, one entry per page.
func (Screen) Lines(r Reading) []string {
	return []string{
		fmt.Sprintf("Timer:%-5d", r.Timer),
		fmt.Sprintf("Compare:%03d", r.Compare),
		fmt.Sprintf("Cycle:%03d%%", r.Duty()),
		fmt.Sprintf("Sensor:%04d", r.Sensor),
	}
}

// Render prints r starting at page 0.
func (s Screen) Render(r Reading) error {
	for page, line := range s.Lines(r) {
		if err := s.P.Print(0, page, line); err != nil {
			return fmt.Errorf("monitor: render line %d: %w", page, err)
		}
	}
	return nil
}

// Publisher receives every rendered reading.
type Publisher interface {
	Publish(r Reading) error
}

// Loop refreshes a Screen from a Source.
type Loop struct {
	Source    Source
	Screen    Screen
	Publisher Publisher // optional
	Interval  time.Duration
}

// Run refreshes until ctx is done. Display and publication errors are logged
// and the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		l.refresh()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Loop) refresh() {
	r := l.Source.Read()
	if glog.V(2) {
		glog.Infof("reading %+v duty=%d%%", r, r.Duty())
	}
	if err := l.Screen.Render(r); err != nil {
		glog.Warningf("display: %v", err)
	}
	if l.Publisher != nil {
		if err := l.Publisher.Publish(r); err != nil {
			glog.Warningf("publish: %v", err)
		}
	}
}
