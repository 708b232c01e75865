// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import "time"

// ManualClock advances only when the core waits, so a tick takes no real
// time. Delays are recorded.
type ManualClock struct {
	now    time.Duration
	Period time.Duration
	Ticks  int
	Delays []time.Duration
}

// NewManualClock returns a clock with the tick period for tickRate Hz
func NewManualClock(tickRate int) *ManualClock {
	return &ManualClock{Period: time.Second / time.Duration(tickRate)}
}

// Now implements hal.Clock
func (c *ManualClock) Now() time.Duration {
	return c.now
}

// WaitForNextTick implements hal.Clock
func (c *ManualClock) WaitForNextTick() {
	c.now += c.Period
	c.Ticks++
}

// Delay implements hal.Clock
func (c *ManualClock) Delay(d time.Duration) {
	c.now += d
	c.Delays = append(c.Delays, d)
}

// Advance moves the clock forward without counting a tick
func (c *ManualClock) Advance(d time.Duration) {
	c.now += d
}

// RealClock paces ticks with a wall-clock ticker
type RealClock struct {
	start  time.Time
	ticker *time.Ticker
}

// NewRealClock starts a ticker at tickRate Hz
func NewRealClock(tickRate int) *RealClock {
	return &RealClock{
		start:  time.Now(),
		ticker: time.NewTicker(time.Second / time.Duration(tickRate)),
	}
}

// Now implements hal.Clock
func (c *RealClock) Now() time.Duration {
	return time.Since(c.start)
}

// WaitForNextTick implements hal.Clock
func (c *RealClock) WaitForNextTick() {
	<-c.ticker.C
}

// Delay implements hal.Clock
func (c *RealClock) Delay(d time.Duration) {
	time.Sleep(d)
}

// Stop releases the ticker
func (c *RealClock) Stop() {
	c.ticker.Stop()
}
