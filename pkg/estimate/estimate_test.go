// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package estimate

import (
	"math"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
)

var tolerance = fixed.FromFloat(0.02)

func near(a, b, tol fixed.Num) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// axisQuat builds a rotation of angle rad about the unit axis (x, y, z)
func axisQuat(angle, x, y, z float64) hal.Quaternion {
	s, c := math.Sin(angle/2), math.Cos(angle/2)
	return hal.Quaternion{
		W: fixed.FromFloat(c),
		X: fixed.FromFloat(x * s),
		Y: fixed.FromFloat(y * s),
		Z: fixed.FromFloat(z * s),
	}
}

func newRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if env := os.Getenv("FUZZ_SEED"); env != "" {
		if s, err := strconv.ParseInt(env, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// ============================================================================
// Quaternion conversion
// ============================================================================

func TestFromQuaternion(t *testing.T) {
	tests := []struct {
		name string
		q    hal.Quaternion
		want YPR
	}{
		{"identity", hal.Quaternion{W: fixed.One}, YPR{}},
		{"roll", axisQuat(0.5, 1, 0, 0), YPR{Roll: fixed.FromFloat(0.5)}},
		{"pitch", axisQuat(0.3, 0, 1, 0), YPR{Pitch: fixed.FromFloat(-0.3)}},
		{"yaw", axisQuat(0.4, 0, 0, 1), YPR{Yaw: fixed.FromFloat(-0.4)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FromQuaternion(tc.q)
			if !near(got.Yaw, tc.want.Yaw, tolerance) ||
				!near(got.Pitch, tc.want.Pitch, tolerance) ||
				!near(got.Roll, tc.want.Roll, tolerance) {
				t.Errorf("got %s/%s/%s, want %s/%s/%s",
					got.Yaw, got.Pitch, got.Roll, tc.want.Yaw, tc.want.Pitch, tc.want.Roll)
			}
		})
	}
}

func TestFused_NegatesPitch(t *testing.T) {
	var f Fused
	got := f.Update(axisQuat(0.3, 0, 1, 0))
	if !near(got.Pitch, fixed.FromFloat(0.3), tolerance) {
		t.Errorf("pitch = %s, want 0.3", got.Pitch)
	}
}

func TestFused_UnwrapsYaw(t *testing.T) {
	var f Fused
	first := f.Update(axisQuat(-3.0, 0, 0, 1))
	if !near(first.Yaw, fixed.FromFloat(3.0), tolerance) {
		t.Fatalf("yaw = %s, want 3.0", first.Yaw)
	}

	second := f.Update(axisQuat(3.0, 0, 0, 1))
	want := fixed.FromFloat(-3.0) + fixed.TwoPi
	if !near(second.Yaw, want, tolerance) {
		t.Errorf("unwrapped yaw = %s, want %s", second.Yaw, want)
	}

	f.Reset()
	third := f.Update(axisQuat(3.0, 0, 0, 1))
	if !near(third.Yaw, fixed.FromFloat(-3.0), tolerance) {
		t.Errorf("after reset yaw = %s, want -3.0", third.Yaw)
	}
}

// ============================================================================
// Unwrapper
// ============================================================================

func TestUnwrapper_Crossings(t *testing.T) {
	var u Unwrapper
	hi, lo := fixed.FromFloat(3.0), fixed.FromFloat(-3.0)

	u.Unwrap(hi)
	if got := u.Unwrap(lo); got != lo+fixed.TwoPi {
		t.Errorf("up crossing: got %s", got)
	}
	u.Unwrap(hi)
	if u.Offset() != 0 {
		t.Errorf("down crossing: offset %s, want 0", u.Offset())
	}
	u.Unwrap(lo)
	if u.Offset() != fixed.TwoPi {
		t.Errorf("offset %s, want 2pi", u.Offset())
	}
	u.Reset()
	if u.Offset() != 0 || u.Unwrap(lo) != lo {
		t.Error("Reset did not clear state")
	}
}

func TestUnwrapper_NoDriftWithoutCrossings(t *testing.T) {
	rng := newRng(t)
	var u Unwrapper
	limit := int(fixed.FromFloat(2.5))

	for i := 0; i < 5000; i++ {
		v := fixed.Num(rng.Intn(2*limit+1) - limit)
		if got := u.Unwrap(v); got != v {
			t.Fatalf("sample %d: got %s, want %s", i, got, v)
		}
	}
}

func TestUnwrapper_OffsetCountsCrossings(t *testing.T) {
	rng := newRng(t)
	var u Unwrapper
	hi, lo := fixed.FromFloat(3.1), fixed.FromFloat(-3.1)
	net := 0
	last := hi
	u.Unwrap(last)

	for i := 0; i < 1000; i++ {
		next := hi
		if rng.Intn(2) == 0 {
			next = lo
		}
		switch {
		case last == hi && next == lo:
			net++
		case last == lo && next == hi:
			net--
		}
		u.Unwrap(next)
		last = next
	}

	if u.Offset() != fixed.TwoPi*fixed.Num(net) {
		t.Errorf("offset %s after %d net crossings", u.Offset(), net)
	}
}

// ============================================================================
// Filters
// ============================================================================

func TestLowPass_Coefficients(t *testing.T) {
	f := NewLowPass(DefaultSampleRate, DefaultCutoff)
	if f.b0 != fixed.FromBits(51) || f.b1 != f.b0 || f.a1 != fixed.FromBits(922) {
		t.Errorf("b0=%d b1=%d a1=%d", f.b0, f.b1, f.a1)
	}
}

func TestLowPass_StepResponse(t *testing.T) {
	f := NewLowPass(DefaultSampleRate, DefaultCutoff)
	target := fixed.FromInt(10)

	var y fixed.Num
	prev := fixed.Num(-1)
	for i := 0; i < 300; i++ {
		y = f.Filter(target)
		if y < prev {
			t.Fatalf("step response not monotonic at %d", i)
		}
		prev = y
	}
	if !near(y, target, fixed.FromFloat(0.05)) {
		t.Errorf("settled at %s, want ~%s", y, target)
	}
}

func TestLowPass_Prime(t *testing.T) {
	f := NewLowPass(DefaultSampleRate, DefaultCutoff)
	v := fixed.FromInt(-250)
	f.Prime(v)
	if got := f.Filter(v); !near(got, v, fixed.FromFloat(0.5)) {
		t.Errorf("primed output %s, want ~%s", got, v)
	}
}

func TestComplementary_FollowsAccelerometer(t *testing.T) {
	c := NewComplementaryAxis()
	tick := fixed.FromInt(100)
	acc := fixed.FromFloat(0.3)

	for i := 0; i < 10; i++ {
		if got := c.Update(fixed.FromFloat(0.1), acc, tick); got != acc {
			t.Fatalf("angle %s, want %s", got, acc)
		}
	}
}

func TestComplementary_BiasTracksGyroOffset(t *testing.T) {
	c := NewComplementaryAxis()
	tick := fixed.FromInt(100)
	rate := fixed.FromInt(5)

	for i := 0; i < 2000; i++ {
		c.Update(rate, 0, tick)
	}
	if c.Bias <= 0 || c.Bias > rate {
		t.Errorf("bias %s, want in (0, %s]", c.Bias, rate)
	}
}

// ============================================================================
// Raw estimator
// ============================================================================

func TestRaw_Level(t *testing.T) {
	r := NewRaw(100)
	got := r.Update(hal.RawSample{Accel: [3]int16{0, 0, 16384}})
	if !near(got.Yaw, 0, 1) || !near(got.Pitch, 0, 1) || !near(got.Roll, 0, 1) {
		t.Errorf("level sample gave %+v", got)
	}
}

func TestRaw_TiltAndYawRate(t *testing.T) {
	r := NewRaw(100)
	s := hal.RawSample{
		Accel: [3]int16{8192, 0, 8192},
		Gyro:  [3]int16{0, 0, 100},
	}

	var got YPR
	for i := 0; i < 200; i++ {
		got = r.Update(s)
	}

	if !near(got.Pitch, fixed.FromFloat(-math.Pi/4), tolerance) {
		t.Errorf("pitch %s, want -pi/4", got.Pitch)
	}
	wantRate := fixed.FromInt(100).Mul(DegToRad)
	if !near(got.Yaw, wantRate, fixed.FromFloat(0.05)) {
		t.Errorf("yaw rate %s, want ~%s", got.Yaw, wantRate)
	}
}

func TestRaw_UnwrapsRoll(t *testing.T) {
	r := NewRaw(100)
	r.Update(hal.RawSample{Accel: [3]int16{0, 100, -16384}})
	got := r.Update(hal.RawSample{Accel: [3]int16{0, -100, -16384}})
	if got.Roll < fixed.FromFloat(3.0) {
		t.Errorf("roll %s not unwrapped", got.Roll)
	}

	r.Reset()
	got = r.Update(hal.RawSample{Accel: [3]int16{0, -100, -16384}})
	if got.Roll > fixed.FromFloat(-3.0) {
		t.Errorf("roll %s after reset, want ~ -pi", got.Roll)
	}
}
