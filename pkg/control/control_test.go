// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"math"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/skelterjohn/go.matrix"

	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// ============================================================================
// PID laws
// ============================================================================

func TestPID_Untuned(t *testing.T) {
	tests := []struct {
		name string
		pid  PID
		want bool
	}{
		{"zero", PID{}, true},
		{"fractional", PID{P: fixed.Half, D: fixed.Half}, true},
		{"p tuned", PID{P: fixed.One}, false},
		{"d tuned", PID{D: fixed.FromInt(3)}, false},
		{"i ignored", PID{I: fixed.FromInt(9)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.pid.Untuned(); got != tc.want {
				t.Errorf("Untuned() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPID_Rate(t *testing.T) {
	pid := PID{P: fixed.FromInt(2)}
	got := pid.Rate(fixed.FromInt(3), fixed.FromInt(1), fixed.One)
	if got != fixed.FromInt(4) {
		t.Errorf("Rate = %s, want 4", got)
	}
}

func TestPID_PD(t *testing.T) {
	pid := PID{P: fixed.FromInt(2), D: fixed.One}
	got := pid.PD(fixed.One, fixed.Half, fixed.FromInt(10), fixed.FromInt(500), fixed.FromInt(100))
	if got != fixed.FromInt(270) {
		t.Errorf("PD = %s, want 270", got)
	}

	// Derivative term scales with tick rate
	got = PID{D: fixed.One}.PD(fixed.One, 0, 0, fixed.One, fixed.FromInt(200))
	if got != fixed.FromInt(2) {
		t.Errorf("PD at 200 Hz = %s, want 2", got)
	}
}

// ============================================================================
// Mixer
// ============================================================================

func TestMix_DeadZone(t *testing.T) {
	for _, th := range []int{0, 100, -10, -49} {
		got := Mix(fixed.FromInt(th), estimate.YPR{Pitch: fixed.FromInt(40)})
		if got != [4]uint16{} {
			t.Errorf("throttle %d: speeds %v, want zero", th, got)
		}
	}
}

func TestMix_EngagedFloor(t *testing.T) {
	got := Mix(fixed.FromInt(-51), estimate.YPR{})
	if got != [4]uint16{180, 180, 180, 180} {
		t.Errorf("speeds %v, want floor 180", got)
	}

	got = Mix(fixed.FromInt(-60), estimate.YPR{Pitch: fixed.FromInt(200)})
	for i, s := range got {
		if s < MinEngaged {
			t.Errorf("motor %d speed %d below floor", i+1, s)
		}
	}
}

func TestMix_BoundaryNotFloored(t *testing.T) {
	got := Mix(fixed.FromInt(-50), estimate.YPR{})
	if got != [4]uint16{111, 111, 111, 111} {
		t.Errorf("speeds %v, want sqrt(12500)", got)
	}
}

func TestMix_Hover(t *testing.T) {
	got := Mix(fixed.FromInt(-400), estimate.YPR{})
	if got != [4]uint16{316, 316, 316, 316} {
		t.Errorf("speeds %v, want 316", got)
	}
}

func TestMix_Directions(t *testing.T) {
	th := fixed.FromInt(-400)
	base := Mix(th, estimate.YPR{})

	pitch := Mix(th, estimate.YPR{Pitch: fixed.FromInt(20)})
	if !(pitch[0] < base[0] && pitch[2] > base[2] && pitch[1] == base[1] && pitch[3] == base[3]) {
		t.Errorf("pitch mix %v vs base %v", pitch, base)
	}

	roll := Mix(th, estimate.YPR{Roll: fixed.FromInt(20)})
	if !(roll[1] < base[1] && roll[3] > base[3] && roll[0] == base[0] && roll[2] == base[2]) {
		t.Errorf("roll mix %v vs base %v", roll, base)
	}

	yaw := Mix(th, estimate.YPR{Yaw: fixed.FromInt(2)})
	if !(yaw[0] < base[0] && yaw[2] < base[2] && yaw[1] > base[1] && yaw[3] > base[3]) {
		t.Errorf("yaw mix %v vs base %v", yaw, base)
	}
}

func TestMix_ExtremesNeverPanic(t *testing.T) {
	values := []fixed.Num{fixed.Min, fixed.Max, 0, fixed.FromInt(-32768)}
	for _, th := range values {
		for _, v := range values {
			Mix(th, estimate.YPR{Yaw: v, Pitch: v, Roll: -v})
		}
	}
}

// TestMix_MatchesAllocationMatrix compares the integer mixer with the float
// allocation matrix a = M * [T P R Y]
func TestMix_MatchesAllocationMatrix(t *testing.T) {
	alloc := matrix.MakeDenseMatrixStacked([][]float64{
		{-0.25 * liftGain, -0.5 * liftGain, 0, -0.25 * yawGain},
		{-0.25 * liftGain, 0, -0.5 * liftGain, 0.25 * yawGain},
		{-0.25 * liftGain, 0.5 * liftGain, 0, -0.25 * yawGain},
		{-0.25 * liftGain, 0, 0.5 * liftGain, 0.25 * yawGain},
	})

	rng := newFuzzRng(t)
	for i := 0; i < getFuzzRounds(); i++ {
		th := fixed.FromInt(-60 - rng.Intn(740))
		u := estimate.YPR{
			Yaw:   fixed.FromBits(int32(rng.Intn(10*1024) - 5*1024)),
			Pitch: fixed.FromBits(int32(rng.Intn(40*1024) - 20*1024)),
			Roll:  fixed.FromBits(int32(rng.Intn(40*1024) - 20*1024)),
		}

		in := matrix.MakeDenseMatrix([]float64{th.Float(), u.Pitch.Float(), u.Roll.Float(), u.Yaw.Float()}, 4, 1)
		a := matrix.Product(alloc, in)

		got := Mix(th, u)
		for m := 0; m < 4; m++ {
			want := math.Sqrt(math.Max(a.Get(m, 0), 0))
			if want < MinEngaged {
				want = MinEngaged
			}
			if math.Abs(float64(got[m])-want) > 2 {
				t.Fatalf("round %d motor %d: got %d, want %.2f (T=%s u=%+v)", i, m+1, got[m], want, th, u)
			}
		}
	}
}
