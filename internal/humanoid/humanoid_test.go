package humanoid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xkilldash9x/listpilot/internal/config"
)

type recordingSleeper struct {
	slept []time.Duration
	err   error
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return r.err
}

func TestRhythm_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minMs := rapid.IntRange(0, 5000).Draw(rt, "min")
		span := rapid.IntRange(0, 5000).Draw(rt, "span")
		seed := rapid.Int64Range(1, 1<<40).Draw(rt, "seed")

		r := NewRhythm(seed)
		dr := config.DurationRange{Min: time.Duration(minMs) * time.Millisecond, Max: time.Duration(minMs+span) * time.Millisecond}
		d := r.Duration(dr)
		assert.GreaterOrEqual(rt, d, dr.Min)
		assert.LessOrEqual(rt, d, dr.Max)

		ir := config.IntRange{Min: minMs, Max: minMs + span}
		n := r.Int(ir)
		assert.GreaterOrEqual(rt, n, ir.Min)
		assert.LessOrEqual(rt, n, ir.Max)
	})
}

func TestRhythm_DegenerateRange(t *testing.T) {
	r := NewRhythm(7)
	assert.Equal(t, time.Second, r.Duration(config.DurationRange{Min: time.Second, Max: time.Second}))
	assert.Equal(t, 3, r.Int(config.IntRange{Min: 3, Max: 1}))
}

func TestRhythm_SameSeedSameSequence(t *testing.T) {
	dr := config.DurationRange{Min: 0, Max: time.Hour}
	a, b := NewRhythm(42), NewRhythm(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Duration(dr), b.Duration(dr))
	}
}

func TestRhythm_ConcurrentUse(t *testing.T) {
	r := NewRhythm(1)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Int(config.IntRange{Min: 200, Max: 650})
			}
		}()
	}
	wg.Wait()
}

func TestHumanoid_DefaultRanges(t *testing.T) {
	h := NewDefault(NewRhythm(3))

	testCases := []struct {
		delay    Delay
		min, max time.Duration
	}{
		{DelaySettle, 500 * time.Millisecond, 2500 * time.Millisecond},
		{DelayHoverGap, 100 * time.Millisecond, 500 * time.Millisecond},
		{DelayKey, 45 * time.Millisecond, 180 * time.Millisecond},
		{DelayWait, time.Second, 3 * time.Second},
		{DelayScrollPause, 400 * time.Millisecond, 1200 * time.Millisecond},
		{DelayUpload, 1200 * time.Millisecond, 2600 * time.Millisecond},
		{DelayUnresolved, 800 * time.Millisecond, 1600 * time.Millisecond},
		{DelayRiskPause, 8 * time.Second, 12 * time.Second},
	}
	for _, tc := range testCases {
		t.Run(string(tc.delay), func(t *testing.T) {
			for i := 0; i < 50; i++ {
				d := h.Draw(tc.delay)
				require.GreaterOrEqual(t, d, tc.min)
				require.LessOrEqual(t, d, tc.max)
			}
		})
	}

	assert.Equal(t, 4, h.ScrollSteps())
	for i := 0; i < 50; i++ {
		delta := h.ScrollDelta()
		require.GreaterOrEqual(t, delta, 200)
		require.LessOrEqual(t, delta, 650)
	}
}

func TestHumanoid_Pause(t *testing.T) {
	h := NewDefault(NewRhythm(9))
	s := &recordingSleeper{}

	require.NoError(t, h.Pause(context.Background(), s, DelayRiskPause))
	require.Len(t, s.slept, 1)
	assert.GreaterOrEqual(t, s.slept[0], 8*time.Second)

	s.err = errors.New("context canceled")
	assert.Error(t, h.Pause(context.Background(), s, DelayWait))
}

func TestHumanoid_UnknownDelay(t *testing.T) {
	h := NewDefault(nil)
	_, err := h.Range("blink")
	assert.Error(t, err)
	assert.Zero(t, h.Draw("blink"))

	zeroSteps := New(config.HumanoidConfig{}, nil)
	assert.Equal(t, 1, zeroSteps.ScrollSteps())
}
