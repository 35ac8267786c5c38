package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/llmclient"
)

func clickSave() schemas.ActionItem {
	return schemas.ActionItem{Kind: schemas.ActionClick, Target: "Save", Confidence: 0.9}
}

func done() schemas.ActionItem {
	return schemas.ActionItem{Kind: schemas.ActionDone, Reason: "saved"}
}

func newTestLoop(decider DecisionMaker, opts ...LoopOption) *Loop {
	logger, _ := newObservedLogger()
	human := newTestHumanoid()
	return NewLoop(decider, NewExecutor(NewResolver(logger), human, logger), human, logger, opts...)
}

func TestLoop_SucceedsOnTerminalAction(t *testing.T) {
	defer goleak.VerifyNone(t)

	decider := &scriptedDecider{decisions: []schemas.ActionDecision{
		{Actions: []schemas.ActionItem{clickSave()}, Risk: schemas.RiskNone},
		{Actions: []schemas.ActionItem{clickSave(), done(), clickSave()}, Risk: schemas.RiskNone},
	}}
	surface := newFakeSurface().with(schemas.LocateByRoleButton, "Save", "#save")

	err := newTestLoop(decider).Run(context.Background(), surface, "Save the listing", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, decider.calls, "no cycle runs after the terminal one")
	assert.Len(t, surface.eventsWithPrefix("snapshot"), 2)
	assert.Len(t, surface.eventsWithPrefix("click:"), 2, "items after done are not dispatched")
}

func TestLoop_ExhaustsBudget(t *testing.T) {
	defer goleak.VerifyNone(t)

	decider := &scriptedDecider{decisions: []schemas.ActionDecision{
		{Actions: []schemas.ActionItem{clickSave()}, Risk: schemas.RiskPopup},
	}}
	surface := newFakeSurface().with(schemas.LocateByRoleButton, "Save", "#save")

	err := newTestLoop(decider).Run(context.Background(), surface, "Save the listing", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActionBudgetExhausted)

	var exhausted *BudgetExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Cycles)
	assert.Equal(t, schemas.RiskPopup, exhausted.LastRisk)
	assert.Equal(t, "could not complete task within 3 cycles (last risk: popup)", err.Error())

	assert.Equal(t, 3, decider.calls)
	assert.Len(t, surface.eventsWithPrefix("click:"), 3, "one click per dispatched action")
}

func TestLoop_DefaultBudget(t *testing.T) {
	decider := &scriptedDecider{decisions: []schemas.ActionDecision{
		{Actions: []schemas.ActionItem{{Kind: schemas.ActionWait}}},
	}}
	err := newTestLoop(decider).Run(context.Background(), newFakeSurface(), "x", 0)
	assert.ErrorIs(t, err, ErrActionBudgetExhausted)
	assert.Equal(t, DefaultMaxCycles, decider.calls)
}

func TestLoop_RiskPausePrecedesDispatch(t *testing.T) {
	for _, risk := range []schemas.Risk{schemas.RiskCaptcha, schemas.RiskTwoFactor} {
		t.Run(string(risk), func(t *testing.T) {
			decider := &scriptedDecider{decisions: []schemas.ActionDecision{
				{Actions: []schemas.ActionItem{clickSave(), done()}, Risk: risk},
			}}
			surface := newFakeSurface().with(schemas.LocateByRoleButton, "Save", "#save")

			require.NoError(t, newTestLoop(decider).Run(context.Background(), surface, "x", 2))

			events := surface.allEvents()
			require.GreaterOrEqual(t, len(events), 2)
			assert.Equal(t, "snapshot", events[0])
			assert.Equal(t, "sleep", events[1], "the pause comes before any interaction")
			require.NotEmpty(t, surface.sleeps)
			assert.GreaterOrEqual(t, surface.sleeps[0], 8*time.Second)
			assert.Len(t, surface.eventsWithPrefix("click:"), 1, "actions still dispatch after the pause")
		})
	}
}

func TestLoop_NonManualRisksDoNotPause(t *testing.T) {
	decider := &scriptedDecider{decisions: []schemas.ActionDecision{
		{Actions: []schemas.ActionItem{done()}, Risk: schemas.RiskError},
	}}
	surface := newFakeSurface()

	require.NoError(t, newTestLoop(decider).Run(context.Background(), surface, "x", 2))
	assert.Empty(t, surface.sleeps)
}

func TestLoop_ModelUnavailableIsFatal(t *testing.T) {
	decider := &scriptedDecider{err: fmt.Errorf("decision request failed: %w", llmclient.ErrModelUnavailable)}
	surface := newFakeSurface()

	err := newTestLoop(decider).Run(context.Background(), surface, "x", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, llmclient.ErrModelUnavailable)
	assert.NotErrorIs(t, err, ErrActionBudgetExhausted)
	assert.Equal(t, 1, decider.calls)
}

func TestLoop_SnapshotFailureIsFatal(t *testing.T) {
	decider := &scriptedDecider{decisions: []schemas.ActionDecision{{Actions: []schemas.ActionItem{done()}}}}
	surface := newFakeSurface()
	surface.snapshotErr = errors.New("target closed")

	err := newTestLoop(decider).Run(context.Background(), surface, "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture snapshot")
	assert.Zero(t, decider.calls)
}

func TestLoop_PersistsSnapshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	decider := &scriptedDecider{decisions: []schemas.ActionDecision{
		{Actions: []schemas.ActionItem{{Kind: schemas.ActionWait}}},
		{Actions: []schemas.ActionItem{done()}},
	}}

	require.NoError(t, newTestLoop(decider, WithSnapshotDir(dir)).Run(context.Background(), newFakeSurface(), "x", 3))

	for _, name := range []string{"llm_cycle_0.png", "llm_cycle_1.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), data)
	}
	_, err := os.Stat(filepath.Join(dir, "llm_cycle_2.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoop_CanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	decider := &scriptedDecider{decisions: []schemas.ActionDecision{{Actions: []schemas.ActionItem{{Kind: schemas.ActionWait}}}}}

	err := newTestLoop(decider).Run(ctx, newFakeSurface(), "x", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, decider.calls)
}

func TestDefaultLoop_WithModel(t *testing.T) {
	gen := new(MockTextGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("not json at all", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"actions":[{"action":"type","target":"Price","value":"799"},{"action":"done"}]}`, nil).Once()
	logger, _ := newObservedLogger()
	surface := newFakeSurface().with(schemas.LocateByLabel, "Price", "#price")

	loop := NewDefaultLoop(gen, newTestHumanoid(), logger)
	require.NoError(t, loop.Run(context.Background(), surface, "Update price to 799", 4))

	assert.Equal(t, []string{"type:7", "type:9", "type:9"}, surface.eventsWithPrefix("type:"))
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

// The loop ends after at most maxCycles decisions, and succeeds exactly when some
// cycle within the budget contains a done action.
func TestLoop_TerminationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxCycles := rapid.IntRange(1, 6).Draw(t, "maxCycles")
		kinds := []schemas.ActionKind{schemas.ActionWait, schemas.ActionClick, schemas.ActionDone, schemas.ActionScroll, "bogus"}
		nDecisions := rapid.IntRange(1, 8).Draw(t, "nDecisions")

		decisions := make([]schemas.ActionDecision, nDecisions)
		firstDone := -1
		for i := range decisions {
			n := rapid.IntRange(1, 3).Draw(t, "nActions")
			for j := 0; j < n; j++ {
				kind := rapid.SampledFrom(kinds).Draw(t, "kind")
				decisions[i].Actions = append(decisions[i].Actions, schemas.ActionItem{Kind: kind, Target: "Save"})
				if kind == schemas.ActionDone && firstDone < 0 {
					firstDone = i
				}
			}
		}

		decider := &scriptedDecider{decisions: decisions}
		surface := newFakeSurface().with(schemas.LocateByRoleButton, "Save", "#save")
		err := newTestLoop(decider).Run(context.Background(), surface, "x", maxCycles)

		if decider.calls > maxCycles {
			t.Fatalf("ran %d cycles with budget %d", decider.calls, maxCycles)
		}
		if firstDone >= 0 && firstDone < maxCycles {
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if decider.calls != firstDone+1 {
				t.Fatalf("expected %d cycles, ran %d", firstDone+1, decider.calls)
			}
			return
		}
		if !errors.Is(err, ErrActionBudgetExhausted) {
			t.Fatalf("expected budget exhaustion, got %v", err)
		}
		if decider.calls != maxCycles {
			t.Fatalf("expected %d cycles, ran %d", maxCycles, decider.calls)
		}
	})
}
