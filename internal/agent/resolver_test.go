package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

func TestResolver_LabelBeatsText(t *testing.T) {
	logger, _ := newObservedLogger()
	surface := newFakeSurface().
		with(schemas.LocateByText, "Price", "#price-text").
		with(schemas.LocateByLabel, "Price", "#price-input")

	el, found := NewResolver(logger).Resolve(context.Background(), surface, "Price")

	require.True(t, found)
	assert.Equal(t, "#price-input", el.Ref)
	assert.Equal(t, schemas.LocateByLabel, el.Strategy)
	assert.Equal(t, []string{"find:label:Price"}, surface.eventsWithPrefix("find:"), "the chain stops at the first match")
}

func TestResolver_ChainOrder(t *testing.T) {
	logger, _ := newObservedLogger()
	testCases := []struct {
		name     string
		strategy schemas.LocatorStrategy
		finds    int
	}{
		{"label", schemas.LocateByLabel, 1},
		{"placeholder", schemas.LocateByPlaceholder, 2},
		{"button", schemas.LocateByRoleButton, 3},
		{"text", schemas.LocateByText, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			surface := newFakeSurface().with(tc.strategy, "Save", "#save")
			el, found := NewResolver(logger).Resolve(context.Background(), surface, "Save")
			require.True(t, found)
			assert.Equal(t, tc.strategy, el.Strategy)
			assert.Len(t, surface.eventsWithPrefix("find:"), tc.finds)
		})
	}
}

func TestResolver_NotFound(t *testing.T) {
	logger, _ := newObservedLogger()
	surface := newFakeSurface()

	_, found := NewResolver(logger).Resolve(context.Background(), surface, "Missing")
	assert.False(t, found)
	assert.Len(t, surface.eventsWithPrefix("find:"), 4)

	_, found = NewResolver(logger).Resolve(context.Background(), surface, "   ")
	assert.False(t, found)
	assert.Len(t, surface.eventsWithPrefix("find:"), 4, "blank targets never hit the surface")
}

func TestResolver_FindErrorContinuesChain(t *testing.T) {
	logger, logs := newObservedLogger()
	surface := newFakeSurface().with(schemas.LocateByPlaceholder, "Search", "#q")
	surface.findErrs[schemas.LocateByLabel] = errors.New("evaluate failed")

	el, found := NewResolver(logger).Resolve(context.Background(), surface, "Search")
	require.True(t, found)
	assert.Equal(t, "#q", el.Ref)
	assert.Equal(t, 1, logs.FilterMessage("Locator strategy failed.").Len())
}

func TestResolver_CanceledContext(t *testing.T) {
	logger, _ := newObservedLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	surface := newFakeSurface().with(schemas.LocateByLabel, "Price", "#p")

	_, found := NewResolver(logger).Resolve(ctx, surface, "Price")
	assert.False(t, found)
	assert.Empty(t, surface.eventsWithPrefix("find:"))
}
