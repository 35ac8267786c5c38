package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// -- Model Mock --

// MockTextGenerator mocks the model invoker used by the Decider.
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// -- Decider Stub --

// scriptedDecider returns decisions in order, repeating the last one.
type scriptedDecider struct {
	mu        sync.Mutex
	decisions []schemas.ActionDecision
	err       error
	calls     int
}

func (s *scriptedDecider) Decide(ctx context.Context, snapshot []byte, instruction string) (schemas.ActionDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return schemas.ActionDecision{}, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.decisions) {
		idx = len(s.decisions) - 1
	}
	return s.decisions[idx], nil
}

// -- Surface Fake --

// fakeSurface records every call as a compact event string.
type fakeSurface struct {
	mu          sync.Mutex
	elements    map[schemas.LocatorStrategy]map[string]schemas.Element
	findErrs    map[schemas.LocatorStrategy]error
	opErrs      map[string]error
	snapshotErr error
	events      []string
	sleeps      []time.Duration
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		elements: make(map[schemas.LocatorStrategy]map[string]schemas.Element),
		findErrs: make(map[schemas.LocatorStrategy]error),
		opErrs:   make(map[string]error),
	}
}

// with registers an element under strategy for query.
func (f *fakeSurface) with(strategy schemas.LocatorStrategy, query, ref string) *fakeSurface {
	if f.elements[strategy] == nil {
		f.elements[strategy] = make(map[string]schemas.Element)
	}
	f.elements[strategy][query] = schemas.Element{Ref: ref, Description: ref}
	return f
}

func (f *fakeSurface) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeSurface) op(name, event string) error {
	f.record(event)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opErrs[name]
}

func (f *fakeSurface) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	f.record("snapshot")
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return []byte("\x89PNG"), nil
}

func (f *fakeSurface) Find(ctx context.Context, strategy schemas.LocatorStrategy, query string) (schemas.Element, bool, error) {
	f.record(fmt.Sprintf("find:%s:%s", strategy, query))
	if err := f.findErrs[strategy]; err != nil {
		return schemas.Element{}, false, err
	}
	el, ok := f.elements[strategy][query]
	return el, ok, nil
}

func (f *fakeSurface) Hover(ctx context.Context, el schemas.Element) error {
	return f.op("hover", "hover:"+el.Ref)
}

func (f *fakeSurface) Click(ctx context.Context, el schemas.Element) error {
	return f.op("click", "click:"+el.Ref)
}

func (f *fakeSurface) TypeUnit(ctx context.Context, unit string) error {
	return f.op("type", "type:"+unit)
}

func (f *fakeSurface) Press(ctx context.Context, key string) error {
	return f.op("press", "press:"+key)
}

func (f *fakeSurface) Upload(ctx context.Context, el schemas.Element, path string) error {
	return f.op("upload", "upload:"+el.Ref+":"+path)
}

func (f *fakeSurface) Scroll(ctx context.Context, deltaY int) error {
	return f.op("scroll", fmt.Sprintf("scroll:%d", deltaY))
}

func (f *fakeSurface) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.mu.Unlock()
	f.record("sleep")
	return ctx.Err()
}

// eventsWithPrefix returns the recorded events that start with prefix.
func (f *fakeSurface) eventsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// interactions counts calls that change the page.
func (f *fakeSurface) interactions() int {
	n := 0
	for _, p := range []string{"hover:", "click:", "type:", "press:", "upload:", "scroll:"} {
		n += len(f.eventsWithPrefix(p))
	}
	return n
}

func (f *fakeSurface) allEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}
