// Package journal records what a run was asked to do and what happened, one JSON
// event per line.
package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// EventType classifies a journal entry.
type EventType string

const (
	EventUserInput  EventType = "user_input"
	EventWorkflow   EventType = "workflow"
	EventTaskPlan   EventType = "task_plan"
	EventTaskResult EventType = "task_result"
)

// Event is one line of the journal.
type Event struct {
	ID        string                 `json:"id"`
	RunID     string                 `json:"run_id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
}

// Sink persists events.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// Journal stamps events for a single run and hands them to a sink.
type Journal struct {
	runID string
	sink  Sink
	now   func() time.Time
}

// New creates a journal for runID; an empty runID gets a fresh UUID.
func New(runID string, sink Sink) *Journal {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Journal{runID: runID, sink: sink, now: time.Now}
}

func (j *Journal) RunID() string { return j.runID }

// Append records one event.
func (j *Journal) Append(ctx context.Context, typ EventType, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return j.sink.Record(ctx, Event{
		ID:        uuid.NewString(),
		RunID:     j.runID,
		Timestamp: j.now().UTC(),
		Type:      typ,
		Payload:   payload,
	})
}

// FileSink appends events to a JSONL file, creating it and its directory on demand.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Path() string { return f.path }

func (f *FileSink) Record(_ context.Context, ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode journal event: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := file.Write(line); err != nil {
		file.Close()
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return file.Close()
}

// Multi writes to a primary sink and mirrors to secondaries. Only the primary's
// failure is returned; secondary failures are logged.
type Multi struct {
	primary     Sink
	secondaries []Sink
	logger      *zap.Logger
}

func NewMulti(logger *zap.Logger, primary Sink, secondaries ...Sink) *Multi {
	return &Multi{primary: primary, secondaries: secondaries, logger: logger.Named("journal")}
}

func (m *Multi) Record(ctx context.Context, ev Event) error {
	err := m.primary.Record(ctx, ev)
	for _, s := range m.secondaries {
		if serr := s.Record(ctx, ev); serr != nil {
			m.logger.Warn("Secondary journal sink failed.",
				zap.String("event_type", string(ev.Type)),
				zap.Error(serr))
		}
	}
	return err
}
