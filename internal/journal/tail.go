package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hpcloud/tail"
	json "github.com/json-iterator/go"
)

// ErrStopTail can be returned by a Tail callback to end the stream without error.
var ErrStopTail = errors.New("stop tailing")

// Tail streams events from the journal at path. Without follow it stops at end of
// file; with follow it waits for new lines until ctx is done. Lines that are not
// valid events are skipped.
func Tail(ctx context.Context, path string, follow bool, fn func(Event) error) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: !follow,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				return line.Err
			}
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(text), &ev); err != nil {
				continue
			}
			if err := fn(ev); err != nil {
				if errors.Is(err, ErrStopTail) {
					return nil
				}
				return err
			}
		}
	}
}
