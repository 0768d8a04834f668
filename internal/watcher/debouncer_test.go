package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitBatch(t *testing.T, ch <-chan []FileEvent, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "channel closed")
		return batch
	case <-time.After(timeout):
		t.Fatal("timeout waiting for batch")
		return nil
	}
}

func TestCoalesce(t *testing.T) {
	ev := func(op Operation) FileEvent { return FileEvent{Path: "a.txt", Operation: op} }

	tests := []struct {
		name    string
		first   Operation
		next    Operation
		want    Operation
		cancels bool
	}{
		{"create then modify stays create", OpCreate, OpModify, OpCreate, false},
		{"create then delete cancels", OpCreate, OpDelete, 0, true},
		{"modify then delete is delete", OpModify, OpDelete, OpDelete, false},
		{"delete then create is modify", OpDelete, OpCreate, OpModify, false},
		{"modify then modify is modify", OpModify, OpModify, OpModify, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := coalesce(tt.first, ev(tt.first), ev(tt.next))
			assert.Equal(t, !tt.cancels, keep)
			if keep {
				assert.Equal(t, tt.want, got.Operation)
			}
		})
	}
}

func TestDebouncer_BurstBecomesOneBatch(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(50*time.Millisecond, 4)
	defer d.Stop()

	// When: a burst of writes to two files arrives
	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "b.txt", Operation: OpModify})
		d.Add(FileEvent{Path: "a.txt", Operation: OpModify})
		time.Sleep(5 * time.Millisecond)
	}

	// Then: one batch with one event per file, ordered by path
	batch := waitBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 2)
	assert.Equal(t, "a.txt", batch[0].Path)
	assert.Equal(t, "b.txt", batch[1].Path)
}

func TestDebouncer_CancelledEventsEmitNothing(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, 1)
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.txt", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour, 1)
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.txt", Operation: OpCreate})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
