package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRecordAndSnapshot(t *testing.T) {
	c := NewCollector()

	c.Record(OpDownload, 100*time.Millisecond, nil)
	c.Record(OpDownload, 300*time.Millisecond, nil)
	c.Record(OpDownload, 200*time.Millisecond, errors.New("boom"))

	snap := c.Snapshot()
	op, ok := snap.Operations[OpDownload]
	if !ok {
		t.Fatal("download operation missing from snapshot")
	}
	if op.Count != 3 {
		t.Errorf("count = %d", op.Count)
	}
	if op.Errors != 1 {
		t.Errorf("errors = %d", op.Errors)
	}
	if op.MinTimeMs != 100 || op.MaxTimeMs != 300 {
		t.Errorf("min/max = %d/%d", op.MinTimeMs, op.MaxTimeMs)
	}
	if op.TotalTimeMs != 600 {
		t.Errorf("total = %d", op.TotalTimeMs)
	}
	if op.AvgTimeMs != 200 {
		t.Errorf("avg = %v", op.AvgTimeMs)
	}
}

func TestSnapshotOmitsUnusedOps(t *testing.T) {
	c := NewCollector()
	c.Record(OpPreview, time.Millisecond, nil)

	snap := c.Snapshot()
	if len(snap.Operations) != 1 {
		t.Errorf("expected only recorded operations, got %v", snap.Operations)
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("uptime = %v", snap.UptimeSeconds)
	}
}

func TestTime(t *testing.T) {
	c := NewCollector()

	wantErr := errors.New("fail")
	if err := c.Time(OpNote, func() error { return wantErr }); err != wantErr {
		t.Errorf("Time should return the fn error, got %v", err)
	}

	snap := c.Snapshot()
	if op := snap.Operations[OpNote]; op.Count != 1 || op.Errors != 1 {
		t.Errorf("unexpected op stats %+v", op)
	}
}

func TestConcurrentRecord(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(OpTranscribe, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	if got := c.Snapshot().Operations[OpTranscribe].Count; got != 50 {
		t.Errorf("count = %d, want 50", got)
	}
}
