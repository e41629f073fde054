package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpTurn, 10*time.Millisecond)
	c.RecordTiming(OpTurn, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.Turn == nil {
		t.Fatal("expected turn snapshot")
	}
	if snap.Turn.Count != 2 {
		t.Errorf("expected count 2, got %d", snap.Turn.Count)
	}
	if snap.Turn.MinTimeMs != 10 {
		t.Errorf("expected min 10ms, got %d", snap.Turn.MinTimeMs)
	}
	if snap.Turn.MaxTimeMs != 30 {
		t.Errorf("expected max 30ms, got %d", snap.Turn.MaxTimeMs)
	}
	if snap.Turn.AvgTimeMs != 20 {
		t.Errorf("expected avg 20ms, got %f", snap.Turn.AvgTimeMs)
	}
}

func TestRecordFailure(t *testing.T) {
	c := NewCollector()

	c.RecordFailure(OpExtract)
	c.RecordFailure(OpExtract)

	snap := c.Snapshot()
	if snap.Extract == nil {
		t.Fatal("expected extract snapshot")
	}
	if snap.Extract.Failures != 2 {
		t.Errorf("expected 2 failures, got %d", snap.Extract.Failures)
	}
	if snap.Extract.Count != 0 {
		t.Errorf("expected 0 successes, got %d", snap.Extract.Count)
	}
}

func TestSnapshotEmptyOps(t *testing.T) {
	c := NewCollector()

	snap := c.Snapshot()
	if snap.Turn != nil || snap.Generate != nil || snap.OCR != nil {
		t.Error("untouched operations should have nil snapshots")
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("uptime should be non-negative, got %f", snap.UptimeSeconds)
	}
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpStoreSave, time.Millisecond)
				c.RecordFailure(OpStoreLoad)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.StoreSave.Count != 1000 {
		t.Errorf("expected 1000 timings, got %d", snap.StoreSave.Count)
	}
	if snap.StoreLoad.Failures != 1000 {
		t.Errorf("expected 1000 failures, got %d", snap.StoreLoad.Failures)
	}
}
