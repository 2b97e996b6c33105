package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/dispatch"
)

func TestRecordDispatch_CountsOutcomes(t *testing.T) {
	recorder := NewRecorder(t.TempDir())

	if _, err := recorder.RecordDispatch(20*time.Millisecond, dispatch.StatusExecuted, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := recorder.RecordDispatch(5*time.Millisecond, dispatch.StatusDenied, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := recorder.RecordDispatch(5*time.Millisecond, dispatch.StatusNeedsApproval, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	snap, err := recorder.RecordDispatch(time.Millisecond, "", errors.New("boom"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	d := snap.Dispatch
	if d.Total != 4 || d.Executed != 1 || d.Denied != 1 || d.NeedsApproval != 1 || d.Failures != 1 {
		t.Fatalf("unexpected counters: %+v", d)
	}
	if d.MaxLatencyMs != 20 || d.LastLatencyMs != 1 {
		t.Fatalf("unexpected latency stats: %+v", d)
	}
	if !snap.HasData() {
		t.Fatalf("expected HasData after recording")
	}
}

func TestSnapshot_PersistsAndReadsBack(t *testing.T) {
	workspace := t.TempDir()
	recorder := NewRecorder(workspace)

	if _, err := recorder.RecordDispatch(15*time.Millisecond, dispatch.StatusExecuted, nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	snap, err := ReadSnapshot(workspace)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Dispatch.Total != 1 || snap.Dispatch.Executed != 1 {
		t.Fatalf("unexpected persisted snapshot: %+v", snap)
	}
}

func TestReadSnapshot_MissingFileIsZero(t *testing.T) {
	snap, err := ReadSnapshot(t.TempDir())
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.HasData() {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

type stubDispatcher struct {
	result dispatch.Result
	err    error
}

func (d *stubDispatcher) Dispatch(_ context.Context, _ actions.Request) (dispatch.Result, error) {
	return d.result, d.err
}

func TestMeasuredDispatcher_RecordsAndPassesThrough(t *testing.T) {
	recorder := NewRecorder(t.TempDir())
	measured := Measure(&stubDispatcher{result: dispatch.Result{Status: dispatch.StatusExecuted}}, recorder)

	result, err := measured.Dispatch(context.Background(), actions.NewRequest("core.budgets", "config_change", "Adjust a budget"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Status != dispatch.StatusExecuted {
		t.Fatalf("expected passthrough result, got %+v", result)
	}
	if snap := recorder.Snapshot(); snap.Dispatch.Executed != 1 {
		t.Fatalf("expected one executed dispatch recorded, got %+v", snap.Dispatch)
	}
}
