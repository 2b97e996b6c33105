package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/dispatch"
)

const snapshotFileName = "dispatch_metrics.json"

var latencyBucketUpperBoundsMs = []int64{
	10, 25, 50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000,
}

// Snapshot contains aggregated dispatch metrics.
type Snapshot struct {
	UpdatedAt time.Time     `json:"updated_at"`
	Dispatch  DispatchStats `json:"dispatch"`
}

// DispatchStats tracks action dispatch outcomes and latency.
type DispatchStats struct {
	Total             int64 `json:"total"`
	Denied            int64 `json:"denied"`
	NeedsApproval     int64 `json:"needs_approval"`
	Executed          int64 `json:"executed"`
	Failures          int64 `json:"failures"`
	TotalLatencyMs    int64 `json:"total_latency_ms"`
	MaxLatencyMs      int64 `json:"max_latency_ms"`
	LastLatencyMs     int64 `json:"last_latency_ms"`
	P95ProxyLatencyMs int64 `json:"p95_proxy_latency_ms"`
}

// DenialRatio returns denied/total in [0,1].
func (d DispatchStats) DenialRatio() float64 {
	if d.Total <= 0 {
		return 0
	}
	return float64(d.Denied) / float64(d.Total)
}

// AvgLatencyMs returns average latency in milliseconds.
func (d DispatchStats) AvgLatencyMs() float64 {
	if d.Total <= 0 {
		return 0
	}
	return float64(d.TotalLatencyMs) / float64(d.Total)
}

// HasData reports whether any dispatches were recorded.
func (s Snapshot) HasData() bool {
	return s.Dispatch.Total > 0
}

// Recorder records and persists dispatch metrics.
type Recorder struct {
	path string

	mu      sync.Mutex
	snap    Snapshot
	buckets []int64
}

// NewRecorder creates a recorder rooted at <workspace>/state/dispatch_metrics.json.
func NewRecorder(workspacePath string) *Recorder {
	return &Recorder{
		path:    snapshotPath(workspacePath),
		buckets: make([]int64, len(latencyBucketUpperBoundsMs)+1),
	}
}

// Snapshot returns the latest in-memory snapshot.
func (m *Recorder) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// RecordDispatch updates dispatch metrics and persists the snapshot.
func (m *Recorder) RecordDispatch(duration time.Duration, status dispatch.Status, runErr error) (Snapshot, error) {
	if m == nil {
		return Snapshot{}, nil
	}

	now := time.Now().UTC()
	latencyMs := duration.Milliseconds()
	if latencyMs < 0 {
		latencyMs = 0
	}

	m.mu.Lock()
	m.snap.UpdatedAt = now
	m.snap.Dispatch.Total++
	m.snap.Dispatch.TotalLatencyMs += latencyMs
	m.snap.Dispatch.LastLatencyMs = latencyMs
	if latencyMs > m.snap.Dispatch.MaxLatencyMs {
		m.snap.Dispatch.MaxLatencyMs = latencyMs
	}
	switch {
	case runErr != nil:
		m.snap.Dispatch.Failures++
	case status == dispatch.StatusDenied:
		m.snap.Dispatch.Denied++
	case status == dispatch.StatusNeedsApproval:
		m.snap.Dispatch.NeedsApproval++
	case status == dispatch.StatusExecuted:
		m.snap.Dispatch.Executed++
	}

	m.buckets[latencyBucketIndex(latencyMs)]++
	m.snap.Dispatch.P95ProxyLatencyMs = p95ProxyFromBuckets(m.buckets, m.snap.Dispatch.Total)

	snapshot := m.snap
	m.mu.Unlock()

	return snapshot, persistSnapshot(m.path, snapshot)
}

// Dispatcher submits an action through the governance pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, request actions.Request) (dispatch.Result, error)
}

// MeasuredDispatcher times each dispatch and feeds the recorder. Metrics
// persistence failures never fail the action itself.
type MeasuredDispatcher struct {
	inner    Dispatcher
	recorder *Recorder
}

// Measure wraps a dispatcher so its outcomes land in the recorder.
func Measure(inner Dispatcher, recorder *Recorder) *MeasuredDispatcher {
	return &MeasuredDispatcher{inner: inner, recorder: recorder}
}

func (d *MeasuredDispatcher) Dispatch(ctx context.Context, request actions.Request) (dispatch.Result, error) {
	start := time.Now()
	result, err := d.inner.Dispatch(ctx, request)
	if _, recordErr := d.recorder.RecordDispatch(time.Since(start), result.Status, err); recordErr != nil {
		slog.Warn("failed to persist dispatch metrics", "error", recordErr)
	}
	return result, err
}

// ReadSnapshot reads the persisted snapshot from workspace state. If no
// file exists yet, it returns a zero-value snapshot and nil error.
func ReadSnapshot(workspacePath string) (Snapshot, error) {
	path := snapshotPath(workspacePath)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read dispatch metrics: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode dispatch metrics: %w", err)
	}
	return snap, nil
}

func snapshotPath(workspacePath string) string {
	return filepath.Join(workspacePath, "state", snapshotFileName)
}

func persistSnapshot(path string, snapshot Snapshot) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dispatch metrics dir: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode dispatch metrics: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, payload, 0o644); err != nil {
		return fmt.Errorf("write dispatch metrics temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename dispatch metrics file: %w", err)
	}
	return nil
}

func latencyBucketIndex(latencyMs int64) int {
	for i, upper := range latencyBucketUpperBoundsMs {
		if latencyMs <= upper {
			return i
		}
	}
	return len(latencyBucketUpperBoundsMs)
}

func p95ProxyFromBuckets(buckets []int64, total int64) int64 {
	if total <= 0 {
		return 0
	}
	target := int64(float64(total) * 0.95)
	if target <= 0 {
		target = 1
	}

	var cumulative int64
	for i, count := range buckets {
		cumulative += count
		if cumulative < target {
			continue
		}
		if i >= len(latencyBucketUpperBoundsMs) {
			return latencyBucketUpperBoundsMs[len(latencyBucketUpperBoundsMs)-1]
		}
		return latencyBucketUpperBoundsMs[i]
	}
	return latencyBucketUpperBoundsMs[len(latencyBucketUpperBoundsMs)-1]
}
