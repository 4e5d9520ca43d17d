package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/timeline"
)

type writeRecorder struct {
	mu     sync.Mutex
	writes []timeline.ProgressUpdate
	fail   error
}

func (r *writeRecorder) Subscribe(string, func([]model.Grant)) func()               { return func() {} }
func (r *writeRecorder) SubscribeMilestones(string, func([]model.Milestone)) func() { return func() {} }
func (r *writeRecorder) DeleteGrant(context.Context, string) error                   { return nil }

func (r *writeRecorder) SetProgressDate(_ context.Context, id string, d time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, timeline.ProgressUpdate{ItemID: id, Date: d})
	return r.fail
}

func TestCanEdit(t *testing.T) {
	g := model.Grant{AssignedUsers: []string{"alice", "bob"}}
	tests := []struct {
		viewer string
		want   bool
	}{
		{"alice", true},
		{"bob", true},
		{"carol", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := CanEdit(g, tt.viewer); got != tt.want {
			t.Errorf("CanEdit(%q) = %v, want %v", tt.viewer, got, tt.want)
		}
	}
}

func TestProgressWriterPreservesOrder(t *testing.T) {
	rec := &writeRecorder{}
	w := NewProgressWriter(rec)

	base := timeline.Date(2026, time.January, 1)
	for i := 0; i < 20; i++ {
		w.SetProgress(timeline.ProgressUpdate{ItemID: "g1", Date: base.AddDate(0, 0, i)})
	}
	w.Flush()

	if len(rec.writes) != 20 {
		t.Fatalf("got %d writes, want 20", len(rec.writes))
	}
	for i, u := range rec.writes {
		if !u.Date.Equal(base.AddDate(0, 0, i)) {
			t.Errorf("write %d = %v, out of order", i, u.Date)
		}
	}
}

func TestProgressWriterReportsFailures(t *testing.T) {
	rec := &writeRecorder{fail: errors.New("permission denied")}
	w := NewProgressWriter(rec)

	var mu sync.Mutex
	var failed []string
	w.OnError = func(u timeline.ProgressUpdate, err error) {
		mu.Lock()
		failed = append(failed, u.ItemID)
		mu.Unlock()
	}

	w.SetProgress(timeline.ProgressUpdate{ItemID: "g1", Date: time.Now()})
	w.Close()

	if len(failed) != 1 || failed[0] != "g1" {
		t.Errorf("failures = %v", failed)
	}

	w.SetProgress(timeline.ProgressUpdate{ItemID: "g2", Date: time.Now()})
	w.Flush()
	if len(rec.writes) != 1 {
		t.Errorf("write accepted after Close: %v", rec.writes)
	}
}
