package db

import (
	"context"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestLiveSubscribeDeliversChanges(t *testing.T) {
	ctx := context.Background()
	live := NewLive(openTestDB(t), nil)
	b := newBoard(t, live.DB, "alice")

	snaps := make(chan []model.Grant, 8)
	unsubscribe := live.Subscribe(b.ID, func(g []model.Grant) { snaps <- g })
	defer unsubscribe()

	if first := waitFor(t, snaps, "initial snapshot"); len(first) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", first)
	}

	g, err := live.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "G", CreatedBy: "alice",
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.March, 1),
	})
	if err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}
	if got := waitFor(t, snaps, "snapshot after create"); len(got) != 1 || got[0].ID != g.ID {
		t.Fatalf("snapshot after create = %+v", got)
	}

	if err := live.SetProgressDate(ctx, g.ID, date(2026, time.February, 1)); err != nil {
		t.Fatalf("SetProgressDate: %v", err)
	}
	got := waitFor(t, snaps, "snapshot after progress")
	if !got[0].ProgressDate.Equal(date(2026, time.February, 1)) {
		t.Errorf("progress in snapshot = %v", got[0].ProgressDate)
	}

	if err := live.DeleteGrant(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGrant: %v", err)
	}
	if got := waitFor(t, snaps, "snapshot after delete"); len(got) != 0 {
		t.Errorf("snapshot after delete = %v", got)
	}
}

func TestLiveMilestoneSubscription(t *testing.T) {
	ctx := context.Background()
	live := NewLive(openTestDB(t), nil)
	b := newBoard(t, live.DB, "alice")
	g, _ := live.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "G", CreatedBy: "alice",
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.March, 1),
	})

	snaps := make(chan []model.Milestone, 8)
	unsubscribe := live.SubscribeMilestones(g.ID, func(m []model.Milestone) { snaps <- m })
	defer unsubscribe()
	waitFor(t, snaps, "initial milestones")

	if _, err := live.AddMilestone(ctx, g.ID, MilestoneInput{TargetDate: date(2026, time.February, 1), Label: "Report"}); err != nil {
		t.Fatalf("AddMilestone: %v", err)
	}
	if got := waitFor(t, snaps, "milestones after add"); len(got) != 1 || got[0].Label != "Report" {
		t.Errorf("milestones = %+v", got)
	}
}

func TestLiveUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	live := NewLive(openTestDB(t), nil)
	b := newBoard(t, live.DB, "alice")

	snaps := make(chan []model.Grant, 8)
	unsubscribe := live.Subscribe(b.ID, func(g []model.Grant) { snaps <- g })
	waitFor(t, snaps, "initial snapshot")

	unsubscribe()
	unsubscribe()

	live.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "G", CreatedBy: "alice",
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.March, 1),
	})
	select {
	case got := <-snaps:
		t.Errorf("delivery after unsubscribe: %v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestLiveFailedLoadDeliversEmpty(t *testing.T) {
	db := openTestDB(t)
	live := NewLive(db, nil)
	db.Close()

	snaps := make(chan []model.Grant, 1)
	unsubscribe := live.Subscribe("any", func(g []model.Grant) { snaps <- g })
	defer unsubscribe()

	got := waitFor(t, snaps, "failure snapshot")
	if got == nil || len(got) != 0 {
		t.Errorf("failure snapshot = %#v, want empty slice", got)
	}
}

func TestLiveWriteErrorsReturned(t *testing.T) {
	live := NewLive(openTestDB(t), nil)
	if err := live.SetProgressDate(context.Background(), "missing", date(2026, 1, 1)); err == nil {
		t.Error("expected error for missing grant")
	}
	if err := live.DeleteGrant(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing grant")
	}
}
