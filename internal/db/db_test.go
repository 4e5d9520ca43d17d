package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/grantline/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBoard(t *testing.T, db *DB, owner string) *model.Board {
	t.Helper()
	b, err := db.CreateBoard(context.Background(), "Research", model.VisibilityPrivate, owner)
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	return b
}

func TestRebind(t *testing.T) {
	db := &DB{driver: DriverPostgres}
	got := db.rebind("SELECT * FROM grants WHERE id = ? AND board_id = ?")
	if want := "SELECT * FROM grants WHERE id = $1 AND board_id = $2"; got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
	db.driver = DriverSQLite
	if got := db.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestBoards(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	own := newBoard(t, db, "alice")
	shared, err := db.CreateBoard(ctx, "Shared", model.VisibilityShared, "bob")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	hidden, _ := db.CreateBoard(ctx, "Hidden", "", "bob")

	boards, err := db.ListBoards(ctx, "alice")
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("alice sees %d boards, want 2", len(boards))
	}

	if err := db.AddBoardMember(ctx, hidden.ID, "alice"); err != nil {
		t.Fatalf("AddBoardMember: %v", err)
	}
	boards, _ = db.ListBoards(ctx, "alice")
	if len(boards) != 3 {
		t.Errorf("alice sees %d boards after invite, want 3", len(boards))
	}

	got, err := db.FindBoard(ctx, "shared", "alice")
	if err != nil || got.ID != shared.ID {
		t.Errorf("FindBoard by name = %v, %v", got, err)
	}

	if err := db.DeleteBoard(ctx, own.ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if _, err := db.GetBoard(ctx, own.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBoard after delete err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteBoard(ctx, own.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteBoard err = %v", err)
	}

	if _, err := db.CreateBoard(ctx, "x", "public", "alice"); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad visibility err = %v, want ErrInvalid", err)
	}
}

func TestGrantDefaultsAndOrdering(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := newBoard(t, db, "alice")

	late, err := db.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "Late", CreatedBy: "alice",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.December, 1),
	})
	if err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}
	if !late.ProgressDate.Equal(late.StartDate) {
		t.Errorf("progress default = %v, want start", late.ProgressDate)
	}
	if len(late.AssignedUsers) != 1 || late.AssignedUsers[0] != "alice" {
		t.Errorf("assignee default = %v", late.AssignedUsers)
	}

	_, err = db.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "Early", CreatedBy: "alice",
		StartDate:     date(2026, time.January, 1).Add(15 * time.Hour),
		EndDate:       date(2026, time.March, 1),
		AssignedUsers: []string{"carol", "bob", "carol"},
	})
	if err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}

	grants, err := db.ListGrants(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListGrants: %v", err)
	}
	if len(grants) != 2 || grants[0].Name != "Early" || grants[1].Name != "Late" {
		t.Fatalf("grants not ordered by start: %+v", grants)
	}
	if !grants[0].StartDate.Equal(date(2026, time.January, 1)) {
		t.Errorf("start not truncated to day: %v", grants[0].StartDate)
	}
	if got := grants[0].AssignedUsers; len(got) != 2 || got[0] != "bob" || got[1] != "carol" {
		t.Errorf("assignees = %v", got)
	}
}

func TestGrantValidation(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := newBoard(t, db, "alice")

	tests := []struct {
		name string
		in   GrantInput
	}{
		{"missing name", GrantInput{BoardID: b.ID, CreatedBy: "alice", StartDate: date(2026, 1, 1), EndDate: date(2026, 2, 1)}},
		{"end before start", GrantInput{BoardID: b.ID, Name: "x", CreatedBy: "alice", StartDate: date(2026, 3, 1), EndDate: date(2026, 2, 1)}},
		{"missing dates", GrantInput{BoardID: b.ID, Name: "x", CreatedBy: "alice"}},
		{"missing creator", GrantInput{BoardID: b.ID, Name: "x", StartDate: date(2026, 1, 1), EndDate: date(2026, 2, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.CreateGrant(ctx, tt.in); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}

	_, err := db.CreateGrant(ctx, GrantInput{BoardID: "nope", Name: "x", CreatedBy: "alice", StartDate: date(2026, 1, 1), EndDate: date(2026, 2, 1)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown board err = %v, want ErrNotFound", err)
	}
}

func TestSetProgressDate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := newBoard(t, db, "alice")
	g, _ := db.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "G", CreatedBy: "alice",
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.March, 1),
	})

	updated, err := db.SetProgressDate(ctx, g.ID, date(2026, time.February, 10).Add(5*time.Hour))
	if err != nil {
		t.Fatalf("SetProgressDate: %v", err)
	}
	if !updated.ProgressDate.Equal(date(2026, time.February, 10)) {
		t.Errorf("progress = %v", updated.ProgressDate)
	}

	stored, _ := db.GetGrant(ctx, g.ID)
	if !stored.ProgressDate.Equal(date(2026, time.February, 10)) {
		t.Errorf("stored progress = %v", stored.ProgressDate)
	}

	if _, err := db.SetProgressDate(ctx, g.ID, date(2026, time.April, 1)); !errors.Is(err, ErrInvalid) {
		t.Errorf("out of span err = %v, want ErrInvalid", err)
	}
	if _, err := db.SetProgressDate(ctx, "missing", date(2026, time.January, 5)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing grant err = %v, want ErrNotFound", err)
	}
}

func TestUpdateGrantKeepsProgressInSpan(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := newBoard(t, db, "alice")
	g, _ := db.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "G", CreatedBy: "alice",
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.December, 1),
	})
	db.SetProgressDate(ctx, g.ID, date(2026, time.November, 1))

	updated, err := db.UpdateGrant(ctx, g.ID, GrantInput{
		Name: "G2", StartDate: date(2026, time.January, 1), EndDate: date(2026, time.June, 1),
	})
	if err != nil {
		t.Fatalf("UpdateGrant: %v", err)
	}
	if updated.Name != "G2" || !updated.ProgressDate.Equal(date(2026, time.June, 1)) {
		t.Errorf("updated = %s progress %v", updated.Name, updated.ProgressDate)
	}
	if len(updated.AssignedUsers) != 1 || updated.AssignedUsers[0] != "alice" {
		t.Errorf("assignees dropped: %v", updated.AssignedUsers)
	}
}

func TestMilestonesAndCascade(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := newBoard(t, db, "alice")
	g, _ := db.CreateGrant(ctx, GrantInput{
		BoardID: b.ID, Name: "G", CreatedBy: "alice",
		StartDate: date(2026, time.January, 1), EndDate: date(2026, time.December, 1),
	})

	if _, err := db.AddMilestone(ctx, g.ID, MilestoneInput{Number: 2, TargetDate: date(2026, time.June, 1), Label: "Mid"}); err != nil {
		t.Fatalf("AddMilestone: %v", err)
	}
	first, err := db.AddMilestone(ctx, g.ID, MilestoneInput{Number: 1, TargetDate: date(2026, time.March, 1)})
	if err != nil {
		t.Fatalf("AddMilestone: %v", err)
	}
	next, _ := db.AddMilestone(ctx, g.ID, MilestoneInput{TargetDate: date(2026, time.October, 1)})
	if next.Number != 3 {
		t.Errorf("auto number = %d, want 3", next.Number)
	}
	if _, err := db.AddMilestone(ctx, g.ID, MilestoneInput{Number: -1, TargetDate: date(2026, time.June, 1)}); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative number err = %v", err)
	}

	ms, err := db.ListMilestones(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListMilestones: %v", err)
	}
	if len(ms) != 3 || ms[0].ID != first.ID || ms[1].Label != "Mid" {
		t.Errorf("milestones not ordered by number: %+v", ms)
	}

	if _, err := db.UpdateMilestone(ctx, first.ID, MilestoneInput{Number: 1, TargetDate: date(2026, time.April, 1), Label: "Kickoff"}); err != nil {
		t.Fatalf("UpdateMilestone: %v", err)
	}
	if _, err := db.DeleteMilestone(ctx, next.ID); err != nil {
		t.Fatalf("DeleteMilestone: %v", err)
	}

	if _, err := db.DeleteGrant(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGrant: %v", err)
	}
	ms, _ = db.ListMilestones(ctx, g.ID)
	if len(ms) != 0 {
		t.Errorf("milestones survived grant delete: %v", ms)
	}
	if _, err := db.DeleteGrant(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteGrant err = %v", err)
	}
}

func TestBoardStats(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := newBoard(t, db, "alice")
	add := func(start, end time.Time) {
		if _, err := db.CreateGrant(ctx, GrantInput{BoardID: b.ID, Name: "g", CreatedBy: "alice", StartDate: start, EndDate: end}); err != nil {
			t.Fatalf("CreateGrant: %v", err)
		}
	}
	add(date(2025, time.January, 1), date(2025, time.June, 1))  // completed
	add(date(2026, time.January, 1), date(2026, time.June, 1))  // active
	add(date(2026, time.March, 1), date(2026, time.March, 1))   // active on its only day
	add(date(2026, time.September, 1), date(2027, time.June, 1)) // upcoming

	stats, err := db.BoardStats(ctx, b.ID, time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BoardStats: %v", err)
	}
	want := model.BoardStats{Total: 4, Active: 2, Completed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}
