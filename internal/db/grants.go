package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/existflow/grantline/internal/model"
	"github.com/google/uuid"
)

// GrantInput holds the editable fields of a grant
type GrantInput struct {
	BoardID       string
	Name          string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	ProgressDate  *time.Time // defaults to StartDate
	Color         string
	AssignedUsers []string // defaults to the creator
	CreatedBy     string
}

func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (in *GrantInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("grant name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return invalidf("start and end dates are required")
	}
	in.StartDate, in.EndDate = day(in.StartDate), day(in.EndDate)
	if in.EndDate.Before(in.StartDate) {
		return invalidf("end date %s is before start date %s", formatDate(in.EndDate), formatDate(in.StartDate))
	}
	if in.ProgressDate != nil {
		p := day(*in.ProgressDate)
		if err := checkProgress(p, in.StartDate, in.EndDate); err != nil {
			return err
		}
		in.ProgressDate = &p
	}
	in.AssignedUsers = dedupe(in.AssignedUsers)
	return nil
}

func checkProgress(p, start, end time.Time) error {
	if p.Before(start) || p.After(end) {
		return invalidf("progress date %s is outside %s to %s", formatDate(p), formatDate(start), formatDate(end))
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CreateGrant inserts a grant. Progress starts at the start date and the
// creator is assigned unless the input says otherwise.
func (db *DB) CreateGrant(ctx context.Context, in GrantInput) (*model.Grant, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.CreatedBy == "" {
		return nil, invalidf("creator is required")
	}
	if _, err := db.GetBoard(ctx, in.BoardID); err != nil {
		return nil, err
	}

	progress := in.StartDate
	if in.ProgressDate != nil {
		progress = *in.ProgressDate
	}
	assigned := in.AssignedUsers
	if len(assigned) == 0 {
		assigned = []string{in.CreatedBy}
	}

	now := time.Now().UTC()
	g := &model.Grant{
		ID:            uuid.New().String(),
		BoardID:       in.BoardID,
		Name:          in.Name,
		Description:   in.Description,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		ProgressDate:  progress,
		Color:         in.Color,
		AssignedUsers: assigned,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := db.exec(ctx, tx, "insert", "grants", `
INSERT INTO grants (id, board_id, name, description, start_date, end_date, progress_date, color, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.BoardID, g.Name, g.Description,
			formatDate(g.StartDate), formatDate(g.EndDate), formatDate(g.ProgressDate),
			g.Color, g.CreatedBy, formatStamp(now), formatStamp(now))
		if err != nil {
			return fmt.Errorf("failed to create grant: %w", err)
		}
		return db.writeAssignees(ctx, tx, g.ID, g.AssignedUsers)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGrant returns one grant with its assignees
func (db *DB) GetGrant(ctx context.Context, id string) (*model.Grant, error) {
	row := db.queryRow(ctx, db.sql, "select", "grants", grantSelect+` WHERE id = ?`, id)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grant %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	rows, err := db.query(ctx, db.sql, "select", "grant_assignees",
		`SELECT grant_id, user_id FROM grant_assignees WHERE grant_id = ? ORDER BY user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	byGrant, err := scanAssignees(rows)
	if err != nil {
		return nil, err
	}
	g.AssignedUsers = byGrant[id]
	return g, nil
}

// ListGrants returns a board's grants ordered by start date
func (db *DB) ListGrants(ctx context.Context, boardID string) ([]model.Grant, error) {
	rows, err := db.query(ctx, db.sql, "select", "grants",
		grantSelect+` WHERE board_id = ? ORDER BY start_date, created_at, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	grants := []model.Grant{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	arows, err := db.query(ctx, db.sql, "select", "grant_assignees", `
SELECT a.grant_id, a.user_id FROM grant_assignees a
JOIN grants g ON g.id = a.grant_id
WHERE g.board_id = ? ORDER BY a.user_id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	byGrant, err := scanAssignees(arows)
	if err != nil {
		return nil, err
	}
	for i := range grants {
		grants[i].AssignedUsers = byGrant[grants[i].ID]
	}
	return grants, nil
}

// UpdateGrant replaces the editable fields of a grant. The progress date is
// kept, moved into the new span when it would fall outside it.
func (db *DB) UpdateGrant(ctx context.Context, id string, in GrantInput) (*model.Grant, error) {
	current, err := db.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	in.BoardID = current.BoardID
	if in.ProgressDate == nil {
		p := current.ProgressDate
		if p.Before(day(in.StartDate)) {
			p = day(in.StartDate)
		}
		if p.After(day(in.EndDate)) {
			p = day(in.EndDate)
		}
		in.ProgressDate = &p
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	assigned := in.AssignedUsers
	if len(assigned) == 0 {
		assigned = current.AssignedUsers
	}

	now := time.Now().UTC()
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := db.exec(ctx, tx, "update", "grants", `
UPDATE grants SET name = ?, description = ?, start_date = ?, end_date = ?, progress_date = ?, color = ?, updated_at = ?
WHERE id = ?`,
			in.Name, in.Description, formatDate(in.StartDate), formatDate(in.EndDate),
			formatDate(*in.ProgressDate), in.Color, formatStamp(now), id)
		if err != nil {
			return fmt.Errorf("failed to update grant: %w", err)
		}
		return db.writeAssignees(ctx, tx, id, assigned)
	})
	if err != nil {
		return nil, err
	}
	return db.GetGrant(ctx, id)
}

// SetProgressDate moves a grant's progress marker and returns the grant
func (db *DB) SetProgressDate(ctx context.Context, id string, date time.Time) (*model.Grant, error) {
	g, err := db.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	date = day(date)
	if err := checkProgress(date, g.StartDate, g.EndDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = db.exec(ctx, db.sql, "update", "grants",
		`UPDATE grants SET progress_date = ?, updated_at = ? WHERE id = ?`,
		formatDate(date), formatStamp(now), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	g.ProgressDate = date
	g.UpdatedAt = now
	return g, nil
}

// DeleteGrant removes a grant with its milestones and returns what was
// deleted
func (db *DB) DeleteGrant(ctx context.Context, id string) (*model.Grant, error) {
	g, err := db.GetGrant(ctx, id)
	if err != nil {
		return nil, err
	}
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"milestones", "grant_assignees"} {
			if _, err := db.exec(ctx, tx, "delete", table, `DELETE FROM `+table+` WHERE grant_id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		res, err := db.exec(ctx, tx, "delete", "grants", `DELETE FROM grants WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete grant: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("grant %s: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (db *DB) writeAssignees(ctx context.Context, tx *sql.Tx, grantID string, users []string) error {
	if _, err := db.exec(ctx, tx, "delete", "grant_assignees",
		`DELETE FROM grant_assignees WHERE grant_id = ?`, grantID); err != nil {
		return fmt.Errorf("failed to clear assignees: %w", err)
	}
	for _, u := range users {
		if _, err := db.exec(ctx, tx, "insert", "grant_assignees",
			`INSERT INTO grant_assignees (grant_id, user_id) VALUES (?, ?)`, grantID, u); err != nil {
			return fmt.Errorf("failed to assign %s: %w", u, err)
		}
	}
	return nil
}

const grantSelect = `SELECT id, board_id, name, description, start_date, end_date, progress_date, color, created_by, created_at, updated_at FROM grants`

func scanGrant(s scanner) (*model.Grant, error) {
	var g model.Grant
	var start, end, progress, created, updated string
	err := s.Scan(&g.ID, &g.BoardID, &g.Name, &g.Description, &start, &end, &progress,
		&g.Color, &g.CreatedBy, &created, &updated)
	if err != nil {
		return nil, err
	}
	if g.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if g.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	if g.ProgressDate, err = parseDate(progress); err != nil {
		return nil, err
	}
	g.CreatedAt = parseStamp(created)
	g.UpdatedAt = parseStamp(updated)
	return &g, nil
}

func scanAssignees(rows *sql.Rows) (map[string][]string, error) {
	defer rows.Close()
	byGrant := make(map[string][]string)
	for rows.Next() {
		var grantID, userID string
		if err := rows.Scan(&grantID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		byGrant[grantID] = append(byGrant[grantID], userID)
	}
	return byGrant, rows.Err()
}
