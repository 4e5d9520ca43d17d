package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/grantline/internal/model"
	"github.com/google/uuid"
)

// MilestoneInput holds the editable fields of a milestone. A zero Number
// picks the next free number.
type MilestoneInput struct {
	Number     int
	TargetDate time.Time
	Label      string
}

// AddMilestone attaches a milestone to a grant
func (db *DB) AddMilestone(ctx context.Context, grantID string, in MilestoneInput) (*model.Milestone, error) {
	if _, err := db.GetGrant(ctx, grantID); err != nil {
		return nil, err
	}
	if in.TargetDate.IsZero() {
		return nil, invalidf("milestone target date is required")
	}
	if in.Number < 0 {
		return nil, invalidf("milestone number must be positive, got %d", in.Number)
	}
	if in.Number == 0 {
		var max sql.NullInt64
		row := db.queryRow(ctx, db.sql, "select", "milestones",
			`SELECT MAX(number) FROM milestones WHERE grant_id = ?`, grantID)
		if err := row.Scan(&max); err != nil {
			return nil, fmt.Errorf("failed to number milestone: %w", err)
		}
		in.Number = int(max.Int64) + 1
	}

	now := time.Now().UTC()
	m := &model.Milestone{
		ID:         uuid.New().String(),
		GrantID:    grantID,
		Number:     in.Number,
		TargetDate: day(in.TargetDate),
		Label:      strings.TrimSpace(in.Label),
		CreatedAt:  now,
	}

	_, err := db.exec(ctx, db.sql, "insert", "milestones",
		`INSERT INTO milestones (id, grant_id, number, target_date, label, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.GrantID, m.Number, formatDate(m.TargetDate), m.Label, formatStamp(now))
	if err != nil {
		return nil, fmt.Errorf("failed to add milestone: %w", err)
	}
	return m, nil
}

// GetMilestone returns one milestone
func (db *DB) GetMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	row := db.queryRow(ctx, db.sql, "select", "milestones", milestoneSelect+` WHERE id = ?`, id)
	m, err := scanMilestone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return m, nil
}

// ListMilestones returns a grant's milestones ordered by number
func (db *DB) ListMilestones(ctx context.Context, grantID string) ([]model.Milestone, error) {
	rows, err := db.query(ctx, db.sql, "select", "milestones",
		milestoneSelect+` WHERE grant_id = ? ORDER BY number, target_date, id`, grantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

// UpdateMilestone replaces a milestone's number, date and label
func (db *DB) UpdateMilestone(ctx context.Context, id string, in MilestoneInput) (*model.Milestone, error) {
	if in.Number <= 0 {
		return nil, invalidf("milestone number must be positive, got %d", in.Number)
	}
	if in.TargetDate.IsZero() {
		return nil, invalidf("milestone target date is required")
	}
	res, err := db.exec(ctx, db.sql, "update", "milestones",
		`UPDATE milestones SET number = ?, target_date = ?, label = ? WHERE id = ?`,
		in.Number, formatDate(in.TargetDate), strings.TrimSpace(in.Label), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	return db.GetMilestone(ctx, id)
}

// DeleteMilestone removes a milestone and returns what was deleted
func (db *DB) DeleteMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	m, err := db.GetMilestone(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := db.exec(ctx, db.sql, "delete", "milestones", `DELETE FROM milestones WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete milestone: %w", err)
	}
	return m, nil
}

const milestoneSelect = `SELECT id, grant_id, number, target_date, label, created_at FROM milestones`

func scanMilestone(s scanner) (*model.Milestone, error) {
	var m model.Milestone
	var target, created string
	if err := s.Scan(&m.ID, &m.GrantID, &m.Number, &target, &m.Label, &created); err != nil {
		return nil, err
	}
	t, err := parseDate(target)
	if err != nil {
		return nil, err
	}
	m.TargetDate = t
	m.CreatedAt = parseStamp(created)
	return &m, nil
}
