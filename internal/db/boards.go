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

// CreateBoard creates a board owned by ownerID
func (db *DB) CreateBoard(ctx context.Context, name, visibility, ownerID string) (*model.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("board name is required")
	}
	if ownerID == "" {
		return nil, invalidf("board owner is required")
	}
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	if visibility != model.VisibilityPrivate && visibility != model.VisibilityShared {
		return nil, invalidf("visibility must be %s or %s", model.VisibilityPrivate, model.VisibilityShared)
	}

	now := time.Now().UTC()
	b := &model.Board{
		ID:         uuid.New().String(),
		Name:       name,
		Visibility: visibility,
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := db.exec(ctx, db.sql, "insert", "boards",
		`INSERT INTO boards (id, name, visibility, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Visibility, b.OwnerID, formatStamp(now), formatStamp(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return b, nil
}

// GetBoard returns a board with its members
func (db *DB) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	row := db.queryRow(ctx, db.sql, "select", "boards",
		`SELECT id, name, visibility, owner_id, created_at, updated_at FROM boards WHERE id = ?`, id)
	b, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("board %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	members, err := db.boardMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Members = members
	return b, nil
}

// FindBoard resolves a board by id or by exact name among the boards
// userID can see
func (db *DB) FindBoard(ctx context.Context, ref, userID string) (*model.Board, error) {
	if b, err := db.GetBoard(ctx, ref); err == nil {
		return b, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	boards, err := db.ListBoards(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range boards {
		if strings.EqualFold(boards[i].Name, ref) {
			return &boards[i], nil
		}
	}
	return nil, fmt.Errorf("board %q: %w", ref, ErrNotFound)
}

// ListBoards returns the boards userID owns, is a member of, or that are
// shared, ordered by name
func (db *DB) ListBoards(ctx context.Context, userID string) ([]model.Board, error) {
	rows, err := db.query(ctx, db.sql, "select", "boards", `
SELECT id, name, visibility, owner_id, created_at, updated_at FROM boards
WHERE owner_id = ? OR visibility = ?
   OR id IN (SELECT board_id FROM board_members WHERE user_id = ?)
ORDER BY name, id`, userID, model.VisibilityShared, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []model.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range boards {
		if boards[i].Members, err = db.boardMembers(ctx, boards[i].ID); err != nil {
			return nil, err
		}
	}
	return boards, nil
}

// DeleteBoard removes a board with its grants and milestones
func (db *DB) DeleteBoard(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		stmts := []struct{ table, query string }{
			{"milestones", `DELETE FROM milestones WHERE grant_id IN (SELECT id FROM grants WHERE board_id = ?)`},
			{"grant_assignees", `DELETE FROM grant_assignees WHERE grant_id IN (SELECT id FROM grants WHERE board_id = ?)`},
			{"grants", `DELETE FROM grants WHERE board_id = ?`},
			{"board_members", `DELETE FROM board_members WHERE board_id = ?`},
		}
		for _, s := range stmts {
			if _, err := db.exec(ctx, tx, "delete", s.table, s.query, id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", s.table, err)
			}
		}

		res, err := db.exec(ctx, tx, "delete", "boards", `DELETE FROM boards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("board %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// AddBoardMember grants userID access to a private board
func (db *DB) AddBoardMember(ctx context.Context, boardID, userID string) error {
	if userID == "" {
		return invalidf("member id is required")
	}
	if _, err := db.GetBoard(ctx, boardID); err != nil {
		return err
	}
	_, err := db.exec(ctx, db.sql, "insert", "board_members",
		`INSERT INTO board_members (board_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveBoardMember revokes a membership
func (db *DB) RemoveBoardMember(ctx context.Context, boardID, userID string) error {
	_, err := db.exec(ctx, db.sql, "delete", "board_members",
		`DELETE FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// BoardStats counts the grants of a board that are active and completed
// on now's calendar day
func (db *DB) BoardStats(ctx context.Context, boardID string, now time.Time) (model.BoardStats, error) {
	grants, err := db.ListGrants(ctx, boardID)
	if err != nil {
		return model.BoardStats{}, err
	}

	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	stats := model.BoardStats{Total: len(grants)}
	for i := range grants {
		switch {
		case grants[i].IsCompleted(today):
			stats.Completed++
		case grants[i].IsActive(today):
			stats.Active++
		}
	}
	return stats, nil
}

func (db *DB) boardMembers(ctx context.Context, boardID string) ([]string, error) {
	rows, err := db.query(ctx, db.sql, "select", "board_members",
		`SELECT user_id FROM board_members WHERE board_id = ? ORDER BY user_id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (*model.Board, error) {
	var b model.Board
	var created, updated string
	if err := s.Scan(&b.ID, &b.Name, &b.Visibility, &b.OwnerID, &created, &updated); err != nil {
		return nil, err
	}
	b.CreatedAt = parseStamp(created)
	b.UpdatedAt = parseStamp(updated)
	return &b, nil
}
