package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateBoards,
		migrationCreateBoardMembers,
		migrationCreateGrants,
		migrationCreateGrantAssignees,
		migrationCreateMilestones,
	}

	for i, m := range migrations {
		if _, err := db.sql.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// The schema is shared by sqlite and postgres: ids are uuid text, dates and
// timestamps are ISO text.

const migrationCreateBoards = `
CREATE TABLE IF NOT EXISTS boards (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    visibility TEXT NOT NULL DEFAULT 'private',
    owner_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id);
`

const migrationCreateBoardMembers = `
CREATE TABLE IF NOT EXISTS board_members (
    board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    PRIMARY KEY (board_id, user_id)
);
`

const migrationCreateGrants = `
CREATE TABLE IF NOT EXISTS grants (
    id TEXT PRIMARY KEY,
    board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    progress_date TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_grants_board ON grants(board_id, start_date);
`

const migrationCreateGrantAssignees = `
CREATE TABLE IF NOT EXISTS grant_assignees (
    grant_id TEXT NOT NULL REFERENCES grants(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    PRIMARY KEY (grant_id, user_id)
);
`

const migrationCreateMilestones = `
CREATE TABLE IF NOT EXISTS milestones (
    id TEXT PRIMARY KEY,
    grant_id TEXT NOT NULL REFERENCES grants(id) ON DELETE CASCADE,
    number INTEGER NOT NULL,
    target_date TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_milestones_grant ON milestones(grant_id, number);
`
