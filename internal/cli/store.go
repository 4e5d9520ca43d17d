package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/existflow/grantline/internal/config"
	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/notify"
	"github.com/existflow/grantline/internal/store"
)

// openLive opens the configured database and change notifier
func openLive(ctx context.Context, c *config.Config) (*db.Live, func(), error) {
	database, err := db.Open(c.DBDriver, c.DBDSN)
	if err != nil {
		logger.Error("Failed to open database", logger.F("driver", c.DBDriver), logger.Err(err))
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	var n notify.Notifier
	switch c.Notifier {
	case config.NotifierPostgres:
		n, err = notify.NewPostgres(c.DBDSN, database.SQL())
	case config.NotifierRedis:
		n, err = notify.NewRedis(ctx, c.RedisAddr)
	}
	if err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("failed to start %s notifier: %w", c.Notifier, err)
	}

	live := db.NewLive(database, n)
	return live, func() {
		if err := live.Notifier().Close(); err != nil {
			logger.Warn("Failed to close notifier", logger.Err(err))
		}
		_ = database.Close()
		logger.Info("Database closed")
	}, nil
}

// resolveBoard finds a board by id or name that the viewer can see
func resolveBoard(ctx context.Context, d *db.DB, ref string) (*model.Board, error) {
	b, err := d.FindBoard(ctx, ref, cfg.ViewerID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("board %q not found", ref)
	}
	if err != nil {
		return nil, err
	}
	if !b.CanView(cfg.ViewerID) {
		return nil, fmt.Errorf("board %q not found", ref)
	}
	return b, nil
}

// currentBoard resolves --board or the board selected with 'board use'
func currentBoard(ctx context.Context, d *db.Live) (*model.Board, error) {
	if cfg.CurrentBoard == "" {
		return nil, fmt.Errorf("no board selected; create one with 'grantline board new' or pick one with 'grantline board use'")
	}
	return resolveBoard(ctx, d.DB, cfg.CurrentBoard)
}

// editableGrant loads a grant the viewer is assigned to
func editableGrant(ctx context.Context, d *db.Live, id string) (*model.Grant, error) {
	g, err := d.GetGrant(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("grant %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !store.CanEdit(*g, cfg.ViewerID) {
		return nil, fmt.Errorf("grant %q is read-only for %s", g.Name, cfg.ViewerID)
	}
	return g, nil
}
