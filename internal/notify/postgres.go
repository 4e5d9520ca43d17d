package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/lib/pq"
)

// PostgresChannel is the LISTEN/NOTIFY channel carrying topics
const PostgresChannel = "grantline"

// Postgres delivers topics between processes sharing a PostgreSQL database
type Postgres struct {
	db       *sql.DB
	listener *pq.Listener
	local    *Memory
	done     chan struct{}
}

// NewPostgres listens on PostgresChannel using dsn and publishes with db
func NewPostgres(dsn string, db *sql.DB) (*Postgres, error) {
	report := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("Postgres listener connection failed", logger.Err(err))
		case pq.ListenerEventDisconnected:
			logger.Warn("Postgres listener disconnected", logger.Err(err))
		case pq.ListenerEventReconnected:
			logger.Info("Postgres listener reconnected")
		}
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, report)
	if err := listener.Listen(PostgresChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", PostgresChannel, err)
	}

	p := &Postgres{
		db:       db,
		listener: listener,
		local:    NewMemory(),
		done:     make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func (p *Postgres) run() {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-p.done:
			return
		case n, ok := <-p.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// reconnected: notifications may have been lost
				p.local.broadcast()
				continue
			}
			p.local.dispatch(n.Extra)
		case <-ping.C:
			go p.listener.Ping()
		}
	}
}

// Publish sends topic to every listening process, this one included
func (p *Postgres) Publish(ctx context.Context, topic string) error {
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", PostgresChannel, topic); err != nil {
		return fmt.Errorf("failed to notify %s: %w", topic, err)
	}
	return nil
}

func (p *Postgres) Listen(topic string, fn func()) func() {
	return p.local.Listen(topic, fn)
}

// Close stops listening
func (p *Postgres) Close() error {
	close(p.done)
	p.local.Close()
	return p.listener.Close()
}
