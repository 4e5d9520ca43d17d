package db

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/metrics"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/notify"
	"github.com/existflow/grantline/internal/store"
)

// DefaultPollInterval is how often a subscription reloads when no change
// notification arrives
const DefaultPollInterval = 30 * time.Second

// loadTimeout bounds one snapshot reload
const loadTimeout = 10 * time.Second

var _ store.Store = (*Live)(nil)

// Live serves live snapshots from the database. Every write made through
// Live publishes a change topic; subscriptions reload when their topic
// fires and on a fixed poll interval so a missed notification heals.
type Live struct {
	*DB
	notifier     notify.Notifier
	PollInterval time.Duration
}

// NewLive wraps db. A nil notifier uses an in-process one.
func NewLive(db *DB, n notify.Notifier) *Live {
	if n == nil {
		n = notify.NewMemory()
	}
	return &Live{DB: db, notifier: n, PollInterval: DefaultPollInterval}
}

// Notifier returns the notifier used for change topics
func (l *Live) Notifier() notify.Notifier { return l.notifier }

// Subscribe delivers the board's grants now and after every change
func (l *Live) Subscribe(boardID string, onUpdate func([]model.Grant)) func() {
	log := logger.WithFields(logger.F("board_id", boardID))
	load := func(ctx context.Context) []model.Grant {
		grants, err := l.ListGrants(ctx, boardID)
		if err != nil {
			log.Error("Failed to load grants", logger.Err(err))
			return []model.Grant{}
		}
		return grants
	}
	return subscribe(l, "grants", notify.BoardTopic(boardID), load, onUpdate)
}

// SubscribeMilestones delivers a grant's milestones now and after every change
func (l *Live) SubscribeMilestones(grantID string, onUpdate func([]model.Milestone)) func() {
	log := logger.WithFields(logger.F("grant_id", grantID))
	load := func(ctx context.Context) []model.Milestone {
		ms, err := l.ListMilestones(ctx, grantID)
		if err != nil {
			log.Error("Failed to load milestones", logger.Err(err))
			return []model.Milestone{}
		}
		return ms
	}
	return subscribe(l, "milestones", notify.GrantTopic(grantID), load, onUpdate)
}

// subscription reloads on a single goroutine so deliveries stay ordered
type subscription[T any] struct {
	kick chan struct{}
	done chan struct{}

	mu     sync.Mutex // held while the callback runs
	closed bool
}

func subscribe[T any](l *Live, kind, topic string, load func(context.Context) T, onUpdate func(T)) func() {
	s := &subscription[T]{
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	cancelListen := l.notifier.Listen(topic, func() {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	})
	metrics.SubscriptionOpened(kind)

	go func() {
		interval := l.PollInterval
		if interval <= 0 {
			interval = DefaultPollInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last T
		delivered := false
		reload := func(force bool) {
			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			snap := load(ctx)
			cancel()
			if !force && delivered && reflect.DeepEqual(snap, last) {
				return
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return
			}
			last, delivered = snap, true
			onUpdate(snap)
		}

		reload(true)
		for {
			select {
			case <-s.done:
				return
			case <-s.kick:
				reload(true)
			case <-ticker.C:
				reload(false)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelListen()
			close(s.done)
			// wait out a delivery in flight
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			metrics.SubscriptionClosed(kind)
		})
	}
}

func (l *Live) publish(ctx context.Context, topics ...string) {
	for _, t := range topics {
		if err := l.notifier.Publish(ctx, t); err != nil {
			logger.Warn("Failed to publish change", logger.F("topic", t), logger.Err(err))
		}
	}
}

// SetProgressDate implements store.Store
func (l *Live) SetProgressDate(ctx context.Context, grantID string, date time.Time) error {
	g, err := l.DB.SetProgressDate(ctx, grantID, date)
	if err != nil {
		return err
	}
	l.publish(ctx, notify.BoardTopic(g.BoardID))
	return nil
}

// DeleteGrant implements store.Store
func (l *Live) DeleteGrant(ctx context.Context, grantID string) error {
	g, err := l.DB.DeleteGrant(ctx, grantID)
	if err != nil {
		return err
	}
	l.publish(ctx, notify.BoardTopic(g.BoardID), notify.GrantTopic(grantID))
	return nil
}

// CreateGrant inserts a grant and notifies the board
func (l *Live) CreateGrant(ctx context.Context, in GrantInput) (*model.Grant, error) {
	g, err := l.DB.CreateGrant(ctx, in)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, notify.BoardTopic(g.BoardID))
	return g, nil
}

// UpdateGrant updates a grant and notifies the board
func (l *Live) UpdateGrant(ctx context.Context, id string, in GrantInput) (*model.Grant, error) {
	g, err := l.DB.UpdateGrant(ctx, id, in)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, notify.BoardTopic(g.BoardID))
	return g, nil
}

// DeleteBoard removes a board and notifies its subscribers
func (l *Live) DeleteBoard(ctx context.Context, id string) error {
	if err := l.DB.DeleteBoard(ctx, id); err != nil {
		return err
	}
	l.publish(ctx, notify.BoardTopic(id))
	return nil
}

// AddMilestone adds a milestone and notifies the grant
func (l *Live) AddMilestone(ctx context.Context, grantID string, in MilestoneInput) (*model.Milestone, error) {
	m, err := l.DB.AddMilestone(ctx, grantID, in)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, notify.GrantTopic(grantID))
	return m, nil
}

// UpdateMilestone updates a milestone and notifies its grant
func (l *Live) UpdateMilestone(ctx context.Context, id string, in MilestoneInput) (*model.Milestone, error) {
	m, err := l.DB.UpdateMilestone(ctx, id, in)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, notify.GrantTopic(m.GrantID))
	return m, nil
}

// DeleteMilestone removes a milestone and notifies its grant
func (l *Live) DeleteMilestone(ctx context.Context, id string) (*model.Milestone, error) {
	m, err := l.DB.DeleteMilestone(ctx, id)
	if err != nil {
		return nil, err
	}
	l.publish(ctx, notify.GrantTopic(m.GrantID))
	return m, nil
}
