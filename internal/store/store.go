// Package store defines the live data contract the timeline is driven by.
package store

import (
	"context"
	"time"

	"github.com/existflow/grantline/internal/model"
)

// Store delivers live grant and milestone snapshots and accepts the two
// writes the timeline performs.
//
// Subscriptions deliver full snapshots asynchronously, never from inside the
// Subscribe call. Deliveries for one subscription are ordered. Grants arrive
// ordered by start date, milestones by number. A failed load delivers an
// empty snapshot. After the returned unsubscribe function returns no further
// callbacks run; calling it again is a no-op. It must not be called from
// the subscription's own callback.
type Store interface {
	Subscribe(boardID string, onUpdate func([]model.Grant)) (unsubscribe func())
	SubscribeMilestones(grantID string, onUpdate func([]model.Milestone)) (unsubscribe func())
	SetProgressDate(ctx context.Context, grantID string, date time.Time) error
	DeleteGrant(ctx context.Context, grantID string) error
}

// CanEdit reports whether viewerID may move the grant's progress or delete
// it. The decision is local: membership in the assigned users.
func CanEdit(g model.Grant, viewerID string) bool {
	return g.IsAssigned(viewerID)
}
