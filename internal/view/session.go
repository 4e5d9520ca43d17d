// Package view binds one viewer's timeline to live store data: it keeps the
// latest snapshots, runs the drag controller and renders frames on demand.
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/metrics"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/store"
	"github.com/existflow/grantline/internal/timeline"
)

// Options configure a Session
type Options struct {
	BoardID  string
	ViewerID string
	Zoom     timeline.ZoomMode
	Style    timeline.Style
	Palette  *timeline.Palette

	// OnEdit and OnDelete are asked to act on a grant the viewer may edit.
	// Navigation and confirmation belong to the host.
	OnEdit   func(model.Grant)
	OnDelete func(model.Grant)
	// OnChange fires after every state change. It must not block.
	OnChange func()
	// OnWriteError reports a failed progress write
	OnWriteError func(grantID string, err error)

	// Now overrides the clock used for the today line
	Now func() time.Time
}

// Session is one mounted timeline
type Session struct {
	store    store.Store
	opts     Options
	renderer *timeline.Renderer
	writer   *store.ProgressWriter
	ctrl     *timeline.Controller
	log      *logger.Logger

	mu         sync.Mutex
	items      []model.Grant
	milestones map[string][]model.Milestone
	msUnsub    map[string]func()
	unsub      func()
	zoom       timeline.ZoomMode
	loading    bool
	closed     bool
	revision   uint64
	frame      *timeline.Frame
	// colours of vanished grants, dropped on the next render
	stale []string

	renderMu sync.Mutex // guards opts.Palette
}

// New mounts a timeline for opts.BoardID and subscribes to it
func New(s store.Store, opts Options) *Session {
	if opts.Palette == nil {
		opts.Palette = timeline.NewPalette(false)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sess := &Session{
		store:      s,
		opts:       opts,
		renderer:   timeline.NewRenderer(opts.Style),
		writer:     store.NewProgressWriter(s),
		log:        logger.WithFields(logger.F("board_id", opts.BoardID), logger.F("viewer", opts.ViewerID)),
		milestones: make(map[string][]model.Milestone),
		msUnsub:    make(map[string]func()),
		zoom:       opts.Zoom,
		loading:    true,
	}
	sess.writer.OnError = sess.writeFailed
	sess.ctrl = timeline.NewController(opts.ViewerID, sess, sess)
	metrics.ActiveViews.Inc()

	unsub := s.Subscribe(opts.BoardID, sess.onGrants)
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		unsub()
		return sess
	}
	sess.unsub = unsub
	sess.mu.Unlock()

	sess.log.Debug("Timeline mounted", logger.F("zoom", opts.Zoom.String()))
	return sess
}

// onGrants applies a board snapshot and reconciles milestone subscriptions
func (s *Session) onGrants(grants []model.Grant) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	// keep the local progress of the grant being dragged so a snapshot
	// taken before the latest write does not pull the marker back
	drag := s.ctrl.Drag()
	items := make([]model.Grant, len(grants))
	copy(items, grants)
	if drag.Dragging {
		for i := range items {
			if items[i].ID != drag.ItemID {
				continue
			}
			for _, old := range s.items {
				if old.ID == drag.ItemID {
					items[i].ProgressDate = old.ProgressDate
				}
			}
		}
	}
	s.items = items
	s.loading = false

	present := make(map[string]bool, len(items))
	var added []string
	for _, g := range items {
		present[g.ID] = true
		if _, ok := s.msUnsub[g.ID]; !ok {
			added = append(added, g.ID)
			s.msUnsub[g.ID] = func() {}
		}
	}
	var removed []func()
	for id, unsub := range s.msUnsub {
		if !present[id] {
			removed = append(removed, unsub)
			delete(s.msUnsub, id)
			delete(s.milestones, id)
			s.stale = append(s.stale, id)
		}
	}
	s.revision++
	s.mu.Unlock()

	for _, unsub := range removed {
		unsub()
	}
	for _, id := range added {
		s.watchMilestones(id)
	}
	s.changed()
}

func (s *Session) watchMilestones(grantID string) {
	unsub := s.store.SubscribeMilestones(grantID, func(ms []model.Milestone) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if _, ok := s.msUnsub[grantID]; !ok {
			s.mu.Unlock()
			return
		}
		s.milestones[grantID] = ms
		s.revision++
		s.mu.Unlock()
		s.changed()
	})

	s.mu.Lock()
	if _, ok := s.msUnsub[grantID]; !ok || s.closed {
		// grant vanished or view closed while subscribing
		s.mu.Unlock()
		unsub()
		return
	}
	s.msUnsub[grantID] = unsub
	s.mu.Unlock()
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

// Item implements timeline.ItemSource
func (s *Session) Item(id string) (model.Grant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.items {
		if g.ID == id {
			return g, true
		}
	}
	return model.Grant{}, false
}

// Mapper implements timeline.ItemSource using the current items and zoom
func (s *Session) Mapper() timeline.Mapper {
	s.mu.Lock()
	items := make([]model.Grant, len(s.items))
	copy(items, s.items)
	zoom := s.zoom
	s.mu.Unlock()
	return timeline.NewMapper(timeline.LayoutFor(zoom), timeline.CalculateScale(items, zoom, s.opts.Now()))
}

// SetProgress implements timeline.ProgressSink. The local snapshot is
// updated before the write is sent and is not rolled back on failure.
func (s *Session) SetProgress(u timeline.ProgressUpdate) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := false
	for i := range s.items {
		if s.items[i].ID == u.ItemID && !s.items[i].ProgressDate.Equal(u.Date) {
			s.items[i].ProgressDate = u.Date
			changed = true
		}
	}
	if changed {
		s.revision++
	}
	s.mu.Unlock()

	s.writer.SetProgress(u)
	if changed {
		s.changed()
	}
}

func (s *Session) writeFailed(u timeline.ProgressUpdate, err error) {
	s.log.Warn("Progress update was not saved", logger.F("grant_id", u.ItemID), logger.Err(err))
	if s.opts.OnWriteError != nil {
		s.opts.OnWriteError(u.ItemID, err)
	}
}

// Items returns a copy of the current grants
func (s *Session) Items() []model.Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Grant, len(s.items))
	copy(out, s.items)
	return out
}

// Milestones returns the current milestones of a grant
func (s *Session) Milestones(grantID string) []model.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Milestone(nil), s.milestones[grantID]...)
}

// Loading is true until the first board snapshot arrives
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Revision increases with every state change
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Zoom returns the current zoom mode
func (s *Session) Zoom() timeline.ZoomMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// SetZoom changes the zoom mode
func (s *Session) SetZoom(z timeline.ZoomMode) {
	s.mu.Lock()
	if s.zoom == z {
		s.mu.Unlock()
		return
	}
	s.zoom = z
	s.revision++
	s.mu.Unlock()
	s.changed()
}

// Render lays out a frame from the current state
func (s *Session) Render() *timeline.Frame {
	s.mu.Lock()
	items := make([]model.Grant, len(s.items))
	copy(items, s.items)
	ms := make(map[string][]model.Milestone, len(s.milestones))
	for id, m := range s.milestones {
		ms[id] = m
	}
	zoom := s.zoom
	stale := s.stale
	s.stale = nil
	s.mu.Unlock()

	s.renderMu.Lock()
	for _, id := range stale {
		s.opts.Palette.Remove(id)
	}
	start := time.Now()
	frame := s.renderer.Render(timeline.RenderInput{
		Items:      items,
		Milestones: ms,
		Mode:       zoom,
		ViewerID:   s.opts.ViewerID,
		Palette:    s.opts.Palette,
		Now:        s.opts.Now(),
		HoverDate:  s.ctrl.HoverDate(),
		Dragging:   s.ctrl.Drag().Dragging,
	})
	metrics.RecordRender(zoom.String(), time.Since(start))
	s.renderMu.Unlock()

	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
	return frame
}

// Frame returns the last rendered frame, rendering one if needed
func (s *Session) Frame() *timeline.Frame {
	s.mu.Lock()
	f := s.frame
	s.mu.Unlock()
	if f == nil {
		return s.Render()
	}
	return f
}

// PointerDown starts a drag when (x, y) hits an editable progress marker
// of the last rendered frame
func (s *Session) PointerDown(x, y float64) bool {
	row, ok := s.Frame().HitTest(x, y)
	if !ok || !row.Editable {
		return false
	}
	return s.PointerDownOn(row.ItemID)
}

// PointerDownOn starts dragging a grant's progress marker
func (s *Session) PointerDownOn(itemID string) bool {
	if !s.ctrl.PointerDown(itemID) {
		return false
	}
	s.bump()
	return true
}

// PointerMove forwards pointer motion at surface offset x
func (s *Session) PointerMove(x float64, overSurface bool) *timeline.ProgressUpdate {
	before := s.ctrl.HoverDate()
	u := s.ctrl.PointerMove(x, overSurface)
	if u == nil {
		after := s.ctrl.HoverDate()
		if !sameDay(before, after) {
			s.bump()
		}
	}
	return u
}

// PointerUp ends any drag
func (s *Session) PointerUp() {
	wasDragging := s.ctrl.Drag().Dragging
	s.ctrl.PointerUp()
	if wasDragging {
		s.bump()
	}
}

// PointerLeave clears the hover tooltip
func (s *Session) PointerLeave() {
	hadHover := s.ctrl.HoverDate() != nil
	s.ctrl.PointerLeave()
	if hadHover {
		s.bump()
	}
}

// Drag returns the controller's drag state
func (s *Session) Drag() timeline.DragState {
	return s.ctrl.Drag()
}

// HoverDate returns the date under the pointer
func (s *Session) HoverDate() *time.Time {
	return s.ctrl.HoverDate()
}

func (s *Session) bump() {
	s.mu.Lock()
	s.revision++
	s.mu.Unlock()
	s.changed()
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return timeline.Day(*a).Equal(timeline.Day(*b))
}

// CanEdit reports whether the viewer may edit a grant
func (s *Session) CanEdit(grantID string) bool {
	g, ok := s.Item(grantID)
	return ok && store.CanEdit(g, s.opts.ViewerID)
}

// RequestEdit asks the host to edit a grant. It returns false when the
// grant is unknown or read-only for the viewer.
func (s *Session) RequestEdit(grantID string) bool {
	g, ok := s.Item(grantID)
	if !ok || !store.CanEdit(g, s.opts.ViewerID) {
		return false
	}
	if s.opts.OnEdit != nil {
		s.opts.OnEdit(g)
	}
	return true
}

// RequestDelete asks the host to delete a grant, normally after a
// confirmation. It returns false when the grant is unknown or read-only.
func (s *Session) RequestDelete(grantID string) bool {
	g, ok := s.Item(grantID)
	if !ok || !store.CanEdit(g, s.opts.ViewerID) {
		return false
	}
	if s.opts.OnDelete != nil {
		s.opts.OnDelete(g)
	}
	return true
}

// Delete removes a grant the viewer may edit. Hosts call it once the user
// has confirmed a delete request.
func (s *Session) Delete(ctx context.Context, grantID string) error {
	if !s.CanEdit(grantID) {
		return fmt.Errorf("grant %s cannot be deleted by %s", grantID, s.opts.ViewerID)
	}
	if err := s.store.DeleteGrant(ctx, grantID); err != nil {
		s.log.Error("Failed to delete grant", logger.F("grant_id", grantID), logger.Err(err))
		return err
	}
	return nil
}

// Close releases every subscription. An active drag is abandoned; progress
// already shown stays as it is.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := make([]func(), 0, len(s.msUnsub)+1)
	if s.unsub != nil {
		unsubs = append(unsubs, s.unsub)
	}
	for id, unsub := range s.msUnsub {
		unsubs = append(unsubs, unsub)
		delete(s.msUnsub, id)
	}
	s.mu.Unlock()

	s.ctrl.Abandon()
	for _, unsub := range unsubs {
		unsub()
	}
	go s.writer.Close()
	metrics.ActiveViews.Dec()
	s.log.Debug("Timeline unmounted")
}
