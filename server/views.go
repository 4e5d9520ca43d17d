package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/existflow/grantline/internal/view"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// sseKeepAlive is how often an idle event stream sends a comment line
const sseKeepAlive = 30 * time.Second

// DefaultViewTTL is how long a view without requests or open event streams
// stays mounted
const DefaultViewTTL = 10 * time.Minute

// liveView is a mounted timeline driven over HTTP
type liveView struct {
	id       string
	boardID  string
	viewerID string
	session  *view.Session

	mu       sync.Mutex
	watchers map[chan struct{}]struct{}
	lastSeen time.Time
	done     chan struct{}
	once     sync.Once
}

// touch records client activity
func (v *liveView) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

// idle reports whether nobody has used the view for ttl. A view with an
// open event stream is never idle.
func (v *liveView) idle(now time.Time, ttl time.Duration) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.watchers) == 0 && now.Sub(v.lastSeen) >= ttl
}

// notify wakes every event stream of the view without blocking
func (v *liveView) notify() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ch := range v.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (v *liveView) watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	v.mu.Lock()
	v.watchers[ch] = struct{}{}
	v.mu.Unlock()
	return ch, func() {
		v.mu.Lock()
		delete(v.watchers, ch)
		v.mu.Unlock()
	}
}

func (v *liveView) close() {
	v.once.Do(func() {
		v.session.Close()
		close(v.done)
	})
}

// registry holds the mounted views by id
type registry struct {
	mu    sync.Mutex
	views map[string]*liveView
	now   func() time.Time
}

func newRegistry() *registry {
	return &registry{views: make(map[string]*liveView), now: time.Now}
}

func (r *registry) add(v *liveView) {
	r.mu.Lock()
	r.views[v.id] = v
	r.mu.Unlock()
}

func (r *registry) get(id string) (*liveView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	return v, ok
}

func (r *registry) remove(id string) (*liveView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	delete(r.views, id)
	return v, ok
}

// expire removes the views idle for ttl and returns them
func (r *registry) expire(ttl time.Duration) []*liveView {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*liveView
	for id, v := range r.views {
		if v.idle(now, ttl) {
			delete(r.views, id)
			out = append(out, v)
		}
	}
	return out
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*liveView)
	r.mu.Unlock()
	for _, v := range views {
		v.close()
	}
}

type createViewRequest struct {
	BoardID string `json:"board_id"`
	Zoom    string `json:"zoom"`
}

type viewResponse struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	Zoom     string `json:"zoom"`
	Loading  bool   `json:"loading"`
	Revision uint64 `json:"revision"`
}

type pointerRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	// Over is false when the pointer is outside the surface; defaults to true
	Over *bool `json:"over,omitempty"`
}

type progressJSON struct {
	GrantID string `json:"grant_id"`
	Date    string `json:"date"`
}

type pointerResponse struct {
	Dragging bool          `json:"dragging"`
	GrantID  string        `json:"grant_id,omitempty"`
	Hover    string        `json:"hover,omitempty"`
	Update   *progressJSON `json:"update,omitempty"`
	Revision uint64        `json:"revision"`
}

type zoomRequest struct {
	Zoom string `json:"zoom"`
}

func (v *liveView) response() viewResponse {
	return viewResponse{
		ID:       v.id,
		BoardID:  v.boardID,
		Zoom:     v.session.Zoom().String(),
		Loading:  v.session.Loading(),
		Revision: v.session.Revision(),
	}
}

// ownView finds a view mounted by the requesting viewer
func (s *Server) ownView(c echo.Context) (*liveView, error) {
	v, ok := s.views.get(c.Param("vid"))
	if !ok || v.viewerID != viewerID(c) {
		return nil, c.JSON(http.StatusNotFound, map[string]string{"error": "view not found"})
	}
	v.touch(s.views.now())
	return v, nil
}

// reapViews unmounts idle views until stop is closed
func (s *Server) reapViews(ttl time.Duration, stop <-chan struct{}) {
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, v := range s.views.expire(ttl) {
				v.close()
				logger.Info("Idle view unmounted", logger.F("view_id", v.id), logger.F("viewer", v.viewerID))
			}
		}
	}
}

func (s *Server) handleCreateView(c echo.Context) error {
	var req createViewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	b, err := s.viewableBoard(c, req.BoardID)
	if err != nil {
		return fail(c, err)
	}
	zoom := timeline.ZoomMonthly
	if req.Zoom != "" {
		if zoom, err = timeline.ParseZoomMode(req.Zoom); err != nil {
			return badRequest(c, err.Error())
		}
	}

	v := &liveView{
		id:       uuid.New().String(),
		boardID:  b.ID,
		viewerID: viewerID(c),
		watchers: make(map[chan struct{}]struct{}),
		lastSeen: s.views.now(),
		done:     make(chan struct{}),
	}
	v.session = view.New(s.live, view.Options{
		BoardID:  b.ID,
		ViewerID: v.viewerID,
		Zoom:     zoom,
		Style:    s.opts.Style,
		Palette:  timeline.NewPalette(s.opts.Dark),
		OnChange: v.notify,
		OnWriteError: func(grantID string, err error) {
			logger.Warn("View progress write failed",
				logger.F("view_id", v.id),
				logger.F("grant_id", grantID),
				logger.Err(err))
		},
		Now: s.now,
	})
	s.views.add(v)

	logger.Info("View mounted", logger.F("view_id", v.id), logger.F("board_id", b.ID), logger.F("viewer", v.viewerID))
	return c.JSON(http.StatusCreated, v.response())
}

func (s *Server) handlePointer(c echo.Context) error {
	v, err := s.ownView(c)
	if v == nil {
		return err
	}
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	over := req.Over == nil || *req.Over

	var res pointerResponse
	switch req.Type {
	case "down":
		v.session.PointerDown(req.X, req.Y)
	case "move":
		if u := v.session.PointerMove(req.X, over); u != nil {
			res.Update = &progressJSON{GrantID: u.ItemID, Date: u.Date.Format("2006-01-02")}
		}
	case "up":
		v.session.PointerUp()
	case "leave":
		v.session.PointerLeave()
	default:
		return badRequest(c, fmt.Sprintf("unknown pointer event %q", req.Type))
	}

	d := v.session.Drag()
	res.Dragging = d.Dragging
	res.GrantID = d.ItemID
	if h := v.session.HoverDate(); h != nil {
		res.Hover = timeline.FormatDate(*h)
	}
	res.Revision = v.session.Revision()
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleZoom(c echo.Context) error {
	v, err := s.ownView(c)
	if v == nil {
		return err
	}
	var req zoomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	zoom, err := timeline.ParseZoomMode(req.Zoom)
	if err != nil {
		return badRequest(c, err.Error())
	}
	v.session.SetZoom(zoom)
	return c.JSON(http.StatusOK, v.response())
}

func (s *Server) handleViewSVG(c echo.Context) error {
	v, err := s.ownView(c)
	if v == nil {
		return err
	}
	return writeSVG(c, v.session.Render())
}

// handleViewEvents streams a render event whenever the view changes
func (s *Server) handleViewEvents(c echo.Context) error {
	v, err := s.ownView(c)
	if v == nil {
		return err
	}
	changes, stop := v.watch()
	defer func() {
		stop()
		// the idle clock restarts when a stream goes away
		v.touch(s.views.now())
	}()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	send := func() error {
		if _, err := fmt.Fprintf(res, "event: render\ndata: {\"revision\":%d}\n\n", v.session.Revision()); err != nil {
			return err
		}
		res.Flush()
		return nil
	}
	if err := send(); err != nil {
		return nil
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.done:
			return nil
		case <-changes:
			if err := send(); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (s *Server) handleDeleteView(c echo.Context) error {
	v, err := s.ownView(c)
	if v == nil {
		return err
	}
	// a concurrent delete or the reaper may have got there first
	if _, ok := s.views.remove(v.id); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "view not found"})
	}
	v.close()
	logger.Info("View unmounted", logger.F("view_id", v.id))
	return c.NoContent(http.StatusNoContent)
}
