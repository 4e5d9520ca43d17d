package timeline

import (
	"sync"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/model"
)

// PointerState is the interaction state of the surface
type PointerState int

const (
	StateIdle PointerState = iota
	StateHovering
	StateDragging
)

// String returns the state name
func (s PointerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHovering:
		return "hovering"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DragState describes an in-progress drag
type DragState struct {
	Dragging bool
	ItemID   string
}

// ProgressUpdate asks the store to move a grant's progress date
type ProgressUpdate struct {
	ItemID string
	Date   time.Time
}

// ItemSource gives the controller the live grant set and the current
// coordinate mapping. Both are read again on every pointer event.
type ItemSource interface {
	Item(id string) (model.Grant, bool)
	Mapper() Mapper
}

// ProgressSink receives progress updates produced by dragging
type ProgressSink interface {
	SetProgress(update ProgressUpdate)
}

// ProgressSinkFunc adapts a function to ProgressSink
type ProgressSinkFunc func(ProgressUpdate)

// SetProgress calls f
func (f ProgressSinkFunc) SetProgress(u ProgressUpdate) { f(u) }

// Controller tracks pointer interaction on the timeline surface. Dragging
// and hovering are mutually exclusive: while a drag is active no hover
// date is reported.
type Controller struct {
	viewerID string
	source   ItemSource
	sink     ProgressSink

	mu     sync.Mutex
	state  PointerState
	itemID string
	hover  *time.Time
}

// NewController creates a controller for one viewer
func NewController(viewerID string, source ItemSource, sink ProgressSink) *Controller {
	return &Controller{
		viewerID: viewerID,
		source:   source,
		sink:     sink,
	}
}

// State returns the current interaction state
func (c *Controller) State() PointerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Drag returns the current drag state
func (c *Controller) Drag() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DragState{Dragging: c.state == StateDragging, ItemID: c.itemID}
}

// HoverDate returns the date under the pointer, or nil while dragging or
// when the pointer is off the surface
func (c *Controller) HoverDate() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHovering || c.hover == nil {
		return nil
	}
	h := *c.hover
	return &h
}

// PointerDown starts dragging the progress marker of itemID. It returns
// false, leaving the state unchanged, when the grant is unknown or the
// viewer is not assigned to it.
func (c *Controller) PointerDown(itemID string) bool {
	item, ok := c.source.Item(itemID)
	if !ok {
		logger.Debug("Pointer down on unknown grant", logger.F("grant_id", itemID))
		return false
	}
	if !item.IsAssigned(c.viewerID) {
		logger.Debug("Pointer down on read-only grant",
			logger.F("grant_id", itemID),
			logger.F("viewer", c.viewerID))
		return false
	}

	c.mu.Lock()
	c.state = StateDragging
	c.itemID = itemID
	c.hover = nil
	c.mu.Unlock()

	logger.Debug("Drag started", logger.F("grant_id", itemID))
	return true
}

// PointerMove handles pointer motion at surface offset x. While dragging
// it emits one progress update per call, clamped to the grant's span. Off
// a drag it tracks the hover date when the pointer is over the surface.
// The returned update is nil when nothing was emitted.
func (c *Controller) PointerMove(x float64, overSurface bool) *ProgressUpdate {
	c.mu.Lock()
	state, itemID := c.state, c.itemID
	c.mu.Unlock()

	mapper := c.source.Mapper()

	if state != StateDragging {
		if !overSurface {
			return nil
		}
		d := mapper.XToDate(x)
		c.mu.Lock()
		if c.state != StateDragging {
			c.state = StateHovering
			c.hover = &d
		}
		c.mu.Unlock()
		return nil
	}

	item, ok := c.source.Item(itemID)
	if !ok {
		// grant vanished mid-drag
		logger.Warn("Drag target no longer exists, aborting drag", logger.F("grant_id", itemID))
		c.reset(itemID)
		return nil
	}

	date := Clamp(Day(mapper.XToDate(x)), item.StartDate, item.EndDate)
	update := &ProgressUpdate{ItemID: itemID, Date: date}
	if c.sink != nil {
		c.sink.SetProgress(*update)
	}
	return update
}

// PointerUp ends any drag. It applies wherever the pointer is released.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging {
		logger.Debug("Drag ended", logger.F("grant_id", c.itemID))
		c.state = StateIdle
		c.itemID = ""
	}
}

// PointerLeave clears the hover date when the pointer leaves the surface.
// An active drag continues.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hover = nil
	if c.state == StateHovering {
		c.state = StateIdle
	}
}

// Abandon drops any drag or hover without further updates
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.itemID = ""
	c.hover = nil
}

func (c *Controller) reset(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDragging && c.itemID == itemID {
		c.state = StateIdle
		c.itemID = ""
	}
}
