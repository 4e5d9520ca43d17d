package server

import (
	"net/http"
	"time"

	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/store"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/labstack/echo/v4"
)

type grantRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	ProgressDate  string   `json:"progress_date,omitempty"`
	Color         string   `json:"color"`
	AssignedUsers []string `json:"assigned_users"`
}

func (r grantRequest) input() (db.GrantInput, error) {
	in := db.GrantInput{
		Name:          r.Name,
		Description:   r.Description,
		Color:         r.Color,
		AssignedUsers: r.AssignedUsers,
	}
	var err error
	if in.StartDate, err = timeline.ParseDate(r.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = timeline.ParseDate(r.EndDate); err != nil {
		return in, err
	}
	if r.ProgressDate != "" {
		p, err := timeline.ParseDate(r.ProgressDate)
		if err != nil {
			return in, err
		}
		in.ProgressDate = &p
	}
	return in, nil
}

type progressRequest struct {
	Date string `json:"date"`
}

type milestoneRequest struct {
	Number     int    `json:"number"`
	TargetDate string `json:"target_date"`
	Label      string `json:"label"`
}

// visibleGrant loads a grant on a board the viewer can see
func (s *Server) visibleGrant(c echo.Context) (*model.Grant, error) {
	g, err := s.live.GetGrant(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if _, err := s.viewableBoard(c, g.BoardID); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Server) handleListGrants(c echo.Context) error {
	b, err := s.viewableBoard(c, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	grants, err := s.live.ListGrants(c.Request().Context(), b.ID)
	if err != nil {
		return fail(c, err)
	}
	if grants == nil {
		grants = []model.Grant{}
	}
	return c.JSON(http.StatusOK, grants)
}

func (s *Server) handleCreateGrant(c echo.Context) error {
	b, err := s.viewableBoard(c, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, err.Error())
	}
	in.BoardID = b.ID
	in.CreatedBy = viewerID(c)

	g, err := s.live.CreateGrant(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (s *Server) handleUpdateGrant(c echo.Context) error {
	g, err := s.visibleGrant(c)
	if err != nil {
		return fail(c, err)
	}
	if !store.CanEdit(*g, viewerID(c)) {
		return forbidden(c, "grant is read-only for this viewer")
	}
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, err.Error())
	}
	updated, err := s.live.UpdateGrant(c.Request().Context(), g.ID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteGrant(c echo.Context) error {
	g, err := s.visibleGrant(c)
	if err != nil {
		return fail(c, err)
	}
	if !store.CanEdit(*g, viewerID(c)) {
		return forbidden(c, "grant is read-only for this viewer")
	}
	if err := s.live.DeleteGrant(c.Request().Context(), g.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetProgress(c echo.Context) error {
	g, err := s.visibleGrant(c)
	if err != nil {
		return fail(c, err)
	}
	if !store.CanEdit(*g, viewerID(c)) {
		return forbidden(c, "grant is read-only for this viewer")
	}
	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	date, err := timeline.ParseDate(req.Date)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.live.SetProgressDate(c.Request().Context(), g.ID, date); err != nil {
		return fail(c, err)
	}
	updated, err := s.live.GetGrant(c.Request().Context(), g.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleListMilestones(c echo.Context) error {
	g, err := s.visibleGrant(c)
	if err != nil {
		return fail(c, err)
	}
	ms, err := s.live.ListMilestones(c.Request().Context(), g.ID)
	if err != nil {
		return fail(c, err)
	}
	if ms == nil {
		ms = []model.Milestone{}
	}
	return c.JSON(http.StatusOK, ms)
}

func (s *Server) handleAddMilestone(c echo.Context) error {
	g, err := s.visibleGrant(c)
	if err != nil {
		return fail(c, err)
	}
	if !store.CanEdit(*g, viewerID(c)) {
		return forbidden(c, "grant is read-only for this viewer")
	}
	var req milestoneRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	var target time.Time
	if req.TargetDate != "" {
		if target, err = timeline.ParseDate(req.TargetDate); err != nil {
			return badRequest(c, err.Error())
		}
	}
	m, err := s.live.AddMilestone(c.Request().Context(), g.ID, db.MilestoneInput{
		Number:     req.Number,
		TargetDate: target,
		Label:      req.Label,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleDeleteMilestone(c echo.Context) error {
	g, err := s.visibleGrant(c)
	if err != nil {
		return fail(c, err)
	}
	if !store.CanEdit(*g, viewerID(c)) {
		return forbidden(c, "grant is read-only for this viewer")
	}
	m, err := s.live.GetMilestone(c.Request().Context(), c.Param("mid"))
	if err != nil {
		return fail(c, err)
	}
	if m.GrantID != g.ID {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "milestone not found"})
	}
	if _, err := s.live.DeleteMilestone(c.Request().Context(), m.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
