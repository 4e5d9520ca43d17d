package server

import (
	"context"
	"net/http"
	"time"

	"github.com/existflow/grantline/internal/metrics"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/labstack/echo/v4"
)

const svgContentType = "image/svg+xml; charset=utf-8"

// handleRenderSVG renders a board's timeline once, without a live view
func (s *Server) handleRenderSVG(c echo.Context) error {
	b, err := s.viewableBoard(c, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	zoom := timeline.ZoomMonthly
	if q := c.QueryParam("zoom"); q != "" {
		if zoom, err = timeline.ParseZoomMode(q); err != nil {
			return badRequest(c, err.Error())
		}
	}

	frame, err := s.renderBoard(c.Request().Context(), b.ID, zoom, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return writeSVG(c, frame)
}

// renderBoard loads a board's grants and milestones and lays out a frame
func (s *Server) renderBoard(ctx context.Context, boardID string, zoom timeline.ZoomMode, viewer string) (*timeline.Frame, error) {
	grants, err := s.live.ListGrants(ctx, boardID)
	if err != nil {
		return nil, err
	}
	milestones := make(map[string][]model.Milestone, len(grants))
	for _, g := range grants {
		ms, err := s.live.ListMilestones(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		milestones[g.ID] = ms
	}

	start := time.Now()
	frame := timeline.NewRenderer(s.opts.Style).Render(timeline.RenderInput{
		Items:      grants,
		Milestones: milestones,
		Mode:       zoom,
		ViewerID:   viewer,
		Palette:    timeline.NewPalette(s.opts.Dark),
		Now:        s.now(),
	})
	metrics.RecordRender(zoom.String(), time.Since(start))
	return frame, nil
}

func writeSVG(c echo.Context, frame *timeline.Frame) error {
	c.Response().Header().Set(echo.HeaderContentType, svgContentType)
	c.Response().WriteHeader(http.StatusOK)
	return frame.WriteSVG(c.Response())
}
