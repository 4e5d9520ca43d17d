package server

import (
	"fmt"
	"net/http"

	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/model"
	"github.com/labstack/echo/v4"
)

type createBoardRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

// viewableBoard loads a board and hides it from viewers who cannot see it
func (s *Server) viewableBoard(c echo.Context, id string) (*model.Board, error) {
	b, err := s.live.GetBoard(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !b.CanView(viewerID(c)) {
		return nil, fmt.Errorf("board %s: %w", id, db.ErrNotFound)
	}
	return b, nil
}

func (s *Server) handleListBoards(c echo.Context) error {
	boards, err := s.live.ListBoards(c.Request().Context(), viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	if boards == nil {
		boards = []model.Board{}
	}
	return c.JSON(http.StatusOK, boards)
}

func (s *Server) handleCreateBoard(c echo.Context) error {
	var req createBoardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	b, err := s.live.CreateBoard(c.Request().Context(), req.Name, req.Visibility, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) handleDeleteBoard(c echo.Context) error {
	b, err := s.viewableBoard(c, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if b.OwnerID != viewerID(c) {
		return forbidden(c, "only the owner can delete a board")
	}
	if err := s.live.DeleteBoard(c.Request().Context(), b.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleBoardStats(c echo.Context) error {
	b, err := s.viewableBoard(c, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	stats, err := s.live.BoardStats(c.Request().Context(), b.ID, s.now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
