package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints. These sit
// behind the Redis response cache; everything returned here is safe to
// share between visitors.
type PublicHandler struct {
	Pgs   *repository.PgRepo
	Rooms *repository.RoomRepo
}

func NewPublicHandler(pgs *repository.PgRepo, rooms *repository.RoomRepo) *PublicHandler {
	if pgs == nil || rooms == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Pgs: pgs, Rooms: rooms}
}

// ListPgs handles GET /v1/pgs.
func (h *PublicHandler) ListPgs(c echo.Context) error {
	pgs, err := h.Pgs.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]pgResp, 0, len(pgs))
	for _, p := range pgs {
		out = append(out, toPgResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"pgs": out})
}

// GetPg handles GET /v1/pgs/:id.
func (h *PublicHandler) GetPg(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pg id"})
	}
	p, err := h.Pgs.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPgNotFound) || errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toPgResp(p))
}

// ListRooms handles GET /v1/pgs/:id/rooms. Applicants read the derived
// status here to see which rooms still have space.
func (h *PublicHandler) ListRooms(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pg id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Pgs.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPgNotFound) || errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rooms, err := h.Rooms.ListByPg(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]roomResp, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, toRoomResp(rm))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}
