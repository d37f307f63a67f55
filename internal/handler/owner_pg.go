package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/repository"
)

type pgReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type pgResp struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func toPgResp(p *repository.PG) pgResp {
	return pgResp{ID: p.ID, Name: p.Name, Address: p.Address}
}

// CreatePg handles POST /v1/pgs.
func (h *OwnerHandler) CreatePg(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req pgReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address required"})
	}
	p := &repository.PG{OwnerID: ownerID, Name: req.Name, Address: req.Address}
	if err := h.Pgs.Create(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pg failed"})
	}
	return c.JSON(http.StatusCreated, toPgResp(p))
}

// ListPgs handles GET /v1/owner/pgs.
func (h *OwnerHandler) ListPgs(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pgs, err := h.Pgs.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]pgResp, 0, len(pgs))
	for _, p := range pgs {
		out = append(out, toPgResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"pgs": out})
}

// UpdatePg handles PUT /v1/pgs/:id.
func (h *OwnerHandler) UpdatePg(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pg id"})
	}
	var req pgReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and address required"})
	}
	err = h.Pgs.Update(c.Request().Context(), id, ownerID, req.Name, req.Address)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	case errors.Is(err, repository.ErrPgNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your pg"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// DeletePg handles DELETE /v1/pgs/:id. Deletion is refused while any
// room of the pg still has occupants; active visit and onboarding
// requests against the pg are cancelled as part of the same transaction.
func (h *OwnerHandler) DeletePg(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pg id"})
	}
	err = h.Pgs.DeleteByIDAndOwner(c.Request().Context(), id, ownerID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, repository.ErrPgNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "pg not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your pg"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "pg has occupied rooms"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
