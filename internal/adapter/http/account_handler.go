package http

import (
	"net/http"

	"loan-engine/internal/adapter/middleware"
	"loan-engine/internal/usecase/custody"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct{ uc *custody.Usecase }

func NewAccountHandler(uc *custody.Usecase) *AccountHandler { return &AccountHandler{uc: uc} }

type depositReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

type partyParam struct {
	PartyID string `param:"party_id" validate:"party"`
}

type entriesParam struct {
	PartyID string `param:"party_id" validate:"party"`
	Limit   int    `query:"limit"    validate:"gte=0,lte=100"`
}

// Deposit credits the caller's own account.
func (h *AccountHandler) Deposit(c echo.Context) error {
	var req depositReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	dto, err := h.uc.Deposit(c.Request().Context(), middleware.PartyID(c), mustAmount(req.Amount))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) Balance(c echo.Context) error {
	var p partyParam
	if !bindAndValidate(c, &p) {
		return nil
	}
	dto, err := h.uc.Balance(c.Request().Context(), p.PartyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Entries pages through the custody journal for one party.
func (h *AccountHandler) Entries(c echo.Context) error {
	var p entriesParam
	if !bindAndValidate(c, &p) {
		return nil
	}
	entries, err := h.uc.Entries(c.Request().Context(), p.PartyID, p.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"party_id": p.PartyID, "entries": entries})
}
