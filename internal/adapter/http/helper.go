package http

import (
	"errors"
	"net/http"
	"strconv"

	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(kind string) int {
	switch kind {
	case "InvalidParameters", "InvalidAmount", "InvalidDeposit":
		return http.StatusUnprocessableEntity
	case "LoanNotFound":
		return http.StatusNotFound
	case "InvalidState", "NotYetDue":
		return http.StatusConflict
	case "Unauthorized", "ReservedParty":
		return http.StatusForbidden
	case "InsufficientValue":
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the error's kind. Internal errors keep their
// message out of the body.
func writeError(c echo.Context, err error) error {
	kind := loan.Kind(err)
	code := StatusFor(kind)
	if code == http.StatusInternalServerError && !errors.Is(err, custody.ErrTransferFailed) {
		c.Logger().Error(err)
		return c.JSON(code, ErrorResponse{Error: "internal error", Kind: kind})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error(), Kind: kind})
}

// bindAndValidate answers 400/422 itself and reports whether the handler
// should go on.
func bindAndValidate(c echo.Context, req any) bool {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return false
	}
	if err := c.Validate(req); err != nil {
		_ = c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Kind:    "InvalidParameters",
			Details: ToFieldErrors(err),
		})
		return false
	}
	return true
}

// loanIDParam reads :loan_id. A non-numeric id names no loan.
func loanIDParam(c echo.Context) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	if err != nil {
		_ = c.JSON(http.StatusNotFound, ErrorResponse{Error: "loan not found", Kind: "LoanNotFound"})
		return 0, false
	}
	return n, true
}

// mustAmount parses a string the "amount" validator already accepted.
func mustAmount(s string) decimal.Decimal { return decimal.RequireFromString(s) }
