package http

import (
	"net/http"

	"loan-engine/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health   *Handler
	Loans    *LoanHandler
	Accounts *AccountHandler
	Metrics  http.Handler
	// Idempotency guards mutating routes when set.
	Idempotency echo.MiddlewareFunc
}

// Register mounts the API. Mutating routes require Ax-Party-Id.
func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	e.GET("/loans/:loan_id", r.Loans.GetLoan)
	e.GET("/loans/:loan_id/repayment", r.Loans.RepaymentAmount)
	e.GET("/loans/:loan_id/events", r.Loans.ListEvents)
	e.GET("/accounts/:party_id", r.Accounts.Balance)
	e.GET("/accounts/:party_id/entries", r.Accounts.Entries)

	mw := []echo.MiddlewareFunc{middleware.RequireParty()}
	if r.Idempotency != nil {
		mw = append(mw, r.Idempotency)
	}
	e.POST("/loans", r.Loans.RequestLoan, mw...)
	e.POST("/loans/:loan_id/fund", r.Loans.FundLoan, mw...)
	e.POST("/loans/:loan_id/repay", r.Loans.RepayLoan, mw...)
	e.POST("/loans/:loan_id/claim", r.Loans.ClaimCollateral, mw...)
	e.POST("/accounts/deposit", r.Accounts.Deposit, mw...)
}
