package http

import (
	"net/http"

	"loan-engine/internal/adapter/middleware"
	"loan-engine/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type requestLoanReq struct {
	Principal       string `json:"principal"         validate:"required,amount"`
	InterestRateBps int64  `json:"interest_rate_bps" validate:"gte=0,lte=4294967295"`
	DurationSeconds int64  `json:"duration_seconds"  validate:"gt=0"`
	Collateral      string `json:"collateral"        validate:"required,amount"`
}

type attachReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

// transitionResp is the body of every successful transition.
type transitionResp struct {
	Loan  *loan.LoanDTO `json:"loan"`
	Event eventResp     `json:"event"`
}

type eventResp struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
	Order  []string          `json:"order"`
}

func toTransitionResp(res *loan.Result) transitionResp {
	fields := res.Event.Fields()
	ev := eventResp{Name: res.Event.Name(), Fields: make(map[string]string, len(fields)), Order: make([]string, 0, len(fields))}
	for _, f := range fields {
		ev.Fields[f.Key] = f.Value
		ev.Order = append(ev.Order, f.Key)
	}
	return transitionResp{Loan: res.Loan, Event: ev}
}

// RequestLoan locks the body's collateral from the caller's balance.
func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req requestLoanReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	res, err := h.uc.RequestLoan(c.Request().Context(), middleware.PartyID(c), loan.RequestLoanInput{
		Principal:       mustAmount(req.Principal),
		InterestRateBps: uint32(req.InterestRateBps),
		DurationSeconds: uint64(req.DurationSeconds),
		Collateral:      mustAmount(req.Collateral),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toTransitionResp(res))
}

func (h *LoanHandler) FundLoan(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return nil
	}
	var req attachReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	res, err := h.uc.FundLoan(c.Request().Context(), middleware.PartyID(c), loanID, mustAmount(req.Amount))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResp(res))
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return nil
	}
	var req attachReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	res, err := h.uc.RepayLoan(c.Request().Context(), middleware.PartyID(c), loanID, mustAmount(req.Amount))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResp(res))
}

func (h *LoanHandler) ClaimCollateral(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return nil
	}
	res, err := h.uc.ClaimCollateral(c.Request().Context(), middleware.PartyID(c), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResp(res))
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return nil
	}
	dto, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RepaymentAmount(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return nil
	}
	amount, err := h.uc.CalculateRepaymentAmount(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": loanID, "amount": amount})
}

func (h *LoanHandler) ListEvents(c echo.Context) error {
	loanID, ok := loanIDParam(c)
	if !ok {
		return nil
	}
	events, err := h.uc.Events(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": loanID, "events": events})
}
