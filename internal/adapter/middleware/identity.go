package middleware

import (
	"net/http"
	"strings"

	"loan-engine/pkg/id"

	"github.com/labstack/echo/v4"
)

// HeaderPartyID carries the authenticated caller, set by the gateway in
// front of the engine.
const HeaderPartyID = "Ax-Party-Id"

const partyKey = "ax.party_id"

// RequireParty rejects requests without a well-formed caller id and stores
// the id on the context for handlers and later middleware.
func RequireParty() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			party := strings.TrimSpace(c.Request().Header.Get(HeaderPartyID))
			if party == "" {
				return fail(c, http.StatusUnauthorized, "missing "+HeaderPartyID)
			}
			if !id.IsID32(party) {
				return fail(c, http.StatusBadRequest, "invalid "+HeaderPartyID)
			}
			c.Set(partyKey, party)
			return next(c)
		}
	}
}

// PartyID returns the caller stored by RequireParty, or "".
func PartyID(c echo.Context) string {
	s, _ := c.Get(partyKey).(string)
	return s
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}
