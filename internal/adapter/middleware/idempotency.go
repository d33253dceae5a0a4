package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"loan-engine/pkg/clock"
	"loan-engine/pkg/id"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	// how long a request may hold its key before finishing
	provisionalLockTTL = 60 * time.Second
	// allowed skew between Ax-Request-At and the server clock
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Idempotency makes mutating requests safe to retry. The key is method,
// route, caller and Ax-Request-Id. A finished response is replayed for
// ttl; a 5xx releases the key so the retry runs again. Must run after
// RequireParty.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, clk clock.Clock, log *slog.Logger) echo.MiddlewareFunc {
	store := &idempStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderRequestID)))
			if reqID == "" {
				return fail(c, http.StatusBadRequest, "missing "+HeaderRequestID)
			}
			if !id.IsRequestID(reqID) {
				return fail(c, http.StatusBadRequest, "invalid "+HeaderRequestID+" format")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return fail(c, http.StatusBadRequest, err.Error())
			}
			if now := clk.Now(); reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return fail(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}
			party := PartyID(c)
			if party == "" {
				return fail(c, http.StatusUnauthorized, "missing "+HeaderPartyID)
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return fail(c, http.StatusBadRequest, "unreadable body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := buildKey(req.Method, c.Path(), party, reqID)
			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bodyHash(body),
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   clk.Now(),
			}
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			ok, err := store.reserve(ctx, key, entry)
			if err != nil {
				log.Error("idempotency reserve", "key", key, "error", err)
				return fail(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !ok {
				return replay(ctx, c, store, key, entry.BodySHA256, log)
			}

			rec := &respRecorder{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the handler may have consumed the request deadline
			sctx, scancel := context.WithTimeout(context.WithoutCancel(req.Context()), storeTimeout)
			defer scancel()
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(sctx, key); err != nil {
					log.Warn("idempotency release", "key", key, "error", err)
				}
				return nil
			}
			entry.InProgress = false
			entry.Code = rec.code
			entry.Body = rec.buf.Bytes()
			if err := store.commit(sctx, key, entry); err != nil {
				log.Warn("idempotency commit", "key", key, "error", err)
			}
			return nil
		}
	}
}

func replay(ctx context.Context, c echo.Context, store *idempStore, key, hash string, log *slog.Logger) error {
	cur, err := store.load(ctx, key)
	if err != nil {
		log.Warn("idempotency load", "key", key, "error", err)
		return fail(c, http.StatusConflict, "request is already in progress")
	}
	if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
		return fail(c, http.StatusConflict, HeaderRequestID+" reused with different body")
	}
	if !cur.InProgress && cur.Code != 0 {
		c.Response().Header().Set("Ax-Idempotent-Replay", "true")
		return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
	}
	return fail(c, http.StatusConflict, "request is already in progress")
}
