package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"loan-engine/internal/logging"
	"loan-engine/pkg/clock"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

var (
	now     = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	partyID = strings.Repeat("b", 32)
	reqID   = strings.Repeat("a", 32)
)

func setupEcho(rdb redis.Cmdable, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(RequireParty())
	e.Use(Idempotency(rdb, ttl, clock.NewManual(now), logging.NewNop()))
	e.POST("/loans", handler)
	e.GET("/loans", handler)
	return e
}

func validHeaders() map[string]string {
	return map[string]string{
		HeaderRequestID: reqID,
		HeaderRequestAt: now.Format(time.RFC3339),
		HeaderPartyID:   partyID,
	}
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// countingHandler answers 201 with a body that changes on every call, so a
// replay is distinguishable from a second execution.
func countingHandler(calls *int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		n := atomic.AddInt32(calls, 1)
		return c.JSON(http.StatusCreated, map[string]any{"call": n})
	}
}

func Test_BypassOnGET_NoIdempotencyHeadersRequired(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 30*time.Second, countingHandler(&calls))

	rec := doReq(t, e, http.MethodGet, "/loans", nil, map[string]string{HeaderPartyID: partyID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected handler status, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 30*time.Second, countingHandler(&calls))

	tests := []struct {
		name   string
		mutate func(h map[string]string)
		want   int
	}{
		{"missing request id", func(h map[string]string) { delete(h, HeaderRequestID) }, http.StatusBadRequest},
		{"invalid request id", func(h map[string]string) { h[HeaderRequestID] = "NOT-VALID" }, http.StatusBadRequest},
		{"missing request at", func(h map[string]string) { delete(h, HeaderRequestAt) }, http.StatusBadRequest},
		{"invalid request at", func(h map[string]string) { h[HeaderRequestAt] = "not-a-time" }, http.StatusBadRequest},
		{"request at too old", func(h map[string]string) {
			h[HeaderRequestAt] = now.Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
		}, http.StatusBadRequest},
		{"request at in the future", func(h map[string]string) {
			h[HeaderRequestAt] = now.Add(maxClockSkew + time.Minute).Format(time.RFC3339)
		}, http.StatusBadRequest},
		{"missing party", func(h map[string]string) { delete(h, HeaderPartyID) }, http.StatusUnauthorized},
		{"invalid party", func(h map[string]string) { h[HeaderPartyID] = "not32hex" }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeaders()
			tt.mutate(h)
			rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{"x":1}`), h)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d body=%s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
	if calls != 0 {
		t.Fatalf("handler ran %d times for rejected requests", calls)
	}
}

func Test_UUIDRequestIDAccepted(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls))

	h := validHeaders()
	h[HeaderRequestID] = "3F2504E0-4F89-41D3-9A0C-0305E82C3301"
	h[HeaderRequestAt] = "1757152800"
	rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), h)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))

	rec1 := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{"principal":"5000000"}`), validHeaders())
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{"principal":"5000000"}`), validHeaders())
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get("Ax-Idempotent-Replay") != "true" {
		t.Fatalf("replay header missing")
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func Test_SameRequestID_DifferentParty_RunsTwice(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls))

	doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), validHeaders())
	h := validHeaders()
	h[HeaderPartyID] = strings.Repeat("c", 32)
	rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), h)
	if rec.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("code=%d calls=%d, want 201 and 2", rec.Code, calls)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))

	body := []byte(`{"x":1}`)
	store := &idempStore{rdb: rdb, ttl: time.Minute}
	key := buildKey(http.MethodPost, "/loans", partyID, reqID)
	seed := idempEntry{InProgress: true, BodySHA256: bodyHash(body), RequestID: reqID, CreatedAt: now}
	if ok, err := store.reserve(context.Background(), key, seed); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/loans", bytes.NewReader(body), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if calls != 0 {
		t.Fatalf("handler must not run while in progress")
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls))

	doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{"x":1}`), validHeaders())
	rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{"x":2}`), validHeaders())

	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || !strings.Contains(got["error"], "different body") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func Test_ClientErrorIsReplayed(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return echo.NewHTTPError(http.StatusConflict, "invalid state")
	})

	for i := 0; i < 2; i++ {
		rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), validHeaders())
		if rec.Code != http.StatusConflict {
			t.Fatalf("attempt %d: want 409, got %d", i, rec.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func Test_ServerErrorReleasesKey(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	})

	for i := 0; i < 2; i++ {
		rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), validHeaders())
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("attempt %d: want 500, got %d", i, rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("keys left behind: %v", keys)
	}
}

func Test_StoredEntryUsesTTL(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 5*time.Minute, countingHandler(&calls))

	doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), validHeaders())
	key := buildKey(http.MethodPost, "/loans", partyID, reqID)
	if ttl := mr.TTL(key); ttl != 5*time.Minute {
		t.Fatalf("TTL = %v, want 5m", ttl)
	}

	mr.FastForward(5*time.Minute + time.Second)
	doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), validHeaders())
	if calls != 2 {
		t.Fatalf("expired key must allow re-execution, calls = %d", calls)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	var calls int32
	e := setupEcho(rdb, time.Minute, countingHandler(&calls))

	rec := doReq(t, e, http.MethodPost, "/loans", strings.NewReader(`{}`), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}

func Test_parseRequestAt(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "1757152800", want: now},
		{raw: "1757152800000", want: now},
		{raw: "2025-09-06T17:00:00+07:00", want: now},
		{raw: "2025-09-06T10:00:00Z", want: now},
		{raw: "2025-09-06T10:00:00", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRequestAt(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.raw)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Fatalf("%q: got %v err=%v, want %v", tt.raw, got, err, tt.want)
		}
	}
}

func Test_buildKey(t *testing.T) {
	got := buildKey("POST", "/loans/:loan_id/fund", partyID, reqID)
	want := "idemp:loan:post:/loans/:loan_id/fund:" + partyID + ":" + reqID
	if got != want {
		t.Fatalf("buildKey = %q, want %q", got, want)
	}
}
