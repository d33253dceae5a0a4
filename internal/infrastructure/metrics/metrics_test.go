package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoans_Counters(t *testing.T) {
	m := New()
	m.Transition("LoanFunded")
	m.Transition("LoanFunded")
	m.Rejection("fund", "InvalidState")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("LoanFunded")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.transitions.WithLabelValues("LoanRepaid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("fund", "InvalidState")))
}

func TestLoans_Handler(t *testing.T) {
	m := New()
	m.Rejection("claim", "NotYetDue")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `loan_engine_rejections_total{kind="NotYetDue",op="claim"} 1`), string(body))
	assert.Contains(t, string(body), "go_goroutines")
}
