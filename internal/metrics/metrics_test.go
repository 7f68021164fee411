package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	// A second call must not re-register collectors (promauto panics on dupes).
	Init()
	assert.NotNil(t, checksTotal)
	assert.NotNil(t, unreachableTotal)
}

func TestHandlerServesRegistry(t *testing.T) {
	Init()
	ObserveCheck(true, 120*time.Millisecond)
	ObserveCheck(false, 0)
	ObserveUnreachable("timeout")
	ObserveURLRegistered()
	ObserveHTTPRequest(http.MethodGet, http.StatusOK)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "pagecheck_checks_total")
	assert.Contains(t, body, "pagecheck_unreachable_total")
	assert.Contains(t, body, "pagecheck_fetch_duration_seconds")
}
