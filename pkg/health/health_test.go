package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	s := New()

	code, body := probe(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["healthy"])
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	s := New()
	s.AddLivenessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	s.Start(context.Background(), time.Hour)
	defer s.Stop()

	// Start runs every check once synchronously before ticking.
	waitFor(t, func() bool {
		code, _ := probe(t, s.LiveEndpoint)
		return code == http.StatusServiceUnavailable
	})

	_, body := probe(t, s.LiveEndpoint)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "connection refused", checks["db"])
}

func TestReadyEndpoint_Gate(t *testing.T) {
	s := New()

	code, _ := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	s.SetReady(true)
	code, _ = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)

	s.SetReady(false)
	code, _ = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpoint_CheckRecovers(t *testing.T) {
	s := New()
	var fail bool
	s.AddReadinessCheck("flaky", time.Second, func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})
	s.SetReady(true)
	s.Start(context.Background(), 10*time.Millisecond)
	defer s.Stop()

	waitFor(t, func() bool {
		code, _ := probe(t, s.ReadyEndpoint)
		return code == http.StatusOK
	})

	fail = true
	waitFor(t, func() bool {
		code, _ := probe(t, s.ReadyEndpoint)
		return code == http.StatusServiceUnavailable
	})

	fail = false
	waitFor(t, func() bool {
		code, _ := probe(t, s.ReadyEndpoint)
		return code == http.StatusOK
	})
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
