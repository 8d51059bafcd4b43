package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(t *testing.T, handler http.Handler, prefixes ...string) (*Resolver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if len(prefixes) == 0 {
		prefixes = []string{"/api", "/api/v1"}
	}
	res := NewResolver(Candidates([]string{srv.URL}, prefixes), "test-token", 5*time.Second, nil)
	return res, srv
}

func TestCandidates_Order(t *testing.T) {
	cands := Candidates([]string{"http://a", "http://b"}, []string{"/api", "/api/v1"})

	require.Len(t, cands, 4)
	assert.Equal(t, "http://a/api/x", cands[0].URL("/x"))
	assert.Equal(t, "http://a/api/v1/x", cands[1].URL("/x"))
	assert.Equal(t, "http://b/api/x", cands[2].URL("/x"))
	assert.Equal(t, "http://b/api/v1/x", cands[3].URL("/x"))
}

func TestDo_FirstSuccessWins(t *testing.T) {
	var paths []string
	res, _ := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/v1/ping" {
			w.Write([]byte(`{"ok": true}`))
			return
		}
		http.NotFound(w, r)
	}))

	var out struct {
		OK bool `json:"ok"`
	}
	err := res.GetJSON(context.Background(), "/ping", &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	// The wrong convention was tried first, then the right one, then
	// the walk stopped.
	assert.Equal(t, []string{"/api/ping", "/api/v1/ping"}, paths)
}

func TestDo_SendsAuthHeader(t *testing.T) {
	var got string
	res, _ := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}), "/api")

	require.NoError(t, res.GetJSON(context.Background(), "/ping", nil))
	assert.Equal(t, "Bearer test-token", got)
}

func TestDo_AllCandidatesFail(t *testing.T) {
	calls := 0
	res, _ := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"message": "nope"}`, http.StatusInternalServerError)
	}))

	err := res.GetJSON(context.Background(), "/ping", nil)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Equal(t, 2, calls, "each candidate tried exactly once")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "nope", se.Message)
}

func TestDo_GatingStatusStopsTheWalk(t *testing.T) {
	calls := 0
	res, _ := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"message": "Payment required"}`))
	}))

	err := res.GetJSON(context.Background(), "/ping", nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusPaymentRequired, se.Code)
	assert.Equal(t, "Payment required", se.Message)
	assert.Equal(t, 1, calls, "an authoritative refusal must not be retried")
}

func TestDo_PostBody(t *testing.T) {
	var received string
	res, _ := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		received = string(buf)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}), "/api")

	err := res.PostJSON(context.Background(), "/submit", map[string]string{"a": "b"}, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "b"}`, received)
}

func TestDo_ContextCancellation(t *testing.T) {
	res, _ := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := res.GetJSON(ctx, "/ping", nil)
	require.ErrorIs(t, err, context.Canceled)
}
