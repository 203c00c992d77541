// ABOUTME: Tests for the HTTP status and control API
// ABOUTME: Drives the gin router through httptest with a fake session
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Resonate-Protocol/avsync/pkg/pacer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu     sync.Mutex
	status Status
}

func (f *fakeProvider) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeProvider) SetBFIEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.BFIEnabled = enabled
}

func (f *fakeProvider) SetVolume(volume int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Volume = volume
}

func (f *fakeProvider) SetMuted(muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Muted = muted
}

func newTestServer(metrics http.Handler) (*Server, *fakeProvider) {
	p := &fakeProvider{status: Status{
		SessionID:  "abc",
		Version:    "test",
		Volume:     100,
		BFIEnabled: true,
		State:      pacer.State{MonitorHz: 120, ContentFPS: 60, SwapInterval: 1, BFIFactor: 1, TargetFPS: 60},
	}}
	return New(p, metrics), p
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := do(t, s, http.MethodGet, "/api/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := do(t, s, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.SessionID)
	assert.Equal(t, 1, got.State.BFIFactor)
	assert.Equal(t, 60.0, got.State.TargetFPS)
}

func TestToggleBFI(t *testing.T) {
	s, p := newTestServer(nil)

	rec := do(t, s, http.MethodPost, "/api/v1/bfi", `{"enabled": false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, p.Status().BFIEnabled)

	rec = do(t, s, http.MethodPost, "/api/v1/bfi", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVolume(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantVolume int
		wantMuted  bool
	}{
		{"set volume", `{"volume": 40}`, http.StatusOK, 40, false},
		{"mute only", `{"muted": true}`, http.StatusOK, 100, true},
		{"both", `{"volume": 0, "muted": false}`, http.StatusOK, 0, false},
		{"out of range", `{"volume": 140}`, http.StatusBadRequest, 100, false},
		{"empty", `{}`, http.StatusBadRequest, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestServer(nil)
			rec := do(t, s, http.MethodPost, "/api/v1/volume", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantVolume, p.Status().Volume)
			assert.Equal(t, tt.wantMuted, p.Status().Muted)
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/metrics", "").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("avsync_pacer_ticks_total 3\n"))
	})
	s, _ = newTestServer(metrics)
	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "avsync_pacer_ticks_total")
}
