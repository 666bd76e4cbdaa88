package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/calvinmclean/twchart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionJSON = "{\"id\":\"d4kdisifn76c73dkrju0\",\"Session\":{\"Name\":\"Goal 300\",\"Date\":\"2026-10-14T16:06:26.504207-07:00\",\"StartTime\":\"0001-01-01T00:00:00Z\",\"Probes\":null,\"Stages\":null,\"Events\":null,\"Data\":null},\"UploadedAt\":\"2026-10-14T23:06:26.60698014Z\"}"

func TestSessionJSON(t *testing.T) {
	var s session
	err := json.Unmarshal([]byte(sessionJSON), &s)
	require.NoError(t, err)
}

type recordedRequest struct {
	method string
	path   string
	body   []byte
}

type fakeTWChart struct {
	mtx      sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeTWChart) handler() http.Handler {
	record := func(r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mtx.Lock()
		f.requests = append(f.requests, recordedRequest{r.Method, r.URL.Path, body})
		f.mtx.Unlock()
	}
	writeSession := func(w http.ResponseWriter, status int) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(sessionJSON))
	}

	mux := http.NewServeMux()
	create := func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeSession(w, http.StatusCreated)
	}
	mux.HandleFunc("POST /sessions", create)
	mux.HandleFunc("POST /sessions/{$}", create)
	mux.HandleFunc("PATCH /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		writeSession(w, http.StatusOK)
	})
	mux.HandleFunc("POST /sessions/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		f.mtx.Lock()
		status := f.status
		f.mtx.Unlock()
		w.WriteHeader(status)
	})
	return mux
}

func (f *fakeTWChart) get() []recordedRequest {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestClient(t *testing.T) {
	fake := &fakeTWChart{status: http.StatusNoContent}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	id, err := c.CreateSession(ctx, "Goal 300")
	require.NoError(t, err)
	assert.Equal(t, "d4kdisifn76c73dkrju0", id)

	require.NoError(t, c.SetStartTime(ctx, now))
	require.NoError(t, c.AddEvent(ctx, "Weak +45: 45/300 (15.00%)", now))
	require.NoError(t, c.AddStage(ctx, "Complete", now))
	require.NoError(t, c.Done(ctx, now))

	requests := fake.get()
	require.Len(t, requests, 5)

	assert.Equal(t, http.MethodPost, requests[0].method)
	assert.Contains(t, []string{"/sessions", "/sessions/"}, requests[0].path)

	expected := []struct{ method, path string }{
		{http.MethodPatch, "/sessions/" + id},
		{http.MethodPost, "/sessions/" + id + "/add-event"},
		{http.MethodPost, "/sessions/" + id + "/add-stage"},
		{http.MethodPost, "/sessions/" + id + "/done"},
	}
	for i, e := range expected {
		assert.Equal(t, e.method, requests[i+1].method, "request %d", i+1)
		assert.Equal(t, e.path, requests[i+1].path, "request %d", i+1)
	}

	var event twchart.Event
	require.NoError(t, json.Unmarshal(requests[2].body, &event))
	assert.Equal(t, "Weak +45: 45/300 (15.00%)", event.Note)
	assert.True(t, now.Equal(event.Time))

	var stage twchart.Stage
	require.NoError(t, json.Unmarshal(requests[3].body, &stage))
	assert.Equal(t, "Complete", stage.Name)
}

func TestClientUnexpectedStatus(t *testing.T) {
	fake := &fakeTWChart{status: http.StatusAccepted}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	_, err := c.CreateSession(ctx, "Goal 10")
	require.NoError(t, err)

	assert.Error(t, c.AddEvent(ctx, "Stopped", time.Now()))
	assert.Error(t, c.Done(ctx, time.Now()))
}
