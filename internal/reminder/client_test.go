package reminder

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskpulse/internal/domain"
	"github.com/phrazzld/taskpulse/internal/outcome"
	"github.com/phrazzld/taskpulse/internal/platform/logger"
)

var fixedNow = time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)

// fakeScheduler keeps jobs in memory, keyed by job name.
type fakeScheduler struct {
	mu       sync.Mutex
	jobs     map[string]json.RawMessage
	requests int32
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]json.RawMessage)}
}

func (f *fakeScheduler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.requests, 1)

	name := strings.TrimPrefix(r.URL.Path, jobsPath)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		f.jobs[name] = body
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if _, ok := f.jobs[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.jobs, name)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		job, ok := f.jobs[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req map[string]interface{}
		_ = json.Unmarshal(job, &req)
		req["name"] = name
		_ = json.NewEncoder(w).Encode(req)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:     srv.URL,
		CallbackURL: "http://api:8000/api/jobs/reminder-callback",
		Timeout:     time.Second,
	}, logger.Discard())
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestJobName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "reminder-task-42", JobName(42))
}

func TestRequestFor(t *testing.T) {
	t.Parallel()

	due := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &domain.Task{ID: 7, UserID: "u1", Title: "Pay rent", DueAt: &due, ReminderLeadMinutes: 90}

	req, ok := RequestFor(task)
	require.True(t, ok)
	assert.Equal(t, int64(7), req.TaskID)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "Pay rent", req.Title)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), req.FireAt)
	assert.Equal(t, &due, req.DueAt)

	_, ok = RequestFor(&domain.Task{ID: 8})
	assert.False(t, ok)
}

func TestClient_Schedule(t *testing.T) {
	t.Parallel()

	var gotPath string
	var got map[string]interface{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))

	due := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := c.Schedule(context.Background(), ScheduleRequest{
		TaskID: 7,
		UserID: "u1",
		Title:  "Pay rent",
		FireAt: due.Add(-time.Hour),
		DueAt:  &due,
	})

	require.True(t, res.Succeeded(), res.String())
	assert.Equal(t, "/v1.0-alpha1/jobs/reminder-task-7", gotPath)
	assert.Equal(t, "@once 2026-03-01T09:00:00Z", got["schedule"])
	assert.Equal(t, "2026-03-01T09:00:00Z", got["dueTime"])
	assert.Equal(t, float64(1), got["repeats"])
	assert.Equal(t, true, got["overwrite"])

	data := got["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["task_id"])
	assert.Equal(t, "u1", data["user_id"])
	assert.Equal(t, "Pay rent", data["task_title"])
	assert.Equal(t, "2026-03-01T10:00:00Z", data["due_at"])
	assert.Equal(t, "http://api:8000/api/jobs/reminder-callback", data["callback_url"])
}

func TestClient_SchedulePastFireTimeSkipsRequest(t *testing.T) {
	t.Parallel()

	fake := newFakeScheduler()
	c := newTestClient(t, fake)

	for _, fireAt := range []time.Time{fixedNow.Add(-time.Minute), fixedNow} {
		res := c.Schedule(context.Background(), ScheduleRequest{TaskID: 1, UserID: "u", FireAt: fireAt})
		assert.Equal(t, outcome.StatusSkipped, res.Status)
		assert.Equal(t, ReasonFireTimeInPast, res.Reason)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.requests))
}

func TestClient_ScheduleTwiceKeepsOneJob(t *testing.T) {
	t.Parallel()

	fake := newFakeScheduler()
	c := newTestClient(t, fake)
	ctx := context.Background()

	first := fixedNow.Add(time.Hour)
	second := fixedNow.Add(2 * time.Hour)
	require.True(t, c.Schedule(ctx, ScheduleRequest{TaskID: 5, UserID: "u", Title: "a", FireAt: first}).Succeeded())
	require.True(t, c.Schedule(ctx, ScheduleRequest{TaskID: 5, UserID: "u", Title: "b", FireAt: second}).Succeeded())

	assert.Len(t, fake.jobs, 1)

	info, ok := c.Status(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, "reminder-task-5", info.Name)
	assert.Equal(t, "@once "+second.Format(time.RFC3339), info.Schedule)
	assert.Equal(t, 1, info.Repeats)
	assert.Contains(t, string(info.Data), `"task_title":"b"`)
}

func TestClient_ScheduleFailures(t *testing.T) {
	t.Parallel()

	t.Run("non 2xx", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "scheduler down", http.StatusInternalServerError)
		}))
		res := c.Schedule(context.Background(), ScheduleRequest{TaskID: 1, FireAt: fixedNow.Add(time.Hour)})
		assert.Equal(t, outcome.StatusFailed, res.Status)
		assert.Contains(t, res.AsError().Error(), "scheduler down")
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, logger.Discard())
		c.now = func() time.Time { return fixedNow }
		res := c.Schedule(context.Background(), ScheduleRequest{TaskID: 1, FireAt: fixedNow.Add(time.Hour)})
		assert.Equal(t, outcome.StatusFailed, res.Status)
	})
}

func TestClient_Cancel(t *testing.T) {
	t.Parallel()

	fake := newFakeScheduler()
	c := newTestClient(t, fake)
	ctx := context.Background()

	require.True(t, c.Schedule(ctx, ScheduleRequest{TaskID: 3, FireAt: fixedNow.Add(time.Hour)}).Succeeded())

	assert.True(t, c.Cancel(ctx, 3).Succeeded())
	assert.Empty(t, fake.jobs)

	res := c.Cancel(ctx, 3)
	assert.True(t, res.IsSkipped())
}

func TestClient_StatusAbsent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, newFakeScheduler())
	info, ok := c.Status(context.Background(), 99)
	assert.False(t, ok)
	assert.Nil(t, info)

	broken := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	_, ok = broken.Status(context.Background(), 1)
	assert.False(t, ok)
}
