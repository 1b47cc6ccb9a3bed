package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/tracker"
)

type fakeSource struct {
	mu       sync.Mutex
	state    tracker.State
	identity jobstatus.Identity
	current  *jobstatus.Status
	updates  chan tracker.Update
	removed  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{updates: make(chan tracker.Update, 10)}
}

func (f *fakeSource) set(state tracker.State, id jobstatus.Identity, st jobstatus.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.identity = id
	f.current = &st
}

func (f *fakeSource) Current() (jobstatus.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return jobstatus.Status{}, false
	}
	return *f.current, true
}

func (f *fakeSource) State() tracker.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Identity() jobstatus.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity
}

func (f *fakeSource) Subscribe() chan tracker.Update {
	return f.updates
}

func (f *fakeSource) Unsubscribe(ch chan tracker.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = true
}

func resolve(rel string) string {
	return "http://backend:8000" + rel
}

func TestStatusHandler_GetIdle(t *testing.T) {
	h := NewStatusHandler(newFakeSource(), resolve)
	rec := httptest.NewRecorder()

	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestStatusHandler_GetActive(t *testing.T) {
	src := newFakeSource()
	src.set(tracker.StateActive, jobstatus.NewIdentity("job-1", "task-1"), jobstatus.Status{
		JobID:    "job-1",
		Status:   "PROGRESS",
		Progress: 40,
	})
	h := NewStatusHandler(src, resolve)
	rec := httptest.NewRecorder()

	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.State != tracker.StateActive {
		t.Errorf("expected state active, got %v", resp.State)
	}
	if resp.TaskID != "task-1" || resp.JobID != "job-1" {
		t.Errorf("unexpected identity %s/%s", resp.JobID, resp.TaskID)
	}
	if resp.Progress != 40 {
		t.Errorf("expected progress 40, got %d", resp.Progress)
	}
	if resp.Color != jobstatus.ColorBlue {
		t.Errorf("expected blue, got %s", resp.Color)
	}
	if resp.DownloadURL != "" {
		t.Errorf("expected no download url, got %s", resp.DownloadURL)
	}
}

func TestStatusHandler_GetCompletedResolvesDownload(t *testing.T) {
	src := newFakeSource()
	src.set(tracker.StateTerminal, jobstatus.NewIdentity("job-1", "job-1"), jobstatus.Status{
		JobID:     "job-1",
		Status:    "completed",
		Progress:  100,
		OutputURL: "/api/download/job-1.mp4",
	})
	h := NewStatusHandler(src, resolve)
	rec := httptest.NewRecorder()

	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.DownloadURL != "http://backend:8000/api/download/job-1.mp4" {
		t.Errorf("unexpected download url %s", resp.DownloadURL)
	}
	if resp.Color != jobstatus.ColorGreen {
		t.Errorf("expected green, got %s", resp.Color)
	}
}

// readEvents collects data lines of "status" events until the stream ends.
func readEvents(t *testing.T, body *bufio.Scanner) []StatusResponse {
	t.Helper()
	var events []StatusResponse
	for body.Scan() {
		line := body.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var resp StatusResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			t.Errorf("bad event payload %q: %v", data, err)
			continue
		}
		events = append(events, resp)
	}
	return events
}

func TestStatusHandler_EventsStreamsUntilTerminal(t *testing.T) {
	src := newFakeSource()
	id := jobstatus.NewIdentity("job-1", "task-1")
	src.set(tracker.StateActive, id, jobstatus.Status{JobID: "job-1", Status: "queued"})

	src.updates <- tracker.Update{
		State:    tracker.StateActive,
		Identity: id,
		Status:   jobstatus.Status{JobID: "job-1", Status: "processing", Progress: 50},
		Source:   tracker.SourcePoll,
	}
	src.updates <- tracker.Update{
		State:    tracker.StateTerminal,
		Identity: id,
		Status:   jobstatus.Status{JobID: "job-1", Status: "failed", Error: "no face found"},
		Source:   tracker.SourcePush,
	}

	srv := httptest.NewServer(http.HandlerFunc(NewStatusHandler(src, resolve).Events))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event stream, got %s", ct)
	}

	events := readEvents(t, bufio.NewScanner(resp.Body))
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Status != "queued" {
		t.Errorf("expected the current status first, got %s", events[0].Status)
	}
	if events[1].Source != tracker.SourcePoll || events[1].Progress != 50 {
		t.Errorf("unexpected second event %+v", events[1])
	}
	if events[2].State != tracker.StateTerminal || events[2].Error != "no face found" {
		t.Errorf("unexpected terminal event %+v", events[2])
	}

	src.mu.Lock()
	removed := src.removed
	src.mu.Unlock()
	if !removed {
		t.Error("expected listener to be removed")
	}
}

func TestStatusHandler_EventsTerminalAlready(t *testing.T) {
	src := newFakeSource()
	src.set(tracker.StateTerminal, jobstatus.NewIdentity("job-1", "job-1"), jobstatus.Status{
		JobID:  "job-1",
		Status: "SUCCESS",
	})

	srv := httptest.NewServer(http.HandlerFunc(NewStatusHandler(src, resolve).Events))
	defer srv.Close()

	done := make(chan []StatusResponse)
	go func() {
		resp, err := http.Get(srv.URL)
		if err != nil {
			done <- nil
			return
		}
		defer resp.Body.Close()
		done <- readEvents(t, bufio.NewScanner(resp.Body))
	}()

	select {
	case events := <-done:
		if len(events) != 1 || events[0].Text != "Completed" {
			t.Errorf("expected a single completed event, got %+v", events)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end for a terminal job")
	}
}

func TestStatusHandler_EventsEndsWhenSourceCloses(t *testing.T) {
	src := newFakeSource()
	close(src.updates)

	srv := httptest.NewServer(http.HandlerFunc(NewStatusHandler(src, resolve).Events))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if events := readEvents(t, bufio.NewScanner(resp.Body)); len(events) != 0 {
		t.Errorf("expected no events while idle, got %d", len(events))
	}
}
