// Package backendtest runs an in-process fake of the face-swap backend for
// tests: uploads, job submission, scripted job progression, downloads and the
// status websocket.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kozaktomas/faceswap/internal/constants"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
)

// Mode selects the response shape of /api/process.
type Mode int

const (
	// ModeModern answers {job_id, task_id, status, message}.
	ModeModern Mode = iota
	// ModeLegacy answers {job_id} only and serves the job under its job id.
	ModeLegacy
)

// ScriptFunc returns the successive statuses a new job reports, one per poll.
// The last status repeats forever.
type ScriptFunc func(handle string) []jobstatus.Status

// DefaultScript walks a job through queued, two processing steps and completion.
func DefaultScript(handle string) []jobstatus.Status {
	return []jobstatus.Status{
		{JobID: handle, Status: "pending", Progress: 0, Message: "Waiting..."},
		{JobID: handle, Status: "processing", Progress: 20, Message: "Detecting faces"},
		{JobID: handle, Status: "processing", Progress: 80, Message: "Encoding video"},
		{JobID: handle, Status: "completed", Progress: 100, Message: "Done", OutputURL: "/api/download/" + handle + ".mp4"},
	}
}

// Option configures the fake backend.
type Option func(*Server)

// WithMode selects the response shape of /api/process.
func WithMode(m Mode) Option {
	return func(s *Server) { s.mode = m }
}

// WithScript replaces the script of newly submitted jobs.
func WithScript(fn ScriptFunc) Option {
	return func(s *Server) { s.script = fn }
}

// WithPollBroadcast makes every poll response also go out on the websocket,
// like the task-queue backend does.
func WithPollBroadcast() Option {
	return func(s *Server) { s.pollBroadcast = true }
}

type job struct {
	steps []jobstatus.Status
	next  int
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	mode          Mode
	script        ScriptFunc
	pollBroadcast bool
	upgrader      websocket.Upgrader

	mu          sync.Mutex
	uploads     map[string]string // file id -> file name
	jobs        map[string]*job
	fetches     map[string]int
	outputs     map[string][]byte
	conns       map[*wsConn]struct{}
	failFetches int
	failSubmit  bool
	dialCount   int
	submissions [][2]string
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		mode:    ModeModern,
		script:  DefaultScript,
		uploads: make(map[string]string),
		jobs:    make(map[string]*job),
		fetches: make(map[string]int),
		outputs: make(map[string][]byte),
		conns:   make(map[*wsConn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(func() {
		s.DropConnections()
		s.Close()
	})
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/api/celery/status", s.handleWorkers)
	r.Post("/api/upload/video", s.handleUpload(constants.VideoExtensions, "Invalid video format"))
	r.Post("/api/upload/image", s.handleUpload(constants.ImageExtensions, "Invalid image format"))
	r.Post("/api/process", s.handleProcess)
	r.Get("/api/job/{taskID}", s.handleJob)
	r.Get("/api/download/{filename}", s.handleDownload)
	r.Get("/ws", s.handleWS)
	return r
}

// WSURL returns the address of the status websocket.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + constants.PushPath
}

// AddJob registers a job under the given handle with explicit steps.
func (s *Server) AddJob(handle string, steps ...jobstatus.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[handle] = &job{steps: steps}
	s.registerOutputsLocked(steps)
}

// AddOutput makes a file downloadable under /api/download/{name}.
func (s *Server) AddOutput(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[name] = data
}

// FailFetches makes the next n job status requests answer 500.
func (s *Server) FailFetches(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFetches = n
}

// FailSubmit makes /api/process answer 500.
func (s *Server) FailSubmit(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSubmit = fail
}

// Fetches returns how often the status of handle was requested.
func (s *Server) Fetches(handle string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[handle]
}

// Submissions returns the (video id, image id) pairs passed to /api/process.
func (s *Server) Submissions() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.submissions)
}

// Connections returns the number of open websocket connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Dials returns how many websocket connections were accepted in total.
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialCount
}

// Broadcast sends v as JSON to every websocket client.
func (s *Server) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("backendtest: marshal broadcast: %v", err))
	}
	s.BroadcastText(string(data))
}

// BroadcastText sends a raw text frame to every websocket client.
func (s *Server) BroadcastText(text string) {
	for _, c := range s.connections() {
		_ = c.write(websocket.TextMessage, []byte(text))
	}
}

// DropConnections closes all websocket connections from the server side.
func (s *Server) DropConnections() {
	for _, c := range s.connections() {
		_ = c.conn.Close()
	}
}

func (s *Server) connections() []*wsConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]*wsConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	return conns
}

func (s *Server) registerOutputsLocked(steps []jobstatus.Status) {
	for _, st := range steps {
		if st.OutputURL == "" {
			continue
		}
		name := filepath.Base(st.OutputURL)
		if _, ok := s.outputs[name]; !ok {
			s.outputs[name] = []byte("fake video " + name)
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "celery": "connected"})
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if s.mode == ModeLegacy {
		respondDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "connected",
		"workers":      map[string]any{"celery@fake": map[string]any{"pool": map[string]any{"max-concurrency": 1}}},
		"active_tasks": map[string]any{"celery@fake": []any{}},
	})
}

func (s *Server) handleUpload(allowed []string, invalidDetail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
			respondDetail(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			respondDetail(w, http.StatusUnprocessableEntity, "field required")
			return
		}
		defer file.Close()
		_, _ = io.Copy(io.Discard, file)

		if !slices.Contains(allowed, strings.ToLower(filepath.Ext(header.Filename))) {
			respondDetail(w, http.StatusBadRequest, invalidDetail)
			return
		}

		id := uuid.NewString()
		s.mu.Lock()
		s.uploads[id] = header.Filename
		s.mu.Unlock()

		respondJSON(w, http.StatusOK, map[string]string{"file_id": id, "filename": header.Filename})
	}
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"video_id"`
		ImageID string `json:"image_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions = append(s.submissions, [2]string{req.VideoID, req.ImageID})
	if s.failSubmit {
		respondDetail(w, http.StatusInternalServerError, "queue unavailable")
		return
	}
	if _, ok := s.uploads[req.VideoID]; !ok {
		respondDetail(w, http.StatusNotFound, "Video file not found")
		return
	}
	if _, ok := s.uploads[req.ImageID]; !ok {
		respondDetail(w, http.StatusNotFound, "Image file not found")
		return
	}

	jobID := uuid.NewString()
	if s.mode == ModeLegacy {
		steps := s.script(jobID)
		s.jobs[jobID] = &job{steps: steps}
		s.registerOutputsLocked(steps)
		respondJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
		return
	}

	taskID := uuid.NewString()
	steps := s.script(taskID)
	s.jobs[taskID] = &job{steps: steps}
	s.registerOutputsLocked(steps)
	respondJSON(w, http.StatusOK, map[string]string{
		"job_id":  jobID,
		"task_id": taskID,
		"status":  "queued",
		"message": "Job queued",
	})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "taskID")

	s.mu.Lock()
	s.fetches[handle]++
	if s.failFetches > 0 {
		s.failFetches--
		s.mu.Unlock()
		respondDetail(w, http.StatusInternalServerError, "failed to read task state")
		return
	}

	// Unknown task ids report pending, like a task queue result backend does.
	st := jobstatus.Status{JobID: handle, Status: "pending", Message: "Waiting..."}
	if j, ok := s.jobs[handle]; ok && len(j.steps) > 0 {
		st = j.steps[j.next]
		if j.next < len(j.steps)-1 {
			j.next++
		}
	}
	broadcast := s.pollBroadcast
	s.mu.Unlock()

	if broadcast {
		s.Broadcast(st)
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	s.mu.Lock()
	data, ok := s.outputs[name]
	s.mu.Unlock()

	if !ok {
		respondDetail(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	_, _ = w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsConn{conn: conn}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.dialCount++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := c.write(websocket.TextMessage, []byte("Echo: "+string(data))); err != nil {
			return
		}
	}
}
