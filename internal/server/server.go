package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/screenlens/screenlens/internal/history"
	"github.com/screenlens/screenlens/internal/ocr/engine"
	"github.com/screenlens/screenlens/internal/ocr/pipeline"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type ResultMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Text      string `json:"text"`
	Engine    string `json:"engine"`
	LatencyMs int64  `json:"latency_ms"`
}

type LatestMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	pipe       *pipeline.Loop
	store      *history.Store // nil when history is disabled
	selector   *engine.Selector
	batchLimit int

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a server over a running pipeline. store may be nil.
func New(pipe *pipeline.Loop, store *history.Store, selector *engine.Selector, batchLimit int) *Server {
	s := &Server{
		pipe:       pipe,
		store:      store,
		selector:   selector,
		batchLimit: batchLimit,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}

	go s.broadcastResults()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/text", s.handleText)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/batch", s.handleBatch)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	slog.Info("websocket connected", "remote", r.RemoteAddr)

	for {
		var msg json.RawMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			slog.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			slog.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(ctx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "latest":
			_ = wsjson.Write(ctx, conn, LatestMessage{Type: "latest", Text: s.pipe.LatestText()})
		}
	}
}

func (s *Server) broadcastResults() {
	for res := range s.pipe.Results() {
		msg := ResultMessage{
			Type:      "result",
			ID:        res.ID,
			Text:      res.Text,
			Engine:    res.Engine,
			LatencyMs: res.Latency.Milliseconds(),
		}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn) {
				_ = wsjson.Write(context.Background(), c, msg)
			}(conn)
		}
		s.mu.RUnlock()
	}
}

type statusResponse struct {
	Running         bool     `json:"running"`
	Metrics         any      `json:"metrics"`
	IntervalSeconds float64  `json:"interval_seconds"`
	DeadlineSeconds float64  `json:"deadline_seconds"`
	Advisories      []string `json:"advisories"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	params := s.pipe.ControlParams()
	resp := statusResponse{
		Running:         s.pipe.Running(),
		Metrics:         s.pipe.Metrics(),
		IntervalSeconds: params.Interval.Seconds(),
		DeadlineSeconds: params.Deadline.Seconds(),
		Advisories:      s.pipe.Advisories(),
	}
	writeJSON(w, resp)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	text := s.pipe.LatestText()
	if len(text) > TextPreviewLimit {
		text = text[:TextPreviewLimit] + "..."
	}
	writeJSON(w, map[string]string{"text": text})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("history query failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, map[string]any{"entries": entries})
}

type batchRequest struct {
	Images []string `json:"images"` // base64-encoded
	Format string   `json:"format"`
	Engine string   `json:"engine"` // optional; metrics-driven selection when empty
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Images) == 0 || len(req.Images) > MaxBatchImages {
		http.Error(w, "image count out of range", http.StatusBadRequest)
		return
	}

	images := make([][]byte, len(req.Images))
	for i, enc := range req.Images {
		data, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			http.Error(w, "invalid base64 image", http.StatusBadRequest)
			return
		}
		images[i] = data
	}

	var eng engine.Engine
	if req.Engine != "" {
		var ok bool
		if eng, ok = s.selector.Engine(engine.ID(req.Engine)); !ok {
			http.Error(w, "unknown engine", http.StatusBadRequest)
			return
		}
	} else {
		eng = s.selector.Select(s.pipe.Metrics())
	}
	if eng == nil {
		http.Error(w, "no engine available", http.StatusServiceUnavailable)
		return
	}

	deadline := time.Duration(float64(s.pipe.ControlParams().Deadline) * eng.DeadlineScale())
	results := engine.BatchInvoke(r.Context(), eng, images, req.Format, deadline, s.batchLimit)

	writeJSON(w, map[string]any{
		"engine":  string(eng.ID()),
		"results": results,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
