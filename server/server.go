package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"tubemind/core"
)

// Ingester runs the full acquisition pipeline for one video URL.
type Ingester interface {
	Ingest(ctx context.Context, url string) (videoID, title string, err error)
}

// Answerer answers a question against one ingested video.
type Answerer interface {
	Answer(ctx context.Context, question, videoID string) string
}

// Server exposes the pipeline and the question engine over HTTP.
type Server struct {
	ingester Ingester
	answerer Answerer
	log      zerolog.Logger
}

func New(ingester Ingester, answerer Answerer, log zerolog.Logger) *Server {
	return &Server{
		ingester: ingester,
		answerer: answerer,
		log:      log,
	}
}

// Routes builds the HTTP mux for the service.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", s.ProcessHandler)
	mux.HandleFunc("/ask", s.AskHandler)
	mux.HandleFunc("/health", s.HealthHandler)
	return mux
}

// Run blocks serving HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("http server listening")
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
	}
	return srv.ListenAndServe()
}

// ProcessHandler ingests a video: download, transcribe, summarize, index.
func (s *Server) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}
	if req.URL == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing parameter",
			"message": "url is required",
		})
		return
	}

	start := time.Now()
	videoID, title, err := s.ingester.Ingest(r.Context(), req.URL)
	if err != nil {
		s.log.Error().Err(err).Str("url", req.URL).Msg("ingestion failed")
		core.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Ingestion failed",
			"message": err.Error(),
		})
		return
	}

	s.log.Info().
		Str("video_id", videoID).
		Dur("elapsed", time.Since(start)).
		Msg("video ingested")
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"message":     "Video processed and indexed",
		"video_id":    videoID,
		"video_title": title,
	})
}

// AskHandler answers a question about a previously ingested video. Retrieval
// and model failures come back as an answer string, not an HTTP error.
func (s *Server) AskHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error":   "Method not allowed",
			"message": "Only POST method is supported",
		})
		return
	}

	var req struct {
		Question string `json:"question"`
		VideoID  string `json:"video_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}
	if req.Question == "" || req.VideoID == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing parameter",
			"message": "question and video_id are required",
		})
		return
	}

	answer := s.answerer.Answer(r.Context(), req.Question, req.VideoID)
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"answer": answer,
	})
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
