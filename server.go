package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// aiService is what the handlers need from the Anthropic client. Both
// calls absorb their own failures and never return an error.
type aiService interface {
	RequestAdvice(ctx context.Context, shot ShotRecord) AdviceResult
	RequestSearch(ctx context.Context, query string) SearchRecommendation
}

// Server wires the journal, timer and AI client behind the HTTP API.
// The draft is the server-side state of the logging form: timer stops
// merge their seconds into it, logging a shot resets it.
type Server struct {
	cfg     Config
	journal *Journal
	timer   *ShotTimer

	aiMu sync.RWMutex
	ai   aiService

	draftMu sync.Mutex
	draft   DraftShot
}

// NewServer builds the HTTP layer. ai may be a nil interface when no
// key is configured; the key endpoint can supply one later.
func NewServer(cfg Config, journal *Journal, timer *ShotTimer, ai aiService) *Server {
	return &Server{
		cfg:     cfg,
		journal: journal,
		timer:   timer,
		ai:      ai,
		draft:   NewDraft(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)

	r.Get("/api/shots", s.handleListShots)
	r.Post("/api/shots", s.handleCreateShot)
	r.Delete("/api/shots/{id}", s.handleDeleteShot)
	r.Post("/api/shots/{id}/advice", s.handleAdvice)

	r.Post("/api/search", s.handleSearch)
	r.Get("/api/draft", s.handleDraft)
	r.Get("/api/digest", s.handleDigest)

	r.Get("/api/timer", s.handleTimerSnapshot)
	r.Post("/api/timer/start", s.handleTimerStart)
	r.Post("/api/timer/firstdrop", s.handleTimerFirstDrop)
	r.Post("/api/timer/stop", s.handleTimerStop)
	r.Post("/api/timer/reset", s.handleTimerReset)

	r.Get("/api/key", s.handleKeyStatus)
	r.Put("/api/key", s.handleKeyUpdate)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) aiClient() aiService {
	s.aiMu.RLock()
	defer s.aiMu.RUnlock()
	return s.ai
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListShots(w http.ResponseWriter, r *http.Request) {
	shots := s.journal.All()
	if shots == nil {
		shots = []ShotRecord{}
	}
	writeJSON(w, http.StatusOK, shots)
}

func (s *Server) handleCreateShot(w http.ResponseWriter, r *http.Request) {
	var input ShotInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(input); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	rec, err := s.journal.Append(input)
	if err != nil {
		log.Printf("shot save failed error=%v", err)
		writeError(w, http.StatusInternalServerError, "could not save the shot")
		return
	}

	// The form was submitted, so the next draft starts clean.
	s.draftMu.Lock()
	s.draft = NewDraft()
	s.draftMu.Unlock()

	log.Printf("shot logged id=%s bean=%q", rec.ID, rec.Bean)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteShot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.journal.Remove(id)
	if err != nil {
		log.Printf("shot delete failed id=%s error=%v", id, err)
		writeError(w, http.StatusInternalServerError, "could not save the journal")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "shot not found")
		return
	}
	log.Printf("shot deleted id=%s", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	shot, ok := s.journal.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "shot not found")
		return
	}
	ai := s.aiClient()
	if ai == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: ErrMissingAPIKey.Error(),
			Hint:  "set ANTHROPIC_API_KEY or PUT /api/key",
		})
		return
	}
	writeJSON(w, http.StatusOK, ai.RequestAdvice(r.Context(), shot))
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Recommendation SearchRecommendation `json:"recommendation"`
	Draft          DraftShot            `json:"draft"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	ai := s.aiClient()
	if ai == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: ErrMissingAPIKey.Error(),
			Hint:  "set ANTHROPIC_API_KEY or PUT /api/key",
		})
		return
	}

	rec := ai.RequestSearch(r.Context(), query)

	draft := NewDraft()
	draft.Bean = query
	draft = draft.ApplyRecommendation(rec)
	writeJSON(w, http.StatusOK, searchResponse{Recommendation: rec, Draft: draft})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	s.draftMu.Lock()
	draft := s.draft
	s.draftMu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	loc := s.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	from, to := weekRangeAt(time.Now().In(loc))
	content := BuildDigest(s.journal.All(), from, to)

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

func (s *Server) handleTimerSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.timer.Snapshot())
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	s.timer.Start()
	writeJSON(w, http.StatusOK, s.timer.Snapshot())
}

func (s *Server) handleTimerFirstDrop(w http.ResponseWriter, r *http.Request) {
	s.timer.FirstDrop()
	writeJSON(w, http.StatusOK, s.timer.Snapshot())
}

type timerStopResponse struct {
	Stopped bool          `json:"stopped"`
	Seconds int           `json:"seconds"`
	Timer   TimerSnapshot `json:"timer"`
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	seconds, stopped := s.timer.Stop()
	if stopped {
		s.draftMu.Lock()
		s.draft = s.draft.ApplyExtractionSeconds(seconds)
		s.draftMu.Unlock()
	}
	writeJSON(w, http.StatusOK, timerStopResponse{
		Stopped: stopped,
		Seconds: seconds,
		Timer:   s.timer.Snapshot(),
	})
}

func (s *Server) handleTimerReset(w http.ResponseWriter, r *http.Request) {
	s.timer.Reset()
	writeJSON(w, http.StatusOK, s.timer.Snapshot())
}

type keyStatusResponse struct {
	Configured bool `json:"configured"`
}

type keyUpdateRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleKeyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, keyStatusResponse{Configured: s.aiClient() != nil})
}

func (s *Server) handleKeyUpdate(w http.ResponseWriter, r *http.Request) {
	var req keyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := SaveAPIKey(s.cfg, key); err != nil {
		log.Printf("key persist failed error=%v", err)
		writeError(w, http.StatusInternalServerError, "could not persist the key")
		return
	}

	cfg := s.cfg
	cfg.AnthropicAPIKey = key
	assistant, err := NewAssistant(cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not configure the client")
		return
	}

	s.aiMu.Lock()
	s.ai = assistant
	s.aiMu.Unlock()

	log.Printf("anthropic key configured via api")
	writeJSON(w, http.StatusOK, keyStatusResponse{Configured: true})
}

// validationMessage flattens validator errors into one actionable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid shot submission"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must be between 1 and 5", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}
