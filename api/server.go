package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"lanerush/room"
	"lanerush/score"
)

const (
	defaultLeaderboard = 10
	maxLeaderboard     = 100
	maxBodyBytes       = 1 << 14
)

// RoomLister is the part of the room registry the API reads.
type RoomLister interface {
	ListRooms() []room.RoomInfo
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Server handles HTTP requests
type Server struct {
	scores score.Recorder
	rooms  RoomLister
	ws     http.Handler
	logger *zap.SugaredLogger
}

// NewServer wires the score store, the room registry and the websocket
// endpoint. ws may be nil when no realtime endpoint is served.
func NewServer(scores score.Recorder, rooms RoomLister, ws http.Handler, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{scores: scores, rooms: rooms, ws: ws, logger: logger}
}

// Routes sets up the HTTP routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/health", s.handleHealth)
	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/scores", s.handleAddScore)
		r.Get("/rooms", s.handleListRooms)
	})

	return r
}

// CORS for browser clients served from another origin
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{"status": "ok"}
	if s.rooms != nil {
		body["rooms"] = len(s.rooms.ListRooms())
	}
	if p, ok := s.scores.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = err.Error()
		}
	}
	writeJSON(w, status, body)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboard
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxLeaderboard {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	entries, err := s.scores.TopScores(r.Context(), limit)
	if err != nil {
		s.logger.Errorw("fetch leaderboard failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Server error while fetching leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type addScoreRequest struct {
	PlayerName string `json:"playerName"`
	Score      *int   `json:"score"`
	GameID     string `json:"gameId"`
}

func (s *Server) handleAddScore(w http.ResponseWriter, r *http.Request) {
	var req addScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "missing_score", "Score is required")
		return
	}
	if *req.Score < 0 {
		writeError(w, http.StatusBadRequest, "invalid_score", "Score must be non-negative")
		return
	}

	added, err := s.scores.RecordScore(r.Context(), req.PlayerName, *req.Score, req.GameID)
	if err != nil {
		s.logger.Errorw("record score failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Server error while adding score")
		return
	}
	if !added {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Score not added: duplicate or not a new best", "recorded": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Score added successfully", "recorded": true})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	if s.rooms == nil {
		writeJSON(w, http.StatusOK, []room.RoomInfo{})
		return
	}
	writeJSON(w, http.StatusOK, s.rooms.ListRooms())
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
