package http

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/sugawarayuuta/sonnet"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/middleware"
	"github.com/cartridge/replay/internal/service"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

const maxBody = 8 << 20

// Options tunes the HTTP front end.
type Options struct {
	RateLimit float64
	RateBurst int
}

// Server exposes the replay service over JSON/HTTP.
type Server struct {
	svc     *service.ReplayService
	metrics *metrics.Collector
	logger  zerolog.Logger
	opts    Options
}

// NewServer constructs a Server instance.
func NewServer(svc *service.ReplayService, collector *metrics.Collector, logger zerolog.Logger, opts Options) *Server {
	return &Server{svc: svc, metrics: collector, logger: logger, opts: opts}
}

// Routes builds the HTTP router for the replay service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(s.opts.RateLimit, s.opts.RateBurst))
		r.Get("/stats", s.handleStats)
		r.Post("/transitions", s.handleStoreTransitions)
		r.Post("/sample", s.handleSample)
		r.Post("/priorities", s.handleReportErrors)
	})
	return r
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.metrics.APIRequest(r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetStats(r.Context(), &replayv1.GetStatsRequest{})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStoreTransitions(w http.ResponseWriter, r *http.Request) {
	var payload replayv1.StoreBatchRequest
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.svc.StoreBatch(r.Context(), &payload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	code := http.StatusCreated
	if resp.FailedCount > 0 {
		code = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	var payload replayv1.SampleRequest
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.svc.Sample(r.Context(), &payload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReportErrors(w http.ResponseWriter, r *http.Request) {
	var payload replayv1.ReportErrorsRequest
	if !s.decode(w, r, &payload) {
		return
	}
	resp, err := s.svc.ReportErrors(r.Context(), &payload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err := sonnet.Unmarshal(body, v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.InvalidArgument:
		s.writeError(w, http.StatusBadRequest, st.Message())
	case codes.FailedPrecondition:
		s.writeError(w, http.StatusConflict, st.Message())
	case codes.Unavailable:
		s.writeError(w, http.StatusServiceUnavailable, st.Message())
	default:
		s.writeError(w, http.StatusInternalServerError, st.Message())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := sonnet.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}
