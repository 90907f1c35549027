package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/runnerr0/vitalsmon/internal/ingest"
	"github.com/runnerr0/vitalsmon/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, field string) {
	writeJSON(w, status, errorResponse{Error: msg, Field: field})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxRequestSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxRequestSize)
	}

	var c ingest.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed JSON body", "")
		return
	}

	event, err := s.ingest.Ingest(r.Context(), c)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error(), verr.Field)
			return
		}
		// Details are logged by the ingest service.
		writeError(w, http.StatusInternalServerError, "could not store measurement", "")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// queryContext parses the request's filter and bounds the query time. It
// writes the error response itself and returns ok == false on failure.
func (s *Server) queryContext(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, storage.QueryFilter, bool) {
	f, err := storage.ParseFilter(rawFilter(r.URL.Query()), s.opts.Now())
	if err != nil {
		var ferr *storage.FilterError
		if errors.As(err, &ferr) {
			writeError(w, http.StatusBadRequest, ferr.Error(), ferr.Param)
		} else {
			writeError(w, http.StatusBadRequest, err.Error(), "")
		}
		return nil, nil, storage.QueryFilter{}, false
	}

	ctx, cancel := r.Context(), context.CancelFunc(func() {})
	if s.opts.QueryTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
	}
	return ctx, cancel, f, true
}

func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("query failed",
		zap.String("path", r.URL.Path),
		zap.String("query", r.URL.RawQuery),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "query failed", "")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, f, ok := s.queryContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	rows, err := s.store.Select(ctx, f)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAverage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, f, ok := s.queryContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	avg, err := s.engine.Average(ctx, f)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avg)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, f, ok := s.queryContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	n, err := s.engine.Count(ctx, f)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, f, ok := s.queryContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	buckets, err := s.engine.Plot(ctx, f)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel, f, ok := s.queryContext(w, r)
	if !ok {
		return
	}
	defer cancel()

	summary, err := s.engine.Summary(ctx, f)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
