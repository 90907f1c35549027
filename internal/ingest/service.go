package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/runnerr0/vitalsmon/internal/storage"
)

// InsertError wraps a store failure for a measurement that passed
// validation.
type InsertError struct {
	Err error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("store measurement: %v", e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Service validates and stores measurements.
type Service struct {
	store     storage.Store
	validator *Validator
	metrics   *Metrics
	logger    *zap.Logger
}

// NewService wires a Service. metrics and logger may be nil.
func NewService(store storage.Store, v *Validator, metrics *Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, validator: v, metrics: metrics, logger: logger}
}

// Ingest validates c and inserts it. On a *ValidationError nothing is
// written; a store failure comes back as *InsertError.
func (s *Service) Ingest(ctx context.Context, c Candidate) (*storage.MetricEvent, error) {
	event, err := s.validator.Validate(c)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.metrics.reject(verr.Field)
			s.logger.Debug("measurement rejected",
				zap.String("field", verr.Field),
				zap.String("reason", verr.Reason),
			)
		}
		return nil, err
	}

	if err := s.store.InsertEvent(ctx, event); err != nil {
		s.metrics.insertFailed()
		s.logger.Error("measurement insert failed",
			zap.String("metric", string(event.Metric)),
			zap.String("url", event.URL),
			zap.Error(err),
		)
		return nil, &InsertError{Err: err}
	}

	s.metrics.accept(string(event.Metric))
	return event, nil
}
