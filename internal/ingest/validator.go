// Package ingest validates measurements reported by browsers and stores
// the ones that pass.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/runnerr0/vitalsmon/internal/config"
	"github.com/runnerr0/vitalsmon/internal/storage"
	"github.com/runnerr0/vitalsmon/internal/vitals"
)

// MaxURLLength bounds the url field before normalization.
const MaxURLLength = 2048

// Candidate is an untrusted measurement. A nil field was not supplied.
type Candidate struct {
	Metric          *string  `json:"metric" validate:"required,metric"`
	Value           *float64 `json:"value" validate:"required,finite,gte=0"`
	URL             *string  `json:"url" validate:"required,max=2048,pageurl"`
	ConnectionSpeed *float64 `json:"connection_speed" validate:"required,finite,connspeed"`
}

// ValidationError names the first field of a Candidate that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validator checks and normalizes Candidates.
type Validator struct {
	validate     *validator.Validate
	allowedHosts config.HostList
}

// NewValidator creates a Validator. An empty allowedHosts accepts any site.
func NewValidator(allowedHosts config.HostList) *Validator {
	validate := validator.New()

	// Report fields by their wire names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("metric", validateMetric)
	validate.RegisterValidation("finite", validateFinite)
	validate.RegisterValidation("connspeed", validateConnectionSpeed)
	validate.RegisterValidation("pageurl", validatePageURL)

	return &Validator{
		validate:     validate,
		allowedHosts: allowedHosts.Normalize(),
	}
}

func validateMetric(fl validator.FieldLevel) bool {
	return vitals.Metric(fl.Field().String()).Valid()
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validateConnectionSpeed(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return f == storage.UnknownConnectionSpeed || f >= 0
}

func validatePageURL(fl validator.FieldLevel) bool {
	_, err := vitals.StandardizeURL(fl.Field().String())
	return err == nil
}

var reasons = map[string]string{
	"required":  "is required",
	"metric":    "must be one of CLS, FCP, FID, INP, LCP, TTFB",
	"finite":    "must be a finite number",
	"gte":       "must not be negative",
	"max":       fmt.Sprintf("must be at most %d characters", MaxURLLength),
	"pageurl":   "must be a page URL with a host",
	"connspeed": "must be -1 (unknown) or a non-negative number",
}

// Validate checks c field by field in declaration order and returns the
// normalized event. The first failure is returned as a *ValidationError.
func (v *Validator) Validate(c Candidate) (*storage.MetricEvent, error) {
	if err := v.validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			reason, ok := reasons[fe.Tag()]
			if !ok {
				reason = "failed " + fe.Tag()
			}
			return nil, &ValidationError{Field: fe.Field(), Reason: reason}
		}
		return nil, fmt.Errorf("validate candidate: %w", err)
	}

	url, err := vitals.StandardizeURL(*c.URL)
	if err != nil {
		return nil, &ValidationError{Field: "url", Reason: err.Error()}
	}
	if host := vitals.HostOf(url); !v.allowedHosts.Allows(host) {
		return nil, &ValidationError{Field: "url", Reason: fmt.Sprintf("host %q is not accepted", host)}
	}

	return &storage.MetricEvent{
		Metric:          vitals.Metric(*c.Metric),
		Value:           *c.Value,
		URL:             url,
		ConnectionSpeed: *c.ConnectionSpeed,
	}, nil
}
