package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ConfigValidationError is returned when config validation fails.
type ConfigValidationError struct {
	Errors []ValidationError
}

func (e *ConfigValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "config validation failed"
	}
	return "config validation failed: " + e.Errors[0].Field + ": " + e.Errors[0].Message
}

// Err returns a *ConfigValidationError when the result is invalid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ConfigValidationError{Errors: r.Errors}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errs []ValidationError

	errs = append(errs, validateTags(c)...)

	// Socket validation
	errs = append(errs, validateSocket(&c.Socket)...)

	// Stats validation
	errs = append(errs, validateStats(&c.Stats)...)

	// HealthServer validation
	errs = append(errs, validateHealthServer(&c.HealthServer)...)

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func validateTags(c *Config) []ValidationError {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: "config", Message: err.Error()}}
	}

	result := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		result = append(result, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: tagMessage(fe),
		})
	}
	return result
}

// fieldPath turns "Config.stats.poll_interval" into "stats.poll_interval".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func validateSocket(s *SocketConfig) []ValidationError {
	var errs []ValidationError

	if s.URL == "" {
		return errs
	}

	u, err := url.Parse(s.URL)
	if err != nil {
		return errs
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		errs = append(errs, ValidationError{
			Field:   "socket.url",
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
		})
	}

	return errs
}

// validateStats rejects poll intervals the cron scheduler would round.
func validateStats(s *StatsConfig) []ValidationError {
	var errs []ValidationError

	if s.PollInterval > 0 && s.PollInterval%time.Second != 0 {
		errs = append(errs, ValidationError{
			Field:   "stats.poll_interval",
			Message: fmt.Sprintf("must be a whole number of seconds, got %s", s.PollInterval),
		})
	}

	return errs
}

func validateHealthServer(hs *HealthServerConfig) []ValidationError {
	var errs []ValidationError

	if !hs.Enabled {
		return errs
	}

	if hs.Port < 1 || hs.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "health_server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", hs.Port),
		})
	}

	return errs
}
