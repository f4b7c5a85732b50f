package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/authorization"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"github.com/smallbiznis/fieldwatch/internal/sensorclient"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"github.com/smallbiznis/fieldwatch/internal/weather"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Message string            `json:"-"`
	Errors  []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// domainError pairs a sentinel with its client-facing field and message.
type domainError struct {
	err     error
	field   string
	message string
}

var validationErrors = []domainError{
	{ErrInvalidRequest, "request", "invalid request"},

	{fielddomain.ErrInvalidID, "id", "invalid field id"},
	{fielddomain.ErrInvalidUser, "user_id", "invalid user id"},
	{fielddomain.ErrInvalidName, "name", "Field name is required"},
	{fielddomain.ErrDuplicateName, "name", "Field with this name already exists for this user"},

	{checkpointdomain.ErrInvalidID, "id", "invalid checkpoint id"},
	{checkpointdomain.ErrInvalidUser, "user_id", "invalid user id"},
	{checkpointdomain.ErrInvalidName, "name", "Checkpoint name is required"},

	{pumpdomain.ErrInvalidID, "id", "invalid pump id"},

	{triggerdomain.ErrInvalidID, "id", "invalid trigger task id"},
	{triggerdomain.ErrInvalidUser, "user_id", "invalid user id"},
	{triggerdomain.ErrInvalidName, "name", "Trigger task name is required"},
	{triggerdomain.ErrInvalidThreshold, "threshold", "threshold must be a finite number"},
	{triggerdomain.ErrInvalidMetric, "weather_metric", "weather_metric must be one of temperature, humidity, wind_speed"},
	{triggerdomain.ErrInvalidCondition, "condition", "condition must be one of greater_than, less_than, equals"},
	{triggerdomain.ErrInvalidAction, "action", "action must be one of power_on_all_pumps, power_off_all_pumps"},

	{authdomain.ErrUsernameTaken, "username", "Username already registered"},
	{authdomain.ErrEmailTaken, "email", "Email already registered"},
	{authdomain.ErrInvalidUsername, "username", "username is required"},
	{authdomain.ErrInvalidEmail, "email", "invalid email address"},
	{authdomain.ErrInvalidPassword, "password", "password is required"},

	{weather.ErrInvalidCity, "city", "invalid city"},
}

var notFoundErrors = []domainError{
	{ErrNotFound, "", "not found"},
	{fielddomain.ErrNotFound, "", "Field not found"},
	{checkpointdomain.ErrFieldNotFound, "", "Field not found or access denied"},
	{checkpointdomain.ErrNotFound, "", "Checkpoint not found or access denied"},
	{pumpdomain.ErrNotFound, "", "Pump not found"},
	{triggerdomain.ErrFieldNotFound, "", "Field not found or access denied"},
	{triggerdomain.ErrNotFound, "", "Trigger task not found or access denied"},
	{gorm.ErrRecordNotFound, "", "not found"},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func InvalidRequestError() error {
	return NewValidationError("request", "invalid_request", "invalid request")
}

func NewValidationError(field, code, message string) error {
	return &ValidationErrors{
		Message: message,
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		message := vErr.Message
		if message == "" {
			message = "validation error"
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: message,
			Errors:  vErr.Errors,
		}
	}

	var missing *triggerdomain.MissingMetricError
	if errors.As(err, &missing) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: missing.Error(),
			Errors: []ValidationError{{
				Field:   string(missing.Metric),
				Code:    triggerdomain.ErrMissingMetric.Error(),
				Message: missing.Error(),
			}},
		}
	}

	if de, ok := match(err, validationErrors); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: de.message,
			Errors: []ValidationError{{
				Field:   de.field,
				Code:    de.err.Error(),
				Message: de.message,
			}},
		}
	}

	var upstream *weather.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return status, errorPayload{
			Type:    "upstream_error",
			Message: upstream.Error(),
		}
	}

	if de, ok := match(err, notFoundErrors); ok {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: de.message,
		}
	}

	switch {
	case errors.Is(err, weather.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "Weather API authentication failed. Check API key.",
		}
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "Incorrect username or password",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrInvalidSignature),
		errors.Is(err, authdomain.ErrUserNotFound):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "Could not validate credentials",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, sensorclient.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "Sensor service unavailable",
		}
	case errors.Is(err, weather.ErrUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "Weather service unavailable",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func match(err error, table []domainError) (domainError, bool) {
	for _, de := range table {
		if errors.Is(err, de.err) {
			return de, true
		}
	}
	return domainError{}, false
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// ClassifyErrorForLog feeds the request logger's error_type and error_code fields.
func ClassifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError && payload.Type == "internal_error" {
		return "internal", code
	}
	return payload.Type, code
}
