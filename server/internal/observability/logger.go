package observability

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldMethod is the field name for the HTTP method.
	LogFieldMethod = "method"
	// LogFieldPath is the field name for the request path.
	LogFieldPath = "path"
	// LogFieldStatus is the field name for the response status.
	LogFieldStatus = "status"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// RequestContext represents the context for a single request with structured logging.
type RequestContext struct {
	RequestID string
	UserID    int
	Method    string
	Path      string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContextWithID creates a new request context with a specific request ID.
func NewRequestContextWithID(logger *slog.Logger, requestID, method, path string, userID int) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: requestID,
		UserID:    userID,
		Method:    method,
		Path:      path,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Debug logs a debug message.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.baseAttrsAppended(allAttrs...)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

func (r *RequestContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.Int(LogFieldUserID, r.UserID),
	}
	return append(base, attrs...)
}

func generateRequestID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}

// ContextHandler adds the request and user ids of the RequestContext in ctx
// to records logged with the *Context slog functions.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if reqCtx, ok := FromContext(ctx); ok {
		record.AddAttrs(
			slog.String(LogFieldRequestID, reqCtx.RequestID),
			slog.Int(LogFieldUserID, reqCtx.UserID),
		)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// RequestLogger attaches a RequestContext to every request, echoes the
// request id back in the response and logs the outcome: client errors as
// warnings, server errors as errors. userID reports the signed-in user at
// the time of the request; it may be nil.
func RequestLogger(logger *slog.Logger, userID func() int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = generateRequestID()
			}
			uid := 0
			if userID != nil {
				uid = userID()
			}

			reqCtx := NewRequestContextWithID(logger, requestID, req.Method, req.URL.Path, uid)
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, requestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []slog.Attr{
				slog.String(LogFieldMethod, reqCtx.Method),
				slog.String(LogFieldPath, reqCtx.Path),
				slog.Int(LogFieldStatus, status),
				slog.Int64(LogFieldDuration, reqCtx.Duration().Milliseconds()),
			}
			var apiErr *apierrors.APIError
			if errors.As(err, &apiErr) {
				attrs = append(attrs, slog.String(LogFieldErrorCode, string(apiErr.Code)))
			}
			switch {
			case err == nil:
				reqCtx.Debug("request handled", attrs...)
			case status < http.StatusInternalServerError:
				reqCtx.Warn("request rejected", append(attrs, slog.String("error", err.Error()))...)
			default:
				reqCtx.Error("request failed", err, attrs...)
			}
			return nil
		}
	}
}
