package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/optimistic"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// snapshotTimeout bounds how long a request waits for the first snapshot of
// a live query
const snapshotTimeout = 10 * time.Second

var errStreamClosed = errors.New("stream closed before the first snapshot")

// httpError maps service errors onto HTTP responses
func httpError(c echo.Context, err error) error {
	var validationErrs validator.ValidationErrors

	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrBlankText),
		errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, store.ErrTooManyValues),
		errors.As(err, &validationErrs):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrConversationNotFound),
		errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, optimistic.ErrPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// first returns the first value of a live query. The caller cancels ctx to
// release the subscription.
func first[T any](ctx context.Context, ch <-chan T) (T, error) {
	var zero T
	select {
	case v, ok := <-ch:
		if !ok {
			return zero, errStreamClosed
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// snapshot opens a live query with open and returns its first value
func snapshot[T any](c echo.Context, open func(context.Context) (<-chan T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), snapshotTimeout)
	defer cancel()

	var zero T
	ch, err := open(ctx)
	if err != nil {
		return zero, err
	}
	return first(ctx, ch)
}
