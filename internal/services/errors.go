package services

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrBlankText            = errors.New("text must not be blank")
	ErrPostNotFound         = errors.New("post not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidTarget        = errors.New("invalid target user")
)

// swallow records the failure of a write the calling operation does not
// depend on. The error is logged and counted, never returned.
func swallow(ctx context.Context, op string, err error, attrs ...any) {
	if err == nil {
		return
	}
	secondaryWriteFailures.WithLabelValues(op).Inc()
	slog.WarnContext(ctx, "secondary write failed", append([]any{"op", op, "error", err}, attrs...)...)
}
