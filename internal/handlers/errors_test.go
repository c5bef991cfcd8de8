package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/nano-midea/socialsync/internal/optimistic"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPError(t *testing.T) {
	type form struct {
		Name string `validate:"required"`
	}
	validationErr := validator.New().Struct(form{})
	require.Error(t, validationErr)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"blank text", services.ErrBlankText, http.StatusBadRequest},
		{"invalid target", services.ErrInvalidTarget, http.StatusBadRequest},
		{"validation", validationErr, http.StatusBadRequest},
		{"too many values", store.ErrTooManyValues, http.StatusBadRequest},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"post not found", services.ErrPostNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", store.ErrNotFound), http.StatusNotFound},
		{"pending", optimistic.ErrPending, http.StatusConflict},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

			var he *echo.HTTPError
			require.ErrorAs(t, httpError(c, tt.err), &he)
			assert.Equal(t, tt.code, he.Code)
		})
	}

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NoError(t, httpError(c, nil))
}

func TestFirst(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	v, err := first(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	close(ch)
	_, err = first(context.Background(), ch)
	assert.ErrorIs(t, err, errStreamClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = first(ctx, make(chan int))
	assert.ErrorIs(t, err, context.Canceled)
}
