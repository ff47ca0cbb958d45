package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
)

func TestWrappedErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("duplicate entry")
	err := fmt.Errorf("add session: %w", apperr.SessionAlreadyExists.Wrap(cause))

	assert.ErrorIs(t, err, apperr.SessionAlreadyExists)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, apperr.SessionNotFound)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 7, e.Code)
	assert.Equal(t, "SESSION_ALREADY_EXISTS", e.Name)
}

func TestWrapDoesNotMutateSentinel(t *testing.T) {
	_ = apperr.TicketAlreadyUsed.Wrap(errors.New("boom"))
	assert.Nil(t, apperr.TicketAlreadyUsed.Err)

	v := apperr.Validation("sortBy %q is not supported", "price")
	assert.Equal(t, `sortBy "price" is not supported`, v.Message)
	assert.Equal(t, "Request validation failed", apperr.ValidationFailed.Message)
}

func TestKindToStatus(t *testing.T) {
	cases := map[*apperr.Error]int{
		apperr.UserAlreadyExists:          http.StatusConflict,
		apperr.MovieNotFound:              http.StatusNotFound,
		apperr.MovieIsNotActive:           http.StatusNotFound,
		apperr.SessionAlreadyPassed:       http.StatusBadRequest,
		apperr.UserNotOldEnough:           http.StatusBadRequest,
		apperr.UserNotAuthorized:          http.StatusUnauthorized,
		apperr.TicketDoesNotBelongToUser:  http.StatusForbidden,
		apperr.TicketAlreadyUsed:          http.StatusConflict,
		apperr.MovieHasNoSessionsToDelete: http.StatusBadRequest,
	}
	for e, want := range cases {
		assert.Equal(t, want, apperr.HTTPStatus(apperr.KindOf(e)), e.Name)
	}
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(apperr.KindOf(errors.New("db down"))))
}
