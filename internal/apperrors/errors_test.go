package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("swap request not found")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidState("request is not pending")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("not your request")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Duplicate("already submitted")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CapacityExceeded("vehicle full")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad date")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Upstream(errors.New("conn refused"), "query failed")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestHTTPStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("approve swap: %w", InvalidState("request is not pending"))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
	assert.True(t, IsKind(wrapped, KindInvalidState))
}

func TestUserMessageHidesUpstreamDetails(t *testing.T) {
	err := Upstream(errors.New("pq: relation missing"), "failed to load schedule")
	assert.Equal(t, "Internal server error", UserMessage(err))
	assert.Equal(t, "You can only cancel your own requests", UserMessage(Forbidden("You can only cancel your own requests")))
}
