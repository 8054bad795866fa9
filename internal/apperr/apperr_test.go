package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusClassification(t *testing.T) {
	require.Equal(t, "fail", BadRequest("nope").Status())
	require.Equal(t, "fail", Unauthorized("nope").Status())
	require.Equal(t, "fail", NotFound("nope").Status())
	require.Equal(t, "error", Internal("boom").Status())
}

func TestFromDefaultsToInternal(t *testing.T) {
	err := From(errors.New("database exploded"))
	require.Equal(t, http.StatusInternalServerError, err.StatusCode)
	require.Equal(t, "error", err.Status())
}

func TestFromUnwrapsOperationalErrors(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", BadRequest("bad input"))
	err := From(wrapped)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "bad input", err.Message)
}
