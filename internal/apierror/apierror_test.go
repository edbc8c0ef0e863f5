package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:        http.StatusNotFound,
		KindForbidden:       http.StatusForbidden,
		KindUnauthorized:    http.StatusUnauthorized,
		KindConflict:        http.StatusConflict,
		KindValidation:      http.StatusBadRequest,
		KindLowConfidence:   http.StatusUnprocessableEntity,
		KindNoPrediction:    http.StatusUnprocessableEntity,
		KindUpstreamFailure: http.StatusBadGateway,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.Status(), "kind %s", kind)
	}
}

func TestWriteShapesResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, NotFound("rock not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Kind   string `json:"kind"`
			Detail string `json:"detail"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, string(KindNotFound), body.Error.Kind)
	require.Equal(t, "rock not found", body.Error.Detail)
}

func TestWriteUnknownErrorBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("database exploded"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The raw cause must not leak into the response body.
	require.NotContains(t, rec.Body.String(), "database exploded")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstreamFailure, "inference request failed", cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, KindUpstreamFailure, From(err).Kind)
}

func TestFromDefaultsToInternal(t *testing.T) {
	require.Equal(t, KindInternal, From(errors.New("plain")).Kind)
	require.Equal(t, KindConflict, From(Conflict("taken")).Kind)
}
