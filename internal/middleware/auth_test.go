package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc123", BearerToken("Bearer abc123"))
	require.Equal(t, "abc123", BearerToken("Bearer  abc123 "))
	require.Empty(t, BearerToken("abc123"))
	require.Empty(t, BearerToken("Basic abc123"))
	require.Empty(t, BearerToken(""))
}
