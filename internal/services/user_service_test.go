package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	uniq := &pq.Error{Code: "23505", Constraint: "users_username_key"}
	require.True(t, isUniqueViolation(uniq))
	require.True(t, isUniqueViolation(fmt.Errorf("insert user: %w", uniq)))

	require.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, isUniqueViolation(errors.New("duplicate key value violates unique constraint")))
	require.False(t, isUniqueViolation(nil))
}
