package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndOfDay(t *testing.T) {
	end, err := endOfDay("2025-03-10", time.UTC)
	require.NoError(t, err)

	lastSubSecond := time.Date(2025, 3, 10, 23, 59, 59, 999_000_000, time.UTC)
	assert.False(t, lastSubSecond.After(end), "due times late in the day are included")
	assert.True(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC).After(end), "next day is excluded")

	_, err = endOfDay("10/03/2025", time.UTC)
	assert.Error(t, err)
}
