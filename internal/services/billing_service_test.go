package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleResetFields(t *testing.T) {
	fields := cycleResetFields(1_700_000_000, 1_702_592_000)

	assert.Equal(t, map[string]interface{}{
		"minutes_used_this_month": 0,
		"minutes_reserved":        0,
		"cycle_starts_at":         int64(1_700_000_000),
		"cycle_ends_at":           int64(1_702_592_000),
	}, fields)
}
