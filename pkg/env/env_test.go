package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("EMLAKHUB_TEST_PORT", "  ")
	t.Setenv("EMLAKHUB_TEST_APP_PORT", "9090")

	assert.Equal(t, "9090", First("8080", "EMLAKHUB_TEST_PORT", "EMLAKHUB_TEST_APP_PORT"))
	assert.Equal(t, "8080", First("8080", "EMLAKHUB_TEST_MISSING"))
	assert.Equal(t, "fallback", Get("EMLAKHUB_TEST_PORT", "fallback"))
}
