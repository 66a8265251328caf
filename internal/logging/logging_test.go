package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		log, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, log.Logger)
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty", Format: "console"})
	assert.Error(t, err)
}

func TestWithComponent(t *testing.T) {
	log, err := New(Config{Level: "info", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, log.WithComponent("loader").Logger)
}
