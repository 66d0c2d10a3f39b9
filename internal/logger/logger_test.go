package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop_DiscardsOutput(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)

	// must not panic and must stay disabled
	assert.NotPanics(t, func() {
		log.Info().Str("k", "v").Msg("discarded")
	})
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}

func TestGetChildLogger_ReturnsDistinctLogger(t *testing.T) {
	parent := Nop()
	child := parent.GetChildLogger()

	require.NotNil(t, child)
	assert.NotSame(t, parent, child)
}

func TestFromContext_NeverNil(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)

	ctx := Nop().WithContext(context.Background())
	log = FromContext(ctx)
	require.NotNil(t, log)
}
