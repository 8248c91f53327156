package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
)

type fakeBuffers struct {
	lengths model.BufferLengths
}

func (f *fakeBuffers) BufferLengths() model.BufferLengths { return f.lengths }

func TestGetProgramStatus(t *testing.T) {
	svc := NewService(Dependencies{
		LogManager: logging.NewSlogManager(),
		Buffers:    &fakeBuffers{lengths: model.BufferLengths{Turns: 3, Effects: 12, Calcs: 7}},
	})

	output, perf := svc.GetProgramStatus(true, true)

	require.Len(t, output, 2)
	assert.Contains(t, output[0], `"turns": 3`)
	assert.Equal(t, uint16(3), perf.BufferLengths.Turns)
	assert.Equal(t, uint16(12), perf.WriteQueueLengths.Effects)
	assert.Zero(t, perf.LastWriteDurationMs)
}

func TestGetProgramStatus_NoProviders(t *testing.T) {
	svc := NewService(Dependencies{LogManager: logging.NewSlogManager()})

	output, perf := svc.GetProgramStatus(false, false)

	assert.Empty(t, output)
	assert.Equal(t, model.BufferLengths{}, perf.BufferLengths)
}

func TestStartStop(t *testing.T) {
	svc := NewService(Dependencies{
		LogManager:      logging.NewSlogManager(),
		Sessions:        cache.NewSessionCache(),
		StatusDir:       t.TempDir(),
		IsDatabaseValid: func() bool { return false },
	})

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	// Second start is a no-op
	require.NoError(t, svc.Start())

	svc.Stop()
	assert.Eventually(t, func() bool { return !svc.IsRunning() },
		3*time.Second, 50*time.Millisecond)
}
