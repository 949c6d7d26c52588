package nav

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFallbackZeroSeedUsesClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock := clock.NewMock()
	mock.Set(now)

	cfg := testConfig().Fallback
	cfg.Seed = 0
	fromClock := NewFallbackPolicy(cfg, &fakeRelay{}, nil, mock, zap.NewNop())

	cfg.Seed = now.UnixNano()
	seeded := NewFallbackPolicy(cfg, &fakeRelay{}, nil, clock.New(), zap.NewNop())

	for stuck := 1; stuck <= 6; stuck++ {
		assert.Equal(t, seeded.avoidanceTurn(stuck), fromClock.avoidanceTurn(stuck), "stuck %d", stuck)
	}
}
