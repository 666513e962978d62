//go:build !integration

package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type MockRelay struct {
	calls         int
	RelayOnceFunc func(call int) (int, error)
}

func (m *MockRelay) RelayOnce(ctx context.Context) (int, error) {
	m.calls++
	return m.RelayOnceFunc(m.calls)
}

func TestRelay_Drain(t *testing.T) {
	log := zerolog.Nop()

	t.Run("should keep relaying until the outbox is empty", func(t *testing.T) {
		m := &MockRelay{RelayOnceFunc: func(call int) (int, error) {
			if call < 3 {
				return 50, nil
			}
			return 0, nil
		}}
		NewRelay(m, 0, &log).drain(context.Background())
		if m.calls != 3 {
			t.Errorf("expected 3 calls, got %d", m.calls)
		}
	})

	t.Run("should stop at the first failed batch", func(t *testing.T) {
		m := &MockRelay{RelayOnceFunc: func(call int) (int, error) {
			return 1, errors.New("broker unavailable")
		}}
		NewRelay(m, 0, &log).drain(context.Background())
		if m.calls != 1 {
			t.Errorf("expected 1 call, got %d", m.calls)
		}
	})

	t.Run("should not run on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := &MockRelay{RelayOnceFunc: func(call int) (int, error) { return 1, nil }}
		NewRelay(m, 0, &log).drain(ctx)
		if m.calls != 0 {
			t.Errorf("expected no calls, got %d", m.calls)
		}
	})
}
