package guard_test

import (
	"errors"
	"testing"

	"dispatch/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstructorGuard(t *testing.T) {
	g := guard.NewConstructorGuard()

	require.NoError(t, g.Validate(errors.New("not constructed")))
	require.NoError(t, g.Validate(nil))
}

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("zero value returns custom error", func(t *testing.T) {
		var g guard.ConstructorGuard
		expected := errors.New("entity not constructed")

		err := g.Validate(expected)

		require.Error(t, err)
		assert.Equal(t, expected, err)
	})

	t.Run("zero value returns default error when nil", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(nil)

		require.Error(t, err)
		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
	})
}

// TestConstructorGuardUsage demonstrates the intended embedding pattern.
func TestConstructorGuardUsage(t *testing.T) {
	type ping struct {
		orderID string
		guard   guard.ConstructorGuard
	}

	errPingNotConstructed := errors.New("ping must be created via newPing")

	newPing := func(orderID string) (ping, error) {
		if orderID == "" {
			return ping{}, errors.New("orderID is required")
		}
		return ping{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
	}

	t.Run("constructed instance validates", func(t *testing.T) {
		p, err := newPing("o-1")
		require.NoError(t, err)
		require.NoError(t, p.guard.Validate(errPingNotConstructed))
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var p ping
		err := p.guard.Validate(errPingNotConstructed)
		require.Error(t, err)
		assert.Equal(t, errPingNotConstructed, err)
	})
}
