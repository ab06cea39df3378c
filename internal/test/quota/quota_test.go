package quota_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"adforge-backend/internal/quota"
)

func TestCheck_UnderLimit(t *testing.T) {
	result, err := quota.Check("free", func() (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 9, result.Current)
	assert.Equal(t, 10, result.Limit)
	assert.False(t, result.Unlimited())
}

func TestCheck_AtLimit(t *testing.T) {
	result, err := quota.Check("free", func() (int, error) { return 10, nil })
	require.NoError(t, err)
	assert.False(t, result.Allowed, "the unit that would reach the limit is already denied")
}

func TestCheck_UnlimitedNeverInvokesCounter(t *testing.T) {
	calls := 0
	result, err := quota.Check("scale", func() (int, error) {
		calls++
		return 0, assert.AnError
	})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.True(t, result.Unlimited())
	assert.Equal(t, 0, calls)
}

func TestCheck_UnknownPlanFallsBackToFree(t *testing.T) {
	result, err := quota.Check("enterprise-trial", func() (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Equal(t, quota.PlanLimits["free"], result.Limit)
}

func TestCheck_CounterErrorPropagates(t *testing.T) {
	_, err := quota.Check("starter", func() (int, error) { return 0, assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}
