package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRerollCounter(t *testing.T) {
	c := NewRerollCounter(0)
	assert.Equal(t, DefaultRerolls, c.Left())
	assert.True(t, c.CanReroll())

	testCases := []struct {
		sync int
		want int
	}{
		{3, 3},
		{9, DefaultRerolls},
		{-2, 0},
		{0, 0},
	}
	for _, tc := range testCases {
		c.Sync(tc.sync)
		assert.Equal(t, tc.want, c.Left(), "sync %d", tc.sync)
	}
	assert.False(t, c.CanReroll())

	c.Reset()
	assert.Equal(t, c.Max(), c.Left())
}

func TestSuperVote(t *testing.T) {
	var sv SuperVote
	assert.True(t, sv.Available())

	// consuming without arming spends nothing
	assert.False(t, sv.Consume())
	assert.False(t, sv.Used())

	assert.NoError(t, sv.Arm())
	assert.True(t, sv.Armed())
	assert.True(t, sv.Consume())
	assert.True(t, sv.Used())
	assert.False(t, sv.Armed())

	assert.ErrorIs(t, sv.Arm(), ErrSuperVoteUsed)
	assert.False(t, sv.Armed())

	sv.ResetForGame()
	assert.False(t, sv.Used())

	assert.NoError(t, sv.Arm())
	sv.Restore(true)
	assert.True(t, sv.Used())
	assert.False(t, sv.Armed())
}
