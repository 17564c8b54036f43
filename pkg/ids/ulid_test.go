package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageIDLength(t *testing.T) {
	id, err := NewMessageID(time.Now())
	require.NoError(t, err)
	assert.Len(t, id, 26)
}

func TestNewMessageIDMonotonicAtSameTimestamp(t *testing.T) {
	now := time.Now()

	prev, err := NewMessageID(now)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		id, err := NewMessageID(now)
		require.NoError(t, err)
		assert.Greater(t, id, prev, "ids at the same timestamp must remain strictly increasing")
		prev = id
	}
}

func TestNewMessageIDOrderedAcrossTime(t *testing.T) {
	earlier, err := NewMessageID(time.Now().Add(-time.Second))
	require.NoError(t, err)
	later, err := NewMessageID(time.Now())
	require.NoError(t, err)
	assert.Less(t, earlier, later)
}
