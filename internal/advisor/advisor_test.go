package advisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondKeywordRouting(t *testing.T) {
	a := New(0, "English")
	ctx := context.Background()

	t.Run("Disease", func(t *testing.T) {
		reply, err := a.Respond(ctx, "My tomato plant looks sick")
		require.NoError(t, err)
		assert.True(t, reply.Rich)
		assert.Equal(t, "Leaf Blight Detected", reply.Problem)
		assert.Equal(t, WarningHigh, reply.WarningLevel)
		assert.Len(t, reply.Actions, 2)
		assert.Len(t, reply.Prevention, 2)
	})

	t.Run("Fertilizer", func(t *testing.T) {
		reply, err := a.Respond(ctx, "Which fertilizer should I use?")
		require.NoError(t, err)
		assert.False(t, reply.Rich)
		require.NotNil(t, reply.SmartAction)
		assert.Equal(t, "fertilizerAI", reply.SmartAction.Route)
	})

	t.Run("Market", func(t *testing.T) {
		reply, err := a.Respond(ctx, "What is the market price today?")
		require.NoError(t, err)
		require.NotNil(t, reply.SmartAction)
		assert.Equal(t, "/marketplace", reply.SmartAction.Route)
	})

	t.Run("Yield", func(t *testing.T) {
		reply, err := a.Respond(ctx, "Show me my yield analytics")
		require.NoError(t, err)
		require.NotNil(t, reply.SmartAction)
		assert.Equal(t, "/insights", reply.SmartAction.Route)
	})

	t.Run("Fallback", func(t *testing.T) {
		reply, err := a.Respond(ctx, "hello there")
		require.NoError(t, err)
		assert.False(t, reply.Rich)
		assert.Nil(t, reply.SmartAction)
		assert.Contains(t, reply.Text, `"hello there"`)
		assert.Contains(t, reply.Text, "English")
	})
}

func TestRespondHonorsContext(t *testing.T) {
	a := New(time.Minute, "English")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Respond(ctx, "disease")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestZeroDelayIsSynchronous(t *testing.T) {
	a := New(0, "")

	start := time.Now()
	_, err := a.Respond(context.Background(), "disease")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
