package cosmic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptFromContext(t *testing.T) {
	_, ok := AttemptFromContext(context.Background())
	assert.False(t, ok)

	n, ok := AttemptFromContext(withAttempt(context.Background(), 2))
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestRetryHandler_NumbersAttempts(t *testing.T) {
	var seen []int
	terminal := terminalFunc(func(ctx context.Context, _ *Request) (*Response, error) {
		n, _ := AttemptFromContext(ctx)
		seen = append(seen, n)
		return nil, statusError(503)
	})
	chain, err := NewChain(terminal, NewRetryHandler(discardLogger(), func(time.Duration) {}))
	require.NoError(t, err)

	_, err = chain.Handle(context.Background(), NewRequestBuilder().Build())
	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}
