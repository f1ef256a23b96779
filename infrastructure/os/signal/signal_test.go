package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShutdownRequestCancelsContext(t *testing.T) {
	ctx, cancel := InterruptContext(context.Background())
	defer cancel()

	ShutdownRequestChannel <- struct{}{}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("the interrupt context was not cancelled")
	}
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
