package mailer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseOnCancelReleasesHookAfterLogin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closed atomic.Bool
	err := closeOnCancel(ctx, func() { closed.Store(true) }, func() error { return nil })
	require.NoError(t, err)

	// the connection outlives the run that opened it
	cancel()
	assert.Never(t, closed.Load, 50*time.Millisecond, 5*time.Millisecond)
}

func TestCloseOnCancelClosesDuringLogin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closed := make(chan struct{})
	err := closeOnCancel(ctx, func() { close(closed) }, func() error {
		cancel()
		<-closed
		return errors.New("use of closed connection")
	})
	assert.Error(t, err)
}
