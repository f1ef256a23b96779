package panics

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRecoverToError(t *testing.T) {
	err := RecoverToError(func() error {
		panic("worker blew up")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "worker blew up")

	sentinel := errors.New("plain failure")
	require.Same(t, sentinel, RecoverToError(func() error { return sentinel }))
	require.NoError(t, RecoverToError(func() error { return nil }))
}
