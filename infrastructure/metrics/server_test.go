package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerExposesCollectors(t *testing.T) {
	server, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx)
	}()

	BlockRejected("ErrBadMerkleRoot")
	response, err := http.Get("http://" + server.Addr().String() + prometheusEndpoint)
	require.NoError(t, err)
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.True(t, strings.Contains(string(body), `sedlyd_ledger_blocks_rejected{reason="ErrBadMerkleRoot"}`))

	cancel()
	require.NoError(t, <-serveErr)
}
