package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"nftwrapped/config"
	"nftwrapped/crypto/merkle"
	"nftwrapped/deploy"
	"nftwrapped/storage"
)

var owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func newTestServer(t *testing.T, limit RateLimit) (*Server, *deploy.System) {
	t.Helper()
	params, err := config.Default().Params()
	require.NoError(t, err)
	sys, err := deploy.New(storage.NewMemDB(), params, deploy.Options{})
	require.NoError(t, err)
	t.Cleanup(sys.Close)
	srv, err := New(Config{Backend: sys, RateLimit: limit})
	require.NoError(t, err)
	return srv, sys
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	res := httptest.NewRecorder()
	srv.Handler().ServeHTTP(res, req)
	return res
}

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, RateLimit{})
	res := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "ok", res.Body.String())
}

func TestCollectionAndToken(t *testing.T) {
	srv, sys := newTestServer(t, RateLimit{})
	_, _, err := sys.Gift(deploy.Wrapped, owner, owner)
	require.NoError(t, err)

	res := get(t, srv, "/collections/wrapped")
	require.Equal(t, http.StatusOK, res.Code)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &summary))
	require.Equal(t, true, summary["presale"])
	require.Equal(t, float64(1), summary["minted"])

	res = get(t, srv, "/collections/wrapped/tokens/1")
	require.Equal(t, http.StatusOK, res.Code)
	var token deploy.Token
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &token))
	require.Equal(t, owner, token.Owner)
	require.True(t, strings.HasSuffix(token.URI, "/nft/json/1"))

	require.Equal(t, http.StatusNotFound, get(t, srv, "/collections/wrapped/tokens/2").Code)
	require.Equal(t, http.StatusNotFound, get(t, srv, "/collections/other").Code)
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/collections/wrapped/tokens/abc").Code)
}

func TestWhitelistProof(t *testing.T) {
	srv, sys := newTestServer(t, RateLimit{})

	res := get(t, srv, "/whitelist/proof/"+owner.Hex())
	require.Equal(t, http.StatusOK, res.Code)
	var resp ProofResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.True(t, resp.Whitelisted)
	require.Equal(t, sys.Whitelist().Root(), resp.Root)
	require.True(t, merkle.Verify(resp.Root, owner, resp.Proof))

	res = get(t, srv, "/whitelist/proof/0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.False(t, resp.Whitelisted)
	require.Empty(t, resp.Proof)

	require.Equal(t, http.StatusBadRequest, get(t, srv, "/whitelist/proof/nope").Code)
}

func TestContracts(t *testing.T) {
	srv, sys := newTestServer(t, RateLimit{})
	res := get(t, srv, "/contracts")
	require.Equal(t, http.StatusOK, res.Code)
	var addrs deploy.Addresses
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &addrs))
	require.Equal(t, sys.Addresses(), addrs)
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	srv, _ := newTestServer(t, RateLimit{RequestsPerMinute: 1, Burst: 1})
	require.Equal(t, http.StatusOK, get(t, srv, "/contracts").Code)
	require.Equal(t, http.StatusTooManyRequests, get(t, srv, "/contracts").Code)
	require.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestMetricsEndpointIncludesRequests(t *testing.T) {
	srv, _ := newTestServer(t, RateLimit{})
	get(t, srv, "/contracts")
	res := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "rpc_requests_total")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv, _ := newTestServer(t, RateLimit{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
