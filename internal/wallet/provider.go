package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Provider is an injected wallet transport speaking EIP-1193 methods over
// JSON-RPC. *rpc.Client satisfies it.
type Provider interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// DetectFunc locates a wallet provider.
type DetectFunc func(ctx context.Context) (Provider, error)

// EndpointDetector returns a DetectFunc that dials endpoint (HTTP, WS or IPC)
// and probes it before handing it out.
func EndpointDetector(endpoint string) DetectFunc {
	return func(ctx context.Context) (Provider, error) {
		client, err := Detect(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Detect dials a wallet endpoint. An empty endpoint or a failed probe is
// reported as ErrProviderMissing.
func Detect(ctx context.Context, endpoint string) (*rpc.Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: no wallet endpoint configured", ErrProviderMissing)
	}
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrProviderMissing, endpoint, err)
	}
	var version string
	if err := client.CallContext(ctx, &version, "web3_clientVersion"); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: probe %s: %v", ErrProviderMissing, endpoint, err)
	}
	return client, nil
}
