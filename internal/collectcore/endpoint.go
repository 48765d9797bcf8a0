package collectcore

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// DialFunc opens a client for one endpoint URL.
type DialFunc func(ctx context.Context, url string) (ChainClient, error)

// DialEndpoint is the production DialFunc.
func DialEndpoint(ctx context.Context, url string) (ChainClient, error) {
	return ethclient.DialContext(ctx, url)
}

// SelectEndpoint probes candidates in order with a block-height liveness
// check and returns the first that answers. Unreachability disqualifies a
// URL immediately; there are no per-URL retries.
func SelectEndpoint(ctx context.Context, urls []string, dial DialFunc, log zerolog.Logger) (ChainClient, string, error) {
	if dial == nil {
		dial = DialEndpoint
	}
	for _, url := range urls {
		client, err := dial(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", url).Msg("dial failed")
			continue
		}
		head, err := client.BlockNumber(ctx)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", url).Msg("liveness probe failed")
			continue
		}
		log.Info().Str("endpoint", url).Uint64("head", head).Msg("endpoint selected")
		return client, url, nil
	}
	return nil, "", ErrNoReachableEndpoint
}
