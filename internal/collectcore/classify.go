package collectcore

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// AssetKind tags what a discovered contract behaves as.
type AssetKind int

const (
	Native AssetKind = iota
	FungibleToken
	NonFungibleToken
)

func (k AssetKind) String() string {
	switch k {
	case Native:
		return "native"
	case FungibleToken:
		return "token"
	case NonFungibleToken:
		return "nft"
	}
	return "unknown"
}

// NativeAddress is the sentinel used for the chain's native unit.
const NativeAddress = "NATIVE"

// Holding is one account's position in one asset, as seen at discovery time.
// For non-fungible collections Balance is the owned-token count.
type Holding struct {
	Address  string
	Kind     AssetKind
	Symbol   string
	Name     string
	Decimals int
	Balance  *big.Int
}

// Classifier probes candidate contracts to determine asset kind and balance.
// A failed probe rejects the kind; it is never read as an assumed zero.
type Classifier struct {
	client       ChainClient
	nativeSymbol string
	log          zerolog.Logger
}

func NewClassifier(client ChainClient, nativeSymbol string, log zerolog.Logger) *Classifier {
	if nativeSymbol == "" {
		nativeSymbol = "ETH"
	}
	return &Classifier{client: client, nativeSymbol: nativeSymbol, log: log}
}

// Probe decides whether the contract is a fungible token or an NFT collection
// the owner currently holds. The bool is false when the candidate is neither,
// holds nothing, or does not answer the probes.
func (c *Classifier) Probe(ctx context.Context, contract, owner common.Address) (*Holding, bool) {
	bal, err := c.view(ctx, contract, balanceOfCalldata(owner))
	if err != nil {
		// Not an asset interface we recognize; expected for many emitters.
		c.log.Debug().
			Str("contract", contract.Hex()).
			Str("reason", classifyCallError(err)).
			Msg("balance probe rejected candidate")
		return nil, false
	}
	balance := decodeUint(bal)
	if balance.Sign() <= 0 {
		return nil, false
	}

	if dec, err := c.view(ctx, contract, selDecimals); err == nil && len(dec) > 0 {
		h := &Holding{
			Address:  contract.Hex(),
			Kind:     FungibleToken,
			Decimals: int(dec[len(dec)-1]),
			Balance:  balance,
		}
		h.Symbol = c.metadata(ctx, contract, selSymbol, "UNKNOWN")
		h.Name = c.metadata(ctx, contract, selName, "Unknown Token")
		return h, true
	}

	// No decimals(): treat the positive balanceOf as an owned-token count.
	h := &Holding{
		Address: contract.Hex(),
		Kind:    NonFungibleToken,
		Balance: balance,
	}
	h.Symbol = c.metadata(ctx, contract, selSymbol, "NFT")
	h.Name = c.metadata(ctx, contract, selName, "NFT Collection")
	return h, true
}

// NativeHolding checks the account's native balance once, ahead of scanning.
func (c *Classifier) NativeHolding(ctx context.Context, owner common.Address) (*Holding, error) {
	bal, err := c.client.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, err
	}
	if bal.Sign() <= 0 {
		return nil, nil
	}
	return &Holding{
		Address:  NativeAddress,
		Kind:     Native,
		Symbol:   c.nativeSymbol,
		Name:     c.nativeSymbol,
		Decimals: 18,
		Balance:  bal,
	}, nil
}

func (c *Classifier) view(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	return callWithRetry(ctx, c.client, ethereum.CallMsg{To: &contract, Data: data})
}

// metadata fetches symbol()/name() best-effort; failure yields the default.
func (c *Classifier) metadata(ctx context.Context, contract common.Address, sel []byte, def string) string {
	out, err := c.view(ctx, contract, sel)
	if err != nil {
		return def
	}
	if s := decodeString(out); s != "" {
		return s
	}
	return def
}
