package collectcore

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ownerAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenAddr = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func TestProbeFungibleToken(t *testing.T) {
	fc := newFakeChain(100)
	fc.call = erc20Responder(tokenAddr, big.NewInt(1_500_000), 6, "USDX", "USD Example")

	c := NewClassifier(fc, "ETH", zerolog.Nop())
	h, ok := c.Probe(context.Background(), tokenAddr, ownerAddr)
	require.True(t, ok)
	assert.Equal(t, FungibleToken, h.Kind)
	assert.Equal(t, tokenAddr.Hex(), h.Address)
	assert.Equal(t, 6, h.Decimals)
	assert.Equal(t, "USDX", h.Symbol)
	assert.Equal(t, "USD Example", h.Name)
	assert.Equal(t, "1500000", h.Balance.String())
}

func TestProbeMetadataDefaults(t *testing.T) {
	fc := newFakeChain(100)
	fc.call = func(msg ethereum.CallMsg) ([]byte, error) {
		switch {
		case hasSelector(msg.Data, selBalanceOf):
			return abiUint(big.NewInt(42)), nil
		case hasSelector(msg.Data, selDecimals):
			return abiUint(big.NewInt(18)), nil
		}
		return nil, errors.New("execution reverted")
	}

	c := NewClassifier(fc, "ETH", zerolog.Nop())
	h, ok := c.Probe(context.Background(), tokenAddr, ownerAddr)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN", h.Symbol)
	assert.Equal(t, "Unknown Token", h.Name)
}

func TestProbeRejectsUnresponsiveContract(t *testing.T) {
	fc := newFakeChain(100) // every call reverts by default
	c := NewClassifier(fc, "ETH", zerolog.Nop())
	_, ok := c.Probe(context.Background(), tokenAddr, ownerAddr)
	assert.False(t, ok)
}

func TestProbeDiscardsZeroBalance(t *testing.T) {
	fc := newFakeChain(100)
	fc.call = erc20Responder(tokenAddr, big.NewInt(0), 6, "USDX", "USD Example")

	c := NewClassifier(fc, "ETH", zerolog.Nop())
	_, ok := c.Probe(context.Background(), tokenAddr, ownerAddr)
	assert.False(t, ok)
}

func TestProbeNonFungibleCollection(t *testing.T) {
	fc := newFakeChain(100)
	fc.call = erc721Responder(tokenAddr, []*big.Int{big.NewInt(7), big.NewInt(9)})

	c := NewClassifier(fc, "ETH", zerolog.Nop())
	h, ok := c.Probe(context.Background(), tokenAddr, ownerAddr)
	require.True(t, ok)
	assert.Equal(t, NonFungibleToken, h.Kind)
	assert.Equal(t, int64(2), h.Balance.Int64(), "balance is the owned-token count")
	assert.Equal(t, "NFT", h.Symbol)
	assert.Equal(t, "NFT Collection", h.Name)
}

func TestNativeHolding(t *testing.T) {
	fc := newFakeChain(100)
	fc.balances[ownerAddr] = big.NewInt(1_000_000_000_000_000_000)

	c := NewClassifier(fc, "ETH", zerolog.Nop())
	h, err := c.NativeHolding(context.Background(), ownerAddr)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, Native, h.Kind)
	assert.Equal(t, NativeAddress, h.Address)
	assert.Equal(t, 18, h.Decimals)
	assert.Equal(t, "ETH", h.Symbol)
}

func TestNativeHoldingZeroIsAbsent(t *testing.T) {
	fc := newFakeChain(100)
	c := NewClassifier(fc, "ETH", zerolog.Nop())
	h, err := c.NativeHolding(context.Background(), ownerAddr)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestDecodeString(t *testing.T) {
	assert.Equal(t, "USDX", decodeString(abiString("USDX")))

	// bytes32-style return, as some older tokens emit.
	raw := make([]byte, 32)
	copy(raw, "MKR")
	assert.Equal(t, "MKR", decodeString(raw))

	assert.Equal(t, "", decodeString(nil))
}
