package collectcore

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransientRPCError(t *testing.T) {
	assert.True(t, IsTransientRPCError(errors.New("429 Too Many Requests")))
	assert.True(t, IsTransientRPCError(errors.New("request failed with code -32005")))
	assert.True(t, IsTransientRPCError(errors.New("query limit exceeded")))
	assert.False(t, IsTransientRPCError(errors.New("execution reverted")))
	assert.False(t, IsTransientRPCError(errors.New("invalid argument")))
	assert.False(t, IsTransientRPCError(nil))
}

func TestClassifyCallError(t *testing.T) {
	assert.Contains(t, classifyCallError(errors.New("429 Too Many Requests")), "RATE_LIMIT")
	assert.Contains(t, classifyCallError(errors.New("execution reverted: Pausable: paused")), "Pausable: paused")
	assert.Contains(t, classifyCallError(errors.New("execution reverted")), "REVERT")
	assert.Contains(t, classifyCallError(errors.New("something odd")), "RPC")
	assert.Empty(t, classifyCallError(nil))
}

func TestCallWithRetryGivesUpOnPermanentError(t *testing.T) {
	fc := newFakeChain(100)
	calls := 0
	fc.call = func(msg ethereum.CallMsg) ([]byte, error) {
		calls++
		return nil, errors.New("execution reverted")
	}

	_, err := callWithRetry(context.Background(), fc, ethereum.CallMsg{To: &tokenAddr})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors retry nothing")
}

func TestCallWithRetryRecoversFromThrottle(t *testing.T) {
	fc := newFakeChain(100)
	calls := 0
	fc.call = func(msg ethereum.CallMsg) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("429 Too Many Requests")
		}
		return abiUint(big.NewInt(7)), nil
	}

	out, err := callWithRetry(context.Background(), fc, ethereum.CallMsg{To: &tokenAddr})
	require.NoError(t, err)
	assert.Len(t, out, 32)
	assert.Equal(t, 3, calls)
}
