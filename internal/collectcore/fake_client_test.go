package collectcore

import (
	"bytes"
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChain is a scripted ChainClient. Unscripted contract calls revert,
// which conveniently reads as "probe rejected" to the classifier.
type fakeChain struct {
	head    uint64
	headErr error
	chainID *big.Int

	filter      func(q ethereum.FilterQuery) ([]types.Log, error)
	filterCalls int

	balances map[common.Address]*big.Int
	call     func(msg ethereum.CallMsg) ([]byte, error)

	nonces   map[common.Address]uint64
	sent     []*types.Transaction
	sendErr  func(tx *types.Transaction) error
	confirm  bool // write a success receipt on send
	receipts map[common.Hash]*types.Receipt
}

func newFakeChain(head uint64) *fakeChain {
	return &fakeChain{
		head:     head,
		chainID:  big.NewInt(8453),
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.filterCalls++
	if f.filter == nil {
		return nil, nil
	}
	return f.filter(q)
}

func (f *fakeChain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if b, ok := f.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.call == nil {
		return nil, errors.New("execution reverted")
	}
	return f.call(msg)
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonces[account], nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		if err := f.sendErr(tx); err != nil {
			return err
		}
	}
	sender, err := types.Sender(types.LatestSignerForChainID(f.chainID), tx)
	if err != nil {
		return err
	}
	f.sent = append(f.sent, tx)
	f.nonces[sender]++
	if f.confirm {
		f.receipts[tx.Hash()] = &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: new(big.Int).SetUint64(f.head),
			TxHash:      tx.Hash(),
		}
	}
	return nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

// --- ABI return encoding helpers ---

func abiUint(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func abiString(s string) []byte {
	out := common.LeftPadBytes(big.NewInt(32).Bytes(), 32)
	out = append(out, common.LeftPadBytes(big.NewInt(int64(len(s))).Bytes(), 32)...)
	padded := make([]byte, (len(s)+31)/32*32)
	copy(padded, s)
	return append(out, padded...)
}

func hasSelector(data, sel []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], sel)
}

// erc20Responder scripts the fungible-token view surface for one contract.
func erc20Responder(token common.Address, balance *big.Int, decimals byte, symbol, name string) func(msg ethereum.CallMsg) ([]byte, error) {
	return func(msg ethereum.CallMsg) ([]byte, error) {
		if msg.To == nil || *msg.To != token {
			return nil, errors.New("execution reverted")
		}
		switch {
		case hasSelector(msg.Data, selBalanceOf):
			return abiUint(balance), nil
		case hasSelector(msg.Data, selDecimals):
			return abiUint(big.NewInt(int64(decimals))), nil
		case hasSelector(msg.Data, selSymbol):
			return abiString(symbol), nil
		case hasSelector(msg.Data, selName):
			return abiString(name), nil
		}
		return nil, errors.New("execution reverted")
	}
}

// erc721Responder scripts an NFT collection owning the given ids.
func erc721Responder(collection common.Address, ids []*big.Int) func(msg ethereum.CallMsg) ([]byte, error) {
	return func(msg ethereum.CallMsg) ([]byte, error) {
		if msg.To == nil || *msg.To != collection {
			return nil, errors.New("execution reverted")
		}
		switch {
		case hasSelector(msg.Data, selBalanceOf):
			return abiUint(big.NewInt(int64(len(ids)))), nil
		case hasSelector(msg.Data, selTokenOfOwnerByIndex):
			idx := new(big.Int).SetBytes(msg.Data[len(msg.Data)-32:]).Int64()
			if idx < 0 || idx >= int64(len(ids)) {
				return nil, errors.New("execution reverted: index out of bounds")
			}
			return abiUint(ids[idx]), nil
		}
		return nil, errors.New("execution reverted")
	}
}
