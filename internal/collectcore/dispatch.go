package collectcore

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// OutcomeState is the terminal state of one dispatched transfer.
type OutcomeState int

const (
	Confirmed OutcomeState = iota
	Failed
	TimedOut
)

func (s OutcomeState) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	}
	return "unknown"
}

// TransferOutcome records how one transfer ended. Append-only; discovery-time
// records are never touched by dispatch.
type TransferOutcome struct {
	Account     common.Address
	Asset       string
	Amount      *big.Int
	TokenID     *big.Int
	State       OutcomeState
	TxHash      common.Hash
	BlockNumber uint64
	Reason      string
}

const nativeTransferGas = 21000

// Dispatcher executes transfers for one account at a time. Nonces are read
// fresh immediately before each build and never cached across operations.
type Dispatcher struct {
	client         ChainClient
	chainID        *big.Int
	gasPrice       *big.Int
	gasLimit       uint64
	confirmTimeout time.Duration
	pollInterval   time.Duration
	opDelay        time.Duration
	log            zerolog.Logger
	sleep          func(time.Duration)
}

// DispatchConfig carries the gas/timing knobs for a Dispatcher.
type DispatchConfig struct {
	GasPriceWei    *big.Int
	GasLimit       uint64
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	OpDelay        time.Duration
}

func NewDispatcher(client ChainClient, chainID *big.Int, cfg DispatchConfig, log zerolog.Logger) *Dispatcher {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = 100_000
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 120 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &Dispatcher{
		client:         client,
		chainID:        chainID,
		gasPrice:       cfg.GasPriceWei,
		gasLimit:       cfg.GasLimit,
		confirmTimeout: cfg.ConfirmTimeout,
		pollInterval:   cfg.PollInterval,
		opDelay:        cfg.OpDelay,
		log:            log,
		sleep:          time.Sleep,
	}
}

// SendToken sweeps a fungible balance to dest. A restriction preflight may
// fail the transfer before any gas is spent; preflight probes themselves are
// best-effort and never block dispatch.
func (d *Dispatcher) SendToken(ctx context.Context, acct *Account, token common.Address, dest common.Address, amount *big.Int) TransferOutcome {
	out := TransferOutcome{Account: acct.Address, Asset: token.Hex(), Amount: new(big.Int).Set(amount)}
	if r := CheckRestrictions(ctx, d.client, token, acct.Address, dest); r.Blocked() {
		out.State = Failed
		out.Reason = "token restrictions: " + r.Summary()
		return out
	}
	d.submit(ctx, &out, acct, &token, big.NewInt(0), transferCalldata(dest, amount), d.gasLimit)
	return out
}

// SendNative sweeps the account's native balance minus the gas reserve.
// A non-positive spendable amount fails without submission.
func (d *Dispatcher) SendNative(ctx context.Context, acct *Account, dest common.Address, balance *big.Int) TransferOutcome {
	out := TransferOutcome{Account: acct.Address, Asset: NativeAddress}
	reserve := new(big.Int).Mul(d.gasPrice, big.NewInt(nativeTransferGas))
	spendable := new(big.Int).Sub(balance, reserve)
	if spendable.Sign() <= 0 {
		out.Amount = big.NewInt(0)
		out.State = Failed
		out.Reason = "balance does not cover gas"
		return out
	}
	out.Amount = spendable
	d.submit(ctx, &out, acct, &dest, spendable, nil, nativeTransferGas)
	return out
}

// SendCollection enumerates every owned token id on the collection, then
// transfers them one by one. A failed enumeration index is skipped; a failed
// transfer is recorded and the rest still run.
func (d *Dispatcher) SendCollection(ctx context.Context, acct *Account, collection common.Address, dest common.Address) []TransferOutcome {
	ids := d.ownedTokenIDs(ctx, acct.Address, collection)
	outcomes := make([]TransferOutcome, 0, len(ids))
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		out := TransferOutcome{Account: acct.Address, Asset: collection.Hex(), TokenID: id}
		data := transferFromCalldata(acct.Address, dest, id)
		d.submit(ctx, &out, acct, &collection, big.NewInt(0), data, d.gasLimit)
		outcomes = append(outcomes, out)
		if i < len(ids)-1 && d.opDelay > 0 {
			d.sleep(d.opDelay)
		}
	}
	return outcomes
}

// ownedTokenIDs walks balanceOf + tokenOfOwnerByIndex. A failing index is
// logged and omitted without aborting the rest.
func (d *Dispatcher) ownedTokenIDs(ctx context.Context, owner, collection common.Address) []*big.Int {
	cnt, err := callWithRetry(ctx, d.client, ethereum.CallMsg{To: &collection, Data: balanceOfCalldata(owner)})
	if err != nil {
		d.log.Warn().
			Err(err).
			Str("collection", collection.Hex()).
			Msg("owned count query failed")
		return nil
	}
	count := decodeUint(cnt).Int64()
	ids := make([]*big.Int, 0, count)
	for i := int64(0); i < count; i++ {
		data := tokenOfOwnerByIndexCalldata(owner, big.NewInt(i))
		res, err := callWithRetry(ctx, d.client, ethereum.CallMsg{To: &collection, Data: data})
		if err != nil {
			d.log.Warn().
				Err(err).
				Str("collection", collection.Hex()).
				Int64("index", i).
				Msg("token index query failed, skipping")
			continue
		}
		ids = append(ids, decodeUint(res))
	}
	return ids
}

// submit is the build/sign/send/confirm path shared by every transfer type.
// Submission is the point of no return: a sent transaction is never cancelled.
func (d *Dispatcher) submit(ctx context.Context, out *TransferOutcome, acct *Account, to *common.Address, value *big.Int, data []byte, gasLimit uint64) {
	nonce, err := d.client.PendingNonceAt(ctx, acct.Address)
	if err != nil {
		out.State = Failed
		out.Reason = "nonce: " + err.Error()
		return
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(d.gasPrice),
		Gas:      gasLimit,
		To:       to,
		Value:    new(big.Int).Set(value),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(d.chainID), acct.Key)
	if err != nil {
		out.State = Failed
		out.Reason = "sign: " + err.Error()
		return
	}
	if err := d.client.SendTransaction(ctx, signed); err != nil {
		out.State = Failed
		out.Reason = "submit: " + err.Error()
		return
	}
	out.TxHash = signed.Hash()
	d.log.Info().
		Str("account", acct.Address.Hex()).
		Str("tx", out.TxHash.Hex()).
		Uint64("nonce", nonce).
		Msg("transaction submitted")

	d.waitReceipt(ctx, out)
}

// waitReceipt polls for inclusion up to the confirmation timeout. A timeout
// is reported distinctly from failure: the transaction may still land later.
func (d *Dispatcher) waitReceipt(ctx context.Context, out *TransferOutcome) {
	attempts := int(d.confirmTimeout / d.pollInterval)
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			break
		}
		rcpt, err := d.client.TransactionReceipt(ctx, out.TxHash)
		if err == nil && rcpt != nil {
			out.BlockNumber = rcpt.BlockNumber.Uint64()
			if rcpt.Status == types.ReceiptStatusSuccessful {
				out.State = Confirmed
			} else {
				out.State = Failed
				out.Reason = "reverted in block"
			}
			return
		}
		d.sleep(d.pollInterval)
	}
	out.State = TimedOut
	out.Reason = "inclusion not observed within timeout"
}
