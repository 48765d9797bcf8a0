package collectcore

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AssetSelector chooses one asset out of the aggregated inventory. Returning
// ok=false cancels the run before anything is dispatched.
type AssetSelector interface {
	Select(records []*AssetRecord) (int, bool)
}

// SelectorFunc adapts a plain function to AssetSelector.
type SelectorFunc func(records []*AssetRecord) (int, bool)

func (f SelectorFunc) Select(records []*AssetRecord) (int, bool) { return f(records) }

// Params configures one collection run.
type Params struct {
	Endpoints        []string
	Accounts         []*Account
	Destination      common.Address
	PreselectedToken *common.Address // skips scanning and selection when set
	NativeSymbol     string

	Scan     ScanConfig
	Dispatch DispatchConfig

	Selector AssetSelector
	Log      zerolog.Logger
	Dial     DialFunc            // test seam; nil means real dial
	Sleep    func(time.Duration) // test seam; nil means time.Sleep
}

// Summary is the append-only accounting of what a run did.
type Summary struct {
	Endpoint          string
	AccountsProcessed int
	AssetsDiscovered  int
	SkippedWindows    int

	Confirmed int
	Failed    int
	TimedOut  int

	CollectedAsset string
	CollectedTotal decimal.Decimal
	Outcomes       []TransferOutcome
	Cancelled      bool
}

// Run drives one sweep: select endpoint, discover per account, aggregate,
// select asset, dispatch per account, summarize. Precondition failures halt
// before any state-changing action; everything else is contained per
// window/candidate/account.
func Run(ctx context.Context, p Params) (*Summary, error) {
	if len(p.Accounts) == 0 {
		return nil, ErrNoCredentials
	}
	if p.Destination == (common.Address{}) {
		return nil, ErrNoDestination
	}
	if len(p.Endpoints) == 0 {
		return nil, ErrNoReachableEndpoint
	}

	client, url, err := SelectEndpoint(ctx, p.Endpoints, p.Dial, p.Log)
	if err != nil {
		return nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	summary := &Summary{Endpoint: url}

	classifier := NewClassifier(client, p.NativeSymbol, p.Log)
	scanner := NewScanner(client, p.Scan, p.Log)
	dispatcher := NewDispatcher(client, chainID, p.Dispatch, p.Log)
	if p.Sleep != nil {
		scanner.sleep = p.Sleep
		dispatcher.sleep = p.Sleep
	}

	inventory := NewInventory()
	for i, acct := range p.Accounts {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		alog := p.Log.With().Int("wallet", i+1).Str("account", acct.Address.Hex()).Logger()
		alog.Info().Msg("discovering assets")

		native, err := classifier.NativeHolding(ctx, acct.Address)
		if err != nil {
			alog.Warn().Err(err).Msg("native balance query failed")
		} else if native != nil {
			inventory.Add(acct.Address, native)
		}

		if p.PreselectedToken != nil {
			if h, ok := classifier.Probe(ctx, *p.PreselectedToken, acct.Address); ok {
				inventory.Add(acct.Address, h)
			}
		} else {
			scan, err := scanner.TransferContracts(ctx, acct.Address)
			if err != nil {
				if ctx.Err() != nil {
					summary.Cancelled = true
					summary.AccountsProcessed++
					break
				}
				alog.Warn().Err(err).Msg("scan failed, account skipped")
				summary.AccountsProcessed++
				continue
			}
			summary.SkippedWindows += scan.SkippedWindows
			for contract := range scan.Candidates {
				if h, ok := classifier.Probe(ctx, contract, acct.Address); ok {
					inventory.Add(acct.Address, h)
				}
			}
		}
		summary.AccountsProcessed++
	}

	if err := inventory.Check(); err != nil {
		return summary, fmt.Errorf("inventory invariant: %w", err)
	}
	records := inventory.Records()
	summary.AssetsDiscovered = len(records)
	if len(records) == 0 || summary.Cancelled {
		p.Log.Info().Msg("nothing to dispatch")
		return summary, nil
	}

	chosen := -1
	if p.PreselectedToken != nil {
		for i, rec := range records {
			if rec.Kind != Native && common.HexToAddress(rec.Address) == *p.PreselectedToken {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			p.Log.Info().Str("token", p.PreselectedToken.Hex()).Msg("preselected token not held by any account")
			return summary, nil
		}
	} else {
		if p.Selector == nil {
			return summary, fmt.Errorf("no asset selector configured")
		}
		idx, ok := p.Selector.Select(records)
		if !ok {
			summary.Cancelled = true
			p.Log.Info().Msg("selection cancelled")
			return summary, nil
		}
		if idx < 0 || idx >= len(records) {
			return summary, fmt.Errorf("selector returned invalid index %d", idx)
		}
		chosen = idx
	}

	asset := records[chosen]
	summary.CollectedAsset = asset.Symbol
	summary.CollectedTotal = decimal.Zero
	byAddr := make(map[common.Address]*Account, len(p.Accounts))
	for _, a := range p.Accounts {
		byAddr[a.Address] = a
	}

	for i, ab := range asset.PerAccount {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		acct := byAddr[ab.Account]
		if acct == nil {
			continue
		}
		var outs []TransferOutcome
		switch asset.Kind {
		case Native:
			outs = []TransferOutcome{dispatcher.SendNative(ctx, acct, p.Destination, ab.Balance)}
		case FungibleToken:
			token := common.HexToAddress(asset.Address)
			outs = []TransferOutcome{dispatcher.SendToken(ctx, acct, token, p.Destination, ab.Balance)}
		case NonFungibleToken:
			collection := common.HexToAddress(asset.Address)
			outs = dispatcher.SendCollection(ctx, acct, collection, p.Destination)
		}
		for _, out := range outs {
			summary.Outcomes = append(summary.Outcomes, out)
			switch out.State {
			case Confirmed:
				summary.Confirmed++
				summary.CollectedTotal = summary.CollectedTotal.Add(collectedValue(asset, out))
			case Failed:
				summary.Failed++
				p.Log.Warn().
					Str("account", out.Account.Hex()).
					Str("asset", out.Asset).
					Str("reason", out.Reason).
					Msg("transfer failed")
			case TimedOut:
				summary.TimedOut++
				p.Log.Warn().
					Str("account", out.Account.Hex()).
					Str("tx", out.TxHash.Hex()).
					Msg("confirmation timed out; transaction may still land")
			}
		}
		if i < len(asset.PerAccount)-1 && p.Dispatch.OpDelay > 0 {
			dispatcher.sleep(p.Dispatch.OpDelay)
		}
	}

	return summary, nil
}

// collectedValue converts a confirmed outcome into display units: scaled
// amount for fungibles and native, one unit per confirmed NFT transfer.
func collectedValue(asset *AssetRecord, out TransferOutcome) decimal.Decimal {
	if asset.Kind == NonFungibleToken {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromBigInt(out.Amount, -int32(asset.Decimals))
}
