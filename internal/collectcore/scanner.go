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

// ScanConfig bounds a discovery scan.
type ScanConfig struct {
	LookbackBlocks uint64
	WindowBlocks   uint64
	WindowDelay    time.Duration // rate-limit spacing between windows
	Retries        int           // attempts per window on transient errors
	RetryBackoff   time.Duration // backoff unit; attempt n waits n*unit
}

func (c ScanConfig) withDefaults() ScanConfig {
	if c.WindowBlocks == 0 {
		c.WindowBlocks = 5000
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	return c
}

// Window is one inclusive block range of a scan.
type Window struct {
	From uint64
	To   uint64
}

// planWindows partitions [head-lookback, head] into contiguous fixed-size
// windows, clamped at genesis. Windows never overlap and leave no gaps.
func planWindows(head, lookback, size uint64) []Window {
	if size == 0 || head == 0 {
		return nil
	}
	start := uint64(0)
	if lookback < head {
		start = head - lookback
	}
	var out []Window
	for from := start; from < head; from += size {
		to := from + size - 1
		if to > head {
			to = head
		}
		out = append(out, Window{From: from, To: to})
	}
	if len(out) == 0 {
		return nil
	}
	// The tail window absorbs the head block when the span divides evenly.
	out[len(out)-1].To = head
	return out
}

// Scanner reconstructs which contracts ever transferred to or from an account
// by replaying Transfer logs over a bounded block range.
type Scanner struct {
	client ChainClient
	cfg    ScanConfig
	log    zerolog.Logger
	sleep  func(time.Duration)
}

func NewScanner(client ChainClient, cfg ScanConfig, log zerolog.Logger) *Scanner {
	return &Scanner{client: client, cfg: cfg.withDefaults(), log: log, sleep: time.Sleep}
}

// ScanResult carries the candidate set plus how many windows were skipped
// after exhausting retries.
type ScanResult struct {
	Candidates     map[common.Address]struct{}
	SkippedWindows int
}

// TransferContracts enumerates every distinct contract that emitted a
// Transfer naming the account as sender or receiver within the lookback
// range. A skipped window reduces recall but never aborts the scan.
func (s *Scanner) TransferContracts(ctx context.Context, account common.Address) (*ScanResult, error) {
	head, err := s.client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	windows := planWindows(head, s.cfg.LookbackBlocks, s.cfg.WindowBlocks)
	res := &ScanResult{Candidates: make(map[common.Address]struct{})}

	for i, w := range windows {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logs, skipped := s.scanWindow(ctx, account, w)
		if skipped {
			res.SkippedWindows++
			s.log.Warn().
				Str("account", account.Hex()).
				Uint64("from", w.From).
				Uint64("to", w.To).
				Msg("window skipped after retries")
		}
		for _, l := range logs {
			res.Candidates[l.Address] = struct{}{}
		}
		if i < len(windows)-1 && s.cfg.WindowDelay > 0 {
			s.sleep(s.cfg.WindowDelay)
		}
	}
	return res, nil
}

// scanWindow fetches the sender-side and receiver-side Transfer logs for one
// window. Transient errors retry with linear backoff up to the configured
// bound; any other error treats the window as empty without retry.
func (s *Scanner) scanWindow(ctx context.Context, account common.Address, w Window) (logs []types.Log, skipped bool) {
	topic := accountTopic(account)
	queries := []ethereum.FilterQuery{
		{ // account as sender
			FromBlock: new(big.Int).SetUint64(w.From),
			ToBlock:   new(big.Int).SetUint64(w.To),
			Topics:    [][]common.Hash{{transferTopic}, {topic}},
		},
		{ // account as receiver
			FromBlock: new(big.Int).SetUint64(w.From),
			ToBlock:   new(big.Int).SetUint64(w.To),
			Topics:    [][]common.Hash{{transferTopic}, nil, {topic}},
		},
	}

	for attempt := 1; ; attempt++ {
		var got []types.Log
		var err error
		for _, q := range queries {
			var ls []types.Log
			ls, err = s.client.FilterLogs(ctx, q)
			if err != nil {
				break
			}
			got = append(got, ls...)
		}
		if err == nil {
			return got, false
		}
		if !IsTransientRPCError(err) {
			s.log.Warn().
				Err(err).
				Uint64("from", w.From).
				Uint64("to", w.To).
				Msg("window query failed")
			return nil, false
		}
		if attempt >= s.cfg.Retries {
			return nil, true
		}
		s.sleep(time.Duration(attempt) * s.cfg.RetryBackoff)
	}
}
