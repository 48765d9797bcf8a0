package collectcore

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// AccountBalance is one account's share of an asset at discovery time.
type AccountBalance struct {
	Account common.Address
	Balance *big.Int
}

// AssetRecord is the cross-account view of one asset. Symbol, name, kind and
// decimals are fixed by the first sighting; later sightings only accumulate.
// Dispatch never mutates these records.
type AssetRecord struct {
	Address    string
	Kind       AssetKind
	Symbol     string
	Name       string
	Decimals   int
	PerAccount []AccountBalance
	Total      *big.Int
}

// DisplayTotal renders the running total at the record's precision.
func (r *AssetRecord) DisplayTotal() decimal.Decimal {
	return decimal.NewFromBigInt(r.Total, -int32(r.Decimals))
}

// Inventory merges per-account holdings into one asset table.
type Inventory struct {
	records map[string]*AssetRecord
	order   []string
}

func NewInventory() *Inventory {
	return &Inventory{records: make(map[string]*AssetRecord)}
}

// Add folds one holding in. First sighting creates the record; subsequent
// ones append the account balance and grow the total.
func (inv *Inventory) Add(account common.Address, h *Holding) {
	rec, ok := inv.records[h.Address]
	if !ok {
		rec = &AssetRecord{
			Address:  h.Address,
			Kind:     h.Kind,
			Symbol:   h.Symbol,
			Name:     h.Name,
			Decimals: h.Decimals,
			Total:    big.NewInt(0),
		}
		inv.records[h.Address] = rec
		inv.order = append(inv.order, h.Address)
	}
	rec.PerAccount = append(rec.PerAccount, AccountBalance{
		Account: account,
		Balance: new(big.Int).Set(h.Balance),
	})
	rec.Total.Add(rec.Total, h.Balance)
}

func (inv *Inventory) Len() int { return len(inv.records) }

// Records returns the table grouped Native, then fungible, then non-fungible;
// within a group, first discovered comes first.
func (inv *Inventory) Records() []*AssetRecord {
	out := make([]*AssetRecord, 0, len(inv.order))
	for _, kind := range []AssetKind{Native, FungibleToken, NonFungibleToken} {
		for _, addr := range inv.order {
			if rec := inv.records[addr]; rec.Kind == kind {
				out = append(out, rec)
			}
		}
	}
	return out
}

// Check verifies that every record's total equals the sum of its per-account
// balances.
func (inv *Inventory) Check() error {
	for _, rec := range inv.records {
		sum := big.NewInt(0)
		for _, ab := range rec.PerAccount {
			sum.Add(sum, ab.Balance)
		}
		if sum.Cmp(rec.Total) != 0 {
			return fmt.Errorf("asset %s: total %s != per-account sum %s", rec.Address, rec.Total, sum)
		}
	}
	return nil
}
