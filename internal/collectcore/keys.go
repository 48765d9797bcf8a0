package collectcore

import (
	"bufio"
	"crypto/ecdsa"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account pairs a signing key with its derived address. Accounts live only in
// memory for the duration of a run.
type Account struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// NewAccount parses a hex private key (with or without 0x).
func NewAccount(pkHex string) (*Account, error) {
	h := strings.TrimPrefix(strings.TrimSpace(pkHex), "0x")
	if h == "" {
		return nil, fmt.Errorf("empty private key")
	}
	prv, err := crypto.HexToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Account{Key: prv, Address: crypto.PubkeyToAddress(prv.PublicKey)}, nil
}

// ParseKeyLines reads one credential per line, skipping blanks and lines
// starting with "#" or "//".
func ParseKeyLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadAccounts reads a keys file and returns the accounts in file order.
// Malformed lines are dropped; an empty usable set is a fatal precondition.
func LoadAccounts(path string) ([]*Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrNoCredentials, path, err)
	}
	defer f.Close()

	lines, err := ParseKeyLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	accounts := make([]*Account, 0, len(lines))
	for _, line := range lines {
		acct, err := NewAccount(line)
		if err != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCredentials, path)
	}
	return accounts, nil
}
