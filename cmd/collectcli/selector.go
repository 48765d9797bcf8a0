package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	core "github.com/ligun0805/chain-collector/internal/collectcore"
)

// promptSelector asks the operator to pick one asset from the aggregated
// inventory. Empty input or "q" cancels the run.
type promptSelector struct {
	in *bufio.Reader
}

func (s *promptSelector) Select(records []*core.AssetRecord) (int, bool) {
	fmt.Println("\n=== DISCOVERED ASSETS ===")
	for i, rec := range records {
		addr := rec.Address
		if rec.Kind != core.Native {
			addr = maskAddr(addr)
		}
		fmt.Printf("%3d. [%-6s] %-10s %-24s %-14s total=%s\n",
			i+1, rec.Kind, rec.Symbol, rec.Name, addr, rec.DisplayTotal())
	}
	fmt.Println("=========================")

	for {
		fmt.Print("Asset to collect (number, empty to cancel): ")
		line, _ := s.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "q") {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(records) {
			fmt.Println("  [!] enter a number between 1 and", len(records))
			continue
		}
		return n - 1, true
	}
}
