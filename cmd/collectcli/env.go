package main

import (
	"fmt"
	"os"
	"strings"
)

type EnvConfig struct {
	RPC               string
	FallbackRPCs      []string
	Recipient         string
	Token             string // optional pre-selected mode
	GasPriceGwei      int64
	GasLimit          uint64
	DelayMS           int64
	LookbackBlocks    uint64
	WindowBlocks      uint64
	ScanDelaySec      int64
	ConfirmTimeoutSec int64
	KeysFile          string
	NativeSymbol      string
	LogLevel          string
}

func loadEnv() EnvConfig {
	return EnvConfig{
		RPC:               getenv("RPC_URL", "https://mainnet.base.org"),
		FallbackRPCs:      splitCSV(getenv("FALLBACK_RPC_URLS", "")),
		Recipient:         getenv("RECIPIENT_ADDRESS", ""),
		Token:             getenv("TOKEN_ADDRESS", ""),
		GasPriceGwei:      atoi64(getenv("GAS_PRICE", "1"), 1),
		GasLimit:          uint64(atoi64(getenv("GAS_LIMIT", "100000"), 100000)),
		DelayMS:           atoi64(getenv("DELAY_MS", "2000"), 2000),
		LookbackBlocks:    uint64(atoi64(getenv("SCAN_LOOKBACK_BLOCKS", "500000"), 500000)),
		WindowBlocks:      uint64(atoi64(getenv("SCAN_WINDOW_BLOCKS", "5000"), 5000)),
		ScanDelaySec:      atoi64(getenv("SCAN_DELAY_SEC", "1"), 1),
		ConfirmTimeoutSec: atoi64(getenv("CONFIRM_TIMEOUT_SEC", "120"), 120),
		KeysFile:          getenv("KEYS_FILE", ".keys"),
		NativeSymbol:      getenv("NATIVE_SYMBOL", "ETH"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}
}

func getenv(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}

func atoi64(s string, d int64) int64 {
	var n int64
	if _, err := fmt.Sscan(strings.TrimSpace(s), &n); err != nil {
		return d
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func maskAddr(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}

func die(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
