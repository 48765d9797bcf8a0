package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	core "github.com/ligun0805/chain-collector/internal/collectcore"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	cfg := loadEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	if cfg.Recipient == "" || !common.IsHexAddress(cfg.Recipient) {
		die("RECIPIENT_ADDRESS is missing or invalid")
	}
	recipient := common.HexToAddress(cfg.Recipient)

	accounts, err := core.LoadAccounts(cfg.KeysFile)
	if err != nil {
		die(err.Error())
	}

	var preselected *common.Address
	if cfg.Token != "" {
		if !common.IsHexAddress(cfg.Token) {
			die("TOKEN_ADDRESS is not a valid address")
		}
		t := common.HexToAddress(cfg.Token)
		preselected = &t
	}

	printBanner(cfg, len(accounts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoints := append([]string{cfg.RPC}, cfg.FallbackRPCs...)
	params := core.Params{
		Endpoints:        endpoints,
		Accounts:         accounts,
		Destination:      recipient,
		PreselectedToken: preselected,
		NativeSymbol:     cfg.NativeSymbol,
		Scan: core.ScanConfig{
			LookbackBlocks: cfg.LookbackBlocks,
			WindowBlocks:   cfg.WindowBlocks,
			WindowDelay:    time.Duration(cfg.ScanDelaySec) * time.Second,
		},
		Dispatch: core.DispatchConfig{
			GasPriceWei:    core.GweiToWei(cfg.GasPriceGwei),
			GasLimit:       cfg.GasLimit,
			ConfirmTimeout: time.Duration(cfg.ConfirmTimeoutSec) * time.Second,
			OpDelay:        time.Duration(cfg.DelayMS) * time.Millisecond,
		},
		Selector: &promptSelector{in: bufio.NewReader(os.Stdin)},
		Log:      log,
	}

	summary, err := core.Run(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("run halted")
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	printSummary(summary)
	os.Exit(0)
}

func printBanner(cfg EnvConfig, wallets int) {
	fmt.Println("=== ASSET COLLECTOR ===")
	fmt.Println("RPC_URL        :", cfg.RPC)
	if len(cfg.FallbackRPCs) > 0 {
		fmt.Println("Fallbacks      :", len(cfg.FallbackRPCs), "configured")
	}
	fmt.Println("Recipient      :", cfg.Recipient)
	if cfg.Token != "" {
		fmt.Println("Token (fixed)  :", cfg.Token)
	}
	fmt.Println("Wallets        :", wallets)
	fmt.Println("Gas price gwei :", cfg.GasPriceGwei)
	fmt.Println("Gas limit      :", cfg.GasLimit)
	fmt.Println("Lookback blocks:", cfg.LookbackBlocks)
	fmt.Println("=======================")
}

func printSummary(s *core.Summary) {
	fmt.Println("\n=== SUMMARY ===")
	fmt.Println("Endpoint          :", s.Endpoint)
	fmt.Println("Wallets processed :", s.AccountsProcessed)
	fmt.Println("Assets discovered :", s.AssetsDiscovered)
	if s.SkippedWindows > 0 {
		fmt.Println("Windows skipped   :", s.SkippedWindows)
	}
	fmt.Println("Confirmed         :", s.Confirmed)
	fmt.Println("Failed            :", s.Failed)
	fmt.Println("Timed out         :", s.TimedOut)
	if s.CollectedAsset != "" {
		fmt.Println("Collected         :", s.CollectedTotal.String(), s.CollectedAsset)
	}
	if s.Cancelled {
		fmt.Println("Run was cancelled; statistics are partial")
	}
	fmt.Println("===============")
}
