package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/config"
	"github.com/maksimkh34/KryptoBot/internal/adapter/settlement/tron"
	"github.com/maksimkh34/KryptoBot/internal/adapter/storage/jsonfile"
	"github.com/maksimkh34/KryptoBot/internal/core/domain"
	"github.com/maksimkh34/KryptoBot/internal/service"
	"github.com/maksimkh34/KryptoBot/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("KBOT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	debtFloor, err := cfg.Ledger.DebtFloorDecimal()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid debt floor")
	}

	tronClient, err := tron.NewClient(cfg.Tron, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize settlement client")
	}

	runtime := config.NewRuntime(cfg.Storage.RuntimeFile(), log)

	accountStore := jsonfile.New(cfg.Storage.AccountsFile(), []*domain.Account{}, log)
	walletStore := jsonfile.New(cfg.Storage.WalletsFile(), []domain.Wallet{}, log)

	ledger := service.NewLedgerService(accountStore, cfg.Ledger.AdminID, debtFloor, log)
	pool := service.NewWalletPoolService(walletStore, tronClient, log)
	dispatcher := service.NewDispatchService(pool, tronClient, runtime, log)
	payments := service.NewPaymentService(ledger, dispatcher, tronClient, log)

	log.Info().
		Str("network", cfg.Tron.Network).
		Int("wallets", len(pool.Wallets())).
		Msg("Starting KryptoBot core")

	ctx := context.Background()

	// Operator commands run one action and exit; without arguments the core
	// stays up for the dialog front-end.
	if len(os.Args) > 1 {
		if err := runCommand(ctx, os.Args[1:], ledger, pool, payments); err != nil {
			log.Fatal().Err(err).Msg("Command failed")
		}
		return
	}

	log.Info().Str("max_payable_trx", pool.MaxPayableAmount(ctx).String()).Msg("Core services ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")
}

func runCommand(
	ctx context.Context,
	args []string,
	ledger *service.LedgerService,
	pool *service.WalletPoolService,
	payments *service.PaymentService,
) error {
	switch args[0] {
	case "balance":
		if len(args) != 2 {
			return fmt.Errorf("usage: balance <user-id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		bal := ledger.GetBalance(id)
		if domain.IsUnlimited(bal) {
			fmt.Println("unlimited")
		} else {
			fmt.Println(bal.StringFixed(domain.LedgerPlaces))
		}
		return nil

	case "block", "unblock":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <user-id>", args[0])
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		if args[0] == "block" {
			ledger.Block(id)
		} else {
			ledger.Unblock(id)
		}
		return nil

	case "wallet-add":
		if len(args) != 3 {
			return fmt.Errorf("usage: wallet-add <secret-key-hex> <address>")
		}
		return pool.AddWallet(ctx, args[1], args[2])

	case "wallet-remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: wallet-remove <address>")
		}
		return pool.RemoveWallet(args[1])

	case "wallet-block", "wallet-unblock":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <address>", args[0])
		}
		return pool.SetWalletBlocked(args[1], args[0] == "wallet-block")

	case "wallets":
		for _, w := range pool.Wallets() {
			state := ""
			if w.Blocked() {
				state = "\tblocked"
			}
			fmt.Printf("%s\tbalance %s TRX\tbandwidth %d%s\n",
				w.Address(), pool.LiveBalance(ctx, w), pool.LiveBandwidth(ctx, w), state)
		}
		return nil

	case "capacity":
		fmt.Printf("%s TRX\n", pool.MaxPayableAmount(ctx))
		return nil

	case "pay":
		if len(args) != 4 {
			return fmt.Errorf("usage: pay <user-id> <address> <amount>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}
		v, err := decimal.NewFromString(args[3])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[3])
		}
		outcome, err := payments.Pay(ctx, id, args[2], domain.AmountFromLedger(v))
		if err != nil {
			return err
		}
		fmt.Println(outcome)
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
