package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	walletcore "wallet_core"
	"wallet_core/internal/wallet"
	"wallet_core/models"
	"wallet_core/pkg/cache"
	"wallet_core/pkg/config"
	"wallet_core/pkg/handler"
	"wallet_core/pkg/notify"
	"wallet_core/pkg/oracle"
	"wallet_core/pkg/repository"
	"wallet_core/pkg/service"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	logrus.Info("starting wallet core")

	cfg, err := config.Load("configs")
	if err != nil {
		logrus.Fatalf("config: %s", err)
	}

	db, err := repository.NewPostgresDB(repository.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		logrus.Fatalf("database: %s", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := repository.Migrate(ctx, db); err != nil {
		logrus.Fatalf("migrate: %s", err)
	}
	repos := repository.NewRepository(db)

	confirmer, err := pinVerifier(cfg.Wallet)
	if err != nil {
		logrus.Fatalf("pin: %s", err)
	}
	keys, err := walletKeys(cfg.Wallet.PrivateKey)
	if err != nil {
		logrus.Fatalf("wallet keys: %s", err)
	}
	fees, err := service.ParseFeeSchedule(cfg.Wallet.Fees)
	if err != nil {
		logrus.Fatalf("fees: %s", err)
	}
	if len(fees) == 0 {
		fees = service.DefaultFees()
	}

	opts := []service.EngineOption{
		service.WithJournal(repos.Wallet),
		service.WithPendingTimeout(cfg.Wallet.PendingTimeout),
	}
	var notifier *notify.Notifier
	if sender := mailSender(cfg.Mail); sender != nil {
		notifier = notify.NewNotifier(sender, cfg.Mail.To)
		opts = append(opts, service.WithListener(notifier.OnTransaction))
	}

	account := service.NewAccount()
	engine := service.NewEngine(account.Ledger, account.Store, fees, confirmer, opts...)
	if err := engine.Recover(ctx); err != nil {
		logrus.Fatalf("recover: %s", err)
	}
	if err := seed(ctx, account, repos, cfg.Wallet.Seed); err != nil {
		logrus.Fatalf("seed: %s", err)
	}
	if cfg.Wallet.PendingTimeout > 0 && cfg.Wallet.ExpiryInterval > 0 {
		go engine.RunExpiry(ctx, cfg.Wallet.ExpiryInterval)
	}

	services := service.NewService(engine, service.NewWalletService(account.Ledger, priceOracle(cfg.CoinGecko), keys, fees))
	handlers := handler.NewHandler(services, handler.Config{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		SessionToken: cfg.HTTP.SessionToken,
	})

	srv := new(walletcore.Server)
	go func() {
		if err := srv.Run(cfg.Port, handlers.InitRoute()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http server: %s", err)
		}
	}()
	logrus.WithField("port", cfg.Port).Info("wallet core started")

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("http shutdown: %s", err)
	}
	if notifier != nil {
		notifier.Wait()
	}
}

func pinVerifier(cfg config.Wallet) (*service.PINVerifier, error) {
	hash := cfg.PINHash
	if hash == "" {
		logrus.Warn("WALLET_PIN_HASH not set, hashing WALLET_PIN at startup")
		var err error
		if hash, err = service.HashPIN(cfg.PIN); err != nil {
			return nil, err
		}
	}
	return service.NewPINVerifier(hash)
}

func walletKeys(privateKey string) (*wallet.Keys, error) {
	if privateKey != "" {
		return wallet.FromHex(privateKey)
	}
	keys, err := wallet.Generate()
	if err != nil {
		return nil, err
	}
	logrus.Warn("WALLET_PRIVATE_KEY not set, generated an ephemeral key; receive addresses change on restart")
	return keys, nil
}

func priceOracle(cfg config.CoinGecko) oracle.PriceOracle {
	if !cfg.Enabled {
		return oracle.DefaultPrices()
	}
	gecko := oracle.NewCoinGecko(oracle.CoinGeckoConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}, cache.NewRateCache(cfg.CacheTTL))
	return oracle.Fallback{gecko, oracle.DefaultPrices()}
}

func mailSender(cfg config.Mail) notify.Sender {
	switch cfg.Provider {
	case "mailjet":
		return notify.NewMailjetSender(cfg.Mailjet.APIKey, cfg.Mailjet.SecretKey, cfg.From, cfg.FromName)
	case "smtp":
		return notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.From)
	default:
		return nil
	}
}

// seed credits the configured opening balances on first start and persists
// them, since crediting bypasses the engine journal.
func seed(ctx context.Context, account *service.Account, repos *repository.Repository, raw map[string]string) error {
	amounts := make(map[models.Currency]int64, len(raw))
	for k, v := range raw {
		c := models.ParseCurrency(k)
		amount, err := models.ParseAmount(v, c)
		if err != nil {
			return err
		}
		amounts[c] = amount
	}
	seeded, err := account.Seed(amounts)
	if err != nil || !seeded {
		return err
	}
	return repos.SaveState(ctx, nil, account.Ledger.Snapshot())
}
