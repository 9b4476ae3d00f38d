package main

import (
	"fmt"

	"github.com/newthinker/coinview/internal/coingecko"
	"github.com/newthinker/coinview/internal/coinview"
	"github.com/newthinker/coinview/internal/config"
	"github.com/newthinker/coinview/internal/logger"
	"github.com/newthinker/coinview/internal/market"
	"github.com/newthinker/coinview/internal/metrics"
	"github.com/newthinker/coinview/internal/storage/archive"
	"github.com/newthinker/coinview/internal/storage/coin"
	"go.uber.org/zap"
)

// loadConfig reads the config file, or the defaults when none is given.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setup loads the config and builds the logger from it.
func setup() (*config.Config, *zap.Logger, error) {
	bootstrap := logger.Must(logger.Options{Development: debug})
	cfg, err := loadConfig(bootstrap)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Development: debug, Level: level})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newArchive builds the payload archive; it is nil when archiving is off.
func newArchive(cfg config.ArchiveConfig) (*archive.Archive, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "localfs":
		fs, err := archive.NewLocalFS(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("creating local archive: %w", err)
		}
		return archive.New(fs), nil
	case "s3":
		s3, err := archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 archive: %w", err)
		}
		return archive.New(s3), nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

func newBuilder(cfg *config.Config) *coinview.Builder {
	return coinview.NewBuilder(coinview.NewFormatter(coinview.FormatOptions{
		Locale:         cfg.View.Locale,
		Currency:       cfg.View.Currency,
		CurrencySymbol: cfg.View.CurrencySymbol,
		Language:       cfg.View.Language,
	}))
}

// newService wires the CoinGecko client behind the market service. store and
// reg may be nil.
func newService(cfg *config.Config, log *zap.Logger, store *coin.MemoryStore, reg *metrics.Registry) (*market.Service, error) {
	client := coingecko.New(coingecko.Options{
		BaseURL: cfg.CoinGecko.BaseURL,
		APIKey:  cfg.CoinGecko.APIKey,
		Timeout: cfg.CoinGecko.Timeout,
		Lean:    cfg.CoinGecko.LeanRequest,
	}, log.Named("coingecko"))

	arc, err := newArchive(cfg.Storage.Archive)
	if err != nil {
		return nil, err
	}

	var opts []market.Option
	if store != nil {
		opts = append(opts, market.WithStore(store))
	}
	if arc != nil {
		opts = append(opts, market.WithArchive(arc))
	}
	if reg != nil {
		opts = append(opts, market.WithMetrics(reg))
	}
	return market.NewService(client, log.Named("market"), opts...), nil
}
