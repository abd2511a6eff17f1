package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/b2b-pricing/internal/app"
	"github.com/noah-isme/b2b-pricing/internal/config"
	dbgen "github.com/noah-isme/b2b-pricing/internal/db/gen"
	"github.com/noah-isme/b2b-pricing/internal/obs"
	"github.com/noah-isme/b2b-pricing/internal/seed"
)

//go:embed demo.yaml
var demoPack []byte

func main() {
	file := flag.String("file", "", "seed pack to apply; the bundled demo pack when empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", cfg.ObsLogLevel).With().Str("component", "seeder").Logger()

	var src io.Reader
	if *file == "" {
		src = bytes.NewReader(demoPack)
	} else {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal().Err(err).Str("file", *file).Msg("open pack")
		}
		defer f.Close()
		src = f
	}
	pack, err := seed.Parse(src)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse pack")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps, err := app.New(ctx, cfg, "b2b-pricing-seeder", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() { _ = deps.Close() }()

	tx, err := deps.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		logger.Fatal().Err(err).Msg("begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	res, err := seed.Apply(ctx, dbgen.New(tx), pack)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply pack")
	}
	if err := tx.Commit(ctx); err != nil {
		logger.Fatal().Err(err).Msg("commit pack")
	}
	if err := deps.Store.InvalidateRules(ctx, pack.MerchantID); err != nil {
		logger.Warn().Err(err).Msg("invalidate rule cache")
	}

	logger.Info().
		Str("merchant_id", pack.MerchantID).
		Int("products", res.Products).
		Int("variants", res.Variants).
		Int("rules", res.Rules).
		Strs("cart_ids", res.CartIDs).
		Msg("seed_applied")
}
