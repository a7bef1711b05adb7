// Command pipeline runs the offline stages against the Sales Store:
//
//	pipeline load -csv data/AdventureWorks_Sales.csv
//	pipeline rfm [-out data/rfm_segments.csv]
//	pipeline train [-test-fraction 0.2] [-seed 42] [-metrics models/clv_metrics.json]
//	pipeline plots [-dir plots]
//	pipeline refresh
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"salesInsight/business/clv"
	"salesInsight/business/refresh"
	"salesInsight/business/report"
	"salesInsight/business/rfm"
	"salesInsight/business/stats"
	"salesInsight/internal/ingest"
	"salesInsight/internal/repository/artifactfs"
	psqlRepo "salesInsight/internal/repository/postgres"
	redisRepo "salesInsight/internal/repository/redis"
	"salesInsight/pkg/config"
	"salesInsight/pkg/database"
	pkgredis "salesInsight/pkg/database/redis"
	"salesInsight/pkg/logger"
	"syscall"
	"time"

	"gorm.io/gorm"
)

const usage = `usage: pipeline <command> [flags]

commands:
  load     replace the Sales Store with the rows of a CSV file
  rfm      compute, persist and export the RFM table
  train    train and publish a CLV model on the persisted RFM table
  plots    render the sales charts
  refresh  rfm followed by train`

type app struct {
	cfg          *config.Config
	salesRepo    *psqlRepo.SalesRepository
	rfmRepo      *psqlRepo.RFMRepository
	rfmService   *rfm.Service
	clvService   *clv.Service
	statsService *stats.Service
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	defer logger.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
	}
	defer database.Close(db)

	if err := psqlRepo.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	var statsCache stats.Cache
	if cfg.Redis.Enabled() {
		client, err := pkgredis.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, stats cache will not be invalidated", "error", err)
		} else {
			defer pkgredis.CloseRedisClient(client)
			statsCache = redisRepo.NewStatsCache(client, "")
		}
	}

	a := newApp(cfg, db, statsCache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	start := time.Now()

	switch cmd {
	case "load":
		err = a.load(ctx, args)
	case "rfm":
		err = a.rfm(ctx, args)
	case "train":
		err = a.train(ctx, args)
	case "plots":
		err = a.plots(ctx, args)
	case "refresh":
		err = a.refresh(ctx, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Pipeline command failed", "command", cmd, "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Pipeline command finished", "command", cmd, "elapsed", time.Since(start).String())
}

func newApp(cfg *config.Config, db *gorm.DB, statsCache stats.Cache) *app {
	salesRepo := psqlRepo.NewSalesRepository(db)
	rfmRepo := psqlRepo.NewRFMRepository(db)

	var store clv.ArtifactStore
	if cfg.Model.ArtifactStore == config.ArtifactStorePostgres {
		store = psqlRepo.NewArtifactRepository(db)
	} else {
		store = artifactfs.NewStore(cfg.Model.ArtifactDir)
	}

	return &app{
		cfg:          cfg,
		salesRepo:    salesRepo,
		rfmRepo:      rfmRepo,
		rfmService:   rfm.NewService(salesRepo, rfmRepo),
		clvService:   clv.NewService(store),
		statsService: stats.NewService(salesRepo, statsCache, cfg.Redis.StatsTTL),
	}
}

func (a *app) load(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	path := fs.String("csv", "", "path to the sales CSV export")
	fs.Parse(args)

	if *path == "" {
		return errors.New("load: -csv is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("open %s: %w", *path, err)
	}
	defer f.Close()

	txs, st, err := ingest.ReadCSV(f)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return fmt.Errorf("load %s: every row was dropped", *path)
	}

	if err := a.salesRepo.ReplaceAll(ctx, txs); err != nil {
		return err
	}
	if err := a.statsService.Invalidate(ctx); err != nil {
		logger.Warn("Stats cache invalidation failed", "error", err)
	}

	logger.Info("Sales Store loaded",
		"file", *path,
		"rows", st.Rows,
		"loaded", st.Loaded,
		"dropped", st.Dropped(),
		"missing_customer", st.MissingCustomer,
		"bad_order_date", st.BadOrderDate,
		"bad_sales_amount", st.BadSalesAmount,
	)
	return nil
}

func (a *app) rfm(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rfm", flag.ExitOnError)
	out := fs.String("out", a.cfg.Report.RFMCSV, "RFM CSV output path, empty to skip")
	fs.Parse(args)

	table, err := a.rfmService.Rebuild(ctx)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := report.WriteRFMCSV(*out, table); err != nil {
			return err
		}
		logger.Info("RFM table exported", "path", *out, "customers", table.Len())
	}

	counts := table.SegmentCounts()
	kv := make([]any, 0, 2*len(counts))
	for seg, n := range counts {
		kv = append(kv, string(seg), n)
	}
	logger.Info("RFM segments", kv...)
	return nil
}

func (a *app) train(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	fraction := fs.Float64("test-fraction", a.cfg.Model.TestFraction, "held-out share of customers")
	seed := fs.Int64("seed", a.cfg.Model.Seed, "split seed")
	metricsOut := fs.String("metrics", filepath.Join(a.cfg.Model.ArtifactDir, "clv_metrics.json"), "metrics JSON output path, empty to skip")
	fs.Parse(args)

	table, err := a.rfmRepo.LoadTable(ctx)
	if err != nil {
		return err
	}
	if table == nil {
		return errors.New("train: no persisted RFM table, run the rfm command first")
	}

	artifact, err := a.clvService.TrainAndPublish(ctx, table, clv.TrainOptions{TestFraction: *fraction, Seed: *seed})
	if err != nil {
		return err
	}

	if *metricsOut != "" {
		if err := report.ExportJSON(*metricsOut, artifact.Info()); err != nil {
			return err
		}
		logger.Info("CLV metrics exported", "path", *metricsOut)
	}
	return nil
}

func (a *app) plots(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plots", flag.ExitOnError)
	dir := fs.String("dir", a.cfg.Report.PlotsDir, "output directory")
	fs.Parse(args)

	txs, err := a.salesRepo.FindAllTransactions(ctx)
	if err != nil {
		return err
	}

	paths, err := report.WritePlots(*dir, txs)
	if err != nil {
		return err
	}
	logger.Info("Plots written", "dir", *dir, "files", paths)
	return nil
}

func (a *app) refresh(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	fs.Parse(args)

	job := refresh.NewJob(
		a.rfmService,
		a.clvService,
		clv.TrainOptions{TestFraction: a.cfg.Model.TestFraction, Seed: a.cfg.Model.Seed},
		a.cfg.Refresh.Timeout,
		a.statsService,
	)
	_, err := job.Run(ctx)
	return err
}
