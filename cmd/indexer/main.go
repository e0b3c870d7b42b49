package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LPQuant/internal/di"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/service/sui"
	"LPQuant/internal/services/indexer"
	"LPQuant/internal/usecase"
	"LPQuant/pkg/config"
	applogger "LPQuant/pkg/logger"
	"LPQuant/pkg/util"
)

const usage = `usage: indexer [-config path] [-v] <command> [flags]

commands:
  poll           start continuous polling
  query          fetch one page of swap events without storing it
  status         show indexer status
  export         export OHLCV bars to CSV
  rebuild-ohlcv  rebuild OHLCV bars from stored swap events
`

func main() {
	fs := flag.NewFlagSet("indexer", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	configPath := fs.String("config", "config/config.yaml", "config file path")
	verbose := fs.Bool("v", false, "debug logging")
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "poll":
		err = runPoll(ctx, cfg, args)
	case "query":
		err = runQuery(ctx, cfg, args, os.Stdout)
	case "status":
		err = runStatus(ctx, cfg, os.Stdout)
	case "export":
		err = runExport(ctx, cfg, args)
	case "rebuild-ohlcv":
		err = runRebuild(ctx, cfg, args, os.Stdout)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func runPoll(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("poll", flag.ExitOnError)
	pool := fs.String("pool", "", "pool id to index (default: all configured)")
	interval := fs.Duration("interval", cfg.Indexer.PollInterval, "poll interval")
	noBackfill := fs.Bool("no-backfill", false, "skip the initial backfill when a cursor exists")
	_ = fs.Parse(args)

	if *pool != "" {
		p, ok := cfg.Pool(*pool)
		if !ok {
			return fmt.Errorf("%w: %s", domrepo.ErrPoolNotFound, *pool)
		}
		cfg.Indexer.Pools = []config.PoolConfig{p}
	}
	cfg.Indexer.PollInterval = *interval
	cfg.Indexer.Backfill = !*noBackfill

	ix, cleanup, err := di.InitializeIndexer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	ix.Log.Info("indexer polling",
		applogger.Int("pools", len(cfg.Indexer.Pools)),
		applogger.Duration("interval", *interval),
		applogger.String("backend", cfg.Backend.Type),
	)
	return ix.Poller.Run(ctx)
}

func runQuery(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	limit := fs.Int("limit", 10, "number of events")
	_ = fs.Parse(args)

	page, err := sui.NewClient(cfg).FetchEvents(ctx, cfg.Indexer.EventType, "", *limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Fetched %d events (has_next: %t)\n\n", len(page.Nodes), page.HasNextPage)

	pools := indexer.PoolsFromConfig(cfg.Indexer.Pools)
	for _, node := range page.Nodes {
		s, err := indexer.ParseSwapEvent(node, pools)
		switch {
		case err != nil:
			fmt.Fprintf(w, "  [malformed] %s: %v\n", util.ShortID(node.TxDigest), err)
		case s == nil:
			fmt.Fprintf(w, "  [skipped] unknown pool\n")
		default:
			dir := "B→A"
			if s.AtoB {
				dir = "A→B"
			}
			fmt.Fprintf(w, "  %s | %s | $%.6f | %s | vol_a=%.4f vol_b=%.4f | tx=%s\n",
				time.UnixMilli(s.TimestampMs).UTC().Format("2006-01-02 15:04:05"),
				poolLabel(cfg, s.PoolID), s.Price, dir, s.VolumeA, s.VolumeB, util.ShortID(s.TxDigest))
		}
	}
	fmt.Fprintf(w, "\nCursor: %s\n", page.EndCursor)
	return nil
}

func runStatus(ctx context.Context, cfg *config.Config, w io.Writer) error {
	ix, cleanup, err := di.InitializeIndexer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := ix.Store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "=== Cetus Indexer Status ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total swap events: %d\n", st.TotalEvents)
	if st.EarliestMs > 0 {
		fmt.Fprintf(w, "Time range: %s → %s\n",
			time.UnixMilli(st.EarliestMs).UTC().Format("2006-01-02 15:04"),
			time.UnixMilli(st.LatestMs).UTC().Format("2006-01-02 15:04"))
	}
	if len(st.Pools) > 0 {
		fmt.Fprintln(w, "\nEvents by pool:")
		for id, n := range st.Pools {
			fmt.Fprintf(w, "  %s: %d\n", poolLabel(cfg, id), n)
		}
	}
	cursor := st.Cursor
	if cursor == "" {
		cursor = "(none)"
	}
	fmt.Fprintf(w, "\nCursor: %s\n", cursor)
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	pool := fs.String("pool", "", "pool id (required)")
	interval := fs.String("interval", string(domrepo.DefaultInterval()), "OHLCV interval")
	output := fs.String("o", "-", "output file, - for stdout")
	_ = fs.Parse(args)
	if *pool == "" {
		return errors.New("-pool is required")
	}

	ix, cleanup, err := di.InitializeIndexer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out := io.Writer(os.Stdout)
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	n, err := usecase.ExportBarsCSV(ctx, ix.Store, *pool, domrepo.Interval(*interval), out)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "No OHLCV data found. Run 'poll' first to index events.")
		return nil
	}
	fmt.Fprintf(os.Stderr, "Exported %d bars\n", n)
	return nil
}

func runRebuild(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("rebuild-ohlcv", flag.ExitOnError)
	pool := fs.String("pool", "", "pool id (default: all configured)")
	interval := fs.String("interval", string(domrepo.DefaultInterval()), "OHLCV interval")
	_ = fs.Parse(args)

	ids := make([]string, 0, len(cfg.Indexer.Pools))
	if *pool != "" {
		ids = append(ids, *pool)
	} else {
		for _, p := range cfg.Indexer.Pools {
			ids = append(ids, p.PoolID)
		}
	}

	ix, cleanup, err := di.InitializeIndexer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, id := range ids {
		n, err := ix.Builder.Rebuild(ctx, id, domrepo.Interval(*interval))
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", poolLabel(cfg, id), err)
		}
		if n == 0 {
			fmt.Fprintf(w, "%s: no events\n", poolLabel(cfg, id))
			continue
		}
		fmt.Fprintf(w, "%s: rebuilt %d bars (%s)\n", poolLabel(cfg, id), n, *interval)
	}
	return nil
}

func poolLabel(cfg *config.Config, id string) string {
	if p, ok := cfg.Pool(id); ok && p.Symbol != "" {
		return p.Symbol
	}
	return util.ShortID(id)
}
