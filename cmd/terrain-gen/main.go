package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/xlab/closer"

	"heightfield/internal/config"
	"heightfield/internal/render"
	"heightfield/internal/store"
	"heightfield/internal/terrain"
	"heightfield/internal/transport/ws"
)

// receiveTimeout bounds each wait for a snapshot before the consumer rechecks
// whether generation finished.
const receiveTimeout = 100 * time.Millisecond

type flags struct {
	config  string
	seed    int64
	seedSet bool
	noise   string
	workers int
	out     string
	db      string
	listen  string
	list    int
	verbose bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "", "settings file (.toml, .yaml)")
	flag.Int64Var(&f.seed, "seed", 0, "noise seed (random when unset)")
	flag.StringVar(&f.noise, "noise", "", "noise backend override")
	flag.IntVar(&f.workers, "workers", 0, "worker pool size override")
	flag.StringVar(&f.out, "out", "out", "output directory")
	flag.StringVar(&f.db, "db", "", "run index database (default <out>/runs.db, \"-\" disables)")
	flag.StringVar(&f.listen, "listen", "", "serve snapshots over websocket at this address, e.g. :8080")
	flag.IntVar(&f.list, "list", 0, "print the N most recent runs and exit")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.Parse()
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "seed" {
			f.seedSet = true
		}
	})
	if f.db == "" {
		f.db = filepath.Join(f.out, "runs.db")
	}
	return f
}

func main() {
	f := parseFlags()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
	})
	defer closer.Close()

	var err error
	if f.list > 0 {
		err = listRuns(ctx, f)
	} else {
		err = run(ctx, f, logger)
	}
	close(done)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		logger.Info("terrain-gen interrupted", "err", err)
	default:
		logger.Error("terrain-gen failed", "err", err)
		closer.Exit(1)
	}
}

func loadSettings(f flags) (config.Settings, error) {
	s := config.Default()
	if f.config != "" {
		var err error
		if s, err = config.Load(f.config); err != nil {
			return s, err
		}
	}
	if f.seedSet {
		s.Seed = &f.seed
	}
	if f.noise != "" {
		s.Noise = f.noise
	}
	if f.workers != 0 {
		config.SetWorkers(f.workers)
		s.Workers = config.GetWorkers()
	}
	return s, s.Validate()
}

func run(ctx context.Context, f flags, logger *slog.Logger) error {
	s, err := loadSettings(f)
	if err != nil {
		return err
	}

	opts := s.Options()
	opts.Log = logger
	b, err := terrain.NewBuilder(opts)
	if err != nil {
		return err
	}

	var hub *ws.Hub
	if f.listen != "" {
		hub = ws.NewHub(logger, 0)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub.Handler())
		srv := &http.Server{Addr: f.listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("snapshot server stopped", "err", err)
			}
		}()
		defer func() {
			hub.Close()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving snapshots", "addr", f.listen, "path", "/ws")
	}

	start := time.Now()
	sink := terrain.NewProgress(s.Capacity)
	h := b.Start(ctx, sink)
	seq := 0
	m, err := terrain.Drain(ctx, h, sink, receiveTimeout, func(snap *terrain.Matrix) {
		seq++
		if hub != nil {
			if err := hub.Broadcast(seq, snap); err != nil {
				logger.Warn("broadcast failed", "seq", seq, "err", err)
			}
		}
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("snapshots consumed", "count", seq, "elapsed", elapsed)

	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return err
	}
	base := filepath.Join(f.out, fmt.Sprintf("terrain-%d", b.Seed()))

	img := render.Colorize(m)
	render.Label(img, 4, 4, fmt.Sprintf("seed %d  %s  x%d", b.Seed(), s.Noise, s.Octaves))
	if err := render.WritePNG(base+".png", img); err != nil {
		return err
	}
	hdr, err := store.WriteHeightmap(base+".hm.zst", m, b.Seed())
	if err != nil {
		return fmt.Errorf("write heightmap: %w", err)
	}
	logger.Info("terrain written", "png", base+".png", "heightmap", base+".hm.zst", "digest", fmt.Sprintf("%016x", hdr.Digest))

	if f.db == "-" {
		return nil
	}
	idx, err := store.OpenIndex(f.db)
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	defer idx.Close()
	r := store.Run{
		Seed:    b.Seed(),
		Map:     opts.Map,
		Chunk:   opts.Chunk,
		Fractal: opts.Fractal,
		Noise:   s.Noise,
		Workers: s.Workers,
		Digest:  hdr.Digest,
		Path:    base + ".hm.zst",
		Elapsed: elapsed,
	}
	if err := idx.Record(ctx, &r); err != nil {
		return err
	}
	logger.Info("run recorded", "id", r.ID, "db", f.db)
	return nil
}

func listRuns(ctx context.Context, f flags) error {
	idx, err := store.OpenIndex(f.db)
	if err != nil {
		return err
	}
	defer idx.Close()
	runs, err := idx.List(ctx, f.list)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  seed=%d  map=%s chunk=%s  noise=%s octaves=%d  digest=%016x  %s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.ID, r.Seed, r.Map, r.Chunk,
			r.Noise, r.Fractal.Octaves, r.Digest, r.Path)
	}
	return nil
}
