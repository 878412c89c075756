// Package main is the kdbench CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/viant/sqlite-kdtree/bench"
	"github.com/viant/sqlite-kdtree/config"
	"github.com/viant/sqlite-kdtree/dataset"
	"github.com/viant/sqlite-kdtree/engine"
	"github.com/viant/sqlite-kdtree/index/backend"
	"github.com/viant/sqlite-kdtree/index/kd"
	"github.com/viant/sqlite-kdtree/internal/logging"
	"github.com/viant/sqlite-kdtree/kdtree"
	"github.com/viant/sqlite-kdtree/visual"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command := os.Args[1]; command {
	case "bench":
		err = runBench(ctx, os.Args[2:])
	case "generate":
		err = runGenerate(ctx, os.Args[2:])
	case "query":
		err = runQuery(ctx, os.Args[2:], os.Stdout)
	case "export":
		err = runExport(ctx, os.Args[2:], os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("kdbench version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "kdbench: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: kdbench <command> [flags]

Commands:
  bench     build and query the k-d tree against an oracle, report timings and mismatches
  generate  store a synthetic dataset in SQLite
  query     answer a nearest-neighbor query over a stored dataset
  export    write a MATLAB script drawing a 2-D tree
  version   print the version

Run 'kdbench <command> -h' for command flags.
`)
}

// settings are the flags shared by every command; they override the config file.
type settings struct {
	configPath string
	size       int
	queries    int
	dims       int
	modulus    int
	seed       uint64
	database   string
	datasetID  string
	table      string
	logLevel   string
}

func (s *settings) register(fs *flag.FlagSet) {
	fs.StringVar(&s.configPath, "config", "", "config file path")
	fs.IntVar(&s.size, "size", 0, "number of generated points")
	fs.IntVar(&s.queries, "queries", 0, "number of queries, the dataset points included")
	fs.IntVar(&s.dims, "dims", 0, "point dimension")
	fs.IntVar(&s.modulus, "modulus", 0, "coordinates are drawn from [0, modulus)")
	fs.Uint64Var(&s.seed, "seed", 0, "random seed")
	fs.StringVar(&s.database, "db", "", "SQLite database path")
	fs.StringVar(&s.datasetID, "dataset", "", "dataset id")
	fs.StringVar(&s.table, "table", "", "point table")
	fs.StringVar(&s.logLevel, "log-level", "", "log level")
}

// load reads the config file (or defaults) and applies flag overrides.
func (s *settings) load() (*config.Config, *zap.Logger, error) {
	cfg := config.Default()
	if s.configPath != "" {
		var err error
		if cfg, err = config.Load(s.configPath); err != nil {
			return nil, nil, err
		}
	}
	if s.size > 0 {
		cfg.Dataset.Size = s.size
		if s.queries == 0 && cfg.Dataset.Queries < s.size {
			cfg.Dataset.Queries = 2 * s.size
		}
	}
	if s.queries > 0 {
		cfg.Dataset.Queries = s.queries
	}
	if s.dims > 0 {
		cfg.Dataset.Dims = s.dims
	}
	if s.modulus > 0 {
		cfg.Dataset.Modulus = s.modulus
	}
	if s.seed > 0 {
		cfg.Dataset.Seed = s.seed
	}
	if s.database != "" {
		cfg.Storage.DatabasePath = s.database
	}
	if s.datasetID != "" {
		cfg.Storage.DatasetID = s.datasetID
	}
	if s.table != "" {
		cfg.Storage.Table = s.table
	}
	if s.logLevel != "" {
		cfg.Log.Level = s.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	var s settings
	s.register(fs)
	oracle := fs.String("oracle", "", "oracle index: gonum, brute or cover")
	tolerance := fs.Float64("tolerance", 0, "accepted distance difference")
	workers := fs.Int("workers", 0, "cross-check goroutines")
	_ = fs.Parse(args)

	cfg, logger, err := s.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *oracle != "" {
		cfg.Oracle.Kind = *oracle
	}
	if *tolerance > 0 {
		cfg.Oracle.Tolerance = *tolerance
	}
	if *workers > 0 {
		cfg.Verify.Workers = *workers
	}
	kind, err := backend.ParseKind(cfg.Oracle.Kind)
	if err != nil {
		return err
	}

	rng := dataset.NewRand(cfg.Dataset.Seed)
	points := dataset.Generate(rng, cfg.Dataset.Size, cfg.Dataset.Dims, cfg.Dataset.Modulus)
	queries := dataset.GenerateQueries(rng, points, cfg.Dataset.Queries-cfg.Dataset.Size, cfg.Dataset.Dims, cfg.Dataset.Modulus)
	logger.Info("dataset generated", zap.Int("size", len(points)), zap.Int("queries", len(queries)), zap.Int("dims", cfg.Dataset.Dims))

	report, err := bench.Run(ctx, dataset.IDs(len(points)), points, queries, bench.Options{
		Oracle:        kind,
		OracleOptions: backend.Options{CoverBase: cfg.Oracle.CoverBase},
		Tolerance:     cfg.Oracle.Tolerance,
		Workers:       cfg.Verify.Workers,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	logger.Info("benchmark finished", report.Fields()...)
	if n := report.Mismatches.GetCardinality(); n > 0 {
		return fmt.Errorf("%d of %d queries did not match the %s oracle", n, report.Queries, report.Oracle)
	}
	return nil
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var s settings
	s.register(fs)
	_ = fs.Parse(args)

	cfg, logger, err := s.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	store, closeDB, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	datasetID := cfg.Storage.DatasetID
	if datasetID == "" {
		datasetID = dataset.NewDatasetID()
	}
	rng := dataset.NewRand(cfg.Dataset.Seed)
	coords := dataset.Generate(rng, cfg.Dataset.Size, cfg.Dataset.Dims, cfg.Dataset.Modulus)
	if _, err := store.Add(ctx, datasetID, dataset.Points(dataset.IDs(len(coords)), coords)); err != nil {
		return err
	}
	logger.Info("dataset stored",
		zap.String("dataset", datasetID),
		zap.String("table", store.Table()),
		zap.Int("points", len(coords)))
	fmt.Println(datasetID)
	return nil
}

func runQuery(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	var s settings
	s.register(fs)
	point := fs.String("point", "", "query point as comma separated coordinates")
	_ = fs.Parse(args)

	cfg, logger, err := s.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	query, err := parsePoint(*point)
	if err != nil {
		return err
	}
	ix, err := loadIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ix.Release()
	id, dist, err := ix.Nearest(query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\t%g\n", id, dist)
	return err
}

func runExport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var s settings
	s.register(fs)
	output := fs.String("out", "", "script file (default stdout)")
	xRange := fs.String("x", "", "x range as min,max (default 0,modulus)")
	yRange := fs.String("y", "", "y range as min,max (default 0,modulus)")
	stored := fs.Bool("stored", false, "export the stored dataset instead of a generated one")
	_ = fs.Parse(args)

	cfg, logger, err := s.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	m := float64(cfg.Dataset.Modulus)
	region := visual.Region{X: visual.Range{0, m}, Y: visual.Range{0, m}}
	if region.X, err = parseRange(*xRange, region.X); err != nil {
		return err
	}
	if region.Y, err = parseRange(*yRange, region.Y); err != nil {
		return err
	}

	var tree *kdtree.Index
	if *stored {
		ix, err := loadIndex(ctx, cfg, logger)
		if err != nil {
			return err
		}
		tree = ix.Tree()
	} else {
		rng := dataset.NewRand(cfg.Dataset.Seed)
		store, err := kdtree.NewStore(dataset.Generate(rng, cfg.Dataset.Size, cfg.Dataset.Dims, cfg.Dataset.Modulus))
		if err != nil {
			return err
		}
		tree = kdtree.Build(store)
	}
	if tree == nil {
		return fmt.Errorf("dataset is empty")
	}

	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := visual.WriteScript(out, tree, region); err != nil {
		return err
	}
	logger.Info("script exported", zap.Int("nodes", tree.Len()), zap.Int("height", tree.Height()))
	return nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (*dataset.SQLiteStore, func(), error) {
	db, err := engine.OpenFile(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	store, err := dataset.NewSQLiteStore(db, dataset.WithTable(cfg.Storage.Table), dataset.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

// loadIndex builds a k-d index over the configured stored dataset.
func loadIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*kd.Index, error) {
	if cfg.Storage.DatasetID == "" {
		return nil, fmt.Errorf("a dataset id is required (-dataset)")
	}
	store, closeDB, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeDB()
	points, err := store.Load(ctx, cfg.Storage.DatasetID)
	if err != nil {
		return nil, err
	}
	ids, coords := dataset.Split(points)
	timer := bench.NewTimer(logger)
	ix := kd.New()
	if err := ix.Build(ids, coords); err != nil {
		return nil, err
	}
	timer.Stop("kd build")
	return ix, nil
}

func parsePoint(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("a query point is required (-point)")
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseRange(s string, def visual.Range) (visual.Range, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := parsePoint(s)
	if err != nil {
		return def, err
	}
	if len(v) != 2 {
		return def, fmt.Errorf("range %q must be min,max", s)
	}
	return visual.Range{v[0], v[1]}, nil
}
