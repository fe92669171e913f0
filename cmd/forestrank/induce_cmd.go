package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/forestrank/config"
	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/ensemble"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/pkg/log"
	"github.com/YuminosukeSato/forestrank/store"
	"github.com/YuminosukeSato/forestrank/tree"
)

type induceCmdConfig struct {
	*rootCmdConfig
	metricsAddr string
	maxDepth    int
}

// induceFlags maps configuration keys to the flags that override them.
var induceFlags = map[string]string{
	"data.path":               "input",
	"data.targets":            "target",
	"ensemble.method":         "method",
	"ensemble.size":           "size",
	"ensemble.threads":        "threads",
	"ensemble.oob":            "oob",
	"ensemble.streaming":      "streaming",
	"ensemble.seed":           "seed",
	"ensemble.checkpoints":    "checkpoints",
	"ensemble.error_measures": "measures",
	"ranking.method":          "ranking",
	"output.format":           "format",
	"output.path":             "output",
	"output.chart":            "chart",
	"store.path":              "store",
}

func induceCmd(rc *rootCmdConfig) *cobra.Command {
	icc := &induceCmdConfig{rootCmdConfig: rc}
	cmd := &cobra.Command{
		Use:   "induce",
		Short: "Train an ensemble and rank its attributes",
		Long:  `Train an ensemble on a CSV file, report its out-of-bag error and write the requested feature ranking.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := icc.load(cmd, induceFlags)
			if err != nil {
				return err
			}
			return icc.run(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringP("input", "i", "", "path to the input CSV file with a header row")
	flags.StringSliceP("target", "t", nil, "target column(s)")
	flags.StringP("method", "m", "RandomForest", "Bagging, RandomForest, RandomSubspaces, BaggingPlusSubspaces, ExtraTrees or RandomForestNoBagging")
	flags.IntP("size", "n", 100, "number of bags")
	flags.Int("threads", 0, "bags trained at once (0: one per CPU)")
	flags.Bool("oob", false, "estimate the out-of-bag error")
	flags.Bool("streaming", false, "keep running predictions instead of the trained trees")
	flags.Int64("seed", 0, "master random seed")
	flags.IntSlice("checkpoints", nil, "forest sizes at which the partial forest is evaluated")
	flags.StringSlice("measures", nil, "error measures (default: Accuracy or RMSE)")
	flags.StringP("ranking", "r", "None", "None, Permutation, Genie3, Symbolic or Relief")
	flags.String("format", "text", "ranking output format: text or json")
	flags.StringP("output", "o", "", "ranking output file (default: stdout)")
	flags.String("chart", "", "write a bar chart of the ranking to this PNG/SVG/PDF file")
	flags.String("store", "", "BoltDB file receiving checkpoint evaluations")
	flags.StringVar(&icc.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while training, e.g. :9090")
	flags.IntVar(&icc.maxDepth, "max-depth", 0, "maximum tree depth (0: unlimited)")
	return cmd
}

func (icc *induceCmdConfig) run(cmd *cobra.Command, f *config.File) error {
	logger := log.GetLoggerWithName("cmd.induce")
	cfg, err := f.EnsembleConfig()
	if err != nil {
		return err
	}
	data, err := loadDataset(f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if icc.metricsAddr != "" {
		serveMetrics(ctx, icc.metricsAddr, logger)
	}

	var opts []ensemble.CoordinatorOption
	if f.Store.Path != "" {
		s, err := store.Open(f.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, ensemble.WithCheckpointSink(s))
	}

	var treeOpts []tree.Option
	if icc.maxDepth > 0 {
		treeOpts = append(treeOpts, tree.WithMaxDepth(icc.maxDepth))
	}
	c := ensemble.NewCoordinator(tree.NewInducer(treeOpts...), opts...)
	res, err := c.Induce(ctx, data, cfg)
	if err != nil {
		return errors.Wrap(err, "induce")
	}

	names := make([]string, 0, len(res.OOBErrors))
	for name := range res.OOBErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		logger.Info("Out-of-bag error", log.RunIDKey, res.RunID.String(), log.ErrorMeasureKey, name, log.ErrorValueKey, res.OOBErrors[name])
	}

	if res.Ranking == nil {
		return nil
	}
	return writeRanking(cmd, res.Ranking, f.Output)
}

func loadDataset(f *config.File) (*dataset.Dataset, error) {
	if f.Data.Path == "" {
		return nil, errors.NewValidationError("data.path", "no input file given", "")
	}
	opts, err := f.CSVOptions()
	if err != nil {
		return nil, err
	}
	return dataset.LoadCSV(f.Data.Path, opts)
}

// serveMetrics exposes the default Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string, logger log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("Metrics server shutdown failed", err)
		}
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", err, "addr", addr)
		}
	}()
}
