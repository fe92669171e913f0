// Package ensemble trains forests of independently induced trees over
// resampled views of one dataset, estimates their out-of-bag error and
// drives feature ranking.
package ensemble

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/model"
	"github.com/YuminosukeSato/forestrank/core/parallel"
	"github.com/YuminosukeSato/forestrank/metrics"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/pkg/log"
	"github.com/YuminosukeSato/forestrank/pkg/telemetry"
	"github.com/YuminosukeSato/forestrank/ranking"
	"github.com/YuminosukeSato/forestrank/ranking/relief"
	"github.com/YuminosukeSato/forestrank/store"
)

// CheckpointSink receives checkpoint evaluations. *store.Store implements it.
type CheckpointSink interface {
	SaveCheckpoint(cp store.Checkpoint) error
}

// BagObserver is called from each bag task with the bag's selections.
// Bags are numbered from 1. Calls are concurrent.
type BagObserver func(bag int, inBag *BagSelection, oob *OOBSelection)

// Coordinator runs inductions. It is safe to run several inductions with one
// Coordinator; each gets its own RunContext.
type Coordinator struct {
	inducer  model.Inducer
	metrics  *telemetry.Metrics
	sink     CheckpointSink
	logger   log.Logger
	observer BagObserver
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMetrics sets the Prometheus metrics; the default is telemetry.Default().
func WithMetrics(m *telemetry.Metrics) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithCheckpointSink persists checkpoint evaluations.
func WithCheckpointSink(s CheckpointSink) CoordinatorOption {
	return func(c *Coordinator) {
		c.sink = s
	}
}

// WithLogger sets the base logger of every run.
func WithLogger(l log.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithBagObserver registers a callback that sees every bag's selections.
func WithBagObserver(fn BagObserver) CoordinatorOption {
	return func(c *Coordinator) {
		c.observer = fn
	}
}

// NewCoordinator returns a coordinator that trains its trees with inducer.
func NewCoordinator(inducer model.Inducer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{inducer: inducer}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = telemetry.Default()
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	return c
}

// Result is the outcome of one induction.
type Result struct {
	RunID uuid.UUID
	// Config is the configuration after automatic adjustments.
	Config  Config
	Forest  *Forest
	Ranking *ranking.Ranking
	// OOB and OOBErrors are set when OOB estimation is enabled.
	OOB       *OOBEstimator
	OOBErrors map[string]float64
}

// run is the mutable state of one induction.
type run struct {
	c      *Coordinator
	rc     *RunContext
	data   *dataset.Dataset
	logger log.Logger

	forest    *Forest
	oob       *OOBEstimator
	oobForest *Forest
	records   *ranking.Records

	outputs []bagOutput
	failed  atomic.Bool

	checkpoints []int
	collectErr  error
}

// Induce trains cfg.Size models on data and returns the forest together with
// the requested ranking.
//
// Bag seeds are drawn from cfg.Seed before any work is dispatched, so bag
// composition and the resulting forest do not depend on cfg.Threads. Models,
// their out-of-bag predictions and their ranking contributions enter the run
// in bag order, so a checkpoint at size k sees exactly bags 1..k. If a bag fails, bags that have not started
// are skipped, running bags are waited for and the first error is returned.
// ctx is only checked before dispatch; running bags are never cancelled.
func (c *Coordinator) Induce(ctx context.Context, data *dataset.Dataset, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if data == nil || data.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ensemble.Induce")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg, adjustments := adjust(cfg)

	rc, err := newRunContext(cfg, data.Schema, c.logger, c.metrics)
	if err != nil {
		return nil, err
	}
	r := &run{
		c:           c,
		rc:          rc,
		data:        data,
		logger:      rc.ComponentLogger("ensemble.coordinator"),
		outputs:     make([]bagOutput, cfg.Size),
		checkpoints: cfg.Checkpoints,
	}
	for _, w := range adjustments {
		errors.Warn(w)
		r.logger.Warn("Configuration adjusted",
			"setting", w.Setting,
			"from", w.From,
			"to", w.To,
			"reason", w.Reason,
		)
	}
	r.logger.Info("Induction started",
		log.OperationKey, log.OperationInduce,
		log.SamplesKey, data.Len(),
		log.FeaturesKey, len(data.Schema.Descriptive()),
		log.EnsembleSizeKey, cfg.Size,
		log.ThreadsKey, cfg.Threads,
		log.RankingMethodKey, cfg.Ranking.String(),
		log.RandomSeedKey, cfg.Seed,
	)
	start := time.Now()

	res := &Result{RunID: rc.ID, Config: cfg}
	if cfg.Ranking == RankingRelief {
		if res.Ranking, err = r.relief(); err != nil {
			return nil, err
		}
	}

	if cfg.Streaming {
		r.forest = NewStreamingForest(data, cfg.Voting)
	} else {
		r.forest = NewForest(cfg.Voting)
	}
	if cfg.OOBEstimate {
		r.oob = NewOOBEstimator(cfg.Voting)
		r.oobForest = NewOOBForest(r.oob)
	}
	switch cfg.Ranking {
	case RankingPermutation:
		r.records = ranking.NewRecords(data.Schema, len(rc.Measures))
	case RankingGenie3:
		r.records = ranking.NewRecords(data.Schema, 1)
	case RankingSymbolic:
		r.records = ranking.NewRecords(data.Schema, len(cfg.SymbolicWeights))
	case RankingNone, RankingRelief:
	}

	seeds := bagSeeds(cfg.Seed, cfg.Size)
	done := make(chan int, cfg.Size)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.collect(done)
	}()

	err = parallel.Bounded(cfg.Size, cfg.Threads, func(i int) error {
		if r.failed.Load() {
			return nil
		}
		err := errors.SafeExecuteBag(i+1, func() error {
			return r.trainBag(i, seeds[i])
		})
		if err != nil {
			r.failed.Store(true)
			rc.Metrics.BagFailures.Inc()
			r.logger.Error("Bag failed", err, log.BagKey, i+1)
			return err
		}
		done <- i
		return nil
	})
	close(done)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	if r.collectErr != nil {
		return nil, r.collectErr
	}

	res.Forest = r.forest
	if r.records != nil {
		res.Ranking = r.records.Ranking(r.description(), 1/float64(cfg.Size), cfg.SortRanking)
	}
	if r.oob != nil {
		res.OOB = r.oob
		if res.OOBErrors, err = r.evaluate(r.oobForest); err != nil {
			return nil, errors.Wrap(err, "out-of-bag error")
		}
		for name, v := range res.OOBErrors {
			r.logger.Info("Out-of-bag error",
				log.ErrorMeasureKey, name,
				log.ErrorValueKey, v,
				log.PhaseKey, log.PhaseEvaluation,
			)
		}
	}

	r.logger.Info("Induction finished",
		log.EnsembleSizeKey, r.forest.Size(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// adjust resolves combinations the run cannot honour as configured.
func adjust(cfg Config) (Config, []*errors.ConfigAdjustedWarning) {
	var warnings []*errors.ConfigAdjustedWarning
	if cfg.Ranking == RankingPermutation && !cfg.Method.Bootstrap() {
		warnings = append(warnings, errors.NewConfigAdjustedWarning("ranking", cfg.Ranking.String(), RankingNone.String(),
			cfg.Method.String()+" has no out-of-bag tuples for permutation ranking"))
		cfg.Ranking = RankingNone
	}
	if cfg.Ranking == RankingPermutation && !cfg.OOBEstimate {
		warnings = append(warnings, errors.NewConfigAdjustedWarning("oob_estimate", false, true,
			"permutation ranking needs out-of-bag estimation"))
		cfg.OOBEstimate = true
	}
	if cfg.OOBEstimate && !cfg.Method.Bootstrap() {
		warnings = append(warnings, errors.NewConfigAdjustedWarning("oob_estimate", true, false,
			cfg.Method.String()+" trains on every tuple"))
		cfg.OOBEstimate = false
	}
	return cfg, warnings
}

func (r *run) relief() (*ranking.Ranking, error) {
	cfg := r.rc.Config
	iterations := cfg.ReliefIterations
	if iterations == 0 {
		iterations = r.data.Len()
	}
	start := time.Now()
	rl := relief.New(cfg.ReliefNeighbours, iterations, relief.WithLogger(r.rc.ComponentLogger("ranking.relief")))
	rec, err := rl.Rank(r.data)
	if err != nil {
		return nil, err
	}
	r.rc.Metrics.RankingDuration.WithLabelValues(RankingRelief.String()).Observe(time.Since(start).Seconds())
	return rec.Ranking(rl.Description(), 1, cfg.SortRanking), nil
}

func (r *run) description() string {
	switch r.rc.Config.Ranking {
	case RankingPermutation:
		return ranking.PermutationDescription(r.rc.MeasureNames())
	case RankingGenie3:
		return ranking.Genie3Description()
	case RankingSymbolic:
		return ranking.SymbolicDescription(r.rc.Config.SymbolicWeights)
	default:
		return ""
	}
}

// trainBag is the task of bag i (0-based).
func (r *run) trainBag(i int, seed int64) error {
	start := time.Now()
	plan := planBag(r.rc.Config, r.data, i+1, seed)
	if r.c.observer != nil {
		r.c.observer(plan.bag, plan.inBag, plan.oob)
	}

	m, err := r.c.inducer.InduceSingleUnpruned(plan.view, plan.rng)
	if err != nil {
		return errors.Wrap(err, "induce")
	}
	out := bagOutput{model: m}
	if r.oob != nil && plan.oob.Count() > 0 {
		if out.oob, err = PredictOOB(plan.oob, r.data, m); err != nil {
			return errors.Wrap(err, "out-of-bag predictions")
		}
	}
	if r.records != nil {
		out.records = ranking.NewRecords(r.rc.Schema, r.records.Channels())
		if err := r.rank(out.records, plan, m); err != nil {
			return err
		}
	}
	r.outputs[i] = out

	elapsed := time.Since(start)
	r.rc.Metrics.BagsTrained.Inc()
	r.rc.Metrics.BagDuration.Observe(elapsed.Seconds())
	r.logger.Debug("Bag trained",
		log.BagKey, plan.bag,
		log.SamplesKey, plan.inBag.Size(),
		log.OOBTuplesKey, plan.oob.Count(),
		log.DurationMsKey, elapsed.Milliseconds(),
	)
	return nil
}

// rank writes the bag's contribution to the tree-based ranking into rec.
func (r *run) rank(rec *ranking.Records, plan bagPlan, m model.Model) error {
	tm, ok := m.(model.TreeModel)
	if !ok {
		return errors.NewModelError("ensemble.rank", "ranking", errors.New("model does not expose its tree structure"))
	}
	start := time.Now()
	cfg := r.rc.Config
	switch cfg.Ranking {
	case RankingGenie3:
		ranking.Genie3(rec, tm)
	case RankingSymbolic:
		ranking.Symbolic(rec, tm, cfg.SymbolicWeights)
	case RankingPermutation:
		oob := r.data.Select(plan.oob.Indices())
		if err := ranking.Permutation(rec, tm, r.rc.Schema, oob, r.rc.Measures, plan.rng); err != nil {
			return errors.Wrap(err, "permutation ranking")
		}
	default:
		return nil
	}
	r.rc.Metrics.RankingDuration.WithLabelValues(cfg.Ranking.String()).Observe(time.Since(start).Seconds())
	return nil
}

// bagOutput is what a bag task hands to the collector.
type bagOutput struct {
	model   model.Model
	oob     OOBPredictions
	records *ranking.Records
}

// collect folds finished bags into the forest, the OOB estimator and the
// ranking records in bag order and triggers checkpoints. It runs on its own
// goroutine until done is closed.
func (r *run) collect(done <-chan int) {
	ready := make([]bool, len(r.outputs))
	next := 0
	for i := range done {
		ready[i] = true
		for next < len(ready) && ready[next] {
			if r.collectErr == nil {
				if err := r.fold(r.outputs[next]); err != nil {
					r.collectErr = errors.Wrapf(err, "bag %d", next+1)
					r.failed.Store(true)
				}
			}
			r.outputs[next] = bagOutput{}
			next++
			r.rc.Metrics.ForestSize.Set(float64(next))
			if r.collectErr == nil && len(r.checkpoints) > 0 && r.checkpoints[0] == next {
				r.checkpoints = r.checkpoints[1:]
				r.checkpoint(next)
			}
		}
	}
}

func (r *run) fold(out bagOutput) error {
	if err := r.forest.AddModel(out.model); err != nil {
		return errors.Wrap(err, "add model")
	}
	if r.oob != nil && out.oob.Len() > 0 {
		if err := r.oob.Apply(out.oob); err != nil {
			return errors.Wrap(err, "out-of-bag update")
		}
		r.rc.Metrics.OOBUpdates.Add(float64(out.oob.Len()))
	}
	if r.records != nil {
		r.records.Merge(out.records)
	}
	return nil
}

// checkpoint evaluates the partial forest. Failures are logged and counted
// but never stop the run.
func (r *run) checkpoint(size int) {
	logger := r.rc.ComponentLogger("store.checkpoint")
	f := r.forest
	if r.oob != nil {
		f = r.oobForest
	}
	errs, err := r.evaluate(f)
	if err != nil {
		r.rc.Metrics.CheckpointFailures.Inc()
		logger.Warn("Checkpoint evaluation failed", err, log.CheckpointKey, size)
		return
	}

	cp := store.Checkpoint{
		RunID:      r.rc.ID.String(),
		Method:     r.rc.Config.Method.String(),
		ForestSize: size,
		OOB:        r.oob != nil,
		Errors:     errs,
	}
	if r.records != nil {
		for _, e := range r.records.Entries(1 / float64(size)) {
			cp.Ranking = append(cp.Ranking, store.AttributeScore{Attribute: e.Attribute, Scores: e.Scores})
		}
	}
	logger.Info("Checkpoint evaluated",
		log.OperationKey, log.OperationCheckpoint,
		log.CheckpointKey, size,
		"errors", errs,
	)

	if r.c.sink == nil {
		return
	}
	if err := r.c.sink.SaveCheckpoint(cp); err != nil {
		r.rc.Metrics.CheckpointFailures.Inc()
		logger.Warn("Checkpoint not saved", err, log.CheckpointKey, size)
		return
	}
	r.rc.Metrics.CheckpointsSaved.Inc()
}

// evaluate computes every run measure for f on the training tuples. An OOB
// forest is evaluated on the tuples that have an OOB prediction.
func (r *run) evaluate(f *Forest) (map[string]float64, error) {
	tuples := r.data.Tuples
	if f.Mode() == OOB {
		tuples = tuples[:0:0]
		for _, t := range r.data.Tuples {
			if r.oob.ContainsPrediction(t) {
				tuples = append(tuples, t)
			}
		}
		if len(tuples) == 0 {
			return nil, errors.ErrNoOOBTuples
		}
	}
	preds, err := f.PredictAll(tuples)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(r.rc.Measures))
	for _, m := range r.rc.Measures {
		v, err := metrics.Evaluate(m, r.rc.Schema, tuples, preds)
		if err != nil {
			return nil, err
		}
		out[m.Name] = v
	}
	return out, nil
}
