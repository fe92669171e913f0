package ensemble

import (
	"github.com/google/uuid"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/core/statistic"
	"github.com/YuminosukeSato/forestrank/metrics"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
	"github.com/YuminosukeSato/forestrank/pkg/log"
	"github.com/YuminosukeSato/forestrank/pkg/telemetry"
)

// RunContext is the state shared by the components of one induction run.
// It replaces process-wide settings: every run owns its own context.
type RunContext struct {
	ID       uuid.UUID
	Config   Config
	Schema   *dataset.Schema
	Task     statistic.Kind
	Measures []metrics.Measure
	Logger   log.Logger
	Metrics  *telemetry.Metrics
}

func newRunContext(cfg Config, schema *dataset.Schema, logger log.Logger, m *telemetry.Metrics) (*RunContext, error) {
	measures, err := resolveMeasures(cfg.ErrorMeasures, schema.Task())
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	return &RunContext{
		ID:       id,
		Config:   cfg,
		Schema:   schema,
		Task:     schema.Task(),
		Measures: measures,
		Logger: logger.With(
			log.RunIDKey, id.String(),
			log.EnsembleMethodKey, cfg.Method.String(),
		),
		Metrics: m,
	}, nil
}

// ComponentLogger returns the run logger tagged with a component name.
func (rc *RunContext) ComponentLogger(name string) log.Logger {
	return rc.Logger.With(log.ComponentKey, name)
}

// MeasureNames returns the names of the run's error measures.
func (rc *RunContext) MeasureNames() []string {
	names := make([]string, len(rc.Measures))
	for i, m := range rc.Measures {
		names[i] = m.Name
	}
	return names
}

func resolveMeasures(names []string, task statistic.Kind) ([]metrics.Measure, error) {
	if len(names) == 0 {
		return metrics.Defaults(task), nil
	}
	out := make([]metrics.Measure, 0, len(names))
	for _, name := range names {
		m, err := metrics.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !m.Supports(task) {
			return nil, errors.NewValidationError("error_measures", "measure does not apply to "+task.String()+" targets", name)
		}
		out = append(out, m)
	}
	return out, nil
}
