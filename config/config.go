// Package config loads forestrank run configuration from a file and the
// environment.
//
// 設定ファイル（YAML/TOML/JSON）と FORESTRANK_ で始まる環境変数を
// viper で読み込み、validator で検証してから ensemble.Config に変換します。
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/ensemble"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// FORESTRANK_ENSEMBLE_SIZE=200.
const EnvPrefix = "FORESTRANK"

// File is the on-disk configuration.
type File struct {
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Ensemble EnsembleConfig `mapstructure:"ensemble"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Output   OutputConfig   `mapstructure:"output"`
	Store    StoreConfig    `mapstructure:"store"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
}

// DataConfig maps CSV columns onto the schema.
type DataConfig struct {
	Path     string   `mapstructure:"path"`
	Targets  []string `mapstructure:"targets"  validate:"required,min=1,dive,required"`
	Nominal  []string `mapstructure:"nominal"`
	Strings  []string `mapstructure:"strings"`
	Disabled []string `mapstructure:"disabled"`
	// Series lists time-series columns as "column:measure", e.g. "ecg:DTW".
	Series       []string `mapstructure:"series"   validate:"dive,contains=:"`
	Hierarchical bool     `mapstructure:"hierarchical"`
	Missing      []string `mapstructure:"missing"`
}

type EnsembleConfig struct {
	Method        string   `mapstructure:"method"         validate:"required"`
	Size          int      `mapstructure:"size"           validate:"min=1"`
	Threads       int      `mapstructure:"threads"        validate:"min=0"`
	BagFraction   float64  `mapstructure:"bag_fraction"   validate:"gt=0,lte=1"`
	SubspaceSize  int      `mapstructure:"subspace_size"  validate:"min=0"`
	Voting        string   `mapstructure:"voting"         validate:"oneof=majority probability"`
	Streaming     bool     `mapstructure:"streaming"`
	OOB           bool     `mapstructure:"oob"`
	Checkpoints   []int    `mapstructure:"checkpoints"    validate:"dive,min=1"`
	ErrorMeasures []string `mapstructure:"error_measures"`
	Seed          int64    `mapstructure:"seed"`
}

type RankingConfig struct {
	Method          string    `mapstructure:"method"            validate:"required"`
	SymbolicWeights []float64 `mapstructure:"symbolic_weights"  validate:"dive,gt=0"`
	Neighbours      int       `mapstructure:"relief_neighbours" validate:"min=1"`
	Iterations      int       `mapstructure:"relief_iterations" validate:"min=0"`
	Sort            bool      `mapstructure:"sort"`
}

// OutputConfig selects where the ranking goes. An empty Path writes to stdout.
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text json"`
	Path   string `mapstructure:"path"`
	Chart  string `mapstructure:"chart"`
}

// StoreConfig enables checkpoint persistence when Path is set.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// defaults mirrors ensemble.DefaultConfig. Every key is registered so that
// environment overrides reach Unmarshal.
func defaults(v *viper.Viper) {
	d := ensemble.DefaultConfig()
	v.SetDefault("log.level", "info")

	v.SetDefault("data.path", "")
	v.SetDefault("data.targets", []string{})
	v.SetDefault("data.nominal", []string{})
	v.SetDefault("data.strings", []string{})
	v.SetDefault("data.disabled", []string{})
	v.SetDefault("data.series", []string{})
	v.SetDefault("data.hierarchical", false)
	v.SetDefault("data.missing", []string{})

	v.SetDefault("ensemble.method", d.Method.String())
	v.SetDefault("ensemble.size", d.Size)
	v.SetDefault("ensemble.threads", 0)
	v.SetDefault("ensemble.bag_fraction", d.BagFraction)
	v.SetDefault("ensemble.subspace_size", d.SubspaceSize)
	v.SetDefault("ensemble.voting", "majority")
	v.SetDefault("ensemble.streaming", d.Streaming)
	v.SetDefault("ensemble.oob", d.OOBEstimate)
	v.SetDefault("ensemble.checkpoints", []int{})
	v.SetDefault("ensemble.error_measures", []string{})
	v.SetDefault("ensemble.seed", d.Seed)

	v.SetDefault("ranking.method", d.Ranking.String())
	v.SetDefault("ranking.symbolic_weights", d.SymbolicWeights)
	v.SetDefault("ranking.relief_neighbours", d.ReliefNeighbours)
	v.SetDefault("ranking.relief_iterations", d.ReliefIterations)
	v.SetDefault("ranking.sort", d.SortRanking)

	v.SetDefault("output.format", "text")
	v.SetDefault("output.path", "")
	v.SetDefault("output.chart", "")

	v.SetDefault("store.path", "")
}

// New returns a viper instance with forestrank defaults and environment
// overrides. Callers may bind command-line flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if not empty) into v and returns the validated File.
// The file format follows the extension.
func Load(v *viper.Viper, path string) (*File, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks struct tags and cross-field rules.
func (f *File) Validate() error {
	validate := validator.New()
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Namespace(), "failed "+fe.Tag()+" check", fe.Value())
		}
		return errors.Wrap(err, "config validation failed")
	}
	if _, err := f.EnsembleConfig(); err != nil {
		return err
	}
	return nil
}

// EnsembleConfig converts the file into the read-only run configuration.
func (f *File) EnsembleConfig() (ensemble.Config, error) {
	cfg := ensemble.DefaultConfig()

	method, err := ensemble.ParseMethod(f.Ensemble.Method)
	if err != nil {
		return cfg, err
	}
	rank, err := ensemble.ParseRankingMethod(f.Ranking.Method)
	if err != nil {
		return cfg, err
	}
	voting, err := ensemble.ParseVoting(f.Ensemble.Voting)
	if err != nil {
		return cfg, err
	}

	cfg.Method = method
	cfg.Size = f.Ensemble.Size
	if f.Ensemble.Threads > 0 {
		cfg.Threads = f.Ensemble.Threads
	}
	cfg.BagFraction = f.Ensemble.BagFraction
	cfg.SubspaceSize = f.Ensemble.SubspaceSize
	cfg.Voting = voting
	cfg.Streaming = f.Ensemble.Streaming
	cfg.OOBEstimate = f.Ensemble.OOB
	cfg.Checkpoints = f.Ensemble.Checkpoints
	cfg.ErrorMeasures = f.Ensemble.ErrorMeasures
	cfg.Seed = f.Ensemble.Seed

	cfg.Ranking = rank
	if len(f.Ranking.SymbolicWeights) > 0 {
		cfg.SymbolicWeights = f.Ranking.SymbolicWeights
	}
	cfg.ReliefNeighbours = f.Ranking.Neighbours
	cfg.ReliefIterations = f.Ranking.Iterations
	cfg.SortRanking = f.Ranking.Sort

	return cfg, cfg.Validate()
}

// CSVOptions converts the data section into dataset load options.
func (f *File) CSVOptions() (dataset.CSVOptions, error) {
	opts := dataset.CSVOptions{
		Targets:       f.Data.Targets,
		Strings:       f.Data.Strings,
		Nominal:       f.Data.Nominal,
		Disabled:      f.Data.Disabled,
		Hierarchical:  f.Data.Hierarchical,
		MissingTokens: f.Data.Missing,
	}
	if len(f.Data.Series) > 0 {
		opts.Series = make(map[string]dataset.SeriesMeasure, len(f.Data.Series))
		for _, entry := range f.Data.Series {
			i := strings.LastIndex(entry, ":")
			if i <= 0 {
				return opts, errors.NewValidationError("data.series", "expected column:measure", entry)
			}
			m, err := parseSeriesMeasure(entry[i+1:])
			if err != nil {
				return opts, err
			}
			opts.Series[entry[:i]] = m
		}
	}
	return opts, nil
}

func parseSeriesMeasure(name string) (dataset.SeriesMeasure, error) {
	for _, m := range []dataset.SeriesMeasure{dataset.DTW, dataset.QDM, dataset.TSC} {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, errors.NewValidationError("data.series", "unknown time-series measure", name)
}
