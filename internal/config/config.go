package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/pov-engine/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// EngineConfig holds every tunable of the triangulation/consensus engine.
// All thresholds are named configuration, not hidden constants, so the
// scoring behavior of a run is fully reproducible from its config.
type EngineConfig struct {
	Triangulation TriangulationConfig `yaml:"triangulation" mapstructure:"triangulation"`
	Confidence    ConfidenceConfig    `yaml:"confidence" mapstructure:"confidence"`
	Gaps          GapConfig           `yaml:"gaps" mapstructure:"gaps"`
}

// TriangulationConfig configures grouping and corroboration classification.
// Corroboration is a pure function of source_count/total_sources: zero
// sources is none, exactly one is weakly, and multi-source elements escalate
// through the ratio thresholds below.
type TriangulationConfig struct {
	// FuzzyThreshold is the minimum token-set similarity for two normalized
	// names of the same entity type to be merged into one group. 1.0
	// requires exact normalized match.
	FuzzyThreshold  float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	ModeratelyRatio float64 `yaml:"moderately_ratio" mapstructure:"moderately_ratio"`
	StronglyRatio   float64 `yaml:"strongly_ratio" mapstructure:"strongly_ratio"`
	FullyRatio      float64 `yaml:"fully_ratio" mapstructure:"fully_ratio"`
}

// ConfidenceConfig configures the blend of coverage and agreement into a
// single confidence score, plus the tier and brightness boundaries.
// Boundaries are inclusive lower bounds and must be monotonic.
type ConfidenceConfig struct {
	TriangulationWeight float64 `yaml:"triangulation_weight" mapstructure:"triangulation_weight"`
	VoteWeight          float64 `yaml:"vote_weight" mapstructure:"vote_weight"`

	VeryHighFloor float64 `yaml:"very_high_floor" mapstructure:"very_high_floor"`
	HighFloor     float64 `yaml:"high_floor" mapstructure:"high_floor"`
	MediumFloor   float64 `yaml:"medium_floor" mapstructure:"medium_floor"`
	LowFloor      float64 `yaml:"low_floor" mapstructure:"low_floor"`

	BrightFloor float64 `yaml:"bright_floor" mapstructure:"bright_floor"`
	DimFloor    float64 `yaml:"dim_floor" mapstructure:"dim_floor"`
}

// GapConfig configures gap detection. CriticalCategories elevates the
// severity of missing-category gaps for the categories named here.
type GapConfig struct {
	CriticalCategories []string `yaml:"critical_categories" mapstructure:"critical_categories"`
}

// IsCritical reports whether a category is configured as critical.
func (g GapConfig) IsCritical(c model.EvidenceCategory) bool {
	for _, name := range g.CriticalCategories {
		if name == string(c) {
			return true
		}
	}
	return false
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int     `yaml:"port" mapstructure:"port"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// BatchConfig configures batch generation.
type BatchConfig struct {
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" mapstructure:"max_concurrent_runs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pov.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requests_per_sec", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("batch.max_concurrent_runs", 4)
	v.SetDefault("engine.triangulation.fuzzy_threshold", 0.85)
	v.SetDefault("engine.triangulation.moderately_ratio", 0.25)
	v.SetDefault("engine.triangulation.strongly_ratio", 0.5)
	v.SetDefault("engine.triangulation.fully_ratio", 0.75)
	v.SetDefault("engine.confidence.triangulation_weight", 0.6)
	v.SetDefault("engine.confidence.vote_weight", 0.4)
	v.SetDefault("engine.confidence.very_high_floor", 0.90)
	v.SetDefault("engine.confidence.high_floor", 0.75)
	v.SetDefault("engine.confidence.medium_floor", 0.50)
	v.SetDefault("engine.confidence.low_floor", 0.25)
	v.SetDefault("engine.confidence.bright_floor", 0.75)
	v.SetDefault("engine.confidence.dim_floor", 0.40)
	v.SetDefault("engine.gaps.critical_categories", []string{
		string(model.CategoryDocuments),
		string(model.CategoryStructuredData),
		string(model.CategoryBPMProcessModels),
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// DefaultEngine returns the engine configuration with all defaults applied,
// without touching config files or the environment. Used by tests and by
// callers that embed the engine as a library.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		Triangulation: TriangulationConfig{
			FuzzyThreshold:  0.85,
			ModeratelyRatio: 0.25,
			StronglyRatio:   0.5,
			FullyRatio:      0.75,
		},
		Confidence: ConfidenceConfig{
			TriangulationWeight: 0.6,
			VoteWeight:          0.4,
			VeryHighFloor:       0.90,
			HighFloor:           0.75,
			MediumFloor:         0.50,
			LowFloor:            0.25,
			BrightFloor:         0.75,
			DimFloor:            0.40,
		},
		Gaps: GapConfig{
			CriticalCategories: []string{
				string(model.CategoryDocuments),
				string(model.CategoryStructuredData),
				string(model.CategoryBPMProcessModels),
			},
		},
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
