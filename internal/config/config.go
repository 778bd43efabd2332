package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "FOLDBATCH_"

// Config holds everything a foldbatch invocation needs. It is built once by
// Load and passed by value afterwards.
type Config struct {
	Engine  Engine  `yaml:"engine" envPrefix:"ENGINE_"`
	MSA     MSA     `yaml:"msa" envPrefix:"MSA_"`
	Staging Staging `yaml:"staging" envPrefix:"STAGING_"`
	Log     Log     `yaml:"log" envPrefix:"LOG_"`
	Store   Store   `yaml:"store" envPrefix:"STORE_"`
	Ledger  Ledger  `yaml:"ledger" envPrefix:"LEDGER_"`
}

// Engine configures the structure prediction engine
type Engine struct {
	Binary                   string `yaml:"binary" env:"BINARY" validate:"required"`
	Command                  string `yaml:"command" env:"COMMAND" validate:"required"`
	ModelVersion             string `yaml:"model_version" env:"MODEL_VERSION" validate:"required"`
	CheckpointDir            string `yaml:"checkpoint_dir" env:"CHECKPOINT_DIR" validate:"required"`
	CheckpointURL            string `yaml:"checkpoint_url" env:"CHECKPOINT_URL" validate:"omitempty,url"`
	NCycle                   int    `yaml:"n_cycle" env:"N_CYCLE" validate:"min=1"`
	NSample                  int    `yaml:"n_sample" env:"N_SAMPLE" validate:"min=1"`
	NStep                    int    `yaml:"n_step" env:"N_STEP" validate:"min=1"`
	UseDeepspeedEvoAttention bool   `yaml:"use_deepspeed_evo_attention" env:"USE_DEEPSPEED_EVO_ATTENTION"`
	Seeds                    []int  `yaml:"seeds" env:"SEEDS" envSeparator:"," validate:"min=1"`
	AllowSearch              bool   `yaml:"use_msa_server" env:"USE_MSA_SERVER"`
	DryRun                   bool   `yaml:"dry_run" env:"DRY_RUN"`
}

// CheckpointPath is the local checkpoint file for the configured model version
func (e Engine) CheckpointPath() string {
	return filepath.Join(e.CheckpointDir, fmt.Sprintf("model_%s.pt", e.ModelVersion))
}

// MSA configures the alignment search tool
type MSA struct {
	Command   string `yaml:"command" env:"COMMAND"`
	PairingDB string `yaml:"pairing_db" env:"PAIRING_DB" validate:"required"`
	ResultDir string `yaml:"result_dir" env:"RESULT_DIR"`
}

// Staging configures where intermediate files of a batch are written
type Staging struct {
	Root string `yaml:"root" env:"ROOT" validate:"required"`
}

// Log configures logrus and log file rotation
type Log struct {
	Level      string `yaml:"level" env:"LEVEL" validate:"oneof=trace debug info warn warning error fatal panic"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS" validate:"min=0"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// Store configures result publishing to S3-compatible object storage.
// Publishing is disabled when Endpoint is empty.
type Store struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY" validate:"required_with=Endpoint"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY" validate:"required_with=Endpoint"`
	Bucket    string `yaml:"bucket" env:"BUCKET" validate:"required_with=Endpoint"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
	Region    string `yaml:"region" env:"REGION"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

func (s Store) Enabled() bool {
	return s.Endpoint != ""
}

// Ledger configures the Postgres job outcome ledger. Disabled when URL is empty.
type Ledger struct {
	URL         string        `yaml:"url" env:"URL"`
	Table       string        `yaml:"table" env:"TABLE" validate:"required"`
	PingTimeout time.Duration `yaml:"ping_timeout" env:"PING_TIMEOUT" validate:"gt=0"`
}

func (l Ledger) Enabled() bool {
	return l.URL != ""
}

// legacyEnv holds unprefixed variables honoured for compatibility with
// existing deployment scripts.
type legacyEnv struct {
	DeepspeedEvoAttention string `env:"USE_DEEPSPEED_EVO_ATTTENTION"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Engine: Engine{
			Binary: "protenix_infer",
			Command: "protenix_infer --input_json_path {{.Input}} --dump_dir {{.OutputDir}} --seeds {{.Seeds}}" +
				" --load_checkpoint_path {{.Checkpoint}} --model.N_cycle {{.NCycle}}" +
				" --sample_diffusion.N_sample {{.NSample}} --sample_diffusion.N_step {{.NStep}}" +
				" --use_deepspeed_evo_attention {{.DeepspeedEvoAttention}}",
			ModelVersion:  "v0.2.0",
			CheckpointDir: filepath.Join(os.TempDir(), "foldbatch", "checkpoint"),
			NCycle:        10,
			NSample:       5,
			NStep:         200,
			Seeds:         []int{101},
		},
		MSA: MSA{
			PairingDB: "uniref100",
		},
		Staging: Staging{
			Root: filepath.Join(os.TempDir(), "foldbatch"),
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Ledger: Ledger{
			Table:       "foldbatch_jobs",
			PingTimeout: 2 * time.Second,
		},
	}
}

// LoadOptions names the optional configuration sources
type LoadOptions struct {
	File    string // YAML config file
	EnvFile string // dotenv file
}

// Load layers defaults, the YAML file, the dotenv file and the process
// environment, in that order. Callers apply flag overrides and then Validate.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", opts.File, err)
		}
	}

	if opts.EnvFile != "" {
		// variables already present in the environment win over the file
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	if err := env.Parse(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	var legacy legacyEnv
	if err := env.Parse(&legacy); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if legacy.DeepspeedEvoAttention != "" {
		enabled, err := strconv.ParseBool(legacy.DeepspeedEvoAttention)
		if err != nil {
			return Config{}, fmt.Errorf("invalid USE_DEEPSPEED_EVO_ATTTENTION: %w", err)
		}
		cfg.Engine.UseDeepspeedEvoAttention = enabled
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks every section and reports all violations at once
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
