package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/config"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/shell"
)

//go:generate mockgen -destination=mocks/engine_mock.go -package=mocks github.com/sourceplane/foldbatch/internal/runner Engine,Session

// Engine loads the prediction engine. Loading is expensive and happens once
// per batch.
type Engine interface {
	Load(ctx context.Context, cfg config.Engine) (Session, error)
}

// Session is a loaded prediction engine. It is owned by the runner for the
// lifetime of one batch and used for one job at a time.
type Session interface {
	Predict(ctx context.Context, job *model.JobDescriptor) error
	Close() error
}

// CommandEngine runs an external inference command per job
type CommandEngine struct {
	client *http.Client
	log    logrus.FieldLogger
}

// NewCommandEngine creates an engine that downloads missing checkpoints with client
func NewCommandEngine(client *http.Client, log logrus.FieldLogger) *CommandEngine {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CommandEngine{client: client, log: log}
}

// predictVars are the fields available to the engine command template
type predictVars struct {
	Input                 string
	OutputDir             string
	Seeds                 string
	Checkpoint            string
	ModelVersion          string
	NCycle                int
	NSample               int
	NStep                 int
	DeepspeedEvoAttention bool
	Name                  string
	ID                    string
}

func (e *CommandEngine) Load(ctx context.Context, cfg config.Engine) (Session, error) {
	templates := shell.NewTemplates()
	if _, err := templates.Render("predict", cfg.Command, predictVars{}); err != nil {
		return nil, err
	}

	checkpoint := cfg.CheckpointPath()
	if !cfg.DryRun {
		if _, err := exec.LookPath(cfg.Binary); err != nil {
			return nil, fmt.Errorf("prediction engine %q is not available: %w", cfg.Binary, err)
		}
		if err := ensureCheckpoint(ctx, e.client, checkpoint, cfg.CheckpointURL, e.log); err != nil {
			return nil, err
		}
	}

	e.log.WithFields(logrus.Fields{
		"model":      cfg.ModelVersion,
		"checkpoint": checkpoint,
	}).Info("prediction engine loaded")

	return &commandSession{
		cfg:        cfg,
		checkpoint: checkpoint,
		templates:  templates,
		log:        e.log,
	}, nil
}

type commandSession struct {
	cfg        config.Engine
	checkpoint string
	templates  *shell.Templates
	log        logrus.FieldLogger
}

func (s *commandSession) Predict(ctx context.Context, job *model.JobDescriptor) error {
	if job.OutputPath == "" {
		return fmt.Errorf("job %s has no output path", job.Name)
	}
	if err := os.MkdirAll(job.OutputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	input := job.SourcePath
	if input == "" {
		input = filepath.Join(job.OutputPath, job.Name+"_input.json")
		if err := loader.WriteJobFile(input, job); err != nil {
			return err
		}
	}

	seeds := job.Seeds
	if len(seeds) == 0 {
		seeds = s.cfg.Seeds
	}

	line, err := s.templates.Render("predict", s.cfg.Command, predictVars{
		Input:                 input,
		OutputDir:             job.OutputPath,
		Seeds:                 joinInts(seeds),
		Checkpoint:            s.checkpoint,
		ModelVersion:          s.cfg.ModelVersion,
		NCycle:                s.cfg.NCycle,
		NSample:               s.cfg.NSample,
		NStep:                 s.cfg.NStep,
		DeepspeedEvoAttention: s.cfg.UseDeepspeedEvoAttention,
		Name:                  job.Name,
		ID:                    job.ID,
	})
	if err != nil {
		return err
	}

	entry := s.log.WithFields(logrus.Fields{"job": job.Name, "id": job.ID})
	stdout := entry.WriterLevel(logrus.InfoLevel)
	defer stdout.Close()
	stderr := entry.WriterLevel(logrus.WarnLevel)
	defer stderr.Close()

	cmd := &shell.Command{
		Env:    []string{"USE_DEEPSPEED_EVO_ATTTENTION=" + strconv.FormatBool(s.cfg.UseDeepspeedEvoAttention)},
		Stdout: stdout,
		Stderr: stderr,
		DryRun: s.cfg.DryRun,
	}
	if s.cfg.DryRun {
		cmd.Stdout = os.Stdout
	}
	if err := cmd.Run(ctx, line); err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	return nil
}

func (s *commandSession) Close() error {
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}
