package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourceplane/foldbatch/internal/config"
	"github.com/sourceplane/foldbatch/internal/expand"
	"github.com/sourceplane/foldbatch/internal/ligand"
	"github.com/sourceplane/foldbatch/internal/loader"
	"github.com/sourceplane/foldbatch/internal/model"
	"github.com/sourceplane/foldbatch/internal/msa"
	"github.com/sourceplane/foldbatch/internal/normalize"
	"github.com/sourceplane/foldbatch/internal/schema"
)

// Runner executes batches of jobs sequentially against one loaded engine.
type Runner struct {
	cfg         config.Engine
	engine      Engine
	gate        *msa.Gate
	parser      ligand.Parser
	validator   *schema.Validator
	stagingRoot string
	hooks       []ResultHook
	progress    func(done, total int)
	log         logrus.FieldLogger
	now         func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) { r.log = log }
}

// WithProgress registers a callback invoked after every processed job
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithHooks appends result hooks, called in order after every job
func WithHooks(hooks ...ResultHook) Option {
	return func(r *Runner) { r.hooks = append(r.hooks, hooks...) }
}

// WithParser replaces the ligand parser used to validate ligand records
func WithParser(p ligand.Parser) Option {
	return func(r *Runner) { r.parser = p }
}

// WithValidator schema-checks job files before they are loaded
func WithValidator(v *schema.Validator) Option {
	return func(r *Runner) { r.validator = v }
}

// WithStagingRoot sets the directory batch staging areas are created under
func WithStagingRoot(root string) Option {
	return func(r *Runner) { r.stagingRoot = root }
}

// New creates a runner. gate decides whether each job may run; search is
// only attempted when cfg.AllowSearch is set.
func New(cfg config.Engine, engine Engine, gate *msa.Gate, opts ...Option) *Runner {
	r := &Runner{
		cfg:         cfg,
		engine:      engine,
		gate:        gate,
		parser:      ligand.ConnectivityParser{},
		stagingRoot: filepath.Join(os.TempDir(), "foldbatch"),
		log:         logrus.StandardLogger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.gate == nil {
		r.gate = msa.NewGate(nil, "", "", false, r.log)
	}
	return r
}

// Run combines the protein chains with every ligand group found under
// ligandSource and executes the resulting jobs. Errors are returned only for
// setup problems; per-job failures are recorded in the report.
func (r *Runner) Run(ctx context.Context, chains []model.ProteinChain, ligandSource, outDir string, seeds []int) (*model.BatchRunReport, error) {
	batchID := model.NewID()
	log := r.log.WithField("batch", batchID)

	chains, duplicates, err := normalize.Chains(chains)
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		log.Warnf("dropped %d duplicate protein chains", len(duplicates))
	}

	files, err := loader.ResolveInputs(ligandSource, loader.LigandExtensions)
	if err != nil {
		return nil, err
	}
	if len(files) == 1 {
		if err := loader.RequireExtension(files[0], loader.LigandExtensions); err != nil {
			return nil, err
		}
	}

	staging := expand.NewStaging(r.stagingRoot, batchID, r.now())
	if err := staging.Create(); err != nil {
		return nil, err
	}

	groups, invalid := ligand.NewDecomposer(r.parser, staging.RecordDir, log).DecomposeAll(files)
	jobs, err := expand.NewExpander(chains, staging.JobDir, outDir).Expand(groups, seeds)
	if err != nil {
		staged := make([]string, 0, len(jobs))
		for _, job := range jobs {
			staged = append(staged, job.SourcePath)
		}
		if len(staged) > 0 {
			log.Warnf("job synthesis stopped after %d jobs, staged job files: %s", len(staged), strings.Join(staged, ", "))
		}
		return nil, fmt.Errorf("%w (%d jobs staged before the failure: %s)", err, len(staged), strings.Join(staged, ", "))
	}
	log.Infof("will infer with %d jobs", len(jobs))

	report, err := r.execute(ctx, batchID, jobs, nil)
	if report != nil {
		report.InvalidLigands = invalid
	}
	return report, err
}

// Execute runs already synthesized jobs
func (r *Runner) Execute(ctx context.Context, jobs []*model.JobDescriptor) (*model.BatchRunReport, error) {
	return r.execute(ctx, model.NewID(), jobs, nil)
}

// ExecuteFiles loads and runs job files. A file that cannot be loaded is
// recorded as a failure keyed by its path; the remaining files still run.
func (r *Runner) ExecuteFiles(ctx context.Context, paths []string, outDir string) (*model.BatchRunReport, error) {
	jobs := make([]*model.JobDescriptor, 0, len(paths))
	loadFailures := make([]model.JobResult, 0)

	for _, path := range paths {
		loaded, err := loader.LoadJobFile(path, r.validator, outDir)
		if err != nil {
			loadFailures = append(loadFailures, model.JobResult{JobID: path, Name: filepath.Base(path), Err: err})
			continue
		}
		jobs = append(jobs, loaded...)
	}
	r.log.Infof("will infer with %d jobs from %d files", len(jobs), len(paths))

	return r.execute(ctx, model.NewID(), jobs, loadFailures)
}

func (r *Runner) execute(ctx context.Context, batchID string, jobs []*model.JobDescriptor, preFailed []model.JobResult) (*model.BatchRunReport, error) {
	log := r.log.WithField("batch", batchID)
	report := model.NewBatchRunReport(batchID)
	report.StartedAt = r.now()
	defer func() { report.FinishedAt = r.now() }()

	total := len(jobs) + len(preFailed)
	for _, result := range preFailed {
		report.Record(result)
		r.notify(ctx, log, batchID, &model.JobDescriptor{ID: result.JobID, Name: result.Name}, result)
		r.reportProgress(report, total)
	}
	if len(jobs) == 0 {
		r.summarize(log, report)
		return report, nil
	}

	session, err := r.engine.Load(ctx, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction engine: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("failed to release prediction engine")
		}
	}()

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			log.Warnf("batch interrupted after %d of %d jobs", report.Processed(), total)
			r.summarize(log, report)
			return report, err
		}

		ran, result := r.runJob(ctx, session, job)
		report.Record(result)
		r.notify(ctx, log, batchID, ran, result)
		r.reportProgress(report, total)
	}

	r.summarize(log, report)
	return report, nil
}

// runJob gates and predicts one job. It returns the job that was actually
// run, which is the enriched copy when an alignment search happened.
func (r *Runner) runJob(ctx context.Context, session Session, job *model.JobDescriptor) (*model.JobDescriptor, model.JobResult) {
	result := model.JobResult{JobID: job.ID, Name: job.Name}

	gated, err := r.gate.Check(ctx, job, r.cfg.AllowSearch)
	if err != nil {
		result.Err = err
		return job, result
	}

	if err := session.Predict(ctx, gated); err != nil {
		result.Err = fmt.Errorf("job %s: %w", job.Name, err)
		return gated, result
	}

	r.log.WithFields(logrus.Fields{"job": job.Name, "id": job.ID}).Info("job finished")
	return gated, result
}

func (r *Runner) notify(ctx context.Context, log logrus.FieldLogger, batchID string, job *model.JobDescriptor, result model.JobResult) {
	for _, hook := range r.hooks {
		if err := hook.JobFinished(ctx, batchID, job, result); err != nil {
			log.WithError(err).WithField("job", job.Name).Warn("result hook failed")
		}
	}
}

func (r *Runner) reportProgress(report *model.BatchRunReport, total int) {
	if r.progress != nil {
		r.progress(report.Processed(), total)
	}
}

func (r *Runner) summarize(log logrus.FieldLogger, report *model.BatchRunReport) {
	if len(report.Failures) == 0 {
		return
	}
	log.Warnf("run inference failed for %d jobs: %v", len(report.Failures), report.Failed())
}
