// Package executor implements the Batch Executor (spec §4.10): the
// single-threaded cooperative loop that submits each resolved prompt to
// the synthesis API, writes its image, appends a manifest entry, and
// enqueues it for annotation, strictly in generator-emitted order.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"gitlab.com/tinyland/lab/sdgen/pkg/annotate"
	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/manifest"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdapi"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdmetrics"
	"gitlab.com/tinyland/lab/sdgen/pkg/session"
)

// defaultAnnotationDrainGrace is the bounded grace period §5 documents for
// draining the annotation worker at finalization.
const defaultAnnotationDrainGrace = 30 * time.Second

// Progress is reported once per prompt, after it reaches a terminal state
// for this run (success, failure, or dry-run skip).
type Progress struct {
	Index       int
	Success     bool
	DryRun      bool
	Seed        int64
	Filename    string
	FailureKind string
	Message     string
}

// ProgressReporter receives one Progress per processed prompt. May be nil.
type ProgressReporter func(Progress)

// Config controls the executor's behavior independent of its collaborators.
type Config struct {
	DryRun               bool
	PerCallTimeout       time.Duration
	AnnotationDrainGrace time.Duration
	FilenamePrefix       string
	FilenameKeys         []string
}

// Summary is the final accounting reported at the end of a run (§8
// Scenario F).
type Summary struct {
	Succeeded  int
	Failed     int
	SessionDir string
	Cancelled  bool
}

// Executor wires together the API client, session manager, manifest, and
// annotation worker into one sequential generation loop. A nil annotator
// means annotations are disabled for this run.
type Executor struct {
	api       *sdapi.Client
	session   *session.Manager
	manifest  *manifest.Manifest
	annotator *annotate.Worker
	cfg       Config
	logger    *slog.Logger
	report    ProgressReporter
}

// New builds an Executor. mf may be nil (dry-run runs never append to it
// regardless); a non-nil mf in dry-run mode is written once at session
// initialization and stays at an empty images array per §4.10.
func New(api *sdapi.Client, sess *session.Manager, mf *manifest.Manifest, annotator *annotate.Worker, cfg Config, logger *slog.Logger, report ProgressReporter) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AnnotationDrainGrace == 0 {
		cfg.AnnotationDrainGrace = defaultAnnotationDrainGrace
	}
	return &Executor{api: api, session: sess, manifest: mf, annotator: annotator, cfg: cfg, logger: logger, report: report}
}

// Run processes prompts strictly in order, checking ctx for cancellation
// between iterations (never mid-call), and returns the final summary.
func (e *Executor) Run(ctx context.Context, prompts []docmodel.ResolvedPrompt) Summary {
	summary := Summary{SessionDir: e.session.Dir()}

	for _, p := range prompts {
		select {
		case <-ctx.Done():
			summary.Cancelled = true
			e.logger.Info("cancelled before next prompt", "processed", summary.Succeeded+summary.Failed, "remaining", len(prompts)-summary.Succeeded-summary.Failed)
			e.finalize()
			return summary
		default:
		}

		if e.cfg.DryRun {
			summary.Succeeded++
			e.emit(Progress{Index: p.Index, Success: true, DryRun: true})
			continue
		}

		if !e.runOne(ctx, p, &summary) {
			e.finalize()
			return summary
		}
	}

	e.finalize()
	return summary
}

// runOne submits one prompt end to end. It returns false only on a hard
// abort (ManifestWriteFailure), signaling Run to stop immediately.
func (e *Executor) runOne(ctx context.Context, p docmodel.ResolvedPrompt, summary *Summary) bool {
	callCtx := ctx
	if e.cfg.PerCallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.PerCallTimeout)
		defer cancel()
	}

	start := time.Now()
	imageBytes, info, err := e.api.Generate(callCtx, p.Prompt, p.NegativePrompt, p.Seed, p.Parameters)
	sdmetrics.RecordAPICallDuration(time.Since(start))
	if err != nil {
		summary.Failed++
		reason := failureReason(err)
		sdmetrics.RecordImageFailed(reason)
		e.logger.Warn("prompt failed", "prompt_index", p.Index, "reason", reason, "err", err)
		e.emit(Progress{Index: p.Index, Success: false, FailureKind: reason, Message: err.Error()})
		return true
	}

	filename := session.Filename(e.cfg.FilenamePrefix, p.Index, e.cfg.FilenameKeys, p.Applied)
	if err := e.session.WriteImage(filename, imageBytes); err != nil {
		summary.Failed++
		sdmetrics.RecordImageFailed("write_failure")
		e.logger.Warn("image write failed", "prompt_index", p.Index, "err", err)
		e.emit(Progress{Index: p.Index, Success: false, FailureKind: "write_failure", Message: err.Error()})
		return true
	}

	seed := info.Seed
	entry := manifest.ImageEntry{
		Filename:          filename,
		Seed:              seed,
		Prompt:            p.Prompt,
		NegativePrompt:    p.NegativePrompt,
		AppliedVariations: p.Applied,
	}
	if e.manifest != nil {
		if err := e.manifest.Append(entry); err != nil {
			var mwf *sderrors.ManifestWriteFailure
			summary.Failed++
			if errors.As(err, &mwf) {
				e.logger.Error("manifest write failed, aborting session", "prompt_index", p.Index, "err", err)
			}
			sdmetrics.RecordImageFailed("manifest_write_failure")
			e.emit(Progress{Index: p.Index, Success: false, FailureKind: "manifest_write_failure", Message: err.Error()})
			return false
		}
	}

	if e.annotator != nil {
		e.annotator.Enqueue(filepath.Join(e.session.Dir(), filename), p.Applied)
	}

	summary.Succeeded++
	sdmetrics.RecordImageGenerated()
	e.emit(Progress{Index: p.Index, Success: true, Seed: seed, Filename: filename})
	return true
}

func (e *Executor) finalize() {
	if e.annotator == nil {
		return
	}
	if drained := e.annotator.Stop(e.cfg.AnnotationDrainGrace); !drained {
		e.logger.Warn("annotation worker did not fully drain before grace period", "grace", e.cfg.AnnotationDrainGrace)
	}
}

func (e *Executor) emit(p Progress) {
	if e.report != nil {
		e.report(p)
	}
}

// failureReason classifies err into one of the runtime error taxonomy's
// names (§7), for metrics labels and progress reporting.
func failureReason(err error) string {
	var transport *sderrors.Transport
	var backend *sderrors.BackendError
	var badResponse *sderrors.BadResponse
	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &backend):
		return "backend_error"
	case errors.As(err, &badResponse):
		return "bad_response"
	default:
		return "unknown"
	}
}
