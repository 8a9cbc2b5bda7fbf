// Package executor runs a battery of checks against one page and assembles the report.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/markup-checker/internal/checks"
	"github.com/jonathan/markup-checker/internal/logging"
	"github.com/jonathan/markup-checker/internal/types"
)

// DefaultCheckTimeout bounds a single check, image probes included.
const DefaultCheckTimeout = 60 * time.Second

// ProgressEvent is emitted once per settled check
type ProgressEvent struct {
	CheckID  string        `json:"check_id"`
	Label    string        `json:"label"`
	Status   types.Status  `json:"status"`
	Messages int           `json:"messages"`
	Elapsed  time.Duration `json:"elapsed"`
}

// ProgressCallback is called when a check settles. It may be called concurrently.
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for an Executor
type Options struct {
	Separator    string
	CheckTimeout time.Duration
	Concurrency  int // 0 means unlimited
	Logger       *zap.Logger
	OnProgress   ProgressCallback
}

// Executor runs checks concurrently and normalizes their outcomes.
type Executor struct {
	registry *checks.Registry
	opts     Options
	logger   *zap.Logger
}

// New creates an executor bound to a registry
func New(registry *checks.Registry, opts Options) *Executor {
	if opts.Separator == "" {
		opts.Separator = types.DefaultSeparator
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = DefaultCheckTimeout
	}
	return &Executor{
		registry: registry,
		opts:     opts,
		logger:   logging.OrNop(opts.Logger),
	}
}

// Registry returns the registry the executor resolves ids against.
func (e *Executor) Registry() *checks.Registry {
	return e.registry
}

// RunIDs resolves ids through the registry and runs them in the given order.
// An unknown id fails with *ConfigurationError before any check runs.
func (e *Executor) RunIDs(ctx context.Context, ids []string, source string, in checks.Input) (*types.Report, error) {
	descriptors, err := e.registry.Select(ids)
	if err != nil {
		return nil, &ConfigurationError{Message: "unknown check requested", Cause: err}
	}
	return e.Run(ctx, descriptors, source, in)
}

// RunDefault runs every registered check that applies to in.Flags.
func (e *Executor) RunDefault(ctx context.Context, source string, in checks.Input) (*types.Report, error) {
	return e.Run(ctx, e.registry.ForFlags(in.Flags), source, in)
}

// Run executes every descriptor concurrently against source.
//
// The report always holds one entry per descriptor, in descriptor order.
// A check that fails or panics becomes a StatusError entry; its
// *checks.CheckExecutionError is joined into the returned error alongside
// the complete report.
func (e *Executor) Run(ctx context.Context, descriptors []checks.Descriptor, source string, in checks.Input) (*types.Report, error) {
	for _, d := range descriptors {
		if d.ID == "" || d.Fn == nil {
			return nil, &ConfigurationError{
				Message: "invalid check descriptor",
				Cause:   &checks.InvalidDescriptorError{ID: d.ID, Message: "id and function are required"},
			}
		}
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	logger.Debug("Starting check run",
		zap.Int("checks", len(descriptors)),
		zap.String("channel", in.Flags.Channel()))

	page := checks.NewPage(source)
	entries := make([]types.Entry, len(descriptors))
	execErrs := make([]error, len(descriptors))

	var g errgroup.Group
	if e.opts.Concurrency > 0 {
		g.SetLimit(e.opts.Concurrency)
	}

	for i, d := range descriptors {
		g.Go(func() error {
			start := time.Now()
			entry, execErr := e.runOne(ctx, d, page, in)
			entries[i] = entry
			execErrs[i] = execErr

			elapsed := time.Since(start)
			if execErr != nil {
				logger.Warn("Check failed", zap.String("check", d.ID), zap.Error(execErr))
			} else {
				logger.Debug("Check settled",
					zap.String("check", d.ID),
					zap.String("status", string(entry.Status)),
					zap.Int("messages", len(entry.Messages)),
					zap.Duration("elapsed", elapsed))
			}
			if e.opts.OnProgress != nil {
				e.opts.OnProgress(ProgressEvent{
					CheckID:  d.ID,
					Label:    d.Label,
					Status:   entry.Status,
					Messages: len(entry.Messages),
					Elapsed:  elapsed,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &types.Report{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Flags:     in.Flags,
		Separator: e.opts.Separator,
		Entries:   entries,
	}
	return report, errors.Join(execErrs...)
}

// FetchEntryID identifies the entry for a page that could not be loaded.
const FetchEntryID = "fetch"

// FetchFailed builds the report for a run whose page never arrived. Its only
// entry carries the transport error, so no check is reported as passed.
func (e *Executor) FetchFailed(flags types.ChannelFlags, err error) *types.Report {
	runID := uuid.NewString()
	e.logger.Debug("Page fetch failed", zap.String("run_id", runID), zap.Error(err))
	return &types.Report{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Flags:     flags,
		Separator: e.opts.Separator,
		Entries: []types.Entry{{
			ID:     FetchEntryID,
			Label:  "ページ取得",
			Status: types.StatusError,
			Error:  err.Error(),
		}},
	}
}

// runOne invokes a single check and classifies its outcome.
func (e *Executor) runOne(ctx context.Context, d checks.Descriptor, page *checks.Page, in checks.Input) (entry types.Entry, execErr error) {
	entry = types.Entry{ID: d.ID, Label: d.Label}

	checkCtx, cancel := context.WithTimeout(ctx, e.opts.CheckTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			execErr = &checks.CheckExecutionError{
				CheckID: d.ID,
				Cause:   fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
			entry = errorEntry(d, execErr)
		}
	}()

	messages, err := d.Fn(checkCtx, page, in)
	messages = normalize(messages, d.SortMessages)

	var unverified *checks.UnverifiedError
	switch {
	case err == nil:
		entry.Messages = messages
		entry.Status = types.StatusPass
		if len(messages) > 0 {
			entry.Status = types.StatusFail
			entry.Display = types.JoinMessages(messages, e.opts.Separator)
		}
		return entry, nil

	case errors.As(err, &unverified),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		checkCtx.Err() != nil:
		entry.Status = types.StatusUnverified
		entry.Messages = messages
		if len(messages) > 0 {
			entry.Display = types.JoinMessages(messages, e.opts.Separator)
		}
		entry.Error = err.Error()
		return entry, nil

	default:
		execErr = &checks.CheckExecutionError{CheckID: d.ID, Cause: err}
		return errorEntry(d, execErr), execErr
	}
}

func errorEntry(d checks.Descriptor, err error) types.Entry {
	return types.Entry{
		ID:     d.ID,
		Label:  d.Label,
		Status: types.StatusError,
		Error:  err.Error(),
	}
}

// normalize drops empty messages and optionally sorts the rest. An empty
// result is nil so that "no messages" has a single representation.
func normalize(messages []string, sorted bool) []string {
	var out []string
	for _, m := range messages {
		if m != "" {
			out = append(out, m)
		}
	}
	if sorted {
		sort.Strings(out)
	}
	return out
}
