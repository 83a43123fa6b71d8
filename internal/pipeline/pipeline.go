// Package pipeline runs parsed-claim messages through assessment in batches:
// extract from the source topic, assess each claim, load the assessments,
// then commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flight-disruption-verifier/internal/domain"
	"github.com/couchcryptid/flight-disruption-verifier/internal/observability"
	"golang.org/x/sync/errgroup"
)

// BatchExtractor reads up to batchSize parsed-claim messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer turns one claim message into an assessment. An error marks the
// message as poison: it is skipped and committed.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.ClaimAssessment, error)
}

// BatchLoader writes assessments to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.ClaimAssessment) error
}

const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	defaultConcurrency = 4
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency bounds how many claims of a batch are assessed at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// Pipeline runs the extract, assess, load loop over claim messages.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	concurrency int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once the pipeline has loaded at least one
// assessment.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("claim pipeline has not loaded any assessments yet")
	}
	return nil
}

// Run loops over batches until the context is cancelled. Extract and load
// failures are retried with exponential backoff; it never returns an error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("claim pipeline started", "batch_size", p.batchSize, "concurrency", p.concurrency)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := backoff{delay: initialBackoff}
	for ctx.Err() == nil {
		err := p.runBatch(ctx)
		if err == nil {
			retry.reset()
			continue
		}
		if ctx.Err() != nil {
			break
		}
		p.logger.Error("claim batch failed", "error", err, "retry_in", retry.delay)
		if !retry.wait(ctx) {
			break
		}
	}

	p.logger.Info("claim pipeline stopping", "reason", ctx.Err())
	return nil
}

type outcome struct {
	raw        domain.RawMessage
	assessment domain.ClaimAssessment
	err        error
}

// runBatch extracts, assesses and loads one batch. Offsets of loaded claims
// are committed only after the load succeeds.
func (p *Pipeline) runBatch(ctx context.Context) error {
	start := time.Now()

	msgs, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}
	p.metrics.MessagesConsumed.Add(float64(len(msgs)))
	p.metrics.BatchSize.Observe(float64(len(msgs)))

	assessments := make([]domain.ClaimAssessment, 0, len(msgs))
	pending := make([]domain.RawMessage, 0, len(msgs))
	for _, o := range p.assess(ctx, msgs) {
		if o.err != nil {
			p.logger.Warn("unreadable claim message, skipping",
				"error", o.err,
				"topic", o.raw.Topic,
				"partition", o.raw.Partition,
				"offset", o.raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, o.raw)
			continue
		}
		assessments = append(assessments, o.assessment)
		pending = append(pending, o.raw)
	}
	if len(assessments) == 0 {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, assessments); err != nil {
		return fmt.Errorf("load %d assessments: %w", len(assessments), err)
	}
	p.metrics.MessagesProduced.Add(float64(len(assessments)))
	for _, raw := range pending {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

// assess runs the transformer over msgs with bounded concurrency. Results
// keep the order of msgs.
func (p *Pipeline) assess(ctx context.Context, msgs []domain.RawMessage) []outcome {
	results := make([]outcome, len(msgs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, raw := range msgs {
		g.Go(func() error {
			a, err := p.transformer.Transform(ctx, raw)
			results[i] = outcome{raw: raw, assessment: a, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff doubles its delay after every wait, up to maxBackoff.
type backoff struct {
	delay time.Duration
}

func (b *backoff) reset() { b.delay = initialBackoff }

// wait sleeps for the current delay and reports false if ctx ended first.
func (b *backoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.delay)
	defer timer.Stop()
	b.delay = min(b.delay*2, maxBackoff)

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
