// Package pipeline runs the claim verification pipeline: evidence
// retrieval, stance verification, and judgment synthesis per claim,
// with bounded concurrency across claims and progress events on every
// state transition.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rmartin/veracity/internal/cache"
	"github.com/rmartin/veracity/internal/judge"
	"github.com/rmartin/veracity/internal/llm"
	"github.com/rmartin/veracity/internal/model"
	"github.com/rmartin/veracity/internal/provider"
	"github.com/rmartin/veracity/internal/retrieve"
	"github.com/rmartin/veracity/internal/stance"
	"github.com/rmartin/veracity/internal/worker"
)

// Retriever gathers evidence for one claim.
type Retriever interface {
	Retrieve(ctx context.Context, claim model.Claim) (*retrieve.Result, error)
}

// Verifier labels the evidence set against the claim.
type Verifier interface {
	Verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) []model.StanceResult
}

// Judge produces the final judgment.
type Judge interface {
	Judge(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem, signal model.VerificationSignal) model.Judgment
}

// RunStore persists completed runs.
type RunStore interface {
	SaveRun(ctx context.Context, report *model.RunReport) error
}

// Options attaches optional collaborators to an orchestrator.
type Options struct {
	// Events receives a StageEvent on every claim state transition.
	// Delivery is best-effort: a full channel drops events rather than
	// stalling the pipeline.
	Events chan<- model.StageEvent
	// Store persists the run report when non-nil.
	Store   RunStore
	Verbose bool
}

// Orchestrator drives claims through the pipeline state machine.
type Orchestrator struct {
	cfg        *model.Config
	registry   *provider.Registry
	retriever  Retriever
	verifier   Verifier
	judge      Judge
	cacheStats *cache.Stats
	opts       Options
}

// New wires the full production stack from configuration.
func New(cfg *model.Config, opts Options) (*Orchestrator, error) {
	var backend llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("init llm provider: %w", err)
		}
		backend = p
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	stats := cache.NewStats()
	limiter := worker.NewLimiter(cfg.Providers.RateLimit, cfg.Providers.RateBurst)
	registry := provider.NewRegistry(cfg, store, stats, limiter)

	var fetcher *provider.PageFetcher
	if cfg.Retrieval.EnrichSnippets {
		fetcher = provider.NewPageFetcher(cfg.HTTP.UserAgent, cfg.Retrieval.ProviderTimeout, cfg.HTTP.MaxBodyBytes, limiter)
	}

	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		retriever: retrieve.NewRetriever(cfg, registry, retrieve.Options{
			Fetcher: fetcher,
			Verbose: opts.Verbose,
		}),
		verifier:   stance.NewVerifier(backend, cfg.Stance, opts.Verbose),
		judge:      judge.NewSynthesizer(backend, cfg.Judgment, opts.Verbose),
		cacheStats: stats,
		opts:       opts,
	}, nil
}

// NewWithComponents assembles an orchestrator from explicit parts.
func NewWithComponents(cfg *model.Config, registry *provider.Registry, r Retriever, v Verifier, j Judge, stats *cache.Stats, opts Options) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		registry:   registry,
		retriever:  r,
		verifier:   v,
		judge:      j,
		cacheStats: stats,
		opts:       opts,
	}
}

// CacheStats exposes the run's cache counters.
func (o *Orchestrator) CacheStats() *cache.Stats { return o.cacheStats }

// Registry exposes the provider registry for status commands.
func (o *Orchestrator) Registry() *provider.Registry { return o.registry }

// claimJob is the unit of work the pool executes: one claim through
// retrieving, verifying, and judging.
type claimJob struct {
	o     *Orchestrator
	runID string
	claim model.Claim
}

// claimOutcome carries a finished claim back to the assembler.
type claimOutcome struct {
	result    model.ClaimResult
	retrieval *retrieve.Result
}

func (c claimOutcome) GetError() error {
	if c.result.State == model.StateFailed {
		return fmt.Errorf("claim %d: %s", c.result.Claim.Position, c.result.Error)
	}
	return nil
}

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	return j.o.processClaim(ctx, j.runID, j.claim)
}

// Run verifies every claim and assembles the report. Results are keyed
// by claim position, not completion order. Cancellation marks the
// unfinished claims failed with the cancellation reason; the report is
// still returned.
func (o *Orchestrator) Run(ctx context.Context, claims []model.Claim) (*model.RunReport, error) {
	// Positions index the report, so they must match the input order.
	ordered := make([]model.Claim, len(claims))
	copy(ordered, claims)
	for i := range ordered {
		ordered[i].Position = i
	}

	report := &model.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Results:   make([]model.ClaimResult, len(ordered)),
	}

	apiCallsBefore := o.apiCalls()
	hitsBefore, missesBefore := o.cacheTotals()

	pool := worker.NewPool(ctx, o.cfg.Concurrency.ClaimWorkers)
	pool.Start()
	for _, claim := range ordered {
		pool.Submit(&claimJob{o: o, runID: report.RunID, claim: claim})
	}
	outcomes := pool.Wait()

	done := make(map[int]bool, len(outcomes))
	retrievals := make([]*retrieve.Result, 0, len(outcomes))
	for _, res := range outcomes {
		out, ok := res.(claimOutcome)
		if !ok {
			continue
		}
		pos := out.result.Claim.Position
		report.Results[pos] = out.result
		done[pos] = true
		if out.retrieval != nil {
			retrievals = append(retrievals, out.retrieval)
		}
	}

	// Claims the pool never finished were cut off by cancellation.
	for i, claim := range ordered {
		if done[i] {
			continue
		}
		reason := "run cancelled before claim completed"
		if err := ctx.Err(); err != nil {
			reason = fmt.Sprintf("run cancelled before claim completed: %v", err)
		}
		report.Results[i] = model.ClaimResult{
			Claim: claim,
			State: model.StateFailed,
			Error: reason,
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.Stats = o.buildStats(retrievals, apiCallsBefore, hitsBefore, missesBefore)

	if o.opts.Store != nil {
		if err := o.opts.Store.SaveRun(context.WithoutCancel(ctx), report); err != nil && o.opts.Verbose {
			fmt.Fprintf(os.Stderr, "pipeline: save run %s: %v\n", report.RunID, err)
		}
	}
	return report, nil
}

// processClaim walks one claim through the state machine.
func (o *Orchestrator) processClaim(ctx context.Context, runID string, claim model.Claim) claimOutcome {
	result := model.ClaimResult{Claim: claim, State: model.StatePending}

	o.transition(runID, &result, model.StateRetrieving)
	retrieval, err := o.retriever.Retrieve(ctx, claim)
	if err != nil {
		return o.failed(runID, result, fmt.Sprintf("retrieval aborted: %v", err))
	}
	result.Evidence = retrieval.Evidence
	result.ExcludedStale = retrieval.ExcludedStale
	result.Claim.Domain = retrieval.DomainTag
	result.Claim.Jurisdiction = retrieval.Jurisdiction

	o.transition(runID, &result, model.StateVerifying)
	if err := ctx.Err(); err != nil {
		return o.failed(runID, result, fmt.Sprintf("cancelled during verification: %v", err))
	}
	result.Stances = o.verifier.Verify(ctx, result.Claim, result.Evidence)
	result.Signal = stance.Aggregate(result.Stances)

	o.transition(runID, &result, model.StateJudging)
	if err := ctx.Err(); err != nil {
		return o.failed(runID, result, fmt.Sprintf("cancelled during judgment: %v", err))
	}
	result.Judgment = o.judge.Judge(ctx, result.Claim, result.Evidence, result.Signal)

	o.transition(runID, &result, model.StateDone)
	return claimOutcome{result: result, retrieval: retrieval}
}

func (o *Orchestrator) failed(runID string, result model.ClaimResult, reason string) claimOutcome {
	result.Error = reason
	o.transition(runID, &result, model.StateFailed)
	return claimOutcome{result: result}
}

// transition moves the claim to the next state and emits the event.
func (o *Orchestrator) transition(runID string, result *model.ClaimResult, to model.ClaimState) {
	from := result.State
	result.State = to
	if o.opts.Events == nil {
		return
	}
	select {
	case o.opts.Events <- model.StageEvent{
		RunID:         runID,
		ClaimPosition: result.Claim.Position,
		From:          from,
		To:            to,
		At:            time.Now().UTC(),
	}:
	default:
	}
}

func (o *Orchestrator) buildStats(retrievals []*retrieve.Result, apiCallsBefore, hitsBefore, missesBefore int64) model.RunStats {
	var stats model.RunStats
	for _, r := range retrievals {
		stats.ProvidersQueried += r.ProvidersQueried
		stats.WebEvidenceCount += r.WebCount
		stats.DomainEvidenceCount += r.DomainCount + r.FactCheckCount
	}
	stats.APICallCount = o.apiCalls() - apiCallsBefore

	hits, misses := o.cacheTotals()
	stats.CacheHits = hits - hitsBefore
	stats.CacheMisses = misses - missesBefore

	if total := stats.WebEvidenceCount + stats.DomainEvidenceCount; total > 0 {
		stats.APICoveragePercentage = 100 * float64(stats.DomainEvidenceCount) / float64(total)
	}
	return stats
}

func (o *Orchestrator) apiCalls() int64 {
	if o.registry == nil {
		return 0
	}
	return o.registry.APICallTotal()
}

func (o *Orchestrator) cacheTotals() (int64, int64) {
	if o.cacheStats == nil {
		return 0, 0
	}
	return o.cacheStats.Totals()
}
