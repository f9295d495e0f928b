// Package orchestrator runs one plagiarism analysis from raw text to Report.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"plagcheck/internal/aggregate"
	"plagcheck/internal/aidetect"
	"plagcheck/internal/fragment"
	"plagcheck/internal/metrics"
	"plagcheck/internal/search"
)

// State is one step of an analysis.
type State string

const (
	Idle        State = "Idle"
	Fragmenting State = "Fragmenting"
	Searching   State = "Searching"
	Aggregating State = "Aggregating"
	AnalyzingAI State = "AnalyzingAI"
	Done        State = "Done"
	Failed      State = "Failed"
)

// DefaultStagger delays the i-th fragment search by i times this value.
const DefaultStagger = 600 * time.Millisecond

// Backends are the search providers an Orchestrator draws on. Any of them
// may be nil or empty.
type Backends struct {
	// Web and Scholar are queried once per search fragment. Scholar takes
	// every third fragment starting at the second.
	Web     search.Provider
	Scholar search.Provider
	// Document providers are queried once with the whole text.
	Document []search.Provider
	// Fallback is consulted per fragment when nothing else found anything.
	Fallback search.Provider
}

type Config struct {
	Stagger   time.Duration
	Aggregate aggregate.Options
}

func DefaultConfig() Config {
	return Config{Stagger: DefaultStagger, Aggregate: aggregate.DefaultOptions()}
}

type Orchestrator struct {
	backends Backends
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)
}

func New(b Backends, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Stagger < 0 {
		cfg.Stagger = 0
	}
	return &Orchestrator{
		backends: b,
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		metrics:  m,
	}
}

// run tracks the state of a single analysis.
type run struct {
	o     *Orchestrator
	state State
}

func (r *run) to(next State) {
	prev := r.state
	r.state = next
	r.o.metrics.State(string(next))
	r.o.logger.Debug("state", zap.String("from", string(prev)), zap.String("to", string(next)))
	if r.o.OnTransition != nil {
		r.o.OnTransition(prev, next)
	}
}

// Run validates req and analyzes its text. Only a *ValidationError is
// returned; everything past validation degrades into a weaker Report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	r := &run{o: o, state: Idle}
	if err := req.Validate(); err != nil {
		r.to(Failed)
		return nil, err
	}
	return o.analyze(ctx, r, *req.Text), nil
}

// Analyze runs a full analysis of text without request validation.
func (o *Orchestrator) Analyze(ctx context.Context, text string) *Report {
	return o.analyze(ctx, &run{o: o, state: Idle}, text)
}

func (o *Orchestrator) analyze(ctx context.Context, r *run, text string) *Report {
	start := time.Now()

	r.to(Fragmenting)
	frags := fragment.Extract(text)
	if len(frags.Search) == 0 {
		r.to(Done)
		rep := buildReport(text, aggregate.Outcome{
			AnalyzedContent: aggregate.AnalyzeContent(text, nil, o.cfg.Aggregate.Content),
		}, aidetect.Analyze(text), SearchStats{})
		o.metrics.Analysis(time.Since(start), 0)
		return rep
	}

	// The AI analysis needs nothing from the search path.
	aiDone := make(chan aidetect.Analysis, 1)
	go func() { aiDone <- aidetect.Analyze(text) }()

	r.to(Searching)
	docDone := make(chan []search.Result, 1)
	go func() { docDone <- o.searchDocument(ctx, text) }()
	perFragment, stats := o.searchFragments(ctx, frags.Search)
	docResults := <-docDone

	if o.backends.Fallback != nil && empty(perFragment) && len(docResults) == 0 {
		o.logger.Info("no backend results, using keyword fallback")
		for i := range perFragment {
			res, err := o.backends.Fallback.Search(ctx, perFragment[i].Fragment)
			o.metrics.Search(o.backends.Fallback.Name(), search.Outcome(err))
			if err == nil {
				perFragment[i].Results = res
			}
		}
	}

	r.to(Aggregating)
	opts := o.cfg.Aggregate
	if o.singleBackend() {
		opts.Limit = aggregate.SingleProviderLimit
	}
	agg := aggregate.Aggregate(aggregate.Input{
		Text:      text,
		Fragments: perFragment,
		Document:  docResults,
	}, opts)

	r.to(AnalyzingAI)
	ai := <-aiDone

	r.to(Done)
	rep := buildReport(text, agg, ai, stats)
	o.metrics.Analysis(time.Since(start), len(rep.Sources))
	o.logger.Info("analysis finished",
		zap.Int("fragments", stats.Fragments),
		zap.Int("sources", len(rep.Sources)),
		zap.Int("percentage", rep.Percentage),
		zap.Int("ai_score", rep.AIGeneratedProbability),
		zap.Duration("took", time.Since(start)),
	)
	return rep
}

// searchFragments queries one backend per fragment concurrently. Results
// are stored by fragment index, never by completion order. A failed call
// leaves its fragment with no results.
func (o *Orchestrator) searchFragments(ctx context.Context, frags []string) ([]aggregate.FragmentResults, SearchStats) {
	out := make([]aggregate.FragmentResults, len(frags))
	errs := make([]error, len(frags))
	for i, f := range frags {
		out[i].Fragment = f
	}

	var g errgroup.Group
	for i := range frags {
		p := o.providerFor(i)
		if p == nil {
			continue
		}
		g.Go(func() error {
			if err := sleepCtx(ctx, time.Duration(i)*o.cfg.Stagger); err != nil {
				errs[i] = err
				return nil
			}
			res, err := p.Search(ctx, frags[i])
			o.metrics.Search(p.Name(), search.Outcome(err))
			if err != nil {
				errs[i] = err
				o.logFailure(p.Name(), i, err)
				return nil
			}
			out[i].Results = res
			return nil
		})
	}
	_ = g.Wait()

	stats := SearchStats{Fragments: len(frags)}
	for i, err := range errs {
		var (
			blocked *search.BlockedError
			timeout *search.TimeoutError
		)
		if o.providerFor(i) == nil {
			continue
		}
		switch {
		case err == nil:
			stats.Succeeded++
		case errors.As(err, &blocked):
			stats.Blocked++
		case errors.As(err, &timeout):
			stats.TimedOut++
		default:
			stats.Failed++
		}
	}
	return out, stats
}

// searchDocument queries every document-level provider once, concurrently.
func (o *Orchestrator) searchDocument(ctx context.Context, text string) []search.Result {
	if len(o.backends.Document) == 0 {
		return nil
	}

	all := make([][]search.Result, len(o.backends.Document))
	var g errgroup.Group
	for i, p := range o.backends.Document {
		g.Go(func() error {
			res, err := p.Search(ctx, text)
			o.metrics.Search(p.Name(), search.Outcome(err))
			if err != nil {
				o.logFailure(p.Name(), -1, err)
				return nil
			}
			all[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var out []search.Result
	for _, res := range all {
		out = append(out, res...)
	}
	return out
}

func (o *Orchestrator) providerFor(i int) search.Provider {
	web, scholar := o.backends.Web, o.backends.Scholar
	switch {
	case scholar != nil && (i%3 == 1 || web == nil):
		return scholar
	default:
		return web
	}
}

// singleBackend reports whether exactly one backend can feed the report.
func (o *Orchestrator) singleBackend() bool {
	n := 0
	if o.backends.Web != nil {
		n++
	}
	if o.backends.Scholar != nil {
		n++
	}
	return n == 1 && len(o.backends.Document) == 0
}

func (o *Orchestrator) logFailure(provider string, fragment int, err error) {
	log := o.logger.With(zap.String("provider", provider), zap.Int("fragment", fragment), zap.Error(err))

	var (
		blocked *search.BlockedError
		timeout *search.TimeoutError
	)
	switch {
	case errors.As(err, &blocked):
		log.Warn("search backend blocked request", zap.String("indicator", blocked.Indicator))
	case errors.As(err, &timeout):
		log.Warn("search backend timed out", zap.Duration("after", timeout.After))
	default:
		log.Warn("search backend failed")
	}
}

func empty(frs []aggregate.FragmentResults) bool {
	for _, fr := range frs {
		if len(fr.Results) > 0 {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
