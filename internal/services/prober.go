package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"snatch/internal/models"
)

// Dimension identifies one independent availability check
type Dimension string

const (
	DimensionDomain    Dimension = "domain"
	DimensionTrademark Dimension = "trademark"
	DimensionBusiness  Dimension = "business"
	DimensionSocial    Dimension = "social"
)

// Dimensions lists every probe dimension in a fixed order
var Dimensions = []Dimension{DimensionDomain, DimensionTrademark, DimensionBusiness, DimensionSocial}

const (
	defaultProbeTimeout = 2 * time.Second
	defaultProbeWorkers = 4
)

var errNoChecker = errors.New("no checker configured")

// Checker answers whether a name is available in one dimension
type Checker interface {
	Check(ctx context.Context, name string) (bool, error)
}

// CheckerFunc adapts a plain function to the Checker interface
type CheckerFunc func(ctx context.Context, name string) (bool, error)

// Check calls f(ctx, name)
func (f CheckerFunc) Check(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}

// ProbeOutcome holds the four availability answers for one candidate.
// Degraded lists the dimensions that failed or ran out of time and were
// therefore reported as unavailable.
type ProbeOutcome struct {
	Domain    bool
	Trademark bool
	Business  bool
	Social    bool
	Degraded  []Dimension
}

func (o *ProbeOutcome) set(dim Dimension, ok bool) {
	switch dim {
	case DimensionDomain:
		o.Domain = ok
	case DimensionTrademark:
		o.Trademark = ok
	case DimensionBusiness:
		o.Business = ok
	case DimensionSocial:
		o.Social = ok
	}
}

// DegradedProbe records one dimension check that resolved to false because it failed
type DegradedProbe struct {
	Name      string
	Dimension Dimension
}

// ProberOptions tunes time budgets and fan-out
type ProberOptions struct {
	Timeouts       map[Dimension]time.Duration
	DefaultTimeout time.Duration
	Workers        int // candidates probed at once
}

// Prober runs the availability checks for candidate names
type Prober struct {
	checkers       map[Dimension]Checker
	timeouts       map[Dimension]time.Duration
	defaultTimeout time.Duration
	workers        int
	logger         *zap.Logger
}

// NewProber creates a prober over one checker per dimension
func NewProber(checkers map[Dimension]Checker, opts ProberOptions, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = defaultProbeTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultProbeWorkers
	}

	timeouts := make(map[Dimension]time.Duration, len(opts.Timeouts))
	for dim, d := range opts.Timeouts {
		if d > 0 {
			timeouts[dim] = d
		}
	}

	return &Prober{
		checkers:       checkers,
		timeouts:       timeouts,
		defaultTimeout: opts.DefaultTimeout,
		workers:        opts.Workers,
		logger:         logger,
	}
}

// Probe evaluates all dimensions for one name concurrently
func (p *Prober) Probe(ctx context.Context, name string) ProbeOutcome {
	answers := make([]bool, len(Dimensions))
	errs := make([]error, len(Dimensions))

	var wg sync.WaitGroup
	for i, dim := range Dimensions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			answers[i], errs[i] = p.check(ctx, dim, name)
		}()
	}
	wg.Wait()

	var outcome ProbeOutcome
	for i, dim := range Dimensions {
		if errs[i] != nil {
			outcome.Degraded = append(outcome.Degraded, dim)
			if ctx.Err() == nil {
				p.logger.Warn("probe degraded",
					zap.String("name", name),
					zap.String("dimension", string(dim)),
					zap.Error(errs[i]))
			}
			continue
		}
		outcome.set(dim, answers[i])
	}

	return outcome
}

// ProbeAll probes every name with bounded concurrency and returns results in
// input order. Cancelling ctx abandons the batch and discards partial results.
func (p *Prober) ProbeAll(ctx context.Context, names []string) ([]models.NameResult, []DegradedProbe, error) {
	results := make([]models.NameResult, len(names))
	degraded := make([][]Dimension, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome := p.Probe(gctx, name)
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = NewNameResult(name, outcome)
			degraded[i] = outcome.Degraded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("probe candidates: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("probe candidates: %w", err)
	}

	var report []DegradedProbe
	for i, dims := range degraded {
		for _, dim := range dims {
			report = append(report, DegradedProbe{Name: names[i], Dimension: dim})
		}
	}

	return results, report, nil
}

// check runs one dimension under its own budget. A checker that ignores ctx
// is abandoned when the budget expires.
func (p *Prober) check(ctx context.Context, dim Dimension, name string) (bool, error) {
	checker, ok := p.checkers[dim]
	if !ok || checker == nil {
		return false, errNoChecker
	}

	timeout, ok := p.timeouts[dim]
	if !ok {
		timeout = p.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		ok  bool
		err error
	}
	done := make(chan answer, 1)
	go func() {
		ok, err := checker.Check(ctx, name)
		done <- answer{ok: ok, err: err}
	}()

	select {
	case a := <-done:
		if a.err != nil {
			return false, a.err
		}
		return a.ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
