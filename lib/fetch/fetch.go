// Package fetch acquires pages from sites that actively resist
// automated access. A chain of independently configured strategies is
// tried in order from cheapest to heaviest, the first well-formed
// response wins.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"litterwatch/lib/restyutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fetch")

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables request/response transcript dumps
// for HTTP strategy clients built after the call.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

// Resource is one monitored page plus the ordered set of strategy
// names allowed to fetch it. An empty Strategies list falls back to
// the chain's default order.
type Resource struct {
	URL        string
	Label      string
	Strategies []string
}

// Result is a successfully acquired page.
type Result struct {
	// Body is the normalized page text.
	Body string
	// Strategy names the strategy that produced the body.
	Strategy string
	// Screenshot is a full-page PNG, set only when the browser
	// strategy won.
	Screenshot []byte
}

// Strategy is one way of acquiring a page. Implementations keep their
// client identity and session state to themselves.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, res Resource) (*Result, error)
}

// Attempt records why one strategy failed on one resource.
type Attempt struct {
	Strategy string
	Err      error
}

// ExhaustedError reports that every applicable strategy failed,
// retaining the per-strategy reasons.
type ExhaustedError struct {
	URL      string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all strategies failed for %s:", e.URL)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %s", a.Strategy, a.Err)
	}
	return b.String()
}

type ChainOptions struct {
	// PoliteDelay is slept before every fetch to bound the request
	// rate against a single site. Zero skips the delay.
	PoliteDelay time.Duration
	// AttemptTimeout bounds a single strategy attempt. Defaults to a
	// minute, the browser strategy needs the headroom.
	AttemptTimeout time.Duration
}

// Chain tries strategies in declared order and returns the first
// success.
type Chain struct {
	strategies map[string]Strategy
	order      []string
	delay      time.Duration
	timeout    time.Duration
}

func NewChain(opts ChainOptions, strategies ...Strategy) *Chain {
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	byName := make(map[string]Strategy, len(strategies))
	order := make([]string, 0, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
		order = append(order, s.Name())
	}

	return &Chain{
		strategies: byName,
		order:      order,
		delay:      opts.PoliteDelay,
		timeout:    timeout,
	}
}

// Order returns the default strategy order.
func (c *Chain) Order() []string {
	return append([]string{}, c.order...)
}

// Fetch acquires the resource. Cancellation is honored before the
// first attempt and between attempts, a started attempt always runs to
// completion or to its own timeout.
func (c *Chain) Fetch(ctx context.Context, res Resource) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("url", res.URL),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	order := res.Strategies
	if len(order) == 0 {
		order = c.order
	}

	var attempts []Attempt
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		strat, ok := c.strategies[name]
		if !ok {
			attempts = append(attempts, Attempt{
				Strategy: name,
				Err:      fmt.Errorf("unknown strategy"),
			})
			continue
		}

		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		result, err := strat.Fetch(attemptCtx, res)
		cancel()
		if err != nil {
			slog.WarnContext(ctx, "strategy failed",
				"url", res.URL,
				"strategy", name,
				"err", err,
			)
			span.AddEvent("strategy failed", trace.WithAttributes(
				attribute.String("strategy", name),
				attribute.String("err", err.Error()),
			))
			attempts = append(attempts, Attempt{Strategy: name, Err: err})
			continue
		}

		slog.DebugContext(ctx, "fetched",
			"url", res.URL,
			"strategy", name,
			"bytes", len(result.Body),
		)
		return result, nil
	}

	err := &ExhaustedError{URL: res.URL, Attempts: attempts}
	span.RecordError(err)
	span.SetStatus(codes.Error, "all strategies failed")
	return nil, err
}
