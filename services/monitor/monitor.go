// Package monitor drives the scan cycle. Each cycle fetches every
// monitored page, extracts litter records, announces the ones not seen
// before and persists the full record set for the next cycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"litterwatch/lib/extract"
	"litterwatch/lib/fetch"
	"litterwatch/lib/litter"
	"litterwatch/lib/scanlog"
	"litterwatch/lib/store"
	"litterwatch/services/notify"
	"litterwatch/services/sources"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("services/monitor")

var ErrScanInProgress = errors.New("a scan is already in progress")

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateWaiting State = "waiting"
	StateStopped State = "stopped"
)

// Fetcher acquires one monitored page. Satisfied by fetch.Chain.
type Fetcher interface {
	Fetch(ctx context.Context, res fetch.Resource) (*fetch.Result, error)
}

// DefaultStrategyOverrides maps hosts to a fetch strategy order that
// replaces the chain default. The vereniging site serves an
// interstitial to the hardened client profile but accepts a plain
// http/2 request, so it skips straight to that.
var DefaultStrategyOverrides = map[string][]string{
	"goldenretrieververeniging.nl": {"http2", "direct", "primed", "browser"},
}

type Options struct {
	Sources    sources.List
	Fetcher    Fetcher
	Extractors *extract.Registry
	Store      store.Store
	// Notifier receives every newly detected litter. Defaults to the
	// log notifier.
	Notifier notify.Notifier
	// History is an optional scan history sink.
	History *scanlog.Store
	// StatusFile is overwritten with the last cycle's summary when
	// set.
	StatusFile string
	// SnapshotDir receives page screenshots when the browser strategy
	// produced one.
	SnapshotDir string
	// Interval is the pause between cycle completions. Defaults to an
	// hour.
	Interval time.Duration
	// StrategyOverrides replaces DefaultStrategyOverrides when set.
	StrategyOverrides map[string][]string
	// Prune removes stored litters no longer present on any page
	// after a cycle that checked every page without errors.
	Prune bool
}

type Service struct {
	options Options

	mu      sync.Mutex
	state   State
	trigger chan struct{}
}

func NewService(options Options) *Service {
	if options.Interval <= 0 {
		options.Interval = time.Hour
	}
	if options.Notifier == nil {
		options.Notifier = notify.Log{}
	}
	if options.StrategyOverrides == nil {
		options.StrategyOverrides = DefaultStrategyOverrides
	}
	return &Service{
		options: options,
		state:   StateIdle,
		trigger: make(chan struct{}, 1),
	}
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Service) beginScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrScanInProgress
	}
	s.state = StateRunning
	return nil
}

// TriggerScan asks the scheduler to start a cycle now instead of at
// the next interval tick.
func (s *Service) TriggerScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrScanInProgress
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
	return nil
}

// RunOnce executes a single scan cycle and reports its summary.
// Returns ErrScanInProgress when a cycle is already running.
func (s *Service) RunOnce(ctx context.Context) (*Cycle, error) {
	err := s.beginScan()
	if err != nil {
		return nil, err
	}
	cycle := s.runCycle(ctx)
	s.setState(StateIdle)
	s.report(ctx, cycle)
	return cycle, nil
}

// Run executes scan cycles until ctx is cancelled. The interval is
// measured between cycle completions, a slow cycle never causes
// overlapping scans.
func (s *Service) Run(ctx context.Context) {
	slog.InfoContext(ctx, "monitor started", "interval", s.options.Interval)

	for {
		err := s.beginScan()
		if err == nil {
			cycle := s.runCycle(ctx)
			s.setState(StateWaiting)
			s.report(ctx, cycle)
		}

		timer := time.NewTimer(s.options.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(StateStopped)
			slog.InfoContext(ctx, "monitor stopped")
			return
		case <-timer.C:
		case <-s.trigger:
			timer.Stop()
		}
	}
}

func (s *Service) runCycle(ctx context.Context) *Cycle {
	cycleId := uuid.NewString()
	ctx, span := tracer.Start(ctx, "monitor:Cycle", trace.WithAttributes(
		attribute.String("cycle_id", cycleId),
	))
	defer span.End()

	cycle := &Cycle{StartTime: time.Now()}
	finish := func(status string) *Cycle {
		cycle.EndTime = time.Now()
		cycle.Status = status
		span.SetAttributes(
			attribute.Int("urls_checked", cycle.UrlsChecked),
			attribute.Int("changes_detected", cycle.ChangesDetected),
			attribute.Int("errors", cycle.Errors),
			attribute.String("status", status),
		)
		slog.InfoContext(ctx, "scan cycle finished",
			"cycle_id", cycleId,
			"status", status,
			"urls_checked", cycle.UrlsChecked,
			"changes_detected", cycle.ChangesDetected,
			"errors", cycle.Errors,
			"duration", cycle.EndTime.Sub(cycle.StartTime).Round(time.Millisecond),
		)
		return cycle
	}

	slog.InfoContext(ctx, "scan cycle started", "cycle_id", cycleId)

	urls, err := s.options.Sources.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load monitored urls", "err", err)
		cycle.Errors++
		return finish(fmt.Sprintf("error: %s", err))
	}
	if len(urls) == 0 {
		slog.WarnContext(ctx, "no urls configured, nothing to scan")
		return finish(StatusNoUrls)
	}

	var collected []litter.Litter
	artifacts := make(map[string]string)

	for _, pageUrl := range urls {
		if ctx.Err() != nil {
			return finish("error: cancelled")
		}

		litters, artifact, err := s.scanResource(ctx, pageUrl)
		cycle.UrlsChecked++
		if err != nil {
			slog.ErrorContext(ctx, "resource scan failed", "url", pageUrl, "err", err)
			span.AddEvent("resource scan failed", trace.WithAttributes(
				attribute.String("url", pageUrl),
				attribute.String("err", err.Error()),
			))
			cycle.Errors++
			continue
		}
		collected = append(collected, litters...)
		if artifact != "" {
			artifacts[pageUrl] = artifact
		}
	}

	newLitters := s.options.Store.DetectNew(ctx, collected)
	cycle.ChangesDetected = len(newLitters)

	for _, l := range newLitters {
		err := s.options.Notifier.NotifyNew(ctx, l, artifacts[l.SourceURL])
		if err != nil {
			slog.ErrorContext(ctx, "failed to announce new litter",
				"kennel", l.KennelName, "source", l.Source, "err", err)
			cycle.Errors++
		}
	}

	// Update runs even when nothing is new so last_updated reflects
	// the cycle. A failed write leaves announced litters undetected in
	// the store, they will be re-announced next cycle.
	err = s.options.Store.Update(ctx, collected)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist litter state", "err", err)
		cycle.Errors++
	}

	if s.options.Prune && cycle.Errors == 0 && cycle.UrlsChecked == len(urls) {
		keep := make(map[string]struct{}, len(collected))
		for _, l := range collected {
			keep[l.ID] = struct{}{}
		}
		err := s.options.Store.Prune(ctx, keep)
		if err != nil {
			slog.ErrorContext(ctx, "failed to prune stale litters", "err", err)
			cycle.Errors++
		}
	}

	if cycle.Errors > 0 {
		return finish(StatusCompletedWithErrors)
	}
	return finish(StatusSuccess)
}

func (s *Service) scanResource(ctx context.Context, pageUrl string) ([]litter.Litter, string, error) {
	extractor, source := s.options.Extractors.Lookup(pageUrl)

	result, err := s.options.Fetcher.Fetch(ctx, fetch.Resource{
		URL:        pageUrl,
		Label:      source,
		Strategies: s.strategiesFor(pageUrl),
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}

	litters, err := extractor.Extract(ctx, result.Body)
	if err != nil {
		return nil, "", fmt.Errorf("extract: %w", err)
	}
	litters = litter.Tag(litters, source, pageUrl)

	artifact := ""
	if len(result.Screenshot) > 0 && s.options.SnapshotDir != "" {
		artifact, err = writeSnapshot(s.options.SnapshotDir, pageUrl, result.Screenshot)
		if err != nil {
			slog.WarnContext(ctx, "failed to save screenshot", "url", pageUrl, "err", err)
			artifact = ""
		}
	}

	slog.InfoContext(ctx, "scanned resource",
		"source", source,
		"url", pageUrl,
		"strategy", result.Strategy,
		"litters", len(litters),
	)
	return litters, artifact, nil
}

func (s *Service) strategiesFor(pageUrl string) []string {
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return nil
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return s.options.StrategyOverrides[host]
}

func (s *Service) report(ctx context.Context, cycle *Cycle) {
	if s.options.StatusFile != "" {
		err := WriteStatus(s.options.StatusFile, cycle)
		if err != nil {
			slog.ErrorContext(ctx, "failed to write status file", "err", err)
		}
	}
	if s.options.History != nil {
		err := s.options.History.Append(ctx, scanlog.Record{
			StartTime:       cycle.StartTime,
			EndTime:         cycle.EndTime,
			DurationSeconds: cycle.EndTime.Sub(cycle.StartTime).Seconds(),
			UrlsChecked:     cycle.UrlsChecked,
			ChangesDetected: cycle.ChangesDetected,
			Errors:          cycle.Errors,
			Status:          cycle.Status,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to append scan history", "err", err)
		}
	}
}
