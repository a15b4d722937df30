// Package engine runs the periodic alert poll cycle.
//
// The engine polls the nowcast feed, matches warnings against monitored
// locations, stores new alerts behind the dedup constraint, fans them out
// through the dispatcher, sweeps expired alerts, and drives the trial
// sub-pipeline. It owns all scheduling state (running flag, last poll
// timestamp and result, stop signal); persistent state lives behind the
// State interface.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dhanyyudi/bmkg-alert/internal/matcher"
	"github.com/dhanyyudi/bmkg-alert/internal/notify"
	"github.com/dhanyyudi/bmkg-alert/internal/store"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// Upstream is the nowcast feed the engine polls.
type Upstream interface {
	ListNowcast(ctx context.Context) ([]types.NowcastListItem, error)
	GetNowcastDetail(ctx context.Context, code string) (*types.NowcastDetail, error)
}

// State is what the engine needs from the state manager.
type State interface {
	EnabledLocations(ctx context.Context) ([]types.Location, error)
	EnabledChannels(ctx context.Context) ([]types.NotificationChannel, error)
	IsDuplicate(ctx context.Context, alertCode, locationID string) (bool, error)
	StoreAlert(ctx context.Context, warning types.Warning, match types.Match, alertCode string) (*types.Alert, error)
	MarkExpiredAlerts(ctx context.Context) ([]types.Alert, error)
	MarkAlertExpiryNotified(ctx context.Context, alertID string) error
	ConfigValue(ctx context.Context, key string) (string, error)
	LogActivity(ctx context.Context, eventType, message, details string)
	ActiveTrials(ctx context.Context) ([]types.TrialSubscription, error)
	ExpireTrials(ctx context.Context) ([]types.TrialSubscription, error)
}

// Dispatcher fans one stored alert out to one channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, alertID string, warning types.Warning, match types.Match, channel types.NotificationChannel) (types.DeliveryStatus, error)
	SendRaw(ctx context.Context, channel types.NotificationChannel, message string) error
}

// TrialMessenger sends trial-pipeline messages through the system bot.
type TrialMessenger interface {
	SendMessage(ctx context.Context, chatID, message string) error
}

// DetailCache memoizes nowcast details across cycles. Optional: a nil cache
// degrades to direct fetches.
type DetailCache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Config holds engine configuration.
type Config struct {
	// DefaultInterval is used when the poll_interval config key is absent or
	// unparseable.
	DefaultInterval time.Duration

	// DetailCacheTTL bounds how long a fetched nowcast detail stays reusable.
	DetailCacheTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultInterval: 5 * time.Minute,
		DetailCacheTTL:  10 * time.Minute,
	}
}

// CycleSummary is the counter set of one poll cycle.
type CycleSummary struct {
	WarningsFetched    int      `json:"warnings_fetched"`
	DetailsFetched     int      `json:"details_fetched"`
	MatchesFound       int      `json:"matches_found"`
	NewAlerts          int      `json:"new_alerts"`
	DuplicatesSkipped  int      `json:"duplicates_skipped"`
	NotificationsSent  int      `json:"notifications_sent"`
	ExpiredAlerts      int      `json:"expired_alerts"`
	TrialNotifications int      `json:"trial_notifications"`
	TrialsExpired      int      `json:"trials_expired"`
	Errors             []string `json:"errors,omitempty"`
}

// Result renders the short last_poll_result string for a completed cycle.
func (s *CycleSummary) Result() string {
	return fmt.Sprintf("OK: %d new, %d dupes, %d expired", s.NewAlerts, s.DuplicatesSkipped, s.ExpiredAlerts)
}

// Status is a snapshot of the engine's scheduling state.
type Status struct {
	Running        bool      `json:"running"`
	LastPoll       time.Time `json:"last_poll"`
	LastPollResult string    `json:"last_poll_result"`
}

// Engine owns the poll loop.
type Engine struct {
	upstream   Upstream
	state      State
	dispatcher Dispatcher
	trials     TrialMessenger
	cache      DetailCache
	config     Config
	logger     *slog.Logger

	mu             sync.Mutex
	running        bool
	lastPoll       time.Time
	lastPollResult string
	stopCh         chan struct{}
	doneCh         chan struct{}
	cancel         context.CancelFunc
}

// New creates an engine. trials and cache may be nil: without a trial
// messenger the trial sub-pipeline is skipped, without a cache details are
// refetched.
func New(upstream Upstream, state State, dispatcher Dispatcher, trials TrialMessenger, cache DetailCache, config Config, logger *slog.Logger) *Engine {
	return &Engine{
		upstream:   upstream,
		state:      state,
		dispatcher: dispatcher,
		trials:     trials,
		cache:      cache,
		config:     config,
		logger:     logger.With("component", "engine"),
	}
}

// Start begins the poll loop. A second Start while running is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.logger.Warn("start ignored: engine already running")
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	stopCh, doneCh := e.stopCh, e.doneCh
	e.mu.Unlock()

	e.state.LogActivity(ctx, "engine_started", "alert engine started", "")
	go e.run(runCtx, stopCh, doneCh)
}

// Stop signals the loop and waits for it to exit. An in-flight cycle observes
// the cancellation at its next suspension point and unwinds with a partial
// summary. A Stop while not running is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	stopCh, doneCh, cancel := e.stopCh, e.doneCh, e.cancel
	e.mu.Unlock()

	cancel()
	close(stopCh)
	<-doneCh

	e.state.LogActivity(context.Background(), "engine_stopped", "alert engine stopped", "")
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Status returns a snapshot of the scheduling state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Running:        e.running,
		LastPoll:       e.lastPoll,
		LastPollResult: e.lastPollResult,
	}
}

// CheckNow runs exactly one cycle synchronously on the caller's goroutine.
// It does not affect the loop's schedule.
func (e *Engine) CheckNow(ctx context.Context) *CycleSummary {
	return e.runPollCycle(ctx)
}

func (e *Engine) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(doneCh)
	}()

	e.logger.Info("poll loop started")

	for {
		e.runPollCycle(ctx)

		interval := e.pollInterval(ctx)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.Info("poll loop stopping (context cancelled)")
			return
		case <-stopCh:
			timer.Stop()
			e.logger.Info("poll loop stopping (stop signal)")
			return
		case <-timer.C:
		}
	}
}

// pollInterval re-reads the interval from runtime config after every cycle so
// admin changes take effect without a restart.
func (e *Engine) pollInterval(ctx context.Context) time.Duration {
	raw, err := e.state.ConfigValue(ctx, "poll_interval")
	if err != nil {
		return e.config.DefaultInterval
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return e.config.DefaultInterval
	}
	return time.Duration(seconds) * time.Second
}

func (e *Engine) setPollResult(result string) {
	e.mu.Lock()
	e.lastPoll = time.Now().UTC()
	e.lastPollResult = result
	e.mu.Unlock()
}

// runPollCycle is one full pass: list, match, store, dispatch, expiry sweep,
// trials. Per-item failures are contained; only cancellation ends the loop.
func (e *Engine) runPollCycle(ctx context.Context) *CycleSummary {
	start := time.Now()
	summary := &CycleSummary{}

	list, err := e.upstream.ListNowcast(ctx)
	if err != nil {
		result := "error: " + err.Error()
		e.setPollResult(result)
		e.logger.Error("nowcast list failed", "error", err)
		e.state.LogActivity(ctx, "poll_error", result, "")
		return summary
	}

	if len(list) == 0 {
		e.setPollResult("no warnings")
		e.logger.Debug("poll cycle complete", "result", "no warnings", "duration", time.Since(start))
		e.state.LogActivity(ctx, "poll_completed", "no warnings", "")
		return summary
	}

	locations, err := e.state.EnabledLocations(ctx)
	if err != nil {
		result := "error: " + err.Error()
		e.setPollResult(result)
		e.logger.Error("loading locations failed", "error", err)
		e.state.LogActivity(ctx, "poll_error", result, "")
		return summary
	}
	if len(locations) == 0 {
		e.setPollResult("no locations configured")
		e.state.LogActivity(ctx, "poll_completed", "no locations configured", "")
		return summary
	}

	channels, err := e.state.EnabledChannels(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, "load channels: "+err.Error())
		e.logger.Error("loading channels failed", "error", err)
	}

	// Details fetched this cycle, reused by the trial sub-pipeline.
	details := make(map[string]*types.NowcastDetail, len(list))

	for _, item := range list {
		if ctx.Err() != nil {
			return e.abortCycle(ctx, summary)
		}

		detail, err := e.fetchDetail(ctx, item.Code)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("detail %s: %v", item.Code, err))
			e.logger.Warn("detail fetch failed", "code", item.Code, "error", err)
			e.state.LogActivity(ctx, "detail_fetch_error", err.Error(), item.Code)
			continue
		}
		summary.DetailsFetched++
		details[item.Code] = detail

		for _, warning := range detail.Warnings {
			if warning.IsExpired {
				continue
			}
			summary.WarningsFetched++

			matches := matcher.Match(warning, locations)
			summary.MatchesFound += len(matches)

			for _, match := range matches {
				if ctx.Err() != nil {
					return e.abortCycle(ctx, summary)
				}

				dup, err := e.state.IsDuplicate(ctx, item.Code, match.Location.ID)
				if err != nil {
					summary.Errors = append(summary.Errors, fmt.Sprintf("dedup check %s: %v", item.Code, err))
					continue
				}
				if dup {
					summary.DuplicatesSkipped++
					continue
				}

				alert, err := e.state.StoreAlert(ctx, warning, match, item.Code)
				if err != nil {
					// A racing insert lost to the unique constraint: already
					// handled, not an error.
					if errors.Is(err, store.ErrDuplicateAlert) {
						summary.DuplicatesSkipped++
						continue
					}
					summary.Errors = append(summary.Errors, fmt.Sprintf("store alert %s: %v", item.Code, err))
					continue
				}
				summary.NewAlerts++

				for _, channel := range channels {
					status, err := e.dispatcher.Dispatch(ctx, alert.ID, warning, match, channel)
					if err != nil {
						summary.Errors = append(summary.Errors, fmt.Sprintf("dispatch %s/%s: %v", alert.ID, channel.ID, err))
						continue
					}
					if status == types.DeliverySent {
						summary.NotificationsSent++
					}
				}
			}
		}
	}

	if ctx.Err() != nil {
		return e.abortCycle(ctx, summary)
	}

	e.sweepExpiredAlerts(ctx, summary, channels)
	e.processTrials(ctx, summary, list, details)
	e.expireTrials(ctx, summary)

	result := summary.Result()
	e.setPollResult(result)

	detailsJSON, _ := json.Marshal(summary)
	e.state.LogActivity(ctx, "poll_completed", result, string(detailsJSON))
	e.logger.Info("poll cycle complete",
		"result", result,
		"warnings", summary.WarningsFetched,
		"new_alerts", summary.NewAlerts,
		"duplicates", summary.DuplicatesSkipped,
		"sent", summary.NotificationsSent,
		"errors", len(summary.Errors),
		"duration", time.Since(start),
	)
	return summary
}

// abortCycle records the partial summary when cancellation cuts a cycle
// short. The cycle context is already dead, so the log write must not be.
func (e *Engine) abortCycle(ctx context.Context, summary *CycleSummary) *CycleSummary {
	result := "cancelled: " + summary.Result()
	e.setPollResult(result)

	detailsJSON, _ := json.Marshal(summary)
	e.state.LogActivity(context.WithoutCancel(ctx), "poll_cycle_error", result, string(detailsJSON))
	e.logger.Info("poll cycle cancelled", "result", result)
	return summary
}

// fetchDetail fetches one nowcast detail, consulting the cache first.
func (e *Engine) fetchDetail(ctx context.Context, code string) (*types.NowcastDetail, error) {
	cacheKey := "nowcast_detail:" + code

	if e.cache != nil {
		var cached types.NowcastDetail
		hit, err := e.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			e.logger.Warn("detail cache read failed", "code", code, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	detail, err := e.upstream.GetNowcastDetail(ctx, code)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.SetJSON(ctx, cacheKey, detail, e.config.DetailCacheTTL); err != nil {
			e.logger.Warn("detail cache write failed", "code", code, "error", err)
		}
	}
	return detail, nil
}

// sweepExpiredAlerts transitions lapsed alerts and sends the all-clear notice
// once per alert through the enabled channels.
func (e *Engine) sweepExpiredAlerts(ctx context.Context, summary *CycleSummary, channels []types.NotificationChannel) {
	expired, err := e.state.MarkExpiredAlerts(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, "expiry sweep: "+err.Error())
		e.logger.Error("expiry sweep failed", "error", err)
		return
	}
	summary.ExpiredAlerts = len(expired)

	for _, alert := range expired {
		if alert.ExpiredNotified {
			continue
		}
		message := notify.FormatExpiryMessage(alert)
		for _, channel := range channels {
			if err := e.dispatcher.SendRaw(ctx, channel, message); err != nil {
				e.logger.Warn("expiry notice failed", "alert_id", alert.ID, "channel_id", channel.ID, "error", err)
			}
		}
		if err := e.state.MarkAlertExpiryNotified(ctx, alert.ID); err != nil {
			e.logger.Warn("marking expiry notified failed", "alert_id", alert.ID, "error", err)
		}
	}
}
