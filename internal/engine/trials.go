package engine

import (
	"context"
	"strings"

	"github.com/dhanyyudi/bmkg-alert/internal/notify"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// Trial sub-pipeline: time-bounded Telegram subscriptions matched against the
// same warnings as the main pipeline, but with their own location fields and
// per-trial severity threshold. Details fetched by the main pipeline are
// reused; only codes that failed there are refetched.

// processTrials walks the cycle's warnings against every active trial.
// Skipped entirely when no trial messenger is configured.
func (e *Engine) processTrials(ctx context.Context, summary *CycleSummary, list []types.NowcastListItem, details map[string]*types.NowcastDetail) {
	if e.trials == nil {
		return
	}

	trials, err := e.state.ActiveTrials(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, "load trials: "+err.Error())
		e.logger.Error("loading trials failed", "error", err)
		return
	}
	if len(trials) == 0 {
		return
	}

	for _, item := range list {
		detail, ok := details[item.Code]
		if !ok {
			detail, err = e.fetchDetail(ctx, item.Code)
			if err != nil {
				e.logger.Warn("trial detail fetch failed", "code", item.Code, "error", err)
				continue
			}
		}

		for _, warning := range detail.Warnings {
			if warning.IsExpired {
				continue
			}
			for _, trial := range trials {
				if !trialSeverityAccepts(trial.SeverityThreshold, warning.Severity) {
					continue
				}
				matchType, matchedText, ok := matchTrial(warning, trial)
				if !ok {
					continue
				}

				message := notify.FormatTrialMessage(warning, trial, matchType, matchedText)
				if err := e.trials.SendMessage(ctx, trial.TelegramChatID, message); err != nil {
					e.logger.Warn("trial notification failed",
						"trial_id", trial.ID, "chat_id", trial.TelegramChatID, "error", err)
					continue
				}
				summary.TrialNotifications++
			}
		}
	}
}

// expireTrials flips lapsed trials and sends each a farewell.
func (e *Engine) expireTrials(ctx context.Context, summary *CycleSummary) {
	expired, err := e.state.ExpireTrials(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, "expire trials: "+err.Error())
		e.logger.Error("trial expiry sweep failed", "error", err)
		return
	}
	summary.TrialsExpired = len(expired)

	if e.trials == nil {
		return
	}
	for _, trial := range expired {
		if err := e.trials.SendMessage(ctx, trial.TelegramChatID, notify.FormatTrialFarewell(trial)); err != nil {
			e.logger.Warn("trial farewell failed", "trial_id", trial.ID, "error", err)
		}
	}
}

// trialSeverityAccepts applies the per-trial threshold. "all" (or empty)
// means no threshold.
func trialSeverityAccepts(threshold string, severity types.Severity) bool {
	if threshold == "" || strings.EqualFold(threshold, "all") {
		return true
	}
	return severity.Level() >= types.ParseSeverity(threshold).Level()
}

// matchTrial applies the kecamatan-primary / kabupaten-fallback rules against
// the trial's own location fields.
func matchTrial(warning types.Warning, trial types.TrialSubscription) (types.MatchType, string, bool) {
	description := strings.ToLower(warning.Description)

	subdistrict := strings.ToLower(trial.SubdistrictName)
	if subdistrict != "" && strings.Contains(description, subdistrict) {
		return types.MatchKecamatan, trial.SubdistrictName, true
	}

	district := strings.ToLower(trial.DistrictName)
	if district == "" {
		return "", "", false
	}
	for _, area := range warning.Areas {
		if strings.Contains(strings.ToLower(area.Name), district) {
			return types.MatchKabupaten, trial.DistrictName, true
		}
	}
	return "", "", false
}
