package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLoadFailed  AlertType = "load_failed"
	AlertFailureRate AlertType = "load_failure_rate"
	AlertLowQuality  AlertType = "low_data_quality"
)

// minRunsForRate is the number of runs needed before the failure rate is judged.
const minRunsForRate = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// rule inspects a snapshot and reports an alert when its condition holds.
type rule func(cfg config.MonitoringConfig, snap *Snapshot) (Alert, bool)

var rules = []rule{latestRunFailed, failureRateHigh, qualityLow}

func latestRunFailed(_ config.MonitoringConfig, snap *Snapshot) (Alert, bool) {
	if snap.LatestStatus != model.AuditStatusFailed {
		return Alert{}, false
	}
	return Alert{
		Type:     AlertLoadFailed,
		Severity: "high",
		Message:  fmt.Sprintf("Load run %s failed: %s", snap.LatestRunID, snap.LatestError),
		Details:  map[string]any{"run_id": snap.LatestRunID, "error": snap.LatestError},
	}, true
}

func failureRateHigh(cfg config.MonitoringConfig, snap *Snapshot) (Alert, bool) {
	limit := cfg.FailureRateThreshold
	if limit <= 0 || snap.Runs < minRunsForRate || snap.FailRate <= limit {
		return Alert{}, false
	}
	return Alert{
		Type:     AlertFailureRate,
		Severity: "medium",
		Message: fmt.Sprintf("Load failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d runs)",
			snap.FailRate*100, limit*100, snap.Failed, snap.Runs),
		Details: map[string]any{
			"failure_rate": snap.FailRate,
			"threshold":    limit,
			"failed":       snap.Failed,
			"runs":         snap.Runs,
		},
	}, true
}

func qualityLow(cfg config.MonitoringConfig, snap *Snapshot) (Alert, bool) {
	limit := cfg.QualityThreshold
	if limit <= 0 || snap.TotalRows == 0 || snap.AvgQuality >= limit {
		return Alert{}, false
	}
	return Alert{
		Type:     AlertLowQuality,
		Severity: "low",
		Message: fmt.Sprintf("Average data quality %.2f is below threshold %.2f across %d companies",
			snap.AvgQuality, limit, snap.TotalRows),
		Details: map[string]any{
			"avg_quality":  snap.AvgQuality,
			"threshold":    limit,
			"total_rows":   snap.TotalRows,
			"complete_pct": snap.CompletePct,
		},
	}, true
}

// Alerter turns warehouse snapshots into alerts and posts them to a webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	log    *zap.Logger
}

// NewAlerter creates an Alerter for cfg.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    zap.L().With(zap.String("component", "monitoring.alerter")),
	}
}

// Evaluate returns the alerts whose conditions hold for snap, in rule order.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	now := time.Now().UTC()
	var alerts []Alert
	for _, r := range rules {
		if alert, ok := r(a.cfg, snap); ok {
			alert.Timestamp = now
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// SendAlerts posts each alert to the webhook and returns how many were
// accepted. A failed post is logged and skipped.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" {
		return 0
	}
	sent := 0
	for _, alert := range alerts {
		fields := []zap.Field{zap.String("type", string(alert.Type)), zap.String("severity", alert.Severity)}
		if err := a.sendWebhook(ctx, alert); err != nil {
			a.log.Error("alert delivery failed", append(fields, zap.Error(err))...)
			continue
		}
		a.log.Info("alert delivered", fields...)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode/100 != 2 {
		return eris.Errorf("monitoring: webhook %s returned status %d", alert.Type, resp.StatusCode)
	}
	return nil
}
