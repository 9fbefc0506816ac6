package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/model"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25, QualityThreshold: 0.7})

	alerts := a.Evaluate(&Snapshot{
		Runs:         10,
		Succeeded:    10,
		LatestStatus: model.AuditStatusSuccess,
		TotalRows:    100,
		AvgQuality:   0.9,
	})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_LatestFailed(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	alerts := a.Evaluate(&Snapshot{
		Runs:         1,
		Failed:       1,
		FailRate:     1,
		LatestRunID:  "ETL_20260101_000000",
		LatestStatus: model.AuditStatusFailed,
		LatestError:  "merge: apply failed",
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLoadFailed, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "ETL_20260101_000000")
}

func TestAlerter_Evaluate_FailureRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})

	alerts := a.Evaluate(&Snapshot{
		Runs:         8,
		Failed:       4,
		Succeeded:    4,
		FailRate:     0.5,
		LatestStatus: model.AuditStatusSuccess,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertFailureRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "50.0%")
}

func TestAlerter_Evaluate_FailureRateNeedsEnoughRuns(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})

	alerts := a.Evaluate(&Snapshot{Runs: 4, Failed: 2, FailRate: 0.5, LatestStatus: model.AuditStatusSuccess})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_LowQuality(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{QualityThreshold: 0.7})

	alerts := a.Evaluate(&Snapshot{TotalRows: 50, AvgQuality: 0.55, CompletePct: 20})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLowQuality, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "0.55")

	// An empty table is not judged.
	assert.Empty(t, a.Evaluate(&Snapshot{AvgQuality: 0}))
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var alert Alert
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.Equal(t, AlertLoadFailed, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertLoadFailed, Severity: "high", Message: "one"},
		{Type: AlertLoadFailed, Severity: "high", Message: "two"},
	})
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertLowQuality}}))
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertLoadFailed}}))
}
