package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/model"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, LookbackRuns: 5}
	checker := NewChecker(NewCollector(&mockSource{}), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(NewCollector(&mockSource{}), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})
	assert.NotNil(t, checker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_CheckSendsAlerts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := config.MonitoringConfig{WebhookURL: srv.URL, LookbackRuns: 5}
	src := &mockSource{audits: []model.AuditEntry{{RunID: "ETL_9", Status: model.AuditStatusFailed}}}
	checker := NewChecker(NewCollector(src), NewAlerter(cfg), cfg)

	assert.Equal(t, 1, checker.Check(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
}

func TestChecker_CheckCollectError(t *testing.T) {
	cfg := config.MonitoringConfig{WebhookURL: "http://127.0.0.1:1"}
	src := &mockSource{auditErr: assert.AnError}
	checker := NewChecker(NewCollector(src), NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.Check(context.Background()))
}

func TestChecker_FailedRunReportedOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.MonitoringConfig{WebhookURL: srv.URL}
	src := &mockSource{audits: []model.AuditEntry{{RunID: "ETL_20260501_080000", Status: model.AuditStatusFailed}}}
	checker := NewChecker(NewCollector(src), NewAlerter(cfg), cfg)

	assert.Equal(t, 1, checker.Check(context.Background()))
	assert.Equal(t, 0, checker.Check(context.Background()))

	src.audits = append([]model.AuditEntry{{RunID: "ETL_20260502_080000", Status: model.AuditStatusFailed}}, src.audits...)
	assert.Equal(t, 1, checker.Check(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}
