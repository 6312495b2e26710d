package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNewBootstrapDefaults(t *testing.T) {
	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, 30*time.Second, bc.Server.Http.Timeout.AsDuration())
	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)

	r := bc.Reliability
	assert.Equal(t, DefaultLatencyThresholdMs, r.LatencyThresholdMs)
	assert.Equal(t, DefaultRetention, r.Retention.AsDuration())
	assert.Equal(t, DefaultEvaluationCron, r.EvaluationCron)
	assert.Equal(t, DefaultBudgetCriticalThreshold, r.BudgetCriticalThreshold)

	require.Len(t, r.Breakers, 2)
	assert.Equal(t, "database", r.Breakers[0].Name)
	assert.Equal(t, 3, r.Breakers[0].FailureThreshold)
	assert.Equal(t, 30*time.Second, r.Breakers[0].RecoveryTimeout.AsDuration())
	assert.Equal(t, "external_api", r.Breakers[1].Name)

	require.Len(t, r.Slos, 4)
	assert.Equal(t, "availability", r.Slos[0].Name)
	assert.Equal(t, 99.9, r.Slos[0].TargetPercent)
	assert.Equal(t, 7, r.Slos[3].WindowDays)
}

func TestNewBootstrapFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: ":9090"
    timeout: 5s
log:
  level: debug
  format: console
reliability:
  latency_threshold_ms: 300
  retention: 192h
  budget_critical_threshold: 0.25
  breakers:
    - name: payment_gateway
      failure_threshold: 2
      recovery_timeout: 45s
  slos:
    - name: availability
      sli_name: availability_sli
      target_percent: 99.5
      window_days: 7
`)

	bc, err := NewBootstrap(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", bc.Server.Http.Addr)
	assert.Equal(t, "debug", bc.Log.Level)
	assert.Equal(t, 300.0, bc.Reliability.LatencyThresholdMs)
	assert.Equal(t, 0.25, bc.Reliability.BudgetCriticalThreshold)

	require.Len(t, bc.Reliability.Breakers, 1)
	b := bc.Reliability.Breakers[0]
	assert.Equal(t, "payment_gateway", b.Name)
	assert.Equal(t, 2, b.FailureThreshold)
	assert.Equal(t, 45*time.Second, b.RecoveryTimeout.AsDuration())

	require.Len(t, bc.Reliability.Slos, 1)
	assert.Equal(t, 7, bc.Reliability.Slos[0].WindowDays)
}

func TestNewBootstrapEnvOverride(t *testing.T) {
	t.Setenv("RELGUARD_SERVER_HTTP_ADDR", ":7070")
	t.Setenv("RELGUARD_LOG_LEVEL", "warn")

	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", bc.Server.Http.Addr)
	assert.Equal(t, "warn", bc.Log.Level)
}

func TestNewBootstrapMissingFile(t *testing.T) {
	_, err := NewBootstrap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsShortRetention(t *testing.T) {
	path := writeConfig(t, `
reliability:
  retention: 24h
`)

	_, err := NewBootstrap(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reliability.retention")
}

func TestValidateCollectsAllInvalidFields(t *testing.T) {
	bc := &Bootstrap{
		Server: &Server{Http: &Server_HTTP{}},
		Reliability: &Reliability{
			LatencyThresholdMs:      -1,
			BudgetCriticalThreshold: 1.5,
			Retention:               durationpb.New(DefaultRetention),
			Breakers: []*Breaker{
				{Name: "", FailureThreshold: 0},
			},
			Slos: []*SLO{
				{Name: "availability", SliName: "availability_sli", TargetPercent: 120, WindowDays: 0},
			},
		},
	}

	err := Validate(bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http.addr")
	assert.Contains(t, err.Error(), "latency_threshold_ms")
	assert.Contains(t, err.Error(), "budget_critical_threshold")
	assert.Contains(t, err.Error(), "target_percent")
	assert.Contains(t, err.Error(), "window_days")
	assert.Contains(t, err.Error(), "failure_threshold")
	assert.Contains(t, err.Error(), "recovery_timeout")
}

func TestDefaultSlosCatalogue(t *testing.T) {
	slos := DefaultSlos()
	require.Len(t, slos, 4)

	names := make([]string, 0, len(slos))
	for _, s := range slos {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"availability", "latency_p95", "error_rate", "freshness"}, names)
}
