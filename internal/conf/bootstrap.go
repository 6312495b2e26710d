// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Default reliability settings, used when the config file leaves them out.
const (
	// DefaultLatencyThresholdMs is the latency-compliance threshold for the
	// latency SLI.
	DefaultLatencyThresholdMs = 200.0
	// DefaultRetention keeps hour buckets slightly longer than the longest
	// default SLO window (30 days).
	DefaultRetention = 31 * 24 * time.Hour
	// DefaultEvaluationCron runs the SLO evaluation job every 5 minutes.
	DefaultEvaluationCron = "0 */5 * * * *"
	// DefaultBudgetCriticalThreshold flags a budget critical when less than
	// half of it remains.
	DefaultBudgetCriticalThreshold = 0.5
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with RELGUARD_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable support with RELGUARD_ prefix
	v.SetEnvPrefix("RELGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	breakers, err := parseBreakers(v)
	if err != nil {
		return nil, err
	}

	slos, err := parseSlos(v)
	if err != nil {
		return nil, err
	}

	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
		Reliability: &Reliability{
			LatencyThresholdMs:      v.GetFloat64("reliability.latency_threshold_ms"),
			Retention:               durationpb.New(v.GetDuration("reliability.retention")),
			EvaluationCron:          v.GetString("reliability.evaluation_cron"),
			BudgetCriticalThreshold: v.GetFloat64("reliability.budget_critical_threshold"),
			Breakers:                breakers,
			Slos:                    slos,
		},
	}

	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Reliability defaults
	v.SetDefault("reliability.latency_threshold_ms", DefaultLatencyThresholdMs)
	v.SetDefault("reliability.retention", DefaultRetention)
	v.SetDefault("reliability.evaluation_cron", DefaultEvaluationCron)
	v.SetDefault("reliability.budget_critical_threshold", DefaultBudgetCriticalThreshold)
}

// parseBreakers reads the breaker definitions from configuration.
// When none are configured, the default breaker set is returned: one for the
// database and one for external service calls.
func parseBreakers(v *viper.Viper) ([]*Breaker, error) {
	var raw []struct {
		Name             string        `mapstructure:"name"`
		FailureThreshold int           `mapstructure:"failure_threshold"`
		RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	}
	if err := v.UnmarshalKey("reliability.breakers", &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reliability.breakers: %w", err)
	}

	if len(raw) == 0 {
		return []*Breaker{
			{Name: "database", FailureThreshold: 3, RecoveryTimeout: durationpb.New(30 * time.Second)},
			{Name: "external_api", FailureThreshold: 5, RecoveryTimeout: durationpb.New(60 * time.Second)},
		}, nil
	}

	breakers := make([]*Breaker, 0, len(raw))
	for _, b := range raw {
		breakers = append(breakers, &Breaker{
			Name:             b.Name,
			FailureThreshold: b.FailureThreshold,
			RecoveryTimeout:  durationpb.New(b.RecoveryTimeout),
		})
	}

	return breakers, nil
}

// parseSlos reads the SLO catalogue from configuration.
// When none are configured, the default catalogue is returned.
func parseSlos(v *viper.Viper) ([]*SLO, error) {
	var raw []struct {
		Name          string  `mapstructure:"name"`
		SliName       string  `mapstructure:"sli_name"`
		TargetPercent float64 `mapstructure:"target_percent"`
		WindowDays    int     `mapstructure:"window_days"`
	}
	if err := v.UnmarshalKey("reliability.slos", &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reliability.slos: %w", err)
	}

	if len(raw) == 0 {
		return DefaultSlos(), nil
	}

	slos := make([]*SLO, 0, len(raw))
	for _, s := range raw {
		slos = append(slos, &SLO{
			Name:          s.Name,
			SliName:       s.SliName,
			TargetPercent: s.TargetPercent,
			WindowDays:    s.WindowDays,
		})
	}

	return slos, nil
}

// DefaultSlos returns the built-in SLO catalogue: availability, latency
// compliance, error rate and data freshness.
func DefaultSlos() []*SLO {
	return []*SLO{
		{Name: "availability", SliName: "availability_sli", TargetPercent: 99.9, WindowDays: 30},
		{Name: "latency_p95", SliName: "latency_p95_sli", TargetPercent: 95.0, WindowDays: 30},
		{Name: "error_rate", SliName: "error_rate_sli", TargetPercent: 99.0, WindowDays: 30},
		{Name: "freshness", SliName: "freshness_sli", TargetPercent: 99.5, WindowDays: 7},
	}
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all invalid fields.
func Validate(bc *Bootstrap) error {
	var invalid []string

	if bc.Server == nil || bc.Server.Http == nil || bc.Server.Http.Addr == "" {
		invalid = append(invalid, "server.http.addr (must not be empty)")
	}

	r := bc.Reliability
	if r == nil {
		return fmt.Errorf("invalid configuration: reliability section is missing")
	}

	if r.LatencyThresholdMs <= 0 {
		invalid = append(invalid, "reliability.latency_threshold_ms (must be > 0)")
	}
	if r.BudgetCriticalThreshold <= 0 || r.BudgetCriticalThreshold >= 1 {
		invalid = append(invalid, "reliability.budget_critical_threshold (must be in (0, 1))")
	}

	var longestWindow time.Duration
	for _, s := range r.Slos {
		if s.Name == "" || s.SliName == "" {
			invalid = append(invalid, fmt.Sprintf("reliability.slos[%s] (name and sli_name are required)", s.Name))
		}
		if s.TargetPercent <= 0 || s.TargetPercent > 100 {
			invalid = append(invalid, fmt.Sprintf("reliability.slos[%s].target_percent (must be in (0, 100])", s.Name))
		}
		if s.WindowDays <= 0 {
			invalid = append(invalid, fmt.Sprintf("reliability.slos[%s].window_days (must be > 0)", s.Name))
		}
		if w := time.Duration(s.WindowDays) * 24 * time.Hour; w > longestWindow {
			longestWindow = w
		}
	}

	if r.Retention == nil || r.Retention.AsDuration() <= 0 {
		invalid = append(invalid, "reliability.retention (must be > 0)")
	} else if r.Retention.AsDuration() < longestWindow {
		invalid = append(invalid, fmt.Sprintf("reliability.retention (must cover the longest SLO window of %s)", longestWindow))
	}

	for _, b := range r.Breakers {
		if b.Name == "" {
			invalid = append(invalid, "reliability.breakers[].name (must not be empty)")
		}
		if b.FailureThreshold <= 0 {
			invalid = append(invalid, fmt.Sprintf("reliability.breakers[%s].failure_threshold (must be > 0)", b.Name))
		}
		if b.RecoveryTimeout == nil || b.RecoveryTimeout.AsDuration() <= 0 {
			invalid = append(invalid, fmt.Sprintf("reliability.breakers[%s].recovery_timeout (must be > 0)", b.Name))
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}

	return nil
}
