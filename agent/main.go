package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/netsentry-labs/netsentry/pkg/config"
	"github.com/netsentry-labs/netsentry/pkg/health"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "/etc/netsentry/agent.yaml", "Config file path")
	serverURL  = flag.String("server", "", "Monitoring server URL (overrides config)")
	deviceID   = flag.String("device", "", "Device id to report as (overrides config)")
	profileArg = flag.String("profile", "", "Sample profile: normal, brute_force, ddos, resource (overrides config)")
	interval   = flag.Duration("interval", 0, "Report interval (overrides config)")
	Version    = "dev"
)

// Agent submits synthetic telemetry samples for one device on an interval.
type Agent struct {
	config  *config.AgentConfig
	client  *http.Client
	retrier *postRetrier
	rng     *rand.Rand
	shape   profile
}

func main() {
	flag.Parse()

	configureLogger()
	log.Info().Str("version", Version).Msg("netsentry agent starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if *deviceID != "" {
		cfg.Device.ID = *deviceID
	}
	if *profileArg != "" {
		cfg.Device.Profile = *profileArg
	}
	if *interval > 0 {
		cfg.Reporting.Interval = int(interval.Seconds())
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	applyLogging(cfg.Logging)

	agent := &Agent{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		},
		retrier: newPostRetrier(cfg.Server.RetryInitialMs, cfg.Server.RetryMaxMs, cfg.Server.RetryMaxRetries),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		shape:   profiles[cfg.Device.Profile],
	}

	log.Info().
		Str("server", cfg.Server.URL).
		Str("device_id", cfg.Device.ID).
		Str("profile", cfg.Device.Profile).
		Int("interval_s", cfg.Reporting.Interval).
		Msg("configuration loaded")

	if status := health.Check(cfg.Server.URL); !status.Healthy {
		log.Warn().Strs("issues", status.Issues).Msg("health check reported issues")
	}

	agent.report()

	jitter := time.Duration(cfg.Reporting.Jitter) * time.Second
	ticker := time.NewTicker(time.Duration(cfg.Reporting.Interval) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if jitter > 0 {
			time.Sleep(time.Duration(agent.rng.Int63n(int64(jitter))))
		}
		agent.report()
	}
}

func (a *Agent) report() {
	s := a.shape(a.rng)
	s.DeviceID = a.config.Device.ID

	err := a.retrier.do(func() error {
		return a.submit(s)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to submit sample")
	}
}

func (a *Agent) submit(s sample) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}

	resp, err := a.client.Post(a.config.Server.URL+"/detect", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if retryableStatus(resp) {
			return serverStatusError(resp.StatusCode)
		}
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload)
	}

	var result struct {
		AttacksDetected int `json:"attacks_detected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	entry := log.Info()
	if result.AttacksDetected > 0 {
		entry = log.Warn()
	}
	entry.Int("attacks_detected", result.AttacksDetected).
		Float64("cpu", s.CPUUsage).
		Float64("memory", s.MemoryUsage).
		Msg("sample submitted")
	return nil
}

func configureLogger() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	level := zerolog.InfoLevel
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("NETSENTRY_AGENT_LOG_LEVEL"))); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

func applyLogging(cfg config.LoggingConfig) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && lvl != zerolog.NoLevel {
		log.Logger = log.Logger.Level(lvl)
	}
	if cfg.JSON {
		log.Logger = zerolog.New(os.Stderr).Level(log.Logger.GetLevel()).With().Timestamp().Logger()
	}
}
