package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/netsentry-labs/netsentry/pkg/detect"
	"github.com/netsentry-labs/netsentry/pkg/telemetry"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbPath        = flag.String("db", "netsentry.db", "Database path")
	logLevel      = flag.String("log-level", "info", "Log level")
	traceEndpoint = flag.String("trace-endpoint", "", "OTLP trace endpoint (empty disables export)")
	traceLogSpans = flag.Bool("trace-log-spans", false, "Mirror completed spans into the log")
	Version       = "dev"
)

const operatorTokenEnv = "NETSENTRY_OPERATOR_TOKEN"

type Server struct {
	db            *gorm.DB
	logger        zerolog.Logger
	telemetry     *TelemetryStore
	events        *EventStore
	patterns      *PatternStore
	state         *DeviceStateManager
	resolver      *ResolutionCoordinator
	operatorToken string
}

func newServer(db *gorm.DB, logger zerolog.Logger, operatorToken string) *Server {
	events := NewEventStore(db)
	state := NewDeviceStateManager(db)
	return &Server{
		db:            db,
		logger:        logger,
		telemetry:     NewTelemetryStore(db),
		events:        events,
		patterns:      NewPatternStore(db),
		state:         state,
		resolver:      NewResolutionCoordinator(events, state, logger),
		operatorToken: operatorToken,
	}
}

func (s *Server) registerRoutes(r *gin.Engine) {
	s.registerDetectionRoutes(r)
	s.registerResolutionRoutes(r)
	s.registerDeviceRoutes(r)
	s.registerPatternRoutes(r)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": Version})
	})
}

func main() {
	flag.Parse()

	logger := newLogger(*logLevel)
	logger.Info().Str("version", Version).Msg("netsentry server starting")

	// Missing operator credentials are a startup failure, not a per-request one.
	operatorToken := strings.TrimSpace(os.Getenv(operatorTokenEnv))
	if operatorToken == "" {
		logger.Fatal().Msgf("%s must be set before the server accepts requests", operatorTokenEnv)
	}

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	if err := db.AutoMigrate(&Device{}, &DeviceMetric{}, &AttackPattern{}, &SecurityEvent{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}
	if err := seedDefaultPatterns(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed attack patterns")
	}

	ctx := context.Background()
	provider, err := telemetry.Setup(ctx, "netsentry-server", Version, telemetry.Config{
		Endpoint:    *traceEndpoint,
		SampleRatio: 1,
		LogSpans:    *traceLogSpans,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer provider.Shutdown(ctx)

	srv := newServer(db, logger, operatorToken)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(withRequestContext(logger))
	srv.registerRoutes(r)

	logger.Info().Str("listen", *listen).Msg("listening")
	if err := r.Run(*listen); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func newLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// seedDefaultPatterns installs the stock rule set on first boot. Existing
// rows win: operator edits and toggles are never overwritten.
func seedDefaultPatterns(db *gorm.DB) error {
	defaults := []AttackPattern{
		{
			ID:             uuid.NewString(),
			Name:           "Brute Force Attack",
			Description:    "Repeated failed authentication attempts against a device",
			Severity:       detect.SeverityHigh,
			Active:         true,
			DetectionRules: `{"threshold": 5, "timeWindow": 300}`,
		},
		{
			ID:             uuid.NewString(),
			Name:           "DDoS Pattern",
			Description:    "Abnormal inbound traffic volume",
			Severity:       detect.SeverityCritical,
			Active:         true,
			DetectionRules: `{"trafficThreshold": 10000000}`,
		},
		{
			ID:             uuid.NewString(),
			Name:           "Port Scan",
			Description:    "Sequential connection attempts across ports",
			Severity:       detect.SeverityMedium,
			Active:         false,
			DetectionRules: `{"portScanThreshold": 15}`,
		},
	}

	for i := range defaults {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&defaults[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}
