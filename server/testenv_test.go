package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testOperatorToken = "test-operator-token"

type testEnv struct {
	server *Server
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:netsentry-test-%s?mode=memory&cache=shared", xid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Device{}, &DeviceMetric{}, &AttackPattern{}, &SecurityEvent{}))

	srv := newServer(db, zerolog.Nop(), testOperatorToken)

	r := gin.New()
	r.Use(withRequestContext(zerolog.Nop()))
	srv.registerRoutes(r)

	return &testEnv{server: srv, router: r}
}

func (e *testEnv) seedDevice(t *testing.T, status string) Device {
	t.Helper()
	device := Device{
		ID:         uuid.NewString(),
		Name:       "lab-camera",
		DeviceType: "camera",
		IPAddress:  "192.168.1.20",
		Status:     status,
		LastSeen:   time.Now().UTC(),
	}
	require.NoError(t, e.server.db.Create(&device).Error)
	return device
}

func (e *testEnv) seedPattern(t *testing.T, name, severity, rules string, active bool) AttackPattern {
	t.Helper()
	pattern := AttackPattern{
		ID:             uuid.NewString(),
		Name:           name,
		Severity:       severity,
		Active:         active,
		DetectionRules: rules,
	}
	require.NoError(t, e.server.db.Create(&pattern).Error)
	return pattern
}

func (e *testEnv) seedEvent(t *testing.T, deviceID, eventType, severity string, detectedAt time.Time) SecurityEvent {
	t.Helper()
	event := SecurityEvent{
		ID:          uuid.NewString(),
		DeviceID:    deviceID,
		EventType:   eventType,
		Severity:    severity,
		Description: "seeded event",
		SourceIP:    "unknown",
		DetectedAt:  detectedAt,
	}
	require.NoError(t, e.server.db.Create(&event).Error)
	return event
}

func (e *testEnv) postJSON(t *testing.T, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func operatorHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testOperatorToken}
}

func (e *testEnv) deviceByID(t *testing.T, id string) Device {
	t.Helper()
	var device Device
	require.NoError(t, e.server.db.First(&device, "id = ?", id).Error)
	return device
}

func (e *testEnv) eventByID(t *testing.T, id string) SecurityEvent {
	t.Helper()
	var event SecurityEvent
	require.NoError(t, e.server.db.First(&event, "id = ?", id).Error)
	return event
}
