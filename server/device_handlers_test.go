package main

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateDeviceStartsUnknown(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/devices", map[string]string{
		"name":        "hall-thermostat",
		"device_type": "thermostat",
		"ip_address":  "192.168.1.30",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created Device
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, StatusUnknown, created.Status)
}

func TestCreateDeviceRequiresNameAndType(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/devices", map[string]string{"name": "nameless"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetDeviceNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/devices/does-not-exist")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeviceMetricsReturnsRecentSamples(t *testing.T) {
	env := newTestEnv(t)
	device := env.seedDevice(t, StatusOnline)

	for i := 0; i < 3; i++ {
		resp := env.postJSON(t, "/detect", detectPayload(device.ID), nil)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := env.get(t, "/devices/"+device.ID+"/metrics")
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		Metrics []DeviceMetric `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Len(t, result.Metrics, 3)
}

func TestLivenessEndpointGuardsTransitions(t *testing.T) {
	env := newTestEnv(t)
	device := env.seedDevice(t, StatusOnline)

	resp := env.postJSON(t, "/devices/"+device.ID+"/liveness", map[string]string{"status": "compromised"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.postJSON(t, "/devices/"+device.ID+"/liveness", map[string]string{"status": "offline"}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, StatusOffline, env.deviceByID(t, device.ID).Status)
}

func TestStatsCounts(t *testing.T) {
	env := newTestEnv(t)
	online := env.seedDevice(t, StatusOnline)
	compromised := env.seedDevice(t, StatusCompromised)
	env.seedEvent(t, compromised.ID, "ddos", "critical", time.Now().UTC())
	env.seedEvent(t, online.ID, "brute_force", "high", time.Now().UTC())

	resolved := env.seedEvent(t, online.ID, "brute_force", "high", time.Now().UTC().Add(-time.Hour))
	now := time.Now().UTC()
	require.NoError(t, env.server.events.Resolve(resolved.ID, now))

	resp := env.get(t, "/stats")
	require.Equal(t, http.StatusOK, resp.Code)

	var stats struct {
		TotalDevices       int64 `json:"total_devices"`
		OnlineDevices      int64 `json:"online_devices"`
		CompromisedDevices int64 `json:"compromised_devices"`
		ActiveAlerts       int64 `json:"active_alerts"`
		CriticalAlerts     int64 `json:"critical_alerts"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	require.EqualValues(t, 2, stats.TotalDevices)
	require.EqualValues(t, 1, stats.OnlineDevices)
	require.EqualValues(t, 1, stats.CompromisedDevices)
	require.EqualValues(t, 2, stats.ActiveAlerts)
	require.EqualValues(t, 1, stats.CriticalAlerts)
}

func TestSeedDefaultPatternsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, seedDefaultPatterns(env.server.db))

	// Flip a rule off, reseed, and make sure the operator's toggle sticks.
	var bruteForce AttackPattern
	require.NoError(t, env.server.db.First(&bruteForce, "name = ?", "Brute Force Attack").Error)
	require.NoError(t, env.server.patterns.SetActive(bruteForce.ID, false))

	require.NoError(t, seedDefaultPatterns(env.server.db))

	var count int64
	require.NoError(t, env.server.db.Model(&AttackPattern{}).Count(&count).Error)
	require.EqualValues(t, 3, count)

	var after AttackPattern
	require.NoError(t, env.server.db.First(&after, "name = ?", "Brute Force Attack").Error)
	require.False(t, after.Active)
}
