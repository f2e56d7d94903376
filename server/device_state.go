package main

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DeviceStateManager owns every write to Device.Status. Detection moves a
// device to compromised, resolution moves it back to online, and liveness
// input from outside the core may set online/offline/unknown. No other
// transitions exist and no other component assigns the field.
type DeviceStateManager struct {
	db *gorm.DB
}

func NewDeviceStateManager(db *gorm.DB) *DeviceStateManager {
	return &DeviceStateManager{db: db}
}

// MarkCompromised flags a device after detection produced findings. Callers
// must not invoke it for an empty finding set; a clean sample leaves the
// status untouched.
func (m *DeviceStateManager) MarkCompromised(deviceID string, at time.Time) error {
	return m.db.Model(&Device{}).Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"status":        StatusCompromised,
			"last_event_at": at,
		}).Error
}

// MarkRecovered resets a device to online after an operator resolution. The
// reset is unconditional: other unresolved events for the device do not
// block it. An unknown device id affects zero rows and is not an error, so
// repeated calls are idempotent.
func (m *DeviceStateManager) MarkRecovered(deviceID string, at time.Time) error {
	return m.db.Model(&Device{}).Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"status":        StatusOnline,
			"last_event_at": at,
		}).Error
}

// MarkLiveness records a transition reported by an external liveness
// monitor. Compromised is reserved for the detection path.
func (m *DeviceStateManager) MarkLiveness(deviceID, status string, at time.Time) error {
	switch status {
	case StatusOnline, StatusOffline, StatusUnknown:
	default:
		return fmt.Errorf("liveness transition to %q not allowed", status)
	}
	return m.db.Model(&Device{}).Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"status":    status,
			"last_seen": at,
		}).Error
}

// TouchSeen bumps last_seen when telemetry arrives, without touching Status.
func (m *DeviceStateManager) TouchSeen(deviceID string, at time.Time) error {
	return m.db.Model(&Device{}).Where("id = ?", deviceID).
		Update("last_seen", at).Error
}
