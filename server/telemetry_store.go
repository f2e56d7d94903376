package main

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TelemetryStore appends metric samples and serves display reads.
type TelemetryStore struct {
	db *gorm.DB
}

func NewTelemetryStore(db *gorm.DB) *TelemetryStore {
	return &TelemetryStore{db: db}
}

func (s *TelemetryStore) Append(m *DeviceMetric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now().UTC()
	}
	return s.db.Create(m).Error
}

func (s *TelemetryStore) RecentForDevice(deviceID string, limit int) ([]DeviceMetric, error) {
	var metrics []DeviceMetric
	err := s.db.Where("device_id = ?", deviceID).
		Order("recorded_at desc").Limit(limit).Find(&metrics).Error
	return metrics, err
}
