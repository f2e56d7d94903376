package main

import (
	"time"

	"gorm.io/gorm"
)

// EventStore persists incidents and marks them resolved. Events are never
// deleted here; clearing resolved history is collaborator housekeeping.
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

// CreateBatch persists all findings from one sample in a single insert.
func (s *EventStore) CreateBatch(events []SecurityEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.db.Create(&events).Error
}

// Resolve marks one event resolved. The update only touches rows where
// resolved is still false, so resolving an already-resolved event is a
// no-op write and resolved_at keeps its original value.
func (s *EventStore) Resolve(eventID string, at time.Time) error {
	return s.db.Model(&SecurityEvent{}).
		Where("id = ? AND resolved = ?", eventID, false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_at": at,
		}).Error
}

// LatestUnresolvedForDevice returns the newest open event for a device, or
// gorm.ErrRecordNotFound when nothing is open.
func (s *EventStore) LatestUnresolvedForDevice(deviceID string) (*SecurityEvent, error) {
	var event SecurityEvent
	err := s.db.Where("device_id = ? AND resolved = ?", deviceID, false).
		Order("detected_at desc").First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// EventWithDevice pairs an event with the display fields of its device.
type EventWithDevice struct {
	ID          string     `json:"id"`
	DeviceID    string     `json:"device_id"`
	EventType   string     `json:"event_type"`
	Severity    string     `json:"severity"`
	Description string     `json:"description"`
	SourceIP    string     `json:"source_ip"`
	DetectedAt  time.Time  `json:"detected_at"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	DeviceName  string     `json:"device_name"`
	DeviceType  string     `json:"device_type"`
}

// RecentWithDevice returns the newest events joined with the device's name
// and type for display. No detection logic runs on this path.
func (s *EventStore) RecentWithDevice(limit int) ([]EventWithDevice, error) {
	var events []EventWithDevice
	err := s.db.Model(&SecurityEvent{}).
		Select("security_events.id, security_events.device_id, security_events.event_type, " +
			"security_events.severity, security_events.description, security_events.source_ip, " +
			"security_events.detected_at, security_events.resolved, security_events.resolved_at, " +
			"devices.name as device_name, devices.device_type as device_type").
		Joins("left join devices on devices.id = security_events.device_id").
		Order("security_events.detected_at desc").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountOpen returns the number of unresolved events, optionally filtered to
// one severity.
func (s *EventStore) CountOpen(severity string) (int64, error) {
	q := s.db.Model(&SecurityEvent{}).Where("resolved = ?", false)
	if severity != "" {
		q = q.Where("severity = ?", severity)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
