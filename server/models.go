package main

import "time"

// Device status values. Only the DeviceStateManager writes Status.
const (
	StatusOnline      = "online"
	StatusOffline     = "offline"
	StatusCompromised = "compromised"
	StatusUnknown     = "unknown"
)

// Device is a registered endpoint under watch. The descriptive fields are
// display-only; the core reads and writes Status and the two timestamps.
type Device struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"index" json:"name"`
	DeviceType  string     `json:"device_type"`
	IPAddress   string     `json:"ip_address"`
	MACAddress  string     `json:"mac_address"`
	Status      string     `gorm:"index" json:"status"`
	LastSeen    time.Time  `json:"last_seen"`
	LastEventAt *time.Time `json:"last_event_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeviceMetric is one telemetry sample. Rows are append-only: never updated,
// never deleted by the core.
type DeviceMetric struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	DeviceID           string    `gorm:"index" json:"device_id"`
	CPUUsage           float64   `json:"cpu_usage"`
	MemoryUsage        float64   `json:"memory_usage"`
	NetworkTraffic     float64   `json:"network_traffic"`
	FailedAuthAttempts int       `json:"failed_auth_attempts"`
	RecordedAt         time.Time `gorm:"index" json:"recorded_at"`
}

// AttackPattern is a toggleable detection rule. DetectionRules holds the
// rule-specific thresholds as a JSON object.
type AttackPattern struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `gorm:"uniqueIndex" json:"name"`
	Description    string    `json:"description"`
	Severity       string    `json:"severity"`
	Active         bool      `gorm:"index" json:"active"`
	DetectionRules string    `gorm:"type:text" json:"detection_rules"`
	CreatedAt      time.Time `json:"created_at"`
}

// SecurityEvent is a persisted incident. Resolved never reverts to false.
type SecurityEvent struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	DeviceID    string     `gorm:"index" json:"device_id"`
	EventType   string     `json:"event_type"`
	Severity    string     `json:"severity"`
	Description string     `json:"description"`
	SourceIP    string     `json:"source_ip"`
	DetectedAt  time.Time  `gorm:"index" json:"detected_at"`
	Resolved    bool       `gorm:"index" json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}
