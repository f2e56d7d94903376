package detect

// Severity levels assigned to security events, least to most urgent.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Event types the engine can emit.
const (
	EventBruteForce      = "brute_force"
	EventDDoS            = "ddos"
	EventResourceAnomaly = "resource_anomaly"
)

// UnknownSource is recorded when a sample carries no attributable source address.
const UnknownSource = "unknown"

// Sample is one telemetry snapshot from a device.
type Sample struct {
	DeviceID           string  `json:"device_id"`
	CPUUsage           float64 `json:"cpu_usage"`
	MemoryUsage        float64 `json:"memory_usage"`
	NetworkTraffic     float64 `json:"network_traffic"`
	FailedAuthAttempts int     `json:"failed_auth_attempts"`
}

// Rule is one toggleable detection condition. Params is an open mapping of
// rule-specific thresholds; a rule missing the parameter its evaluator needs
// is skipped, never an error.
type Rule struct {
	ID       string
	Name     string
	Kind     RuleKind
	Severity string
	Active   bool
	Params   map[string]any
}

// Finding is an incident draft produced by evaluation. IDs and timestamps
// are assigned when the finding is persisted.
type Finding struct {
	DeviceID    string `json:"device_id"`
	EventType   string `json:"event_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	SourceIP    string `json:"source_ip"`
}
