package detect

import "testing"

func bruteForceRule(threshold float64, severity string, active bool) Rule {
	return Rule{
		ID:       "bf-1",
		Name:     "Brute Force Attack",
		Severity: severity,
		Active:   active,
		Params:   map[string]any{"threshold": threshold},
	}
}

func ddosRule(threshold float64, severity string) Rule {
	return Rule{
		ID:       "ddos-1",
		Name:     "DDoS Pattern",
		Severity: severity,
		Active:   true,
		Params:   map[string]any{"trafficThreshold": threshold},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		sample    Sample
		rules     []Rule
		wantTypes []string
		wantSevs  []string
	}{
		{
			name:      "brute force over threshold",
			sample:    Sample{DeviceID: "dev-1", FailedAuthAttempts: 8},
			rules:     []Rule{bruteForceRule(5, SeverityHigh, true)},
			wantTypes: []string{EventBruteForce},
			wantSevs:  []string{SeverityHigh},
		},
		{
			name:      "brute force exactly at threshold",
			sample:    Sample{DeviceID: "dev-1", FailedAuthAttempts: 5},
			rules:     []Rule{bruteForceRule(5, SeverityHigh, true)},
			wantTypes: []string{EventBruteForce},
			wantSevs:  []string{SeverityHigh},
		},
		{
			name:      "ddos over traffic threshold",
			sample:    Sample{DeviceID: "dev-1", NetworkTraffic: 20000000},
			rules:     []Rule{ddosRule(10000000, SeverityCritical)},
			wantTypes: []string{EventDDoS},
			wantSevs:  []string{SeverityCritical},
		},
		{
			name:      "resource anomaly without any rules",
			sample:    Sample{DeviceID: "dev-1", CPUUsage: 95, MemoryUsage: 40},
			rules:     nil,
			wantTypes: []string{EventResourceAnomaly},
			wantSevs:  []string{SeverityMedium},
		},
		{
			name:      "memory alone trips the anomaly",
			sample:    Sample{DeviceID: "dev-1", CPUUsage: 10, MemoryUsage: 91},
			rules:     nil,
			wantTypes: []string{EventResourceAnomaly},
			wantSevs:  []string{SeverityMedium},
		},
		{
			name:      "clean sample emits nothing",
			sample:    Sample{DeviceID: "dev-1", CPUUsage: 10, MemoryUsage: 10, NetworkTraffic: 100},
			rules:     []Rule{bruteForceRule(5, SeverityHigh, true), ddosRule(10000000, SeverityCritical)},
			wantTypes: []string{},
			wantSevs:  []string{},
		},
		{
			name:      "inactive rule is skipped",
			sample:    Sample{DeviceID: "dev-1", FailedAuthAttempts: 8},
			rules:     []Rule{bruteForceRule(5, SeverityHigh, false)},
			wantTypes: []string{},
			wantSevs:  []string{},
		},
		{
			name:   "missing threshold parameter skips the rule",
			sample: Sample{DeviceID: "dev-1", FailedAuthAttempts: 8},
			rules: []Rule{{
				Name:     "Brute Force Attack",
				Severity: SeverityHigh,
				Active:   true,
				Params:   map[string]any{"timeWindow": 300.0},
			}},
			wantTypes: []string{},
			wantSevs:  []string{},
		},
		{
			name:   "malformed threshold parameter skips the rule",
			sample: Sample{DeviceID: "dev-1", FailedAuthAttempts: 8},
			rules: []Rule{{
				Name:     "Brute Force Attack",
				Severity: SeverityHigh,
				Active:   true,
				Params:   map[string]any{"threshold": "five"},
			}},
			wantTypes: []string{},
			wantSevs:  []string{},
		},
		{
			name:   "unknown rule name resolves to no evaluator",
			sample: Sample{DeviceID: "dev-1", FailedAuthAttempts: 50},
			rules: []Rule{{
				Name:     "Port Scan",
				Severity: SeverityMedium,
				Active:   true,
				Params:   map[string]any{"portScanThreshold": 15.0},
			}},
			wantTypes: []string{},
			wantSevs:  []string{},
		},
		{
			name:      "anomaly severity ignores configured rule severity",
			sample:    Sample{DeviceID: "dev-1", CPUUsage: 99, FailedAuthAttempts: 0},
			rules:     []Rule{bruteForceRule(5, SeverityCritical, true)},
			wantTypes: []string{EventResourceAnomaly},
			wantSevs:  []string{SeverityMedium},
		},
		{
			name:      "multiple findings keep rule order with built-ins last",
			sample:    Sample{DeviceID: "dev-1", CPUUsage: 95, NetworkTraffic: 20000000, FailedAuthAttempts: 8},
			rules:     []Rule{bruteForceRule(5, SeverityHigh, true), ddosRule(10000000, SeverityCritical)},
			wantTypes: []string{EventBruteForce, EventDDoS, EventResourceAnomaly},
			wantSevs:  []string{SeverityHigh, SeverityCritical, SeverityMedium},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := Evaluate(tt.sample, tt.rules)

			if len(findings) != len(tt.wantTypes) {
				t.Fatalf("Evaluate() returned %d findings, want %d: %+v", len(findings), len(tt.wantTypes), findings)
			}
			for i, f := range findings {
				if f.EventType != tt.wantTypes[i] {
					t.Errorf("finding %d type = %s, want %s", i, f.EventType, tt.wantTypes[i])
				}
				if f.Severity != tt.wantSevs[i] {
					t.Errorf("finding %d severity = %s, want %s", i, f.Severity, tt.wantSevs[i])
				}
				if f.DeviceID != tt.sample.DeviceID {
					t.Errorf("finding %d device = %s, want %s", i, f.DeviceID, tt.sample.DeviceID)
				}
				if f.SourceIP != UnknownSource {
					t.Errorf("finding %d source = %s, want %s", i, f.SourceIP, UnknownSource)
				}
			}
		})
	}
}

func TestEvaluateAnomalyFiresOncePerSample(t *testing.T) {
	// Two active rules must not duplicate the built-in resource check.
	sample := Sample{DeviceID: "dev-1", CPUUsage: 95}
	rules := []Rule{bruteForceRule(5, SeverityHigh, true), ddosRule(10000000, SeverityCritical)}

	findings := Evaluate(sample, rules)

	anomalies := 0
	for _, f := range findings {
		if f.EventType == EventResourceAnomaly {
			anomalies++
		}
	}
	if anomalies != 1 {
		t.Fatalf("expected exactly one resource anomaly, got %d", anomalies)
	}
}

func TestEvaluateDescriptionsCarryObservations(t *testing.T) {
	sample := Sample{DeviceID: "dev-1", NetworkTraffic: 20000000, FailedAuthAttempts: 8}
	rules := []Rule{bruteForceRule(5, SeverityHigh, true), ddosRule(10000000, SeverityCritical)}

	findings := Evaluate(sample, rules)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if want := "Detected 8 failed authentication attempts"; findings[0].Description != want {
		t.Errorf("brute force description = %q, want %q", findings[0].Description, want)
	}
	if want := "Unusual network traffic detected: 20000000 bytes"; findings[1].Description != want {
		t.Errorf("ddos description = %q, want %q", findings[1].Description, want)
	}
}

func TestNumericParamAcceptsIntThresholds(t *testing.T) {
	sample := Sample{DeviceID: "dev-1", FailedAuthAttempts: 8}
	rule := Rule{
		Name:     "Brute Force Attack",
		Severity: SeverityHigh,
		Active:   true,
		Params:   map[string]any{"threshold": 5},
	}

	findings := Evaluate(sample, []Rule{rule})
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding for int threshold, got %d", len(findings))
	}
}
