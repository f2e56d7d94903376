package detect

import "fmt"

// RuleKind selects the evaluator a rule dispatches to.
type RuleKind string

const (
	KindBruteForce    RuleKind = "brute_force"
	KindDDoS          RuleKind = "ddos"
	KindResourceUsage RuleKind = "resource_usage"
)

// evaluator checks one sample against one rule and reports a finding when
// the rule's condition holds.
type evaluator func(s Sample, r Rule) (Finding, bool)

var evaluators = map[RuleKind]evaluator{
	KindBruteForce:    evalBruteForce,
	KindDDoS:          evalDDoS,
	KindResourceUsage: evalResourceUsage,
}

// Stored rules carry free-text names, so kinds are resolved by exact match
// against this vocabulary. A name outside it resolves to no evaluator and
// the rule is skipped.
var kindByName = map[string]RuleKind{
	"Brute Force Attack": KindBruteForce,
	"DDoS Pattern":       KindDDoS,
}

// KindForRule resolves the evaluator kind for a stored rule name. The empty
// kind means no evaluator applies.
func KindForRule(name string) RuleKind {
	return kindByName[name]
}

// builtins run once per sample after the configured rules, regardless of
// what the operator has toggled. The resource-usage check lives here so the
// always-on detection path is enumerable alongside the configured one.
var builtins = []Rule{
	{
		Name:     "Resource Usage Anomaly",
		Kind:     KindResourceUsage,
		Severity: SeverityMedium,
		Active:   true,
	},
}

// Evaluate runs the active rules against one sample and returns zero or more
// findings. It is pure and deterministic: no I/O, no clock, and it cannot
// fail. Output order is stable: configured rules in slice order, then the
// built-ins. Nothing is deduplicated; every qualifying sample re-triggers
// every matching condition.
func Evaluate(sample Sample, rules []Rule) []Finding {
	findings := []Finding{}
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		kind := rule.Kind
		if kind == "" {
			kind = KindForRule(rule.Name)
		}
		eval, ok := evaluators[kind]
		if !ok {
			continue
		}
		if f, matched := eval(sample, rule); matched {
			findings = append(findings, f)
		}
	}
	for _, rule := range builtins {
		if f, matched := evaluators[rule.Kind](sample, rule); matched {
			findings = append(findings, f)
		}
	}
	return findings
}

func evalBruteForce(s Sample, r Rule) (Finding, bool) {
	threshold, ok := numericParam(r.Params, "threshold")
	if !ok || float64(s.FailedAuthAttempts) < threshold {
		return Finding{}, false
	}
	return Finding{
		DeviceID:    s.DeviceID,
		EventType:   EventBruteForce,
		Severity:    r.Severity,
		Description: fmt.Sprintf("Detected %d failed authentication attempts", s.FailedAuthAttempts),
		SourceIP:    UnknownSource,
	}, true
}

func evalDDoS(s Sample, r Rule) (Finding, bool) {
	threshold, ok := numericParam(r.Params, "trafficThreshold")
	if !ok || s.NetworkTraffic < threshold {
		return Finding{}, false
	}
	return Finding{
		DeviceID:    s.DeviceID,
		EventType:   EventDDoS,
		Severity:    r.Severity,
		Description: fmt.Sprintf("Unusual network traffic detected: %.0f bytes", s.NetworkTraffic),
		SourceIP:    UnknownSource,
	}, true
}

// evalResourceUsage flags a likely compromise when either CPU or memory runs
// hot. Severity is pinned to medium no matter what any configured rule says.
func evalResourceUsage(s Sample, _ Rule) (Finding, bool) {
	if s.CPUUsage <= 90 && s.MemoryUsage <= 90 {
		return Finding{}, false
	}
	return Finding{
		DeviceID:    s.DeviceID,
		EventType:   EventResourceAnomaly,
		Severity:    SeverityMedium,
		Description: fmt.Sprintf("High resource usage detected - CPU: %.0f%%, Memory: %.0f%%", s.CPUUsage, s.MemoryUsage),
		SourceIP:    UnknownSource,
	}, true
}

// numericParam reads a named threshold from an open parameter map. JSON
// decoding yields float64, but seeded or hand-edited rules may carry ints.
func numericParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
