package trigger

import "github.com/arkosec/responder/model"

// Matches reports whether a workflow trigger fires for an incident. It is
// deterministic and side-effect free. Unknown trigger types never match.
//
// Numeric and boolean sub-conditions on vulnerability_scan and
// email_analysis triggers (cvssScore, exploitAvailable, phishingScore) are
// intentionally not evaluated; matching is on type and severity only.
func Matches(t model.Trigger, inc model.Incident) bool {
	switch t.Type {
	case model.TRIGGER_TYPE_ALERT:
		return matchesAlert(t, inc)
	case model.TRIGGER_TYPE_EMAIL_ANALYSIS:
		return inc.Type == "Phishing"
	case model.TRIGGER_TYPE_AUTHENTICATION:
		return inc.Type == "Authentication"
	case model.TRIGGER_TYPE_VULNERABILITY_SCAN:
		return inc.Type == "Vulnerability" && inc.Severity == model.SEVERITY_CRITICAL
	default:
		return false
	}
}

func matchesAlert(t model.Trigger, inc model.Incident) bool {
	alertType, ok := t.Conditions["alertType"].(string)
	if !ok || inc.Type != alertType {
		return false
	}
	for _, sev := range severitySet(t.Conditions["severity"]) {
		if sev == string(inc.Severity) {
			return true
		}
	}
	return false
}

// severitySet accepts both []string and the []any produced by JSON
// decoding of the condition map.
func severitySet(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{vals}
	default:
		return nil
	}
}
