package agent

import (
	"github.com/arkosec/responder/model"
	"github.com/arkosec/responder/registry"
)

// seedWorkflows registers the default response workflows shipped with the
// engine so a fresh instance reacts to common incident classes out of the
// box.
func seedWorkflows(r *registry.WorkflowRegistry) error {
	defaults := []model.Workflow{
		{
			Id:          "wf-ransomware-containment",
			Name:        "Ransomware Containment",
			Description: "Isolate affected endpoints, preserve evidence and page the SOC.",
			Enabled:     true,
			Trigger: model.Trigger{
				Type: model.TRIGGER_TYPE_ALERT,
				Conditions: map[string]any{
					"alertType": "Malware",
					"severity":  []string{"high", "critical"},
				},
			},
			Steps: []model.Step{
				{Id: 1, Name: "Isolate endpoints", Action: "isolate_endpoint", TimeoutSeconds: 60},
				{Id: 2, Name: "Collect forensic evidence", Action: "collect_evidence", TimeoutSeconds: 120},
				{Id: 3, Name: "Notify on-call analyst", Action: "notify_analyst", TimeoutSeconds: 30, Params: map[string]any{"channel": "#soc-critical"}},
				{Id: 4, Name: "Open tracking ticket", Action: "create_ticket", TimeoutSeconds: 30},
			},
		},
		{
			Id:          "wf-phishing-response",
			Name:        "Phishing Response",
			Description: "Quarantine the campaign, block the sender and rotate exposed credentials.",
			Enabled:     true,
			Trigger: model.Trigger{
				Type: model.TRIGGER_TYPE_EMAIL_ANALYSIS,
				Conditions: map[string]any{
					"phishingScore": map[string]any{"min": 0.8},
				},
			},
			Steps: []model.Step{
				{Id: 1, Name: "Quarantine messages", Action: "quarantine_email", TimeoutSeconds: 60},
				{Id: 2, Name: "Block sender", Action: "block_sender", TimeoutSeconds: 30, Params: map[string]any{"sender": "$.incident.description"}},
				{Id: 3, Name: "Force password resets", Action: "reset_passwords", TimeoutSeconds: 60},
				{Id: 4, Name: "Notify analyst", Action: "notify_analyst", TimeoutSeconds: 30},
			},
		},
		{
			Id:          "wf-account-protection",
			Name:        "Brute Force Account Protection",
			Description: "Lock targeted accounts and revoke their sessions.",
			Enabled:     true,
			Trigger: model.Trigger{
				Type: model.TRIGGER_TYPE_AUTHENTICATION,
			},
			Steps: []model.Step{
				{Id: 1, Name: "Lock account", Action: "lock_account", TimeoutSeconds: 30, Params: map[string]any{"account": "$.incident.assignedTo"}},
				{Id: 2, Name: "Revoke sessions", Action: "revoke_sessions", TimeoutSeconds: 30},
				{Id: 3, Name: "Notify analyst", Action: "notify_analyst", TimeoutSeconds: 30},
			},
		},
		{
			Id:          "wf-critical-vuln-remediation",
			Name:        "Critical Vulnerability Remediation",
			Description: "Scan exposed assets and schedule emergency patching.",
			Enabled:     true,
			Trigger: model.Trigger{
				Type: model.TRIGGER_TYPE_VULNERABILITY_SCAN,
				Conditions: map[string]any{
					"cvssScore":        map[string]any{"min": 9.0},
					"exploitAvailable": true,
				},
			},
			Steps: []model.Step{
				{Id: 1, Name: "Scan affected assets", Action: "scan_assets", TimeoutSeconds: 300},
				{Id: 2, Name: "Apply patches", Action: "apply_patches", TimeoutSeconds: 600, Params: map[string]any{"window": "immediate"}},
				{Id: 3, Name: "Open tracking ticket", Action: "create_ticket", TimeoutSeconds: 30},
			},
		},
	}
	for _, wf := range defaults {
		if _, err := r.Register(wf); err != nil {
			return err
		}
	}
	return nil
}

func seedPlaybooks(c *registry.PlaybookCatalog) {
	defaults := []model.Playbook{
		{
			Id:          "pb-ransomware",
			Name:        "Ransomware Incident Playbook",
			Description: "Manual escalation procedure once containment automation has run.",
			Category:    "malware",
			Procedure: []string{
				"Confirm scope of encryption from EDR telemetry",
				"Engage incident commander and legal",
				"Decide on restore-from-backup vs negotiate posture",
				"Prepare internal and external communications",
			},
		},
		{
			Id:          "pb-phishing",
			Name:        "Phishing Campaign Playbook",
			Description: "Analyst procedure for campaign scoping and user outreach.",
			Category:    "email",
			Procedure: []string{
				"Pull all recipients of the campaign from mail logs",
				"Interview users who clicked",
				"Review mailbox rules for persistence",
				"Close the loop with awareness training",
			},
		},
		{
			Id:          "pb-insider",
			Name:        "Insider Threat Playbook",
			Description: "HR-coordinated response to suspected insider activity; never automated.",
			Category:    "insider",
			Procedure: []string{
				"Engage HR and legal before any technical action",
				"Preserve evidence with chain of custody",
				"Restrict access progressively, not abruptly",
			},
		},
	}
	for _, pb := range defaults {
		c.Add(pb)
	}
}
