package action

import (
	"context"
	"fmt"
	"time"

	"github.com/arkosec/responder/model"
)

const INTEGRATION_EDR = "edr"
const INTEGRATION_FIREWALL = "firewall"
const INTEGRATION_EMAIL_SECURITY = "email-security"
const INTEGRATION_IDENTITY = "identity"
const INTEGRATION_VULN_MGMT = "vuln-mgmt"
const INTEGRATION_TICKETING = "ticketing"
const INTEGRATION_NOTIFIER = "notifier"

// SeedCatalog registers the default integration descriptors the builtin
// handlers are bound to.
func SeedCatalog(catalog *Catalog) {
	now := time.Now()
	defaults := []model.Integration{
		{Id: INTEGRATION_EDR, Name: "CrowdStrike Falcon", Category: "EDR", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"isolate_endpoint", "scan_assets", "collect_evidence"}, LastSyncAt: now},
		{Id: INTEGRATION_FIREWALL, Name: "Palo Alto NGFW", Category: "firewall", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"block_ip"}, LastSyncAt: now},
		{Id: INTEGRATION_EMAIL_SECURITY, Name: "Proofpoint TAP", Category: "email security", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"quarantine_email", "block_sender"}, LastSyncAt: now},
		{Id: INTEGRATION_IDENTITY, Name: "Okta", Category: "identity", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"lock_account", "reset_passwords", "revoke_sessions"}, LastSyncAt: now},
		{Id: INTEGRATION_VULN_MGMT, Name: "Tenable VM", Category: "vulnerability management", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"scan_assets", "apply_patches"}, LastSyncAt: now},
		{Id: INTEGRATION_TICKETING, Name: "Jira Service Management", Category: "ticketing", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"create_ticket"}, LastSyncAt: now},
		{Id: INTEGRATION_NOTIFIER, Name: "Slack", Category: "notification", Status: model.INTEGRATION_CONNECTED, Capabilities: []string{"notify_analyst"}, LastSyncAt: now},
	}
	for _, in := range defaults {
		catalog.Add(in)
	}
}

// RegisterBuiltins wires the simulated integration adapters into the
// dispatch table. Each handler performs one discrete operation and reports
// a details payload the way a real adapter would.
func RegisterBuiltins(reg *Registry) {
	reg.Register("isolate_endpoint", INTEGRATION_EDR, isolateEndpoint)
	reg.Register("scan_assets", INTEGRATION_EDR, scanAssets)
	reg.Register("collect_evidence", INTEGRATION_EDR, collectEvidence)
	reg.Register("block_ip", INTEGRATION_FIREWALL, blockIP)
	reg.Register("quarantine_email", INTEGRATION_EMAIL_SECURITY, quarantineEmail)
	reg.Register("block_sender", INTEGRATION_EMAIL_SECURITY, blockSender)
	reg.Register("lock_account", INTEGRATION_IDENTITY, lockAccount)
	reg.Register("reset_passwords", INTEGRATION_IDENTITY, resetPasswords)
	reg.Register("revoke_sessions", INTEGRATION_IDENTITY, revokeSessions)
	reg.Register("apply_patches", INTEGRATION_VULN_MGMT, applyPatches)
	reg.Register("create_ticket", INTEGRATION_TICKETING, createTicket)
	reg.Register("notify_analyst", INTEGRATION_NOTIFIER, notifyAnalyst)
}

func isolateEndpoint(ctx context.Context, req Request) (Result, error) {
	assets := req.Incident.AffectedAssets
	return Result{
		Message: fmt.Sprintf("isolated %d endpoint(s)", len(assets)),
		Details: map[string]any{"assets": assets, "mode": "network-contain"},
	}, nil
}

func scanAssets(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "on-demand scan started",
		Details: map[string]any{"assets": req.Incident.AffectedAssets, "scanType": paramOr(req.Params, "scanType", "full")},
	}, nil
}

func collectEvidence(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "forensic evidence collection queued",
		Details: map[string]any{"incident": req.IncidentId, "artifacts": []string{"memory", "process-tree", "network-connections"}},
	}, nil
}

func blockIP(ctx context.Context, req Request) (Result, error) {
	ip, ok := req.Params["ip"].(string)
	if !ok || ip == "" {
		return Result{}, fmt.Errorf("block_ip requires an ip param")
	}
	return Result{
		Message: fmt.Sprintf("ip %s blocked at perimeter", ip),
		Details: map[string]any{"ip": ip, "direction": paramOr(req.Params, "direction", "both")},
	}, nil
}

func quarantineEmail(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "matching messages quarantined",
		Details: map[string]any{"incident": req.IncidentId, "mailboxScope": paramOr(req.Params, "scope", "organization")},
	}, nil
}

func blockSender(ctx context.Context, req Request) (Result, error) {
	sender, _ := req.Params["sender"].(string)
	return Result{
		Message: "sender added to block list",
		Details: map[string]any{"sender": sender},
	}, nil
}

func lockAccount(ctx context.Context, req Request) (Result, error) {
	account, ok := req.Params["account"].(string)
	if !ok || account == "" {
		account = req.Incident.AssignedTo
	}
	return Result{
		Message: fmt.Sprintf("account %s locked", account),
		Details: map[string]any{"account": account},
	}, nil
}

func resetPasswords(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "password reset forced for affected identities",
		Details: map[string]any{"incident": req.IncidentId},
	}, nil
}

func revokeSessions(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "active sessions revoked",
		Details: map[string]any{"incident": req.IncidentId},
	}, nil
}

func applyPatches(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "remediation patch job scheduled",
		Details: map[string]any{"assets": req.Incident.AffectedAssets, "window": paramOr(req.Params, "window", "immediate")},
	}, nil
}

func createTicket(ctx context.Context, req Request) (Result, error) {
	return Result{
		Message: "tracking ticket created",
		Details: map[string]any{"summary": req.Incident.Title, "severity": string(req.Incident.Severity)},
	}, nil
}

func notifyAnalyst(ctx context.Context, req Request) (Result, error) {
	channel := paramOr(req.Params, "channel", "#soc-alerts")
	return Result{
		Message: fmt.Sprintf("notification sent to %v", channel),
		Details: map[string]any{"channel": channel, "incident": req.IncidentId},
	}, nil
}

func paramOr(params map[string]any, key string, fallback any) any {
	if v, ok := params[key]; ok && v != nil {
		return v
	}
	return fallback
}
