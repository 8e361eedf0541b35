package model

type TriggerType string

const TRIGGER_TYPE_ALERT TriggerType = "alert"
const TRIGGER_TYPE_EMAIL_ANALYSIS TriggerType = "email_analysis"
const TRIGGER_TYPE_AUTHENTICATION TriggerType = "authentication"
const TRIGGER_TYPE_VULNERABILITY_SCAN TriggerType = "vulnerability_scan"

// Trigger decides whether a workflow fires for an incident. Conditions
// carries the raw condition map from the definition; numeric and boolean
// sub-conditions (cvssScore, phishingScore, exploitAvailable) are kept on
// the definition but are not evaluated by the matcher.
type Trigger struct {
	Type       TriggerType    `json:"type"`
	Conditions map[string]any `json:"conditions"`
}

type Step struct {
	Id             int            `json:"id"`
	Name           string         `json:"name"`
	Action         string         `json:"action"`
	TimeoutSeconds int            `json:"timeoutSeconds"`
	Params         map[string]any `json:"params"`
}

type Workflow struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Enabled     bool    `json:"enabled"`
	Trigger     Trigger `json:"trigger"`
	Steps       []Step  `json:"steps"`
	// Updated by the registry after every run, single incrementer.
	ExecutionCount int `json:"executionCount"`
	SuccessRate    int `json:"successRate"`
}

// Playbook is a descriptive catalog entry. Playbooks are read by analysts,
// never executed by the engine.
type Playbook struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Procedure   []string `json:"procedure"`
}

type WorkflowRunRequest struct {
	WorkflowId string         `json:"workflowId"`
	IncidentId string         `json:"incidentId"`
	Params     map[string]any `json:"params"`
}
