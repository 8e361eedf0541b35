package model

import "time"

type IncidentStatus string

const INCIDENT_OPEN IncidentStatus = "open"
const INCIDENT_INVESTIGATING IncidentStatus = "investigating"
const INCIDENT_MITIGATING IncidentStatus = "mitigating"
const INCIDENT_RESOLVED IncidentStatus = "resolved"
const INCIDENT_ARCHIVED IncidentStatus = "archived"

type Severity string

const SEVERITY_LOW Severity = "low"
const SEVERITY_MEDIUM Severity = "medium"
const SEVERITY_HIGH Severity = "high"
const SEVERITY_CRITICAL Severity = "critical"

type Evidence struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
	CollectedAt time.Time      `json:"collectedAt"`
}

// Incident is the security event record workflows react to. Status
// transitions are the only mutation after creation; incidents are never
// deleted, only archived.
type Incident struct {
	Id               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Type             string         `json:"type"`
	Severity         Severity       `json:"severity"`
	Status           IncidentStatus `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
	AssignedTo       string         `json:"assignedTo"`
	AffectedAssets   []string       `json:"affectedAssets"`
	Evidence         []Evidence     `json:"evidence"`
	AutomatedActions []string       `json:"automatedActions"`
}

type IncidentCreateRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	AssignedTo     string   `json:"assignedTo"`
	AffectedAssets []string `json:"affectedAssets"`
}
