package model

import "time"

type IntegrationStatus string

const INTEGRATION_CONNECTED IntegrationStatus = "connected"
const INTEGRATION_DISCONNECTED IntegrationStatus = "disconnected"

// Integration is a read-only capability descriptor for an external system
// (EDR, SIEM, firewall, ...). The dispatcher consults it to know which
// system implements a given action; the engine never mutates it.
type Integration struct {
	Id           string            `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Status       IntegrationStatus `json:"status"`
	Capabilities []string          `json:"capabilities"`
	LastSyncAt   time.Time         `json:"lastSyncAt"`
}
