package verification

import (
	"encoding/json"
	"time"

	"nutriverify/internal/catalog"
	"nutriverify/internal/oracle"
	"nutriverify/internal/rules"
	"nutriverify/internal/scoring"
)

// Audit is the structured payload persisted with every terminal outcome.
type Audit struct {
	Outcome         Outcome            `json:"outcome"`
	Kind            string             `json:"kind,omitempty"`
	Message         string             `json:"message"`
	Findings        []rules.Finding    `json:"findings"`
	Original        catalog.Macros     `json:"original"`
	Final           catalog.Macros     `json:"final"`
	Attempts        []Attempt          `json:"attempts,omitempty"`
	Validation      *oracle.Validation `json:"validation,omitempty"`
	Reference       *ReferenceEvidence `json:"reference,omitempty"`
	OracleRationale string             `json:"oracle_rationale,omitempty"`
	OracleCalls     int                `json:"oracle_calls"`
	Score           scoring.Breakdown  `json:"score"`
	DurationMS      int64              `json:"duration_ms"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// ReferenceEvidence summarises the reference match shown to the oracle.
type ReferenceEvidence struct {
	FDCID       int64          `json:"fdc_id"`
	Description string         `json:"description"`
	DataType    string         `json:"data_type"`
	Strategy    string         `json:"strategy"`
	Scaled      catalog.Macros `json:"scaled"`
}

// Encode renders the audit as compact JSON.
func (a Audit) Encode() (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeAudit parses a persisted audit payload.
func DecodeAudit(payload string) (Audit, error) {
	var audit Audit
	if err := json.Unmarshal([]byte(payload), &audit); err != nil {
		return Audit{}, err
	}
	return audit, nil
}
