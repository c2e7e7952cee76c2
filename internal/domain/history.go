package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action identifies the kind of a history entry. The set is closed: each
// action carries its own typed detail payload instead of an untyped blob.
type Action string

const (
	ActionCreated          Action = "created"
	ActionFieldUpdated     Action = "field_updated"
	ActionSectionUpdated   Action = "section_updated"
	ActionDocumentUploaded Action = "document_uploaded"
	ActionDocumentRemoved  Action = "document_removed"
	ActionSubmitted        Action = "submitted"
	ActionStatusChanged    Action = "status_changed"
	ActionAssigned         Action = "assigned"
	ActionAnalysisReceived Action = "analysis_received"
	ActionNotesUpdated     Action = "notes_updated"
)

// SystemActor is the PerformedBy value for automated transitions.
const SystemActor = "system"

// HistoryEntry is one immutable audit record on the aggregate. Timestamps are
// assigned by the repository at append time (server clock), never by the
// caller, so ordering stays monotonic under concurrent writers.
type HistoryEntry struct {
	Action      Action          `json:"action"`
	Description string          `json:"description"`
	PerformedBy string          `json:"performedBy"`
	Timestamp   time.Time       `json:"timestamp"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// Detailer is implemented by the typed detail payloads.
type Detailer interface {
	ToJSON() ([]byte, error)
}

// NewHistoryEntry builds an entry with a zero timestamp; the repository
// stamps it on append. PerformedBy is mandatory.
func NewHistoryEntry(action Action, description, performedBy string, detail Detailer) (HistoryEntry, error) {
	if performedBy == "" {
		return HistoryEntry{}, fmt.Errorf("history entry requires a performing principal")
	}
	entry := HistoryEntry{
		Action:      action,
		Description: description,
		PerformedBy: performedBy,
	}
	if detail != nil {
		raw, err := detail.ToJSON()
		if err != nil {
			return HistoryEntry{}, fmt.Errorf("encode %s detail: %w", action, err)
		}
		entry.Details = raw
	}
	return entry, nil
}

// CreatedDetail is the payload for the initial "created" entry.
type CreatedDetail struct {
	LoanProgram  string `json:"loan_program"`
	LoanCategory string `json:"loan_category"`
	BrokerID     string `json:"broker_id,omitempty"`
}

// ToJSON converts the payload to JSON bytes.
func (d CreatedDetail) ToJSON() ([]byte, error) { return json.Marshal(d) }

// FieldUpdatedDetail records a single dot-path write.
type FieldUpdatedDetail struct {
	Path    string `json:"path"`
	Section string `json:"section"`
}

// ToJSON converts the payload to JSON bytes.
func (d FieldUpdatedDetail) ToJSON() ([]byte, error) { return json.Marshal(d) }

// SectionUpdatedDetail records a partial section merge.
type SectionUpdatedDetail struct {
	Section string   `json:"section"`
	Fields  []string `json:"fields,omitempty"`
}

// ToJSON converts the payload to JSON bytes.
func (d SectionUpdatedDetail) ToJSON() ([]byte, error) { return json.Marshal(d) }

// StatusChangedDetail records a lifecycle transition. Assignee is set only
// for the submitted → under_review claim.
type StatusChangedDetail struct {
	From     Status `json:"from"`
	To       Status `json:"to"`
	Assignee string `json:"assignee,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ToJSON converts the payload to JSON bytes.
func (d StatusChangedDetail) ToJSON() ([]byte, error) { return json.Marshal(d) }

// DocumentDetail records a document attach or detach.
type DocumentDetail struct {
	Name    string `json:"name"`
	FileURL string `json:"file_url,omitempty"`
}

// ToJSON converts the payload to JSON bytes.
func (d DocumentDetail) ToJSON() ([]byte, error) { return json.Marshal(d) }

// AnalysisDetail records an asynchronous analysis result landing.
type AnalysisDetail struct {
	Kind         string `json:"kind"` // credit_report or asset_statement
	DocumentName string `json:"document_name,omitempty"`
}

// ToJSON converts the payload to JSON bytes.
func (d AnalysisDetail) ToJSON() ([]byte, error) { return json.Marshal(d) }
