// Package domain provides the loan application aggregate and the pure
// functions that keep it consistent: the field-path merge, the progress
// calculator, the status state machine, and the checklist synchronizer.
//
// Nothing in this package touches storage; the repository layer owns
// persistence and the read-modify-write boundary.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the lifecycle status of a loan application. It is the single
// canonical value; it is never inferred from other fields.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusFunded      Status = "funded"
	StatusClosed      Status = "closed"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusApproved, StatusRejected, StatusFunded, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusFunded || s == StatusClosed
}

// Section names. These are the five independently updatable sub-objects of
// the aggregate; every wizard page writes into exactly one of them.
const (
	SectionBorrowerInfo  = "borrowerInfo"
	SectionBusinessInfo  = "businessInfo"
	SectionLoanDetails   = "loanDetails"
	SectionFinancialInfo = "financialInfo"
	SectionPropertyInfo  = "propertyInfo"
)

// SectionNames lists the aggregate's sections in persisted order.
var SectionNames = []string{
	SectionBorrowerInfo,
	SectionBusinessInfo,
	SectionLoanDetails,
	SectionFinancialInfo,
	SectionPropertyInfo,
}

// KnownSection reports whether name is one of the aggregate's sections.
func KnownSection(name string) bool {
	for _, s := range SectionNames {
		if s == name {
			return true
		}
	}
	return false
}

// Section is one named sub-object of the aggregate. Fields are open-ended:
// programs define which of them are required, but pages may store additional
// keys (nested address sub-objects follow the same partial-update rules).
type Section map[string]interface{}

// AttachedDocument is a supporting document attached to the application.
// FileURL is opaque; signed-URL issuance belongs to the storage collaborator.
type AttachedDocument struct {
	Name       string    `json:"name"`
	FileURL    string    `json:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
	Verified   bool      `json:"verified"`
}

// LoanApplication is the aggregate root. It is the unit of consistency for
// all reads and writes; the wizard's ~12 pages each mutate a slice of it.
type LoanApplication struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	BrokerID     string `json:"brokerId"`
	LoanCategory string `json:"loanCategory"`
	LoanProgram  string `json:"loanProgram"`
	Status       Status `json:"status"`

	BorrowerInfo  Section `json:"borrowerInfo"`
	BusinessInfo  Section `json:"businessInfo"`
	LoanDetails   Section `json:"loanDetails"`
	FinancialInfo Section `json:"financialInfo"`
	PropertyInfo  Section `json:"propertyInfo"`

	// Progress is derived from the sections above. It is recomputed on every
	// write and never hand-edited.
	Progress Progress `json:"progress"`

	// History is append-only. Entries are never edited or deleted.
	History []HistoryEntry `json:"history"`

	Documents []AttachedDocument `json:"documents"`

	// Notes is free text and doubles as an escape hatch for auxiliary
	// structured state (cached scan results) with no dedicated section.
	Notes string `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Section returns the named section, or false if name is unknown.
func (a *LoanApplication) Section(name string) (Section, bool) {
	switch name {
	case SectionBorrowerInfo:
		return a.BorrowerInfo, true
	case SectionBusinessInfo:
		return a.BusinessInfo, true
	case SectionLoanDetails:
		return a.LoanDetails, true
	case SectionFinancialInfo:
		return a.FinancialInfo, true
	case SectionPropertyInfo:
		return a.PropertyInfo, true
	}
	return nil, false
}

// SetSection replaces the named section. Returns false for unknown names.
func (a *LoanApplication) SetSection(name string, s Section) bool {
	switch name {
	case SectionBorrowerInfo:
		a.BorrowerInfo = s
	case SectionBusinessInfo:
		a.BusinessInfo = s
	case SectionLoanDetails:
		a.LoanDetails = s
	case SectionFinancialInfo:
		a.FinancialInfo = s
	case SectionPropertyInfo:
		a.PropertyInfo = s
	default:
		return false
	}
	return true
}

// DocumentByName returns the attached document with the given name.
func (a *LoanApplication) DocumentByName(name string) (AttachedDocument, bool) {
	for _, d := range a.Documents {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return AttachedDocument{}, false
}

// Clone returns a deep copy of the aggregate. The in-memory repository hands
// out clones so callers can never mutate stored state directly.
func (a *LoanApplication) Clone() *LoanApplication {
	cp := *a
	cp.BorrowerInfo = cloneSection(a.BorrowerInfo)
	cp.BusinessInfo = cloneSection(a.BusinessInfo)
	cp.LoanDetails = cloneSection(a.LoanDetails)
	cp.FinancialInfo = cloneSection(a.FinancialInfo)
	cp.PropertyInfo = cloneSection(a.PropertyInfo)
	cp.Progress = a.Progress.Clone()
	cp.History = make([]HistoryEntry, len(a.History))
	copy(cp.History, a.History)
	cp.Documents = make([]AttachedDocument, len(a.Documents))
	copy(cp.Documents, a.Documents)
	return &cp
}

func cloneSection(s Section) Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case Section:
		return map[string]interface{}(cloneSection(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// Progress is the derived completion state: one boolean per section the
// program defines, plus an overall percentage in [0,100].
type Progress struct {
	Sections        map[string]bool
	OverallProgress int
}

// Clone returns a copy of the progress object.
func (p Progress) Clone() Progress {
	out := Progress{OverallProgress: p.OverallProgress}
	if p.Sections != nil {
		out.Sections = make(map[string]bool, len(p.Sections))
		for k, v := range p.Sections {
			out.Sections[k] = v
		}
	}
	return out
}

// MarshalJSON flattens progress into the persisted wire shape:
// {"borrowerInfoCompleted": true, ..., "overallProgress": 40}.
func (p Progress) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(p.Sections)+1)
	for name, done := range p.Sections {
		flat[name+"Completed"] = done
	}
	flat["overallProgress"] = p.OverallProgress
	return json.Marshal(flat)
}

// UnmarshalJSON parses the flattened wire shape back into Progress.
func (p *Progress) UnmarshalJSON(data []byte) error {
	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	p.Sections = make(map[string]bool)
	for k, v := range flat {
		if k == "overallProgress" {
			if f, ok := v.(float64); ok {
				p.OverallProgress = int(f)
			}
			continue
		}
		if name, found := strings.CutSuffix(k, "Completed"); found {
			if b, ok := v.(bool); ok {
				p.Sections[name] = b
			}
		}
	}
	return nil
}
