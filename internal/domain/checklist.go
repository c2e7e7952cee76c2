package domain

import "strings"

// ChecklistStatus classifies one required document name against the set of
// documents actually attached to the application.
type ChecklistStatus string

const (
	ChecklistMissing  ChecklistStatus = "missing"
	ChecklistUploaded ChecklistStatus = "uploaded"
	ChecklistVerified ChecklistStatus = "verified"
)

// ChecklistItem is one row of the reconciled checklist. Category mirrors the
// catalog grouping (borrower, company, subjectProperty).
type ChecklistItem struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Status   ChecklistStatus `json:"status"`
}

// SyncChecklist reconciles the program's required document names against the
// attached documents. Every required name gets exactly one row; attached
// documents outside the catalog produce no rows (the synchronizer never
// invents required names), and nothing here deletes attached documents.
//
// The checklist is regenerated from the current program's catalog on every
// call, so a program's catalog never leaks stale entries from another.
func SyncChecklist(required RequiredDocuments, attached []AttachedDocument) []ChecklistItem {
	byName := make(map[string]AttachedDocument, len(attached))
	for _, doc := range attached {
		byName[strings.ToLower(doc.Name)] = doc
	}

	groups := []struct {
		category string
		names    []string
	}{
		{"borrower", required.Borrower},
		{"company", required.Company},
		{"subjectProperty", required.SubjectProperty},
	}

	var items []ChecklistItem
	for _, g := range groups {
		for _, name := range g.names {
			item := ChecklistItem{Name: name, Category: g.category, Status: ChecklistMissing}
			if doc, ok := byName[strings.ToLower(name)]; ok {
				if doc.Verified {
					item.Status = ChecklistVerified
				} else {
					item.Status = ChecklistUploaded
				}
			}
			items = append(items, item)
		}
	}
	return items
}
