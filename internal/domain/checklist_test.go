package domain

import (
	"testing"
	"time"
)

func TestSyncChecklist_AllMissing(t *testing.T) {
	required := RequiredDocuments{
		Borrower: []string{"W-2", "Bank Statement"},
	}

	items := SyncChecklist(required, nil)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.Status != ChecklistMissing {
			t.Errorf("%s status = %s, want missing", item.Name, item.Status)
		}
	}
}

func TestSyncChecklist_AttachingOneChangesOnlyThatEntry(t *testing.T) {
	required := RequiredDocuments{
		Borrower: []string{"W-2", "Bank Statement"},
	}
	attached := []AttachedDocument{
		{Name: "W-2", FileURL: "https://files/w2", UploadedAt: time.Now()},
	}

	items := SyncChecklist(required, attached)
	byName := map[string]ChecklistStatus{}
	for _, item := range items {
		byName[item.Name] = item.Status
	}

	if byName["W-2"] != ChecklistUploaded {
		t.Errorf("W-2 status = %s, want uploaded", byName["W-2"])
	}
	if byName["Bank Statement"] != ChecklistMissing {
		t.Errorf("Bank Statement status = %s, want missing", byName["Bank Statement"])
	}
}

func TestSyncChecklist_VerifiedDocument(t *testing.T) {
	required := RequiredDocuments{Borrower: []string{"Credit Report"}}
	attached := []AttachedDocument{
		{Name: "Credit Report", Verified: true},
	}

	items := SyncChecklist(required, attached)
	if items[0].Status != ChecklistVerified {
		t.Errorf("status = %s, want verified", items[0].Status)
	}
}

func TestSyncChecklist_NeverInventsNames(t *testing.T) {
	required := RequiredDocuments{Borrower: []string{"Government ID"}}
	attached := []AttachedDocument{
		{Name: "Government ID"},
		{Name: "Random Upload"}, // not in catalog
	}

	items := SyncChecklist(required, attached)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (extra uploads must not add rows)", len(items))
	}
	if items[0].Name != "Government ID" {
		t.Errorf("name = %s, want Government ID", items[0].Name)
	}
}

func TestSyncChecklist_CaseInsensitiveMatch(t *testing.T) {
	required := RequiredDocuments{Borrower: []string{"Government ID"}}
	attached := []AttachedDocument{{Name: "government id"}}

	items := SyncChecklist(required, attached)
	if items[0].Status != ChecklistUploaded {
		t.Errorf("status = %s, want uploaded for case-insensitive match", items[0].Status)
	}
}

func TestSyncChecklist_CategoriesInCatalogOrder(t *testing.T) {
	required := RequiredDocuments{
		Borrower:        []string{"Government ID"},
		Company:         []string{"Articles of Organization"},
		SubjectProperty: []string{"Appraisal Report"},
	}

	items := SyncChecklist(required, nil)
	wantCategories := []string{"borrower", "company", "subjectProperty"}
	for i, item := range items {
		if item.Category != wantCategories[i] {
			t.Errorf("item %d category = %s, want %s", i, item.Category, wantCategories[i])
		}
	}
}

func TestProgramDocumentNames(t *testing.T) {
	spec, ok := ProgramByName(ProgramDSCR)
	if !ok {
		t.Fatal("dscr program should exist")
	}
	names := spec.Documents.Names()
	if len(names) != 7 {
		t.Errorf("dscr required document count = %d, want 7", len(names))
	}
}
