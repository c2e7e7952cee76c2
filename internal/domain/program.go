package domain

// SectionRequirement names the minimal identifying fields a section needs
// before it counts as completed for a program.
type SectionRequirement struct {
	Name           string
	RequiredFields []string
}

// RequiredDocuments groups a program's required document names the way the
// external catalog service returns them.
type RequiredDocuments struct {
	Borrower        []string `json:"borrower"`
	Company         []string `json:"company"`
	SubjectProperty []string `json:"subjectProperty"`
}

// Names flattens the groups in catalog order.
func (r RequiredDocuments) Names() []string {
	out := make([]string, 0, len(r.Borrower)+len(r.Company)+len(r.SubjectProperty))
	out = append(out, r.Borrower...)
	out = append(out, r.Company...)
	out = append(out, r.SubjectProperty...)
	return out
}

// ProgramSpec defines one loan product: which sections it requires for
// submission and which documents its checklist demands. The field sets
// diverge between products (construction vs DSCR vs fix-and-flip), so each
// product gets its own concrete spec instead of one optional-everything bag.
type ProgramSpec struct {
	Name      string
	Category  string
	Sections  []SectionRequirement
	Documents RequiredDocuments
}

// SectionByName returns the requirement for the named section.
func (p ProgramSpec) SectionByName(name string) (SectionRequirement, bool) {
	for _, s := range p.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionRequirement{}, false
}

// Program names.
const (
	ProgramDSCR         = "dscr"
	ProgramConstruction = "construction"
	ProgramFixAndFlip   = "fix_and_flip"
)

var programs = map[string]ProgramSpec{
	ProgramDSCR: {
		Name:     ProgramDSCR,
		Category: "investment",
		Sections: []SectionRequirement{
			{Name: SectionBorrowerInfo, RequiredFields: []string{"fullName", "email"}},
			{Name: SectionBusinessInfo, RequiredFields: []string{"businessName"}},
			{Name: SectionLoanDetails, RequiredFields: []string{"loanAmount"}},
			{Name: SectionFinancialInfo, RequiredFields: []string{"monthlyRentalIncome"}},
			{Name: SectionPropertyInfo, RequiredFields: []string{"propertyAddress"}},
		},
		Documents: RequiredDocuments{
			Borrower:        []string{"Government ID", "Credit Report"},
			Company:         []string{"Articles of Organization", "Operating Agreement"},
			SubjectProperty: []string{"Lease Agreement", "Insurance Policy", "Appraisal Report"},
		},
	},
	ProgramConstruction: {
		Name:     ProgramConstruction,
		Category: "construction",
		Sections: []SectionRequirement{
			{Name: SectionBorrowerInfo, RequiredFields: []string{"fullName", "email"}},
			{Name: SectionBusinessInfo, RequiredFields: []string{"businessName"}},
			{Name: SectionLoanDetails, RequiredFields: []string{"loanAmount", "constructionBudget"}},
			{Name: SectionFinancialInfo, RequiredFields: []string{"liquidAssets"}},
			{Name: SectionPropertyInfo, RequiredFields: []string{"propertyAddress"}},
		},
		Documents: RequiredDocuments{
			Borrower:        []string{"Government ID", "Credit Report", "Experience Resume"},
			Company:         []string{"Articles of Organization"},
			SubjectProperty: []string{"Construction Budget", "Plans and Permits", "Builder's Risk Insurance"},
		},
	},
	ProgramFixAndFlip: {
		Name:     ProgramFixAndFlip,
		Category: "investment",
		Sections: []SectionRequirement{
			{Name: SectionBorrowerInfo, RequiredFields: []string{"fullName", "email"}},
			{Name: SectionBusinessInfo, RequiredFields: []string{"businessName"}},
			{Name: SectionLoanDetails, RequiredFields: []string{"loanAmount", "rehabBudget"}},
			{Name: SectionFinancialInfo, RequiredFields: []string{"liquidAssets"}},
			{Name: SectionPropertyInfo, RequiredFields: []string{"propertyAddress", "afterRepairValue"}},
		},
		Documents: RequiredDocuments{
			Borrower:        []string{"Government ID", "Credit Report"},
			Company:         []string{"Articles of Organization"},
			SubjectProperty: []string{"Purchase Contract", "Rehab Budget", "Appraisal Report"},
		},
	},
}

// ProgramByName looks up a program spec.
func ProgramByName(name string) (ProgramSpec, bool) {
	p, ok := programs[name]
	return p, ok
}

// ProgramNames lists the known programs.
func ProgramNames() []string {
	return []string{ProgramDSCR, ProgramConstruction, ProgramFixAndFlip}
}

// numericFields are section fields that carry amounts or scores. User input
// for these arrives as free text and is coerced defensively.
var numericFields = map[string]struct{}{
	"loanAmount":          {},
	"constructionBudget":  {},
	"rehabBudget":         {},
	"afterRepairValue":    {},
	"monthlyRentalIncome": {},
	"liquidAssets":        {},
	"annualIncome":        {},
	"creditScore":         {},
	"purchasePrice":       {},
	"propertyValue":       {},
}

// NumericField reports whether the leaf field of a path holds a number.
func NumericField(leaf string) bool {
	_, ok := numericFields[leaf]
	return ok
}
