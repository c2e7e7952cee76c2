package domain

import "math"

// RecomputeProgress derives the progress object from the current section
// contents. Pure: it returns the new progress and leaves the aggregate
// untouched; persisting the result is the repository's job.
//
// A section is completed iff every field the program requires for it is
// present and non-empty. The overall percentage divides by the number of
// sections the program defines, never a fixed denominator, and a program
// with zero defined sections yields 0, not a division error.
func RecomputeProgress(app *LoanApplication) Progress {
	spec, ok := ProgramByName(app.LoanProgram)
	if !ok || len(spec.Sections) == 0 {
		return Progress{Sections: map[string]bool{}, OverallProgress: 0}
	}

	flags := make(map[string]bool, len(spec.Sections))
	completed := 0
	for _, req := range spec.Sections {
		section, _ := app.Section(req.Name)
		done := sectionComplete(section, req.RequiredFields)
		flags[req.Name] = done
		if done {
			completed++
		}
	}

	overall := int(math.Round(100 * float64(completed) / float64(len(spec.Sections))))
	return Progress{Sections: flags, OverallProgress: overall}
}

// IncompleteSections lists the program sections whose required fields are not
// all filled in. Submission is blocked while this is non-empty.
func IncompleteSections(app *LoanApplication) []string {
	spec, ok := ProgramByName(app.LoanProgram)
	if !ok {
		return nil
	}
	var missing []string
	for _, req := range spec.Sections {
		section, _ := app.Section(req.Name)
		if !sectionComplete(section, req.RequiredFields) {
			missing = append(missing, req.Name)
		}
	}
	return missing
}

func sectionComplete(section Section, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if section == nil {
		return false
	}
	for _, field := range required {
		if !FieldPresent(section[field]) {
			return false
		}
	}
	return true
}
