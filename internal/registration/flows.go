package registration

import (
	"fmt"

	"github.com/campusmatch/campusmatch/pkg/wizard"
)

// Page paths.
const (
	PathHome     = "/"
	PathRegister = "/register"
	PathAcademic = "/academic-info"
	PathProfile  = "/experience-activities"
)

// The three registration pages, in the order a visitor walks them.
var (
	RegistrationFlow = wizard.MustFlow("registration", PathRegister, PathAcademic,
		Eligibility, PersonalInfo)

	AcademicFlow = wizard.MustFlow("academic", PathAcademic, PathProfile,
		AcademicInfo, CollegePreferences)

	ProfileFlow = wizard.MustFlow("profile", PathProfile, PathHome,
		ExperienceActivities, FinancialInfo, AdditionalInfo)
)

// Flows returns every flow in walking order.
func Flows() []*wizard.Flow {
	return []*wizard.Flow{RegistrationFlow, AcademicFlow, ProfileFlow}
}

// FlowByPath returns the flow served at path.
func FlowByPath(path string) (*wizard.Flow, bool) {
	for _, f := range Flows() {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

// FlowByName returns the flow with the given name.
func FlowByName(name string) (*wizard.Flow, error) {
	for _, f := range Flows() {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown flow %q", name)
}

// StorageKeys lists every key the flows write, in walking order.
func StorageKeys() []string {
	var keys []string
	for _, f := range Flows() {
		keys = append(keys, f.StorageKeys()...)
	}
	return keys
}
