// Package registration declares the registration screens and serves them
// as live views.
package registration

import (
	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

// Storage keys of the saved screens.
const (
	KeyRegistration         = "registrationData"
	KeyAcademicInfo         = "academicInfoData"
	KeyCollegePreferences   = "collegePreferencesData"
	KeyExperienceActivities = "experienceActivitiesData"
	KeyFinancialInfo        = "financialInfoData"
	KeyAdditionalInfo       = "additionalInfoData"
)

// Eligibility is the entry screen. It is only checked, never saved.
var Eligibility = wizard.Step{
	ID:       "eligibility",
	Title:    "Before we start",
	Subtitle: "A couple of quick questions to make sure CampusMatch is right for you.",
	Label:    "Eligibility",
	Schema: forms.MustSchema("eligibility",
		forms.Choice("currentStatus", "Where are you in school right now?", []forms.Option{
			{Value: "junior", Label: "High school junior"},
			{Value: "senior", Label: "High school senior"},
			{Value: "graduate", Label: "High school graduate"},
			{Value: "transfer", Label: "Transferring from another college"},
		}, forms.AsRadio()),
		forms.Choice("usResident", "Do you plan to study in the United States?", forms.YesNo(), forms.AsRadio()),
		forms.Checkbox("ageConfirmed", "I am at least 13 years old"),
	),
	Rules: []forms.Rule{
		forms.RequiredChoice("currentStatus", "Tell us where you are in school"),
		forms.RequiredChoice("usResident", "Please answer this question"),
		forms.Accepted("ageConfirmed", "You must be at least 13 to register"),
	},
	Action: wizard.ActionContinue,
}

// PersonalInfo collects contact details and basic demographics.
var PersonalInfo = wizard.Step{
	ID:         "personal-info",
	Title:      "Personal Information",
	Subtitle:   "Tell us who you are and how to reach you.",
	Label:      "Personal",
	StorageKey: KeyRegistration,
	Schema: forms.MustSchema("personal-info",
		forms.Text("fullName", "Full name", forms.WithPlaceholder("Jane Doe")),
		forms.EmailField("email", "Email", forms.WithPlaceholder("jane@example.com")),
		forms.PhoneField("phoneNumber", "Phone number", forms.WithHelp("Optional")),
		forms.DateField("dateOfBirth", "Date of birth"),
		forms.Choice("gender", "Gender", forms.Opts("Female", "Male", "Non-binary", "Prefer not to say")),
		forms.Text("address", "Street address"),
		forms.Text("city", "City"),
		forms.Choice("state", "State", forms.Opts(States...)),
	),
	Rules: []forms.Rule{
		forms.RequiredText("fullName", "Full name is required"),
		forms.MaxLength("fullName", 120, "Full name is too long"),
		forms.RequiredText("email", "Email is required"),
		forms.Email("email", "Enter a valid email address"),
		forms.Phone("phoneNumber", "Enter a valid phone number"),
		forms.RequiredText("dateOfBirth", "Date of birth is required"),
		forms.Pattern("dateOfBirth", `^\d{4}-\d{2}-\d{2}$`, "Use the format YYYY-MM-DD"),
		forms.RequiredChoice("gender", "Please select an option"),
		forms.RequiredText("address", "Address is required"),
	},
}

// AcademicInfo collects school and grades.
var AcademicInfo = wizard.Step{
	ID:         "academic-info",
	Title:      "Academic Information",
	Subtitle:   "Your school, grades and what you would like to study.",
	Label:      "Academics",
	StorageKey: KeyAcademicInfo,
	Schema: forms.MustSchema("academic-info",
		forms.Text("highSchool", "High school name"),
		forms.Number("graduationYear", "Graduation year", forms.WithPlaceholder("2026")),
		forms.Number("gpa", "GPA", forms.WithHelp("On a 0 to 5 scale")),
		forms.Choice("standardizedTests", "Standardized tests taken", forms.Opts("SAT", "ACT", "Both", "None")),
		forms.Number("testScore", "Best test score", forms.WithHelp("Optional")),
		forms.List("courses", "Advanced courses", forms.Opts("AP", "IB", "Honors", "Dual enrollment")),
		forms.List("majors", "Intended majors", forms.Opts(Majors...)),
	),
	Rules: []forms.Rule{
		forms.RequiredText("highSchool", "High school is required"),
		forms.RequiredText("graduationYear", "Graduation year is required"),
		forms.Range("graduationYear", 2020, 2035, "Graduation year must be between 2020 and 2035"),
		forms.RequiredText("gpa", "GPA is required"),
		forms.Range("gpa", 0, 5, "GPA must be between 0 and 5"),
		forms.Range("testScore", 1, 1600, "Enter a score between 1 and 1600"),
		forms.NonEmpty("majors", "Pick at least one major"),
	},
}

// CollegePreferences collects where and what kind of college.
var CollegePreferences = wizard.Step{
	ID:         "college-preferences",
	Title:      "College Preferences",
	Subtitle:   "What kind of campus would you like to spend the next four years on?",
	Label:      "Preferences",
	StorageKey: KeyCollegePreferences,
	Schema: forms.MustSchema("college-preferences",
		forms.List("collegeTypes", "College types", forms.Opts("Public", "Private", "Liberal arts", "Community college", "Technical institute")),
		forms.List("regions", "Preferred regions", forms.Opts("Northeast", "Southeast", "Midwest", "Southwest", "West")),
		forms.Choice("campusSetting", "Campus setting", forms.Opts("Urban", "Suburban", "Rural", "No preference"), forms.AsRadio()),
		forms.Choice("size", "School size", forms.Opts("Small", "Medium", "Large", "No preference")),
		forms.Number("maxTuition", "Maximum yearly tuition (USD)", forms.WithPlaceholder("30000")),
		forms.Textarea("colleges", "Colleges you are already considering", forms.WithHelp("Optional")),
	),
	Rules: []forms.Rule{
		forms.NonEmpty("collegeTypes", "Pick at least one college type"),
		forms.NonEmpty("regions", "Pick at least one region"),
		forms.RequiredChoice("campusSetting", "Please select a campus setting"),
		forms.Range("maxTuition", 0, 100000, "Enter an amount between 0 and 100,000"),
		forms.MaxLength("colleges", 1000, "Keep it under 1000 characters"),
	},
}

// ExperienceActivities collects work experience and activities.
var ExperienceActivities = wizard.Step{
	ID:         "experience-activities",
	Title:      "Experience & Activities",
	Subtitle:   "Colleges look beyond grades. Tell us what you do outside class.",
	Label:      "Experience",
	StorageKey: KeyExperienceActivities,
	Schema: forms.MustSchema("experience-activities",
		forms.Group("workExperience", "Work experience",
			forms.Choice("hasExperience", "Have you had a job or internship?", forms.YesNo(), forms.AsRadio()),
			forms.Textarea("description", "Describe your role"),
		),
		forms.List("activities", "Extracurricular activities", forms.Opts(Activities...)),
		forms.Choice("researchExperience", "Have you done research?", forms.YesNo(), forms.AsRadio()),
		forms.Textarea("awards", "Awards and honors", forms.WithHelp("Optional")),
	),
	Rules: []forms.Rule{
		forms.RequiredChoice("workExperience.hasExperience", "Please answer this question"),
		forms.RequiredIf("workExperience.description",
			forms.FieldEquals("workExperience.hasExperience", "yes"),
			"Tell us about your work experience"),
		forms.NonEmpty("activities", "Pick at least one activity"),
	},
}

// FinancialInfo collects budget and aid needs.
var FinancialInfo = wizard.Step{
	ID:         "financial-info",
	Title:      "Financial Information",
	Subtitle:   "This helps us find schools you can afford. It stays private.",
	Label:      "Financial",
	StorageKey: KeyFinancialInfo,
	Schema: forms.MustSchema("financial-info",
		forms.Choice("incomeBracket", "Household income", forms.Opts(
			"Under $30,000", "$30,000 - $60,000", "$60,000 - $100,000", "$100,000 - $150,000", "Over $150,000", "Prefer not to say")),
		forms.Choice("needBasedAid", "Will you need financial aid?", forms.YesNo(), forms.AsRadio()),
		forms.Group("scholarships", "Scholarships",
			forms.Choice("interested", "Are you applying for scholarships?", forms.YesNo(), forms.AsRadio()),
			forms.Text("detail", "Which scholarships?"),
		),
		forms.Group("workStudy", "Work-study",
			forms.Checkbox("interested", "I am interested in work-study"),
			forms.Number("hoursPerWeek", "Hours per week"),
		),
	),
	Rules: []forms.Rule{
		forms.RequiredChoice("incomeBracket", "Please select an income range"),
		forms.RequiredChoice("needBasedAid", "Please answer this question"),
		forms.RequiredChoice("scholarships.interested", "Please answer this question"),
		forms.RequiredIf("scholarships.detail",
			forms.FieldEquals("scholarships.interested", "yes"),
			"Tell us which scholarships"),
		forms.RequiredIf("workStudy.hoursPerWeek",
			forms.FieldEquals("workStudy.interested", true),
			"How many hours could you work?"),
		forms.Range("workStudy.hoursPerWeek", 1, 40, "Enter between 1 and 40 hours"),
	},
}

// AdditionalInfo collects demographics and the terms agreement.
var AdditionalInfo = wizard.Step{
	ID:         "additional-info",
	Title:      "Additional Information",
	Subtitle:   "Almost done. A few last details.",
	Label:      "Additional",
	StorageKey: KeyAdditionalInfo,
	Schema: forms.MustSchema("additional-info",
		forms.Choice("firstGeneration", "Are you a first-generation college student?", forms.YesNo(), forms.AsRadio()),
		forms.Choice("ethnicity", "Ethnicity", forms.Opts(
			"American Indian or Alaska Native", "Asian", "Black or African American", "Hispanic or Latino",
			"Native Hawaiian or Pacific Islander", "White", "Two or more", "Prefer not to say")),
		forms.Choice("howHeard", "How did you hear about us?", forms.Opts(
			"School counselor", "Friend or family", "Social media", "Search engine", "Other")),
		forms.Textarea("personalGoals", "Your goals", forms.WithHelp("Optional")),
		forms.Textarea("specialCircumstances", "Anything else we should know?", forms.WithHelp("Optional")),
		forms.Checkbox("agreeTerms", "I agree to the terms of service and privacy policy"),
	),
	Rules: []forms.Rule{
		forms.RequiredChoice("firstGeneration", "Please answer this question"),
		forms.RequiredChoice("ethnicity", "Please select an option"),
		forms.RequiredChoice("howHeard", "Please select an option"),
		forms.MaxLength("personalGoals", 2000, "Keep it under 2000 characters"),
		forms.Accepted("agreeTerms", "You must agree to the terms"),
	},
}

// States offered by the personal info screen.
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL", "GA", "HI", "ID", "IL", "IN", "IA",
	"KS", "KY", "LA", "ME", "MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ", "NM",
	"NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA",
	"WV", "WI", "WY",
}

// Majors offered by the academic screen.
var Majors = []string{
	"Biology", "Business", "Computer Science", "Economics", "Education", "Engineering",
	"English", "History", "Mathematics", "Nursing", "Political Science", "Psychology", "Undecided",
}

// Activities offered by the experience screen.
var Activities = []string{
	"Sports", "Music", "Theater", "Debate", "Student government", "Volunteering",
	"Robotics", "Journalism", "Clubs", "Part-time job",
}
