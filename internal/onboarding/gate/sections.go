package gate

import (
	"fmt"
	"strings"

	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/ledger"
)

type requirement struct {
	field string
	label string
	value func(models.OnboardingFields) string
}

func addressRequirements(prefix, label string, pick func(models.OnboardingFields) models.Address) []requirement {
	return []requirement{
		{prefix + ".line1", label + " line1", func(f models.OnboardingFields) string { return pick(f).Line1 }},
		{prefix + ".line2", label + " line2", func(f models.OnboardingFields) string { return pick(f).Line2 }},
		{prefix + ".city", label + " city", func(f models.OnboardingFields) string { return pick(f).City }},
		{prefix + ".state", label + " state", func(f models.OnboardingFields) string { return pick(f).State }},
		{prefix + ".pincode", label + " pincode", func(f models.OnboardingFields) string { return pick(f).Pincode }},
	}
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return ""
}

var requirements = map[models.Section][]requirement{
	models.SectionPersonal: {
		{"title", "Title", func(f models.OnboardingFields) string { return f.Personal.Title }},
		{"firstName", "First name", func(f models.OnboardingFields) string { return f.Personal.FirstName }},
		{"middleName", "Middle name", func(f models.OnboardingFields) string { return f.Personal.MiddleName }},
		{"lastName", "Last name", func(f models.OnboardingFields) string { return f.Personal.LastName }},
		{"dob", "Date of birth", func(f models.OnboardingFields) string { return f.Personal.DOB }},
		{"gender", "Gender", func(f models.OnboardingFields) string { return f.Personal.Gender }},
		{"maritalStatus", "Marital status", func(f models.OnboardingFields) string { return f.Personal.MaritalStatus }},
		{"category", "Category", func(f models.OnboardingFields) string { return f.Personal.Category }},
		{"relationTitle", "Relation title", func(f models.OnboardingFields) string { return f.Personal.RelationTitle }},
		{"relationName", "Relation name", func(f models.OnboardingFields) string { return f.Personal.RelationName }},
	},
	models.SectionEducation: {
		{"qualification", "Qualification", func(f models.OnboardingFields) string { return f.Education.Qualification }},
		{"institution", "Institution", func(f models.OnboardingFields) string { return f.Education.Institution }},
		{"rollNumber", "Roll number", func(f models.OnboardingFields) string { return f.Education.RollNumber }},
		{"passingYear", "Passing year", func(f models.OnboardingFields) string { return f.Education.PassingYear }},
	},
	models.SectionContact: append(append([]requirement{
		{"email", "Email", func(f models.OnboardingFields) string { return f.Contact.Email }},
	},
		addressRequirements("currentAddress", "Current", func(f models.OnboardingFields) models.Address { return f.Contact.CurrentAddress })...),
		addressRequirements("permanentAddress", "Permanent", func(f models.OnboardingFields) models.Address { return f.Contact.EffectivePermanent() })...),
	models.SectionBank: {
		{"accountNumber", "Account number", func(f models.OnboardingFields) string { return f.Bank.AccountNumber }},
		{"ifsc", "IFSC", func(f models.OnboardingFields) string { return f.Bank.IFSC }},
		{"bankName", "Bank name", func(f models.OnboardingFields) string { return f.Bank.BankName }},
		{"branch", "Branch", func(f models.OnboardingFields) string { return f.Bank.Branch }},
	},
	models.SectionNominee: {
		{"name", "Nominee name", func(f models.OnboardingFields) string { return f.Nominee.Name }},
		{"relationship", "Relationship", func(f models.OnboardingFields) string { return f.Nominee.Relationship }},
		{"dob", "Nominee date of birth", func(f models.OnboardingFields) string { return f.Nominee.DOB }},
		{"declarationAccepted", "Declaration", func(f models.OnboardingFields) string { return boolValue(f.Nominee.DeclarationAccepted) }},
	},
}

// SectionComplete reports whether every required field of section is filled.
func SectionComplete(fields models.OnboardingFields, section models.Section) bool {
	reqs, ok := requirements[section]
	if !ok {
		return false
	}
	for _, r := range reqs {
		if strings.TrimSpace(r.value(fields)) == "" {
			return false
		}
	}
	return true
}

// MissingFields returns "section.field" -> message for every empty required field.
func MissingFields(fields models.OnboardingFields) map[string]string {
	missing := map[string]string{}
	for _, sec := range models.Sections {
		for _, r := range requirements[sec] {
			if strings.TrimSpace(r.value(fields)) != "" {
				continue
			}
			msg := fmt.Sprintf("%s is required", r.label)
			if r.field == "declarationAccepted" {
				msg = "Please confirm declaration"
			}
			missing[string(sec)+"."+r.field] = msg
		}
	}
	return missing
}

// RequiredFieldCount is the number of mandatory onboarding fields.
func RequiredFieldCount() int {
	n := 0
	for _, sec := range models.Sections {
		n += len(requirements[sec])
	}
	return n
}

// CompletionEventType names the event appended when section becomes complete.
func CompletionEventType(section models.Section) string {
	return strings.ToUpper(string(section)) + "_COMPLETED"
}

// SectionTracker re-evaluates section completion flags on the form and
// appends one completion event per 0 -> 1 crossing.
type SectionTracker struct {
	Ledger *ledger.Ledger
	Actor  ledger.Actor
}

// Track updates form.SectionsCompletion and returns the sections that just
// became complete.
func (t SectionTracker) Track(form *models.OnboardingForm) []models.Section {
	if form.SectionsCompletion == nil {
		form.SectionsCompletion = make(map[models.Section]int, len(models.Sections))
	}
	var crossed []models.Section
	for _, sec := range models.Sections {
		prev := form.SectionsCompletion[sec]
		now := 0
		if SectionComplete(form.Fields, sec) {
			now = 1
		}
		form.SectionsCompletion[sec] = now
		if prev == 0 && now == 1 {
			crossed = append(crossed, sec)
			if t.Ledger != nil {
				t.Ledger.Append(ledger.Event{
					Actor:   t.Actor,
					Type:    CompletionEventType(sec),
					Outcome: ledger.OutcomeSuccess,
					Details: map[string]interface{}{"section": string(sec)},
				})
			}
		}
	}
	return crossed
}
