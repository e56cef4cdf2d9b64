// internal/models/onboarding.go
package models

import (
	"maps"
	"slices"
	"time"
)

// OnboardingStatus tracks the document onboarding form.
type OnboardingStatus string

const (
	OnboardingNotStarted      OnboardingStatus = "NOT_STARTED"
	OnboardingInProgress      OnboardingStatus = "IN_PROGRESS"
	OnboardingSharedForReview OnboardingStatus = "SHARED_FOR_REVIEW"
)

// Section names one block of the onboarding form.
type Section string

const (
	SectionPersonal  Section = "personal"
	SectionEducation Section = "education"
	SectionContact   Section = "contact"
	SectionBank      Section = "bank"
	SectionNominee   Section = "nominee"
)

// Sections lists the tracked sections in form order.
var Sections = []Section{SectionPersonal, SectionEducation, SectionContact, SectionBank, SectionNominee}

// Valid reports whether s is a tracked section.
func (s Section) Valid() bool {
	for _, known := range Sections {
		if known == s {
			return true
		}
	}
	return false
}

// Prefill sources.
const (
	PrefillSourceProfile  = "ckyc"
	PrefillSourceDocument = "digilocker"
)

// Share channels.
const (
	ChannelSMS      = "sms"
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

type PersonalDetails struct {
	Title         string `json:"title"`
	FirstName     string `json:"firstName"`
	MiddleName    string `json:"middleName"`
	LastName      string `json:"lastName"`
	DOB           string `json:"dob"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"maritalStatus"`
	Category      string `json:"category"`
	RelationTitle string `json:"relationTitle"`
	RelationName  string `json:"relationName"`
}

type EducationDetails struct {
	Qualification string `json:"qualification"`
	Institution   string `json:"institution"`
	RollNumber    string `json:"rollNumber"`
	PassingYear   string `json:"passingYear"`
}

type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type PermanentAddress struct {
	Address
	SameAsCurrent bool `json:"sameAsCurrent"`
}

type ContactDetails struct {
	Mobile           string           `json:"mobile"`
	Email            string           `json:"email"`
	CurrentAddress   Address          `json:"currentAddress"`
	PermanentAddress PermanentAddress `json:"permanentAddress"`
}

// EffectivePermanent returns the current address when the candidate marked them the same.
func (c ContactDetails) EffectivePermanent() Address {
	if c.PermanentAddress.SameAsCurrent {
		return c.CurrentAddress
	}
	return c.PermanentAddress.Address
}

type BankDetails struct {
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName"`
	Branch        string `json:"branch"`
}

type NomineeDetails struct {
	Name                string `json:"name"`
	Relationship        string `json:"relationship"`
	DOB                 string `json:"dob"`
	DeclarationAccepted bool   `json:"declarationAccepted"`
}

type OnboardingFields struct {
	Personal  PersonalDetails  `json:"personal"`
	Education EducationDetails `json:"education"`
	Contact   ContactDetails   `json:"contact"`
	Bank      BankDetails      `json:"bank"`
	Nominee   NomineeDetails   `json:"nominee"`
}

type OnboardingDocs struct {
	Profile  []Document `json:"ckyc"`
	Document []Document `json:"digilocker"`
}

type ShareStatus struct {
	Channel      string     `json:"channel,omitempty"`
	LastSharedAt *time.Time `json:"lastSharedAt,omitempty"`
}

type OnboardingForm struct {
	Status             OnboardingStatus `json:"status"`
	SectionsCompletion map[Section]int  `json:"sectionsCompletion"`
	Fields             OnboardingFields `json:"fields"`
	Docs               OnboardingDocs   `json:"docs"`
	Share              ShareStatus      `json:"shareStatus"`
}

// NewOnboardingForm returns an empty form with every section incomplete.
func NewOnboardingForm() OnboardingForm {
	completion := make(map[Section]int, len(Sections))
	for _, s := range Sections {
		completion[s] = 0
	}
	return OnboardingForm{
		Status:             OnboardingNotStarted,
		SectionsCompletion: completion,
	}
}

// Clone returns a deep copy of the form.
func (f OnboardingForm) Clone() OnboardingForm {
	out := f
	out.SectionsCompletion = maps.Clone(f.SectionsCompletion)
	out.Docs.Profile = slices.Clone(f.Docs.Profile)
	out.Docs.Document = slices.Clone(f.Docs.Document)
	if f.Share.LastSharedAt != nil {
		t := *f.Share.LastSharedAt
		out.Share.LastSharedAt = &t
	}
	return out
}
