// internal/models/requests.go
package models

// Subject identifies the candidate a collaborator call is about.
type Subject struct {
	CandidateID string `json:"candidateId"`
	Code        string `json:"code"`
	Mobile      string `json:"mobile"`
	PAN         string `json:"pan"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
}

// SubjectOf builds the collaborator view of c.
func SubjectOf(c *Candidate) Subject {
	email := c.Email
	if email == "" {
		email = c.Onboarding.Fields.Contact.Email
	}
	return Subject{
		CandidateID: c.ID,
		Code:        c.Code,
		Mobile:      c.Mobile,
		PAN:         c.PAN,
		Email:       email,
		Name:        c.Name,
	}
}

// MissingContact names the first contact channel the subject lacks, or "".
func (s Subject) MissingContact() string {
	switch {
	case s.Mobile == "":
		return ChannelSMS
	case s.Email == "":
		return ChannelEmail
	}
	return ""
}

type CounterpartRequest struct {
	Subject    Subject `json:"subject"`
	OperatorID string  `json:"operatorId"`
	BranchID   string  `json:"branchId"`
}

type InterviewTaskRequest struct {
	Subject     Subject            `json:"subject"`
	Counterpart CounterpartMapping `json:"counterpart"`
	Date        string             `json:"interviewDate"`
	Notes       string             `json:"notes"`
}

type InterviewScheduleRequest struct {
	Subject Subject `json:"subject"`
	TaskID  string  `json:"taskId"`
	Mode    string  `json:"mode"`
	Date    string  `json:"date"`
	Slot    string  `json:"slot"`
	Notes   string  `json:"notes"`
}

type InterviewStatusRequest struct {
	Subject Subject         `json:"subject"`
	TaskID  string          `json:"taskId"`
	Status  InterviewStatus `json:"status"`
}

type InterviewOutcomeRequest struct {
	Subject    Subject `json:"subject"`
	TaskID     string  `json:"taskId"`
	Outcome    Outcome `json:"outcome"`
	ReasonCode string  `json:"reasonCode"`
	ReasonText string  `json:"reasonText"`
	Notes      string  `json:"notes"`
}

type CounterpartNotice struct {
	Subject     Subject            `json:"subject"`
	Counterpart CounterpartMapping `json:"counterpart"`
	Interview   Interview          `json:"interview"`
}

type FormShareRequest struct {
	Subject Subject `json:"subject"`
	Channel string  `json:"channel"`
}
