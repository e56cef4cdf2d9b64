package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/gate"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/internal/onboarding/state"
)

func editable(s *state.CandidateWorkflowState) error {
	if !gate.OnboardingEditable(s) {
		if s.Candidate.Onboarding.Status == models.OnboardingSharedForReview {
			return errors.NewStageLockedError("the form was shared for review and is read-only")
		}
		return errors.NewStageLockedError("onboarding opens after a PASS interview outcome")
	}
	return nil
}

// Prefill pulls form data from a registry source (ckyc or digilocker).
func (c *Coordinator) Prefill(ctx context.Context, source string) (registry.Record, error) {
	if source != models.PrefillSourceProfile && source != models.PrefillSourceDocument {
		return registry.Record{}, errors.NewValidationError("source", fmt.Sprintf("unknown prefill source %q", source))
	}
	return c.execute(ctx, c.prefillAttempt(source), triggerManual)
}

func (c *Coordinator) prefillAttempt(source string) attempt {
	key := models.CheckProfilePrefill
	if source == models.PrefillSourceDocument {
		key = models.CheckDocumentPrefill
	}
	return attempt{
		key:     key,
		running: "Fetching",
		done: func(p models.Payload) string {
			n := 0
			switch r := p.(type) {
			case *models.ProfilePrefill:
				n = r.AutoFilled
			case *models.DocumentPrefill:
				n = r.AutoFilled
			}
			return fmt.Sprintf("%d fields auto-filled", n)
		},
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			if err := editable(s); err != nil {
				return nil, err
			}
			subject := models.SubjectOf(s.Candidate)
			return func(ctx context.Context) (models.Payload, error) {
				if source == models.PrefillSourceDocument {
					r, err := c.deps.Prefiller.PrefillDocuments(ctx, subject)
					return payloadOf(r, err)
				}
				r, err := c.deps.Prefiller.PrefillProfile(ctx, subject)
				return payloadOf(r, err)
			}, nil
		},
		apply: func(s *state.CandidateWorkflowState, p models.Payload, _ time.Time) {
			form := &s.Candidate.Onboarding
			switch r := p.(type) {
			case *models.ProfilePrefill:
				mergePersonal(&form.Fields.Personal, r.Personal)
				mergeAddress(&form.Fields.Contact.CurrentAddress, r.Address)
				if form.Fields.Contact.PermanentAddress.SameAsCurrent {
					form.Fields.Contact.PermanentAddress.Address = form.Fields.Contact.CurrentAddress
				}
				form.Docs.Profile = append([]models.Document(nil), r.Docs...)
			case *models.DocumentPrefill:
				mergeEducation(&form.Fields.Education, r.Education)
				mergeBank(&form.Fields.Bank, r.Bank)
				form.Docs.Document = append([]models.Document(nil), r.Docs...)
			}
			if form.Status == models.OnboardingNotStarted {
				form.Status = models.OnboardingInProgress
			}
			gate.SectionTracker{Ledger: s.Ledger, Actor: ledger.ActorSystem}.Track(form)
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			d := models.PayloadDetails(p)
			d["source"] = source
			return "PREFILL_APPLIED", d
		},
	}
}

func merge(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergePersonal(dst *models.PersonalDetails, src models.PersonalDetails) {
	merge(&dst.Title, src.Title)
	merge(&dst.FirstName, src.FirstName)
	merge(&dst.MiddleName, src.MiddleName)
	merge(&dst.LastName, src.LastName)
	merge(&dst.DOB, src.DOB)
	merge(&dst.Gender, src.Gender)
	merge(&dst.MaritalStatus, src.MaritalStatus)
	merge(&dst.Category, src.Category)
	merge(&dst.RelationTitle, src.RelationTitle)
	merge(&dst.RelationName, src.RelationName)
}

func mergeAddress(dst *models.Address, src models.Address) {
	merge(&dst.Line1, src.Line1)
	merge(&dst.Line2, src.Line2)
	merge(&dst.City, src.City)
	merge(&dst.State, src.State)
	merge(&dst.Pincode, src.Pincode)
}

func mergeEducation(dst *models.EducationDetails, src models.EducationDetails) {
	merge(&dst.Qualification, src.Qualification)
	merge(&dst.Institution, src.Institution)
	merge(&dst.RollNumber, src.RollNumber)
	merge(&dst.PassingYear, src.PassingYear)
}

func mergeBank(dst *models.BankDetails, src models.BankDetails) {
	merge(&dst.AccountNumber, src.AccountNumber)
	merge(&dst.IFSC, src.IFSC)
	merge(&dst.BankName, src.BankName)
	merge(&dst.Branch, src.Branch)
}

// UpdateOnboardingFields applies a JSON patch of one section's fields.
// Unknown fields are rejected.
func (c *Coordinator) UpdateOnboardingFields(ctx context.Context, section models.Section, patch []byte) (models.OnboardingForm, error) {
	if !section.Valid() {
		return models.OnboardingForm{}, errors.NewValidationError("section", fmt.Sprintf("unknown section %q", section))
	}
	var form models.OnboardingForm
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		if err := editable(s); err != nil {
			return err
		}
		f := &s.Candidate.Onboarding
		fields := f.Fields
		var target interface{}
		switch section {
		case models.SectionPersonal:
			target = &fields.Personal
		case models.SectionEducation:
			target = &fields.Education
		case models.SectionContact:
			target = &fields.Contact
		case models.SectionBank:
			target = &fields.Bank
		case models.SectionNominee:
			target = &fields.Nominee
		}
		dec := json.NewDecoder(bytes.NewReader(patch))
		dec.DisallowUnknownFields()
		if err := dec.Decode(target); err != nil {
			return errors.NewValidationError(string(section), err.Error())
		}
		if fields.Contact.PermanentAddress.SameAsCurrent {
			fields.Contact.PermanentAddress.Address = fields.Contact.CurrentAddress
		}
		f.Fields = fields
		if f.Status == models.OnboardingNotStarted {
			f.Status = models.OnboardingInProgress
		}
		gate.SectionTracker{Ledger: s.Ledger, Actor: ledger.ActorOperator}.Track(f)
		s.Candidate.UpdatedAt = c.workflow.Now()
		form = f.Clone()
		return nil
	})
	return form, err
}

// ValidateOnboarding returns the missing mandatory fields keyed
// "section.field". A complete form that is still editable moves to
// IN_PROGRESS.
func (c *Coordinator) ValidateOnboarding(ctx context.Context) (map[string]string, error) {
	var missing map[string]string
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		missing = gate.MissingFields(s.Candidate.Onboarding.Fields)
		if len(missing) == 0 && gate.OnboardingEditable(s) {
			s.Candidate.Onboarding.Status = models.OnboardingInProgress
		}
		return nil
	})
	return missing, err
}

// SaveOnboarding records a draft save of the form.
func (c *Coordinator) SaveOnboarding(ctx context.Context) (models.OnboardingForm, error) {
	var form models.OnboardingForm
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		if err := editable(s); err != nil {
			return err
		}
		f := &s.Candidate.Onboarding
		if f.Status == models.OnboardingNotStarted {
			f.Status = models.OnboardingInProgress
		}
		completed := 0
		for _, n := range f.SectionsCompletion {
			completed += n
		}
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    "ONBOARDING_SAVED",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{
				"candidateId":       s.Candidate.ID,
				"sectionsCompleted": completed,
			},
		})
		form = f.Clone()
		return nil
	})
	return form, err
}

// ShareOnboardingForm sends the form to the candidate for review. An empty
// channel reuses the last one, falling back to SMS.
func (c *Coordinator) ShareOnboardingForm(ctx context.Context, channel string) (registry.Record, error) {
	switch channel {
	case "", models.ChannelSMS, models.ChannelEmail, models.ChannelWhatsApp:
	default:
		return registry.Record{}, errors.NewUnsupportedChannelError(channel)
	}
	return c.execute(ctx, c.shareAttempt(channel), triggerManual)
}

func (c *Coordinator) shareAttempt(channel string) attempt {
	var used string
	return attempt{
		key:     models.CheckFormShare,
		op:      "share",
		inputs:  map[string]string{"channel": channel},
		running: "Sharing",
		done: func(models.Payload) string {
			return "Shared via " + used
		},
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			if err := editable(s); err != nil {
				return nil, err
			}
			used = channel
			if used == "" {
				used = s.Candidate.Onboarding.Share.Channel
			}
			if used == "" {
				used = models.ChannelSMS
			}
			req := models.FormShareRequest{Subject: models.SubjectOf(s.Candidate), Channel: used}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Sharer.ShareForm(ctx, req)
				return payloadOf(r, err)
			}, nil
		},
		apply: func(s *state.CandidateWorkflowState, p models.Payload, now time.Time) {
			f := &s.Candidate.Onboarding
			shared := now
			if r, ok := p.(*models.FormShareResult); ok {
				shared = parseTime(r.SharedAt, now)
			}
			f.Status = models.OnboardingSharedForReview
			f.Share = models.ShareStatus{Channel: used, LastSharedAt: &shared}
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			d := models.PayloadDetails(p)
			d["channel"] = used
			return "ONBOARDING_SHARED", d
		},
	}
}
