package wizard

import (
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/shared"
)

// Session owns one wizard run. All wizard state hangs off the session:
// the form, the lookup data it renders from, and the navigation cursor.
// Sessions are not safe for concurrent use; one goroutine drives them.
type Session struct {
	// ID doubles as the backend idempotency key for the submission.
	ID      string
	Mode    Mode
	Form    *FormModel
	Lookups *models.Lookups

	// UserID is the existing account for the add-service modes.
	UserID string
	// ServiceRequestID links the run to a pending service request, if any.
	ServiceRequestID string

	current    int
	submitting bool
	closed     bool
}

// NewSession starts a wizard run in the given mode.
func NewSession(mode Mode, lookups *models.Lookups) *Session {
	return &Session{
		ID:      shared.GenerateID(),
		Mode:    mode,
		Form:    NewFormModel(mode),
		Lookups: lookups,
	}
}

// Steps returns the active step list, re-derived from the current form
// state. The cursor is clamped whenever a service toggle shrinks the
// plan underneath it.
func (s *Session) Steps() []Step {
	steps := Plan(s.Mode, s.Form.Services)
	if s.current >= len(steps) {
		s.current = len(steps) - 1
	}
	return steps
}

// Current returns the step the cursor is on.
func (s *Session) Current() Step {
	steps := s.Steps()
	return steps[s.current]
}

// OnStep reports whether the cursor is on the given step kind.
func (s *Session) OnStep(key StepKey) bool {
	return s.Current().Key == key
}

// Next validates the current step and advances the cursor. The cursor
// never moves when validation fails, and never advances past review:
// the results step is only entered through Submit.
func (s *Session) Next() error {
	if s.closed {
		return shared.ErrSessionClosed
	}

	step := s.Current()
	if step.Key == StepReview || step.Key == StepResults {
		return shared.ErrStepOutOfRange
	}
	if err := ValidateStep(step.Key, s.Form); err != nil {
		return err
	}
	s.current++
	return nil
}

// Previous moves the cursor back one step without validating; the
// operator may always retreat to fix earlier input. Retreating out of
// the results step is not allowed once a submission has started.
func (s *Session) Previous() error {
	if s.closed {
		return shared.ErrSessionClosed
	}
	if s.submitting {
		return shared.ErrSubmitInFlight
	}
	if s.current == 0 {
		return shared.ErrStepOutOfRange
	}
	s.current--
	return nil
}

// GoToStep jumps directly to a step by its 1-based id. Only backward
// jumps are allowed, so review-screen edit links can return to any
// earlier step but the validation gate on Next can never be bypassed.
func (s *Session) GoToStep(id int) error {
	if s.closed {
		return shared.ErrSessionClosed
	}
	if s.submitting {
		return shared.ErrSubmitInFlight
	}

	steps := s.Steps()
	idx := id - 1
	if idx < 0 || idx >= len(steps) || idx > s.current {
		return shared.ErrStepOutOfRange
	}
	s.current = idx
	return nil
}

// BeginSubmit gates the submission: it must start from the review step
// and only one submission may ever run per session. On success the
// cursor moves to the results step and the session is locked against
// navigation until FinishSubmit.
func (s *Session) BeginSubmit() error {
	if s.closed {
		return shared.ErrSessionClosed
	}
	if s.submitting {
		return shared.ErrSubmitInFlight
	}
	if !s.OnStep(StepReview) {
		return shared.ErrStepOutOfRange
	}

	// Re-run every validator before anything leaves the process; a step
	// edited after its gate passed must not slip through.
	for _, step := range s.Steps() {
		if err := ValidateStep(step.Key, s.Form); err != nil {
			return err
		}
	}

	s.submitting = true
	s.current++
	return nil
}

// FinishSubmit releases the submission lock after the run settles.
// The cursor stays on results; the session is done navigating.
func (s *Session) FinishSubmit() {
	s.submitting = false
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool { return s.submitting }

// Close marks the session dead. A closed session rejects all
// navigation and submission; in-flight work detaches from it.
func (s *Session) Close() {
	s.closed = true
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool { return s.closed }
