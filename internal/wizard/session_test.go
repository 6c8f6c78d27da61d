package wizard

import (
	"errors"
	"testing"

	"github.com/streampanel/panelctl/internal/shared"
)

// advanceToReview drives a valid create-mode session to the review step.
func advanceToReview(t *testing.T) *Session {
	t.Helper()
	sess := NewSession(ModeCreate, nil)
	*sess.Form = *validForm()
	for !sess.OnStep(StepReview) {
		if err := sess.Next(); err != nil {
			t.Fatalf("Next() on %s: %v", sess.Current().Key, err)
		}
	}
	return sess
}

func TestSessionNavigation(t *testing.T) {
	sess := NewSession(ModeCreate, nil)
	if sess.ID == "" {
		t.Error("session has no id")
	}
	if !sess.OnStep(StepBasic) {
		t.Fatalf("new session starts on %s, want basic", sess.Current().Key)
	}

	// An invalid step blocks forward navigation without moving the cursor.
	if err := sess.Next(); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("Next() with empty form = %v, want validation error", err)
	}
	if !sess.OnStep(StepBasic) {
		t.Error("cursor moved despite failed validation")
	}

	// Backward navigation never validates.
	*sess.Form = *validForm()
	if err := sess.Next(); err != nil {
		t.Fatalf("Next() = %v", err)
	}
	sess.Form.Basic.Email = ""
	if err := sess.Previous(); err != nil {
		t.Errorf("Previous() = %v", err)
	}
	if !sess.OnStep(StepBasic) {
		t.Errorf("cursor on %s after Previous, want basic", sess.Current().Key)
	}
	if err := sess.Previous(); !errors.Is(err, shared.ErrStepOutOfRange) {
		t.Errorf("Previous() from first step = %v, want out of range", err)
	}
}

func TestSessionClampOnServiceToggle(t *testing.T) {
	sess := NewSession(ModeCreate, nil)
	*sess.Form = *validForm()

	// basic -> services -> plex -> iptv
	for i := 0; i < 3; i++ {
		if err := sess.Next(); err != nil {
			t.Fatalf("Next() %d: %v", i, err)
		}
	}
	if !sess.OnStep(StepIPTV) {
		t.Fatalf("cursor on %s, want iptv", sess.Current().Key)
	}

	// Dropping IPTV shrinks the plan; the cursor must clamp, not dangle.
	sess.Form.Services.IPTV = false
	sess.Form.IPTV = NewFormModel(ModeCreate).IPTV
	steps := sess.Steps()
	cur := sess.Current()
	if cur.ID > len(steps) {
		t.Fatalf("cursor id %d beyond %d steps", cur.ID, len(steps))
	}
	if cur.Key != StepReview {
		t.Errorf("cursor on %s after shrink, want review", cur.Key)
	}
}

func TestSessionGoToStep(t *testing.T) {
	sess := advanceToReview(t)

	// Review-screen edit links jump backward only.
	if err := sess.GoToStep(1); err != nil {
		t.Fatalf("GoToStep(1) = %v", err)
	}
	if !sess.OnStep(StepBasic) {
		t.Errorf("cursor on %s, want basic", sess.Current().Key)
	}
	if err := sess.GoToStep(len(sess.Steps())); !errors.Is(err, shared.ErrStepOutOfRange) {
		t.Errorf("forward GoToStep = %v, want out of range", err)
	}
	if err := sess.GoToStep(0); !errors.Is(err, shared.ErrStepOutOfRange) {
		t.Errorf("GoToStep(0) = %v, want out of range", err)
	}
}

func TestSessionSubmitGate(t *testing.T) {
	sess := NewSession(ModeCreate, nil)
	*sess.Form = *validForm()

	if err := sess.BeginSubmit(); !errors.Is(err, shared.ErrStepOutOfRange) {
		t.Errorf("BeginSubmit() off review = %v, want out of range", err)
	}

	sess = advanceToReview(t)
	if err := sess.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit() = %v", err)
	}
	if !sess.OnStep(StepResults) {
		t.Errorf("cursor on %s after submit, want results", sess.Current().Key)
	}
	if !sess.Submitting() {
		t.Error("Submitting() = false during submission")
	}

	// Exactly one submission per session; navigation is locked meanwhile.
	if err := sess.BeginSubmit(); !errors.Is(err, shared.ErrSubmitInFlight) {
		t.Errorf("second BeginSubmit() = %v, want in flight", err)
	}
	if err := sess.Previous(); !errors.Is(err, shared.ErrSubmitInFlight) {
		t.Errorf("Previous() during submit = %v, want in flight", err)
	}

	sess.FinishSubmit()
	if sess.Submitting() {
		t.Error("Submitting() = true after FinishSubmit")
	}
}

func TestSessionSubmitRevalidates(t *testing.T) {
	sess := advanceToReview(t)
	// A step broken after its gate passed must still block submission.
	sess.Form.Plex.PackageID = ""
	if err := sess.BeginSubmit(); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("BeginSubmit() with broken step = %v, want validation error", err)
	}
	if !sess.OnStep(StepReview) {
		t.Error("cursor left review on failed submit")
	}
}

func TestSessionClosed(t *testing.T) {
	sess := advanceToReview(t)
	sess.Close()

	if err := sess.Next(); !errors.Is(err, shared.ErrSessionClosed) {
		t.Errorf("Next() on closed session = %v", err)
	}
	if err := sess.Previous(); !errors.Is(err, shared.ErrSessionClosed) {
		t.Errorf("Previous() on closed session = %v", err)
	}
	if err := sess.BeginSubmit(); !errors.Is(err, shared.ErrSessionClosed) {
		t.Errorf("BeginSubmit() on closed session = %v", err)
	}
}

func TestBuildRequest(t *testing.T) {
	t.Run("create with both services", func(t *testing.T) {
		sess := NewSession(ModeCreate, nil)
		*sess.Form = *validForm()
		req := sess.BuildRequest()

		if req.SessionID != sess.ID {
			t.Errorf("SessionID = %q, want %q", req.SessionID, sess.ID)
		}
		if req.Mode != "create" {
			t.Errorf("Mode = %q", req.Mode)
		}
		if req.Basic == nil || req.Plex == nil || req.IPTV == nil {
			t.Fatalf("payloads = basic:%v plex:%v iptv:%v", req.Basic, req.Plex, req.IPTV)
		}
		if req.Plex.SkipProvisioning {
			t.Error("SkipProvisioning set without a matching access snapshot")
		}
		if req.IPTV.Username != "jmoreau" || req.IPTV.LinkedUserID != "" {
			t.Errorf("iptv payload = %+v", req.IPTV)
		}
	})

	t.Run("add plex omits basic and iptv", func(t *testing.T) {
		sess := NewSession(ModeAddPlex, nil)
		sess.UserID = "user-7"
		form := validForm()
		form.Services = ServicesFor(ModeAddPlex)
		*sess.Form = *form
		req := sess.BuildRequest()

		if req.Basic != nil || req.IPTV != nil {
			t.Error("add_plex request carries basic or iptv payloads")
		}
		if req.Mode != "add_plex" || req.UserID != "user-7" {
			t.Errorf("request = mode %q user %q", req.Mode, req.UserID)
		}
	})

	t.Run("unchanged plex access sets skip", func(t *testing.T) {
		sess := NewSession(ModeAddPlex, nil)
		form := validForm()
		form.Services = ServicesFor(ModeAddPlex)
		*sess.Form = *form
		sess.Form.ApplyAccessCheck(accessResult())

		req := sess.BuildRequest()
		if !req.Plex.SkipProvisioning {
			t.Error("SkipProvisioning = false for an untouched selection")
		}

		sess.Form.Plex.ToggleLibrary("srv-1", "lib-z")
		if req := sess.BuildRequest(); req.Plex.SkipProvisioning {
			t.Error("SkipProvisioning = true after the selection changed")
		}
	})

	t.Run("linked iptv user strips credentials", func(t *testing.T) {
		sess := NewSession(ModeAddIPTV, nil)
		form := validForm()
		form.Services = ServicesFor(ModeAddIPTV)
		*sess.Form = *form
		sess.Form.IPTV.CreateEditor = true
		sess.Form.IPTV.Link = LinkState{
			Kind:         LinkedWithEditor,
			PanelUserID:  "u-9",
			EditorUserID: "ed-4",
		}

		req := sess.BuildRequest()
		if req.IPTV.Username != "" || req.IPTV.Password != "" || req.IPTV.Email != "" {
			t.Errorf("credentials on the wire for a linked user: %+v", req.IPTV)
		}
		if req.IPTV.LinkedUserID != "u-9" || req.IPTV.LinkedEditorUserID != "ed-4" {
			t.Errorf("link ids = %q / %q", req.IPTV.LinkedUserID, req.IPTV.LinkedEditorUserID)
		}
		if req.IPTV.CreateEditor {
			t.Error("CreateEditor set when the editor account already exists")
		}
	})
}
