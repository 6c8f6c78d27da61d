package wizard

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/streampanel/panelctl/internal/shared"
)

// validate enforces field-shape rules (email format, minimum lengths).
// Required-ness is contextual per step and checked explicitly below.
var validate = validator.New(validator.WithRequiredStructEnabled())

// stepError wraps a user-facing message in the shared validation sentinel.
func stepError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrValidation, fmt.Sprintf(format, args...))
}

// ValidateStep gates forward navigation out of the given step.
// Nil means the step's data is complete. The form is never mutated.
// Backward navigation is never validated: the operator may always
// retreat to fix an earlier step.
func ValidateStep(key StepKey, form *FormModel) error {
	switch key {
	case StepBasic:
		return validateBasic(&form.Basic)
	case StepServices:
		return validateServices(form.Services)
	case StepPlex:
		return validatePlex(&form.Plex)
	case StepIPTV:
		return validateIPTV(&form.IPTV)
	default:
		// review and results have nothing to validate
		return nil
	}
}

func validateBasic(basic *BasicInfo) error {
	if len(basic.Name) < 2 {
		return stepError("name must be at least 2 characters")
	}
	if basic.Email == "" {
		return stepError("email is required")
	}
	if err := validate.Var(basic.Email, "email"); err != nil {
		return stepError("email %q is not a valid address", basic.Email)
	}
	return nil
}

func validateServices(services ServiceSelection) error {
	if !services.Any() {
		return stepError("select at least one service")
	}
	return nil
}

func validatePlex(plex *PlexConfig) error {
	if plex.Email == "" {
		return stepError("plex email is required")
	}
	if err := validate.Var(plex.Email, "email"); err != nil {
		return stepError("plex email %q is not a valid address", plex.Email)
	}
	if len(plex.Servers) == 0 {
		return stepError("select at least one plex server")
	}
	for _, sel := range plex.Servers {
		if len(sel.LibraryIDs) == 0 {
			return stepError("server %s has no libraries selected", sel.ServerID)
		}
	}
	if plex.PackageID == "" {
		return stepError("select a plex package")
	}
	if plex.ExpirationDate == "" {
		return stepError("expiration date is required")
	}
	return nil
}

func validateIPTV(iptv *IPTVConfig) error {
	if iptv.PanelID == "" {
		return stepError("select an IPTV panel")
	}
	if iptv.SubscriptionPlanID == "" {
		return stepError("select a subscription plan")
	}

	if iptv.Link.Kind.Linked() {
		// The account already exists on the panel; credentials and
		// channel groups are only needed for an editor-side creation.
		if iptv.CreateEditor && len(iptv.ChannelGroupIDs) == 0 {
			return stepError("select a channel group for the editor account")
		}
		return nil
	}

	if iptv.PackageID == "" {
		return stepError("select an IPTV package")
	}
	if len(iptv.ChannelGroupIDs) == 0 {
		return stepError("select at least one channel group")
	}
	// Blank password tells the panel to auto-generate one.
	if iptv.Password != "" {
		if err := validate.Var(iptv.Password, "min=8"); err != nil {
			return stepError("password must be at least 8 characters")
		}
	}
	if iptv.Email == "" {
		return stepError("email is required")
	}
	if err := validate.Var(iptv.Email, "email"); err != nil {
		return stepError("email %q is not a valid address", iptv.Email)
	}
	return nil
}
