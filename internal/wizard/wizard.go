// package wizard implements the multi-service user-provisioning wizard.
//
// A [Session] owns one wizard run: it derives the step list from the
// mode and selected services, gates forward navigation through per-step
// validation, and builds the composite provisioning request consumed by
// the tasks package. All state lives on the session; nothing here is
// process-global, and a session is discarded when its modal closes.
package wizard

// Mode selects which flow the wizard runs.
type Mode int

const (
	// ModeCreate runs the full flow: base account plus any services.
	ModeCreate Mode = iota
	// ModeAddPlex adds Plex access to an existing account.
	ModeAddPlex
	// ModeAddIPTV adds an IPTV subscription to an existing account.
	ModeAddIPTV
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeAddPlex:
		return "add_plex"
	case ModeAddIPTV:
		return "add_iptv"
	default:
		return ""
	}
}

// StepKey identifies a wizard step.
type StepKey string

const (
	StepBasic    StepKey = "basic"
	StepServices StepKey = "services"
	StepPlex     StepKey = "plex"
	StepIPTV     StepKey = "iptv"
	StepReview   StepKey = "review"
	StepResults  StepKey = "results"
)

// Step describes one entry in the active step list.
type Step struct {
	ID    int
	Key   StepKey
	Label string
	Icon  string
}

// ServiceSelection records which services the operator selected.
type ServiceSelection struct {
	Plex bool
	IPTV bool
}

// Any reports whether at least one service is selected.
func (s ServiceSelection) Any() bool { return s.Plex || s.IPTV }

var stepMeta = map[StepKey]struct {
	label string
	icon  string
}{
	StepBasic:    {"Account", "👤"},
	StepServices: {"Services", "🧩"},
	StepPlex:     {"Plex", "🎬"},
	StepIPTV:     {"IPTV", "📺"},
	StepReview:   {"Review", "🔍"},
	StepResults:  {"Results", "🚀"},
}

// Plan derives the ordered step list for a mode and service selection.
// Pure and deterministic; callers re-derive rather than cache, so a
// service toggled mid-flow is always reflected consistently.
//
// With no service selected in create mode the plan still contains the
// review step: the services-step validator is what blocks reaching it,
// not the planner.
func Plan(mode Mode, services ServiceSelection) []Step {
	var keys []StepKey

	switch mode {
	case ModeAddPlex:
		keys = []StepKey{StepPlex, StepReview, StepResults}
	case ModeAddIPTV:
		keys = []StepKey{StepIPTV, StepReview, StepResults}
	default:
		keys = []StepKey{StepBasic, StepServices}
		if services.Plex {
			keys = append(keys, StepPlex)
		}
		if services.IPTV {
			keys = append(keys, StepIPTV)
		}
		keys = append(keys, StepReview, StepResults)
	}

	steps := make([]Step, len(keys))
	for i, key := range keys {
		meta := stepMeta[key]
		steps[i] = Step{ID: i + 1, Key: key, Label: meta.label, Icon: meta.icon}
	}
	return steps
}

// ServicesFor returns the implicit service selection for single-service modes.
func ServicesFor(mode Mode) ServiceSelection {
	switch mode {
	case ModeAddPlex:
		return ServiceSelection{Plex: true}
	case ModeAddIPTV:
		return ServiceSelection{IPTV: true}
	default:
		return ServiceSelection{}
	}
}
