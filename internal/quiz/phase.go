package quiz

// Phase is the session controller's lifecycle state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseStarting    Phase = "starting"
	PhaseQuestioning Phase = "questioning"
	PhaseSubmitting  Phase = "submitting"
	PhaseCompleting  Phase = "completing"
	PhaseExplaining  Phase = "explaining"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
	PhaseOffline     Phase = "offline"
)

// IsTerminal reports whether only Restart can leave the phase.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseDone, PhaseFailed, PhaseOffline:
		return true
	}
	return false
}

// InFlight reports whether a network call is outstanding in this phase.
func (p Phase) InFlight() bool {
	switch p {
	case PhaseStarting, PhaseSubmitting, PhaseCompleting, PhaseExplaining:
		return true
	}
	return false
}

func (p Phase) active() bool {
	return p != PhaseIdle && !p.IsTerminal()
}
