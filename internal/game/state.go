package game

// State is the orchestrator's finite-state machine.
type State string

const (
	// StateRunning means the detective is actively questioning.
	StateRunning State = "running"
	// StateBlocked is advisory: the turn budget is nearly exhausted and the
	// detective is being pushed to resolve. Play continues.
	StateBlocked State = "blocked"
	// StateResolved is terminal: judging is complete and the outcome fixed.
	StateResolved State = "resolved"
	// StateFailed is terminal: an unrecoverable error ended the game.
	StateFailed State = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateFailed
}
