package game

// Phase represents one of the ten fixed steps within a round
type Phase int

const (
	PhaseStockSelection Phase = iota + 1
	PhasePrediction
	PhaseBetting1
	PhaseInterlude1
	PhaseBetting2
	PhaseInterlude2
	PhaseBetting3
	PhaseInterlude3
	PhaseBetting4
	PhaseWinnerAnnouncement
)

func (p Phase) String() string {
	switch p {
	case PhaseStockSelection:
		return "stock_selection"
	case PhasePrediction:
		return "prediction"
	case PhaseBetting1:
		return "betting_1"
	case PhaseInterlude1:
		return "interlude_1"
	case PhaseBetting2:
		return "betting_2"
	case PhaseInterlude2:
		return "interlude_2"
	case PhaseBetting3:
		return "betting_3"
	case PhaseInterlude3:
		return "interlude_3"
	case PhaseBetting4:
		return "betting_4"
	case PhaseWinnerAnnouncement:
		return "winner_announcement"
	default:
		return "unknown"
	}
}

// IsBetting reports whether the phase accepts bet and fold actions.
func (p Phase) IsBetting() bool {
	switch p {
	case PhaseBetting1, PhaseBetting2, PhaseBetting3, PhaseBetting4:
		return true
	}
	return false
}

// IsInterlude reports whether the phase is a reveal/hint interlude with no
// player actions.
func (p Phase) IsInterlude() bool {
	switch p {
	case PhaseInterlude1, PhaseInterlude2, PhaseInterlude3:
		return true
	}
	return false
}
