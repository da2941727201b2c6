package game

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// DefaultTotalRounds is the number of rounds a session plays unless
	// configured otherwise.
	DefaultTotalRounds = 3

	// DefaultStartingChips is the stake every player receives when the game
	// is created.
	DefaultStartingChips int64 = 1000
)

// Player is a participant in a game session. Player order in the session
// defines turn rotation and is immutable once the game starts.
type Player struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Chips    int64  `json:"chips"`
}

// Bet tracks one player's cumulative wager within a round. Amount is frozen
// once Folded is set.
type Bet struct {
	Amount int64 `json:"amount"`
	Folded bool  `json:"folded"`
}

// Round holds all per-round state: the selected stock, price predictions,
// bets, and pot accounting. Prices are integer cents.
type Round struct {
	Number        int              `json:"number"`
	SelectedStock string           `json:"selected_stock,omitempty"`
	Predictions   map[string]int64 `json:"predictions"`
	Bets          map[string]*Bet  `json:"bets"`
	HighestBet    int64            `json:"highest_bet"`
	Pot           int64            `json:"pot"`
	FinalPrice    *int64           `json:"final_price,omitempty"`
	Winners       []string         `json:"winners,omitempty"`
	LastFold      string           `json:"last_fold,omitempty"`
}

func newRound(number int) *Round {
	return &Round{
		Number:      number,
		Predictions: make(map[string]int64),
		Bets:        make(map[string]*Bet),
	}
}

// bet returns the player's bet entry for this round, creating a zero entry
// if the player has not acted yet.
func (r *Round) bet(uid string) *Bet {
	b, ok := r.Bets[uid]
	if !ok {
		b = &Bet{}
		r.Bets[uid] = b
	}
	return b
}

// folded reports whether the player has folded this round.
func (r *Round) folded(uid string) bool {
	b, ok := r.Bets[uid]
	return ok && b.Folded
}

// Session is the aggregate for one game of stock prediction poker. All state
// transitions go through its action methods; mutations record the leaf paths
// they touch so the sync layer can persist exactly those fields.
type Session struct {
	ID           uuid.UUID      `json:"id"`
	CreatorID    string         `json:"creator_id"`
	Players      []*Player      `json:"players"`
	CurrentRound int            `json:"current_round"`
	TotalRounds  int            `json:"total_rounds"`
	Phase        Phase          `json:"current_phase"`
	TurnIndex    int            `json:"current_turn_index"`
	Rounds       map[int]*Round `json:"rounds"`
	Started      bool           `json:"started"`
	Completed    bool           `json:"completed"`
	Version      int64          `json:"version"`

	dirty  map[string]interface{}
	events []Event
}

// NewSession creates a session owned by the creator, who is seated as the
// first player.
func NewSession(creatorUID, creatorName string, totalRounds int, startingChips int64) *Session {
	if totalRounds <= 0 {
		totalRounds = DefaultTotalRounds
	}
	if startingChips <= 0 {
		startingChips = DefaultStartingChips
	}

	s := &Session{
		ID:        uuid.New(),
		CreatorID: creatorUID,
		Players: []*Player{
			{UID: creatorUID, Username: creatorName, Chips: startingChips},
		},
		CurrentRound: 1,
		TotalRounds:  totalRounds,
		Phase:        PhaseStockSelection,
		TurnIndex:    0,
		Rounds:       map[int]*Round{1: newRound(1)},
	}
	s.emit(EventGameCreated, map[string]interface{}{"creator_id": creatorUID})
	return s
}

// GetPlayer returns the player with the given UID, or nil.
func (s *Session) GetPlayer(uid string) *Player {
	for _, p := range s.Players {
		if p.UID == uid {
			return p
		}
	}
	return nil
}

func (s *Session) playerIndex(uid string) int {
	for i, p := range s.Players {
		if p.UID == uid {
			return i
		}
	}
	return -1
}

// Round returns the round state for the given round number, or nil.
func (s *Session) Round(number int) *Round {
	return s.Rounds[number]
}

// currentRound returns the state of the round in progress.
func (s *Session) currentRound() *Round {
	return s.Rounds[s.CurrentRound]
}

// ActivePlayers returns the players that have not folded in the current
// round, in seating order.
func (s *Session) ActivePlayers() []*Player {
	r := s.currentRound()
	active := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if r == nil || !r.folded(p.UID) {
			active = append(active, p)
		}
	}
	return active
}

// allPredicted reports whether every player has a prediction for the current
// round.
func (s *Session) allPredicted() bool {
	r := s.currentRound()
	for _, p := range s.Players {
		if _, ok := r.Predictions[p.UID]; !ok {
			return false
		}
	}
	return true
}

// bettingComplete reports whether the current betting phase can end: at most
// one non-folded player remains, or every non-folded player's cumulative bet
// matches the highest bet.
func (s *Session) bettingComplete() bool {
	r := s.currentRound()
	active := s.ActivePlayers()
	if len(active) <= 1 {
		return true
	}
	for _, p := range active {
		if r.bet(p.UID).Amount != r.HighestBet {
			return false
		}
	}
	return true
}

// nextTurnIndex scans forward circularly from the current turn, skipping
// folded players. Bounded to one full rotation; if every player is folded it
// returns the current index unchanged.
func (s *Session) nextTurnIndex() int {
	r := s.currentRound()
	n := len(s.Players)
	for step := 1; step <= n; step++ {
		idx := (s.TurnIndex + step) % n
		if !r.folded(s.Players[idx].UID) {
			return idx
		}
	}
	return s.TurnIndex
}

// firstActiveIndex returns the lowest seat index that has not folded, used
// when a new betting phase opens.
func (s *Session) firstActiveIndex() int {
	r := s.currentRound()
	for i, p := range s.Players {
		if !r.folded(p.UID) {
			return i
		}
	}
	return 0
}

// Leaf path helpers. Paths mirror the shared store layout:
// rounds/{n}/{bets|predictions|pot|highestBet|...} and top-level
// currentPhase/currentTurnIndex/currentRound fields, so concurrent writers
// touching different leaves never clobber each other.

func roundPath(number int, parts ...string) string {
	p := fmt.Sprintf("rounds/%d", number)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (s *Session) markDirty(path string, value interface{}) {
	if s.dirty == nil {
		s.dirty = make(map[string]interface{})
	}
	s.dirty[path] = value
}

// touch bumps the aggregate version. Called exactly once per successfully
// applied action, after validation has passed.
func (s *Session) touch() {
	s.Version++
	s.markDirty("version", s.Version)
}

func (s *Session) emit(eventType EventType, payload map[string]interface{}) {
	s.events = append(s.events, NewEvent(eventType, s.ID, s.CurrentRound, payload))
}

// PendingChanges returns the leaf paths mutated since the last commit,
// keyed by store path.
func (s *Session) PendingChanges() map[string]interface{} {
	return s.dirty
}

// PendingEvents returns the events emitted since the last commit.
func (s *Session) PendingEvents() []Event {
	return s.events
}

// MarkCommitted clears pending changes and events once the sync layer has
// persisted them.
func (s *Session) MarkCommitted() {
	s.dirty = nil
	s.events = nil
}
