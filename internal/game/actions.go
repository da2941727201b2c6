package game

import (
	"errors"
	"fmt"
)

var (
	ErrWrongPhase          = errors.New("action not legal in current phase")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrUnknownPlayer       = errors.New("player not in session")
	ErrInsufficientChips   = errors.New("insufficient chips")
	ErrBelowHighestBet     = errors.New("bet below highest bet")
	ErrGameComplete        = errors.New("game is complete")
	ErrDuplicatePrediction = errors.New("prediction already submitted")
	ErrNoActivePlayers     = errors.New("no active players remain")
	ErrInvalidBet          = errors.New("invalid bet amount")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidStock        = errors.New("invalid stock reference")
	ErrNotCreator          = errors.New("only the game creator may do this")
	ErrGameStarted         = errors.New("game already started")
	ErrNotStarted          = errors.New("game has not started")
	ErrPlayerExists        = errors.New("player already joined")
	ErrNotEnoughPlayers    = errors.New("need at least two players")
)

// All action methods validate fully before touching any state, so a rejected
// action leaves the aggregate exactly as it was.

// AddPlayer seats a new player. Players may only join before the game starts.
func (s *Session) AddPlayer(uid, username string, chips int64) error {
	if s.Completed {
		return ErrGameComplete
	}
	if s.Started {
		return ErrGameStarted
	}
	if s.GetPlayer(uid) != nil {
		return ErrPlayerExists
	}
	if chips <= 0 {
		chips = DefaultStartingChips
	}

	s.Players = append(s.Players, &Player{UID: uid, Username: username, Chips: chips})
	s.markDirty("players", s.Players)
	s.touch()
	s.emit(EventPlayerJoined, map[string]interface{}{"uid": uid, "username": username})
	return nil
}

// RemovePlayer removes a player before the game starts. Mid-game there is no
// removal; folding is the only way out of a round.
func (s *Session) RemovePlayer(uid string) error {
	if s.Completed {
		return ErrGameComplete
	}
	if s.Started {
		return ErrGameStarted
	}
	idx := s.playerIndex(uid)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	if uid == s.CreatorID {
		return ErrNotCreator
	}

	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	s.markDirty("players", s.Players)
	s.touch()
	s.emit(EventPlayerLeft, map[string]interface{}{"uid": uid})
	return nil
}

// Start freezes the player order and opens the first round for stock
// selection. Creator only.
func (s *Session) Start(actorUID string) error {
	if s.Completed {
		return ErrGameComplete
	}
	if actorUID != s.CreatorID {
		return ErrNotCreator
	}
	if s.Started {
		return ErrGameStarted
	}
	if len(s.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	s.Started = true
	s.markDirty("started", true)
	s.touch()
	s.emit(EventGameStarted, map[string]interface{}{"players": len(s.Players)})
	return nil
}

// SelectStock records the round's stock reference and opens predictions.
// Creator only, legal in the stock selection phase.
func (s *Session) SelectStock(actorUID, stockRef string) error {
	if err := s.checkActionable(actorUID); err != nil {
		return err
	}
	if actorUID != s.CreatorID {
		return ErrNotCreator
	}
	if s.Phase != PhaseStockSelection {
		return ErrWrongPhase
	}
	if stockRef == "" {
		return fmt.Errorf("%w: empty reference", ErrInvalidStock)
	}

	r := s.currentRound()
	r.SelectedStock = stockRef
	s.markDirty(roundPath(r.Number, "selectedStock"), stockRef)
	s.setPhase(PhasePrediction)
	s.touch()
	s.emit(EventStockSelected, map[string]interface{}{"stock": stockRef})
	return nil
}

// SubmitPrediction records a player's price prediction for the current round.
// A second submission from the same player is rejected without mutation; the
// original prediction stands. Once every player has predicted, the first
// betting phase opens.
func (s *Session) SubmitPrediction(uid string, price int64) error {
	if err := s.checkActionable(uid); err != nil {
		return err
	}
	if s.Phase != PhasePrediction {
		return ErrWrongPhase
	}
	if price < 0 {
		return fmt.Errorf("%w: prediction must not be negative", ErrInvalidPrice)
	}
	r := s.currentRound()
	if _, ok := r.Predictions[uid]; ok {
		return ErrDuplicatePrediction
	}

	r.Predictions[uid] = price
	s.markDirty(roundPath(r.Number, "predictions", uid), price)
	s.touch()
	s.emit(EventPredictionSubmitted, map[string]interface{}{"uid": uid})

	if s.allPredicted() {
		s.setPhase(PhaseBetting1)
		s.TurnIndex = s.firstActiveIndex()
		s.markDirty("currentTurnIndex", s.TurnIndex)
	}
	return nil
}

// PlaceBet adds chips to the acting player's cumulative bet for this round.
// The resulting total must at least call the highest bet. An amount of zero
// is a check when the player already matches the highest bet.
func (s *Session) PlaceBet(uid string, amount int64) error {
	p, err := s.checkBettingTurn(uid)
	if err != nil {
		return err
	}
	if amount < 0 {
		return ErrInvalidBet
	}
	if amount > p.Chips {
		return fmt.Errorf("%w: have %d, bet %d", ErrInsufficientChips, p.Chips, amount)
	}
	r := s.currentRound()
	var current int64
	if b, ok := r.Bets[uid]; ok {
		current = b.Amount
	}
	newTotal := current + amount
	if r.HighestBet > 0 && newTotal < r.HighestBet {
		return fmt.Errorf("%w: total must reach at least %d", ErrBelowHighestBet, r.HighestBet)
	}

	b := r.bet(uid)
	b.Amount = newTotal
	p.Chips -= amount
	r.Pot += amount
	s.markDirty(roundPath(r.Number, "bets", uid), b)
	s.markDirty(roundPath(r.Number, "pot"), r.Pot)
	s.markDirty(fmt.Sprintf("players/%s/chips", uid), p.Chips)
	if newTotal > r.HighestBet {
		r.HighestBet = newTotal
		s.markDirty(roundPath(r.Number, "highestBet"), r.HighestBet)
	}
	s.touch()
	s.emit(EventPlayerBet, map[string]interface{}{"uid": uid, "amount": amount, "total": newTotal})

	s.afterBettingAction()
	return nil
}

// SetBetTotal sets the acting player's cumulative bet for this round to
// total. This is the idempotent form exposed at the boundary: re-applying the
// same total is a no-op, so a retried action never double-counts.
func (s *Session) SetBetTotal(uid string, total int64) error {
	if err := s.checkActionable(uid); err != nil {
		return err
	}
	if total < 0 {
		return ErrInvalidBet
	}
	r := s.currentRound()
	if r != nil {
		var current int64
		if b, ok := r.Bets[uid]; ok {
			current = b.Amount
		}
		// Already applied and the turn has moved on: treat the retry as a
		// no-op instead of rejecting it out of turn.
		if total == current && (!s.Phase.IsBetting() || s.Players[s.TurnIndex].UID != uid) {
			return nil
		}
		if total < current {
			return fmt.Errorf("%w: cannot reduce bet from %d to %d", ErrInvalidBet, current, total)
		}
		return s.PlaceBet(uid, total-current)
	}
	return ErrWrongPhase
}

// Fold withdraws the acting player from the current round, freezing their
// contribution. Folding twice is a no-op so that retries are harmless.
func (s *Session) Fold(uid string) error {
	if err := s.checkActionable(uid); err != nil {
		return err
	}
	if !s.Phase.IsBetting() {
		return ErrWrongPhase
	}
	r := s.currentRound()
	if r.folded(uid) {
		return nil
	}
	if s.Players[s.TurnIndex].UID != uid {
		return ErrNotYourTurn
	}

	b := r.bet(uid)
	b.Folded = true
	r.LastFold = uid
	s.markDirty(roundPath(r.Number, "bets", uid), b)
	s.markDirty(roundPath(r.Number, "lastFold"), uid)
	s.touch()
	s.emit(EventPlayerFolded, map[string]interface{}{"uid": uid})

	s.afterBettingAction()
	return nil
}

// AdvanceInterlude moves from a reveal/hint interlude to the next betting
// phase. Interlude timers are cosmetic and run client-side; any player may
// drive the advance.
func (s *Session) AdvanceInterlude(uid string) error {
	if err := s.checkActionable(uid); err != nil {
		return err
	}
	if !s.Phase.IsInterlude() {
		return ErrWrongPhase
	}

	s.setPhase(s.Phase + 1)
	s.TurnIndex = s.firstActiveIndex()
	s.markDirty("currentTurnIndex", s.TurnIndex)
	s.touch()
	return nil
}

// AnnouncePrice supplies the exogenous final stock price, resolves the round,
// distributes the pot, and begins the next round (or completes the game).
// Creator only, legal in the winner announcement phase.
func (s *Session) AnnouncePrice(actorUID string, finalPrice int64) error {
	if err := s.checkActionable(actorUID); err != nil {
		return err
	}
	if actorUID != s.CreatorID {
		return ErrNotCreator
	}
	if s.Phase != PhaseWinnerAnnouncement {
		return ErrWrongPhase
	}
	if finalPrice < 0 {
		return fmt.Errorf("%w: final price must not be negative", ErrInvalidPrice)
	}

	r := s.currentRound()
	res := Resolve(s.Players, r, finalPrice)
	s.touch()
	s.applyResolution(res)
	return nil
}

// checkActionable rejects actions against completed games, games that have
// not started, and unknown players.
func (s *Session) checkActionable(uid string) error {
	if s.Completed {
		return ErrGameComplete
	}
	if !s.Started {
		return ErrNotStarted
	}
	if s.GetPlayer(uid) == nil {
		return ErrUnknownPlayer
	}
	return nil
}

// checkBettingTurn validates a betting action: legal phase and the acting
// player holds the turn.
func (s *Session) checkBettingTurn(uid string) (*Player, error) {
	if err := s.checkActionable(uid); err != nil {
		return nil, err
	}
	if !s.Phase.IsBetting() {
		return nil, ErrWrongPhase
	}
	if s.Players[s.TurnIndex].UID != uid {
		return nil, ErrNotYourTurn
	}
	return s.GetPlayer(uid), nil
}

// afterBettingAction runs the transition rules that follow every bet or
// fold: elimination short-circuit, phase advance on completion, or turn
// rotation.
func (s *Session) afterBettingAction() {
	active := s.ActivePlayers()
	if len(active) <= 1 {
		r := s.currentRound()
		res := resolveSurvivor(s.Players, r)
		if res.Degenerate {
			s.emit(EventNoActivePlayers, map[string]interface{}{"last_fold": r.LastFold})
		}
		s.applyResolution(res)
		return
	}

	if s.bettingComplete() {
		if s.Phase == PhaseBetting4 {
			s.setPhase(PhaseWinnerAnnouncement)
		} else {
			s.setPhase(s.Phase + 1)
		}
		return
	}

	s.TurnIndex = s.nextTurnIndex()
	s.markDirty("currentTurnIndex", s.TurnIndex)
}

// applyResolution credits the winners, zeroes the pot, and moves the session
// into the next round or the terminal complete state.
func (s *Session) applyResolution(res *Resolution) {
	r := s.currentRound()

	r.Winners = res.Winners
	s.markDirty(roundPath(r.Number, "winners"), res.Winners)
	if res.FinalPrice != nil {
		r.FinalPrice = res.FinalPrice
		s.markDirty(roundPath(r.Number, "finalPrice"), *res.FinalPrice)
	}
	for _, uid := range res.Winners {
		p := s.GetPlayer(uid)
		if p == nil {
			continue
		}
		p.Chips += res.Share
		s.markDirty(fmt.Sprintf("players/%s/chips", uid), p.Chips)
	}
	r.Pot = 0
	s.markDirty(roundPath(r.Number, "pot"), int64(0))

	s.emit(EventRoundResolved, map[string]interface{}{
		"round":     r.Number,
		"winners":   res.Winners,
		"share":     res.Share,
		"remainder": res.Remainder,
	})

	s.finishRound()
}

// finishRound increments the round counter and either opens a fresh round or
// marks the game complete.
func (s *Session) finishRound() {
	next := s.CurrentRound + 1
	s.CurrentRound = next
	s.markDirty("currentRound", next)

	if next > s.TotalRounds {
		s.Completed = true
		s.markDirty("completed", true)
		s.emit(EventGameCompleted, s.standings())
		return
	}

	s.Rounds[next] = newRound(next)
	s.markDirty(roundPath(next, "pot"), int64(0))
	s.markDirty(roundPath(next, "highestBet"), int64(0))
	s.markDirty(roundPath(next, "selectedStock"), "")
	s.setPhase(PhaseStockSelection)
	s.TurnIndex = 0
	s.markDirty("currentTurnIndex", 0)
}

func (s *Session) setPhase(p Phase) {
	from := s.Phase
	s.Phase = p
	s.markDirty("currentPhase", int(p))
	s.emit(EventPhaseAdvanced, map[string]interface{}{"from": from.String(), "to": p.String()})
}

// standings summarizes final chip counts for the game completed event.
func (s *Session) standings() map[string]interface{} {
	chips := make(map[string]int64, len(s.Players))
	for _, p := range s.Players {
		chips[p.UID] = p.Chips
	}
	return map[string]interface{}{"chips": chips}
}
