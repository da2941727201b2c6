package sync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/google/uuid"
)

// The store schema is a flat map of leaf paths to JSON-encoded values:
//
//	id, creatorId, totalRounds, currentRound, currentPhase,
//	currentTurnIndex, started, completed, version
//	players                          ordered seating list
//	players/{uid}/chips              current balance
//	rounds/{n}/selectedStock
//	rounds/{n}/predictions/{uid}
//	rounds/{n}/bets/{uid}            {"amount":..,"folded":..}
//	rounds/{n}/pot
//	rounds/{n}/highestBet
//	rounds/{n}/finalPrice
//	rounds/{n}/winners
//	rounds/{n}/lastFold
//
// encodeSession emits the complete field set; encodeChanges encodes just the
// dirty leaves an action touched.

func encodeValue(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode field: %w", err)
	}
	return string(raw), nil
}

func encodeChanges(changes map[string]interface{}) (map[string]string, error) {
	fields := make(map[string]string, len(changes))
	for path, v := range changes {
		raw, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		fields[path] = raw
	}
	return fields, nil
}

func encodeSession(s *game.Session) (map[string]string, error) {
	changes := map[string]interface{}{
		"id":               s.ID.String(),
		"creatorId":        s.CreatorID,
		"totalRounds":      s.TotalRounds,
		"currentRound":     s.CurrentRound,
		"currentPhase":     int(s.Phase),
		"currentTurnIndex": s.TurnIndex,
		"started":          s.Started,
		"completed":        s.Completed,
		"version":          s.Version,
		"players":          s.Players,
	}
	for _, p := range s.Players {
		changes[fmt.Sprintf("players/%s/chips", p.UID)] = p.Chips
	}
	for n, r := range s.Rounds {
		changes[fmt.Sprintf("rounds/%d/selectedStock", n)] = r.SelectedStock
		changes[fmt.Sprintf("rounds/%d/pot", n)] = r.Pot
		changes[fmt.Sprintf("rounds/%d/highestBet", n)] = r.HighestBet
		for uid, pred := range r.Predictions {
			changes[fmt.Sprintf("rounds/%d/predictions/%s", n, uid)] = pred
		}
		for uid, b := range r.Bets {
			changes[fmt.Sprintf("rounds/%d/bets/%s", n, uid)] = b
		}
		if r.FinalPrice != nil {
			changes[fmt.Sprintf("rounds/%d/finalPrice", n)] = *r.FinalPrice
		}
		if len(r.Winners) > 0 {
			changes[fmt.Sprintf("rounds/%d/winners", n)] = r.Winners
		}
		if r.LastFold != "" {
			changes[fmt.Sprintf("rounds/%d/lastFold", n)] = r.LastFold
		}
	}
	return encodeChanges(changes)
}

// decodeSession rebuilds a session from its leaf fields. Structural fields
// are applied first, then per-player chip leaves override the seating list
// snapshot, so the freshest chip write always wins.
func decodeSession(fields map[string]string) (*game.Session, error) {
	s := &game.Session{Rounds: make(map[int]*game.Round)}

	ensureRound := func(n int) *game.Round {
		r, ok := s.Rounds[n]
		if !ok {
			r = &game.Round{
				Number:      n,
				Predictions: make(map[string]int64),
				Bets:        make(map[string]*game.Bet),
			}
			s.Rounds[n] = r
		}
		return r
	}

	var chipLeaves []string
	for path, raw := range fields {
		if err := decodeField(s, ensureRound, path, raw); err != nil {
			return nil, err
		}
		if strings.HasPrefix(path, "players/") {
			chipLeaves = append(chipLeaves, path)
		}
	}
	for _, path := range chipLeaves {
		parts := strings.Split(path, "/")
		if len(parts) != 3 || parts[2] != "chips" {
			continue
		}
		var chips int64
		if err := json.Unmarshal([]byte(fields[path]), &chips); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if p := s.GetPlayer(parts[1]); p != nil {
			p.Chips = chips
		}
	}
	return s, nil
}

func decodeField(s *game.Session, ensureRound func(int) *game.Round, path, raw string) error {
	unmarshal := func(v interface{}) error {
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}

	switch path {
	case "id":
		var idStr string
		if err := unmarshal(&idStr); err != nil {
			return err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		s.ID = id
		return nil
	case "creatorId":
		return unmarshal(&s.CreatorID)
	case "totalRounds":
		return unmarshal(&s.TotalRounds)
	case "currentRound":
		return unmarshal(&s.CurrentRound)
	case "currentPhase":
		var phase int
		if err := unmarshal(&phase); err != nil {
			return err
		}
		s.Phase = game.Phase(phase)
		return nil
	case "currentTurnIndex":
		return unmarshal(&s.TurnIndex)
	case "started":
		return unmarshal(&s.Started)
	case "completed":
		return unmarshal(&s.Completed)
	case "version":
		return unmarshal(&s.Version)
	case "players":
		return unmarshal(&s.Players)
	}

	parts := strings.Split(path, "/")
	if parts[0] == "players" {
		// chip leaves are applied in a second pass
		return nil
	}
	if parts[0] != "rounds" || len(parts) < 3 {
		return fmt.Errorf("decode: unknown field path %q", path)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	r := ensureRound(n)

	switch parts[2] {
	case "selectedStock":
		return unmarshal(&r.SelectedStock)
	case "pot":
		return unmarshal(&r.Pot)
	case "highestBet":
		return unmarshal(&r.HighestBet)
	case "lastFold":
		return unmarshal(&r.LastFold)
	case "winners":
		return unmarshal(&r.Winners)
	case "finalPrice":
		var price int64
		if err := unmarshal(&price); err != nil {
			return err
		}
		r.FinalPrice = &price
		return nil
	case "predictions":
		if len(parts) != 4 {
			return fmt.Errorf("decode: unknown field path %q", path)
		}
		var pred int64
		if err := unmarshal(&pred); err != nil {
			return err
		}
		r.Predictions[parts[3]] = pred
		return nil
	case "bets":
		if len(parts) != 4 {
			return fmt.Errorf("decode: unknown field path %q", path)
		}
		var b game.Bet
		if err := unmarshal(&b); err != nil {
			return err
		}
		r.Bets[parts[3]] = &b
		return nil
	}
	return fmt.Errorf("decode: unknown field path %q", path)
}
