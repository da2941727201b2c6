package game

// Resolution is the outcome of one round: the winner set, the per-winner
// share, and the floor-division remainder that stays undistributed.
type Resolution struct {
	Winners    []string `json:"winners"`
	Share      int64    `json:"share"`
	Remainder  int64    `json:"remainder"`
	Pot        int64    `json:"pot"`
	FinalPrice *int64   `json:"final_price,omitempty"`
	Degenerate bool     `json:"degenerate,omitempty"`
}

// Resolve determines the round winners from the announced final price. When
// betting already eliminated all but one player the sole survivor takes the
// pot without any prediction comparison. Otherwise the active players with
// the smallest absolute prediction error win; ties split the pot by integer
// floor division and the remainder is deliberately not distributed. Players
// without a prediction contribute to the pot but cannot win it.
//
// The result is fully determined by its inputs; winner order follows seating
// order.
func Resolve(players []*Player, r *Round, finalPrice int64) *Resolution {
	active := activeOf(players, r)
	if len(active) <= 1 {
		res := resolveSurvivor(players, r)
		res.FinalPrice = &finalPrice
		return res
	}

	var winners []string
	var bestDiff int64 = -1
	for _, p := range active {
		pred, ok := r.Predictions[p.UID]
		if !ok {
			continue
		}
		diff := absInt64(pred - finalPrice)
		switch {
		case bestDiff < 0 || diff < bestDiff:
			bestDiff = diff
			winners = []string{p.UID}
		case diff == bestDiff:
			winners = append(winners, p.UID)
		}
	}

	res := &Resolution{
		Winners:    winners,
		Pot:        r.Pot,
		FinalPrice: &finalPrice,
	}
	if len(winners) > 0 {
		res.Share = r.Pot / int64(len(winners))
		res.Remainder = r.Pot % int64(len(winners))
	} else {
		// Every active player skipped their prediction. Unreachable when the
		// phase machine gates betting behind allPredicted, but the resolver
		// must not fall over: the pot goes undistributed.
		res.Degenerate = true
		res.Remainder = r.Pot
	}
	return res
}

// resolveSurvivor handles rounds decided by elimination: one non-folded
// player takes the whole pot. If betting degenerated to zero active players,
// the last player to fold wins by convention and the condition is reported
// rather than treated as fatal.
func resolveSurvivor(players []*Player, r *Round) *Resolution {
	active := activeOf(players, r)

	res := &Resolution{Pot: r.Pot}
	switch {
	case len(active) >= 1:
		res.Winners = []string{active[0].UID}
		res.Share = r.Pot
	case r.LastFold != "":
		res.Winners = []string{r.LastFold}
		res.Share = r.Pot
		res.Degenerate = true
	default:
		res.Degenerate = true
		res.Remainder = r.Pot
	}
	return res
}

func activeOf(players []*Player, r *Round) []*Player {
	active := make([]*Player, 0, len(players))
	for _, p := range players {
		if !r.folded(p.UID) {
			active = append(active, p)
		}
	}
	return active
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
