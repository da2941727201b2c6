package server

import (
	"github.com/evanofslack/stockpoker/internal/game"
)

// inbound (client) actions
const (
	actionJoinGame         string = "join-game"
	actionLeaveGame        string = "leave-game"
	actionSendMessage      string = "send-message"
	actionStartGame        string = "start-game"
	actionSelectStock      string = "select-stock"
	actionSubmitPrediction string = "submit-prediction"
	actionPlaceBet         string = "place-bet"
	actionSetBetTotal      string = "set-bet-total"
	actionPlayerFold       string = "player-fold"
	actionAdvance          string = "advance-interlude"
	actionAnnouncePrice    string = "announce-price"
)

type base struct {
	// allows for correctly identifying messages
	Action string `json:"action"`
}

type joinGame struct {
	base            // actionJoinGame
	GameID   string `json:"game_id"`
	UID      string `json:"uid"`
	Username string `json:"username"`
}

type sendMessage struct {
	base            // actionSendMessage
	Username string `json:"username"`
	Message  string `json:"message"`
}

type selectStock struct {
	base            // actionSelectStock
	StockRef string `json:"stock_ref"`
}

type submitPrediction struct {
	base             // actionSubmitPrediction
	PriceCents int64 `json:"price_cents"`
}

type placeBet struct {
	base         // actionPlaceBet
	Amount int64 `json:"amount"`
}

type setBetTotal struct {
	base        // actionSetBetTotal
	Total int64 `json:"total"`
}

type announcePrice struct {
	base             // actionAnnouncePrice
	PriceCents int64 `json:"price_cents"`
}

// outbound (server) actions
const (
	actionNewMessage   string = "new-message"
	actionUpdateGame   string = "update-game"
	actionGameEvents   string = "game-events"
	actionErrorMessage string = "error-message"
)

type newMessage struct {
	base             // actionNewMessage
	Id        string `json:"uuid"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

type updateGame struct {
	base               // actionUpdateGame
	Game *game.Session `json:"game"`
	You  *YourSeat     `json:"you,omitempty"`
}

// YourSeat tells the client which seat the connection controls.
type YourSeat struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
}

type gameEvents struct {
	base                // actionGameEvents
	Events []game.Event `json:"events"`
}

type errorMessage struct {
	base           // actionErrorMessage
	Message string `json:"message"`
}
