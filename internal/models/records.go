package models

// XPEvent is one entry in the append-only log of XP grants.
type XPEvent struct {
	TS          string `json:"ts"`
	Source      string `json:"source"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}

// XP sources used by the mutation layer. The list is open-ended; these are
// the ones the core itself emits.
const (
	XPSourceLogin      = "Login"
	XPSourceTest       = "Test"
	XPSourceSimulation = "Simulation"
)

// TestAttempt is one recorded round of a test/scenario with a correctness
// ratio and the XP it produced.
type TestAttempt struct {
	Timestamp string  `json:"timestamp"`
	TestID    string  `json:"test_id"`
	Name      string  `json:"name"`
	Subject   string  `json:"subject"`
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	TimeSec   int     `json:"time_sec"`
	XPGained  int     `json:"xp_gained"`
}

// Trade actions recorded in the token trade log.
const (
	TradeActionBuy  = "buy"
	TradeActionSell = "sell"
)

// TokenTrade is one entry in the append-only virtual-token trade log.
// Amounts and prices are rounded to 2 decimals at append time.
type TokenTrade struct {
	Timestamp  string  `json:"timestamp"`
	Action     string  `json:"action"`
	Amount     float64 `json:"amount"`
	Price      float64 `json:"price"`
	CoinDelta  int     `json:"coin_delta"`
	TokenDelta float64 `json:"token_delta"`
}

// HistoryPoint is a timestamped sample in the network tick/price display
// caches.
type HistoryPoint struct {
	TS    string  `json:"ts"`
	Value float64 `json:"value"`
}

// ChatMessage is a reserved record type for the assistant chat history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
