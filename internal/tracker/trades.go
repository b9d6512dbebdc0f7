package tracker

import (
	"math"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/models"
	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// LogTokenTrade appends one entry to the trade log. It does not itself
// adjust coins or the token balance; BuyTokens/SellTokens do that before
// logging.
func LogTokenTrade(s *models.UserState, now time.Time, action string, amount, price float64, coinDelta int, tokenDelta float64) {
	s.TokenTrades = append(s.TokenTrades, models.TokenTrade{
		Timestamp:  timex.Timestamp(now),
		Action:     action,
		Amount:     round2(amount),
		Price:      round2(price),
		CoinDelta:  coinDelta,
		TokenDelta: round2(tokenDelta),
	})
}

// BuyTokens exchanges coins for tokens at the given price. The purchase is
// rejected, with no state change, when the amount is not positive or the
// cost exceeds the coin balance. A successful purchase counts as user
// activity.
func BuyTokens(s *models.UserState, now time.Time, amount, price float64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	cost := amount * price
	if cost > float64(s.Coins) {
		return common.ErrInsufficientCoins
	}

	s.Coins -= int(cost)
	s.TokenBalance = round2(s.TokenBalance + amount)
	LogTokenTrade(s, now, models.TradeActionBuy, amount, price, -int(cost), amount)
	MarkActivityDay(s, now)
	return nil
}

// SellTokens exchanges tokens for coins at the given price. The sale is
// rejected, with no state change, when the amount is not positive or
// exceeds the token balance. A successful sale counts as user activity.
func SellTokens(s *models.UserState, now time.Time, amount, price float64) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if amount > s.TokenBalance {
		return common.ErrInsufficientTokens
	}

	proceeds := amount * price
	s.Coins += int(proceeds)
	s.TokenBalance = round2(s.TokenBalance - amount)
	LogTokenTrade(s, now, models.TradeActionSell, amount, price, int(proceeds), -amount)
	MarkActivityDay(s, now)
	return nil
}
