package payment

import "github.com/shopspring/decimal"

// SplitAmount divides an order total into what is charged online now and
// what is collected on delivery. For COD_PARTIAL the online share is
// codPercent of the total, rounded half-up to the paisa.
func SplitAmount(totalPaise int64, mode Mode, codPercent int) (toPay, codDue int64) {
	if mode != ModeCODPartial {
		return totalPaise, 0
	}
	share := decimal.NewFromInt(totalPaise).
		Mul(decimal.NewFromInt(int64(codPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	toPay = share.IntPart()
	return toPay, totalPaise - toPay
}

// Rupees formats paise as a two-decimal rupee string.
func Rupees(paise int64) string {
	return decimal.New(paise, -2).StringFixed(2)
}
