// Package allocation distributes a transaction-level discount and tax across
// line items proportionally to each line's share of the pre-discount
// subtotal, and derives per-line net sell and profit.
package allocation

import "math"

// Line is the allocation input for one cart line: unit prices in minor
// units and the quantity sold.
type Line struct {
	SellUnit int64
	BuyUnit  int64
	Qty      int
}

// AllocatedLine carries the allocation result. Discount, Tax, NetSell and
// Profit stay fractional; rounding them per line is a display concern and
// must not happen inside checkout, where only the aggregate reconciles.
type AllocatedLine struct {
	LineSell int64
	BuyTotal int64
	Ratio    float64
	Discount float64
	Tax      float64
	NetSell  float64
	Profit   float64
}

// Subtotal sums line sell totals. Qty below 1 is clamped to 1.
func Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.SellUnit * int64(clampQty(line.Qty))
	}
	return subtotal
}

// ResolveNominal turns a discount/tax entry into a nominal minor-unit
// amount. Percent values resolve against base and round down; nominal
// values pass through. Negative results clamp to zero.
func ResolveNominal(kind string, value float64, base int64) int64 {
	var nominal int64
	switch kind {
	case "percent":
		nominal = int64(math.Floor(float64(base) * value / 100))
	default:
		nominal = int64(value)
	}
	if nominal < 0 {
		return 0
	}
	return nominal
}

// Allocate splits discountNominal and taxNominal across lines by each
// line's share of the subtotal. With a zero subtotal every ratio is zero:
// nothing allocates and profit collapses to -BuyTotal per line.
func Allocate(lines []Line, discountNominal int64, taxNominal int64) []AllocatedLine {
	subtotal := Subtotal(lines)

	allocated := make([]AllocatedLine, 0, len(lines))
	for _, line := range lines {
		qty := clampQty(line.Qty)
		lineSell := line.SellUnit * int64(qty)
		buyTotal := line.BuyUnit * int64(qty)

		ratio := 0.0
		if subtotal > 0 {
			ratio = float64(lineSell) / float64(subtotal)
		}

		lineDiscount := float64(discountNominal) * ratio
		lineTax := float64(taxNominal) * ratio
		netSell := float64(lineSell) - lineDiscount

		allocated = append(allocated, AllocatedLine{
			LineSell: lineSell,
			BuyTotal: buyTotal,
			Ratio:    ratio,
			Discount: lineDiscount,
			Tax:      lineTax,
			NetSell:  netSell,
			Profit:   netSell - float64(buyTotal),
		})
	}
	return allocated
}

// RoundMinor rounds a fractional allocation value to the nearest minor unit.
func RoundMinor(v float64) int64 {
	return int64(math.Round(v))
}

func clampQty(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
