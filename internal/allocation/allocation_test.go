package allocation

import (
	"math"
	"testing"
)

func TestResolveNominal(t *testing.T) {
	cases := []struct {
		name  string
		kind  string
		value float64
		base  int64
		want  int64
	}{
		{"nominal passthrough", "nominal", 1000, 25000, 1000},
		{"percent rounds down", "percent", 10, 24005, 2400},
		{"percent of zero base", "percent", 10, 0, 0},
		{"negative clamps to zero", "nominal", -500, 25000, 0},
		{"fractional nominal truncates", "nominal", 999.9, 25000, 999},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveNominal(tc.kind, tc.value, tc.base)
			if got != tc.want {
				t.Fatalf("ResolveNominal(%q, %v, %d) = %d, want %d", tc.kind, tc.value, tc.base, got, tc.want)
			}
		})
	}
}

func TestAllocateProportionalSplit(t *testing.T) {
	lines := []Line{
		{SellUnit: 10000, BuyUnit: 6000, Qty: 2},
		{SellUnit: 5000, BuyUnit: 3000, Qty: 1},
	}

	subtotal := Subtotal(lines)
	if subtotal != 25000 {
		t.Fatalf("subtotal = %d, want 25000", subtotal)
	}

	discount := ResolveNominal("nominal", 1000, subtotal)
	taxBase := subtotal - discount
	tax := ResolveNominal("percent", 10, taxBase)
	if tax != 2400 {
		t.Fatalf("tax = %d, want 2400", tax)
	}
	grandTotal := taxBase + tax
	if grandTotal != 26400 {
		t.Fatalf("grand total = %d, want 26400", grandTotal)
	}

	allocated := Allocate(lines, discount, tax)
	if len(allocated) != 2 {
		t.Fatalf("allocated %d lines, want 2", len(allocated))
	}

	first := allocated[0]
	if first.LineSell != 20000 || first.BuyTotal != 12000 {
		t.Fatalf("first line sell=%d buy=%d, want 20000/12000", first.LineSell, first.BuyTotal)
	}
	if math.Abs(first.Discount-800) > 1e-9 {
		t.Fatalf("first line discount = %v, want 800", first.Discount)
	}
	if math.Abs(first.Tax-1920) > 1e-9 {
		t.Fatalf("first line tax = %v, want 1920", first.Tax)
	}
	if math.Abs(first.NetSell-19200) > 1e-9 {
		t.Fatalf("first line net sell = %v, want 19200", first.NetSell)
	}
	if math.Abs(first.Profit-7200) > 1e-9 {
		t.Fatalf("first line profit = %v, want 7200", first.Profit)
	}

	second := allocated[1]
	if math.Abs(second.Discount-200) > 1e-9 {
		t.Fatalf("second line discount = %v, want 200", second.Discount)
	}
	if math.Abs(second.Tax-480) > 1e-9 {
		t.Fatalf("second line tax = %v, want 480", second.Tax)
	}
	if math.Abs(second.NetSell-4800) > 1e-9 {
		t.Fatalf("second line net sell = %v, want 4800", second.NetSell)
	}
	if math.Abs(second.Profit-1800) > 1e-9 {
		t.Fatalf("second line profit = %v, want 1800", second.Profit)
	}
}

func TestAllocateConservation(t *testing.T) {
	lines := []Line{
		{SellUnit: 3333, BuyUnit: 2100, Qty: 3},
		{SellUnit: 7777, BuyUnit: 5000, Qty: 1},
		{SellUnit: 1259, BuyUnit: 900, Qty: 7},
	}
	discount := int64(1501)
	tax := int64(977)

	allocated := Allocate(lines, discount, tax)

	var sumDiscount, sumTax float64
	for _, al := range allocated {
		sumDiscount += al.Discount
		sumTax += al.Tax
	}
	if math.Abs(sumDiscount-float64(discount)) > 1e-6 {
		t.Fatalf("discount allocation sums to %v, want %d", sumDiscount, discount)
	}
	if math.Abs(sumTax-float64(tax)) > 1e-6 {
		t.Fatalf("tax allocation sums to %v, want %d", sumTax, tax)
	}
}

func TestAllocateZeroSubtotal(t *testing.T) {
	lines := []Line{
		{SellUnit: 0, BuyUnit: 500, Qty: 2},
	}

	allocated := Allocate(lines, 1000, 100)
	if allocated[0].Ratio != 0 {
		t.Fatalf("ratio = %v, want 0", allocated[0].Ratio)
	}
	if allocated[0].Discount != 0 || allocated[0].Tax != 0 {
		t.Fatalf("zero subtotal must allocate nothing, got discount=%v tax=%v", allocated[0].Discount, allocated[0].Tax)
	}
	if allocated[0].Profit != -1000 {
		t.Fatalf("profit = %v, want -1000 (negative buy total)", allocated[0].Profit)
	}
}

func TestSubtotalClampsQty(t *testing.T) {
	lines := []Line{
		{SellUnit: 5000, BuyUnit: 3000, Qty: 0},
	}
	if got := Subtotal(lines); got != 5000 {
		t.Fatalf("subtotal with qty 0 = %d, want 5000 (clamped to 1)", got)
	}
}

func TestRoundMinor(t *testing.T) {
	if got := RoundMinor(2.5); got != 3 {
		t.Fatalf("RoundMinor(2.5) = %d, want 3", got)
	}
	if got := RoundMinor(-2.5); got != -3 {
		t.Fatalf("RoundMinor(-2.5) = %d, want -3", got)
	}
	if got := RoundMinor(2.4999); got != 2 {
		t.Fatalf("RoundMinor(2.4999) = %d, want 2", got)
	}
}
