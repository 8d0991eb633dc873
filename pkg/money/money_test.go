package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCommission(t *testing.T) {
	cases := []struct {
		name      string
		unitPrice string
		quantity  int
		discount  string
		pct       string
		want      string
	}{
		{"whole values", "100.00", 2, "0", "10", "20.00"},
		{"half-up rounding", "33.33", 1, "0", "15", "5.00"}, // 4.9995 rounds up
		{"with line discount", "50.00", 2, "10.00", "20", "18.00"},
		{"zero pct", "80.00", 1, "0", "0", "0.00"},
		{"full pct", "45.50", 1, "0", "100", "45.50"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := Commission(dec(tt.unitPrice), tt.quantity, dec(tt.discount), dec(tt.pct))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("Commission(%s, %d, %s, %s)=%s, want %s",
					tt.unitPrice, tt.quantity, tt.discount, tt.pct, got, tt.want)
			}
		})
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(dec("25.90"), 3, dec("2.70"))
	if !got.Equal(dec("75.00")) {
		t.Fatalf("LineTotal=%s, want 75.00", got)
	}
}

func TestTicketTotal(t *testing.T) {
	cases := []struct {
		name        string
		subtotal    string
		discount    string
		discountPct string
		surcharge   string
		want        string
	}{
		{"plain", "100.00", "0", "0", "0", "100.00"},
		{"absolute discount", "100.00", "15.00", "0", "0", "85.00"},
		{"percent discount", "200.00", "0", "10", "0", "180.00"},
		{"both discounts plus surcharge", "100.00", "10.00", "10", "5.00", "85.00"},
		{"clamped at zero", "50.00", "80.00", "0", "0", "0"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := TicketTotal(dec(tt.subtotal), dec(tt.discount), dec(tt.discountPct), dec(tt.surcharge))
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("TicketTotal=%s, want %s", got, tt.want)
			}
		})
	}
}

func TestRound2HalfUp(t *testing.T) {
	if got := Round2(dec("4.9995")); !got.Equal(dec("5.00")) {
		t.Fatalf("Round2(4.9995)=%s, want 5.00", got)
	}
	if got := Round2(dec("2.004")); !got.Equal(dec("2.00")) {
		t.Fatalf("Round2(2.004)=%s, want 2.00", got)
	}
	if got := Round2(dec("2.005")); !got.Equal(dec("2.01")) {
		t.Fatalf("Round2(2.005)=%s, want 2.01", got)
	}
}
