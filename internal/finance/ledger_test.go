package finance

import (
	"testing"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testTable() *Table {
	return NewTable([]core.Currency{
		{ID: 1, Code: "USD", IsDefault: true, ExchangeRate: dec("1")},
		{ID: 2, Code: "EUR", ExchangeRate: dec("0.9")},
		{ID: 3, Code: "IDR", ExchangeRate: dec("16000")},
		{ID: 4, Code: "XXX", ExchangeRate: dec("0")}, // unusable rate
	})
}

func TestNewTable_BaseRateForcedToOne(t *testing.T) {
	table := NewTable([]core.Currency{
		{Code: "USD", IsDefault: true, ExchangeRate: dec("42")}, // stored rate is ignored for the base
		{Code: "EUR", ExchangeRate: dec("0.9")},
	})
	if table.Base() != "USD" {
		t.Fatalf("Base() = %q, want USD", table.Base())
	}
	r, ok := table.Rate("USD")
	if !ok || !r.Equal(dec("1")) {
		t.Errorf("Rate(USD) = %v, %v; want 1, true", r, ok)
	}
}

func TestNewTable_NoDefaultFallsBackToFirstCode(t *testing.T) {
	table := NewTable([]core.Currency{
		{Code: "EUR", ExchangeRate: dec("0.9")},
		{Code: "GBP", ExchangeRate: dec("0.8")},
	})
	if table.Base() != "EUR" {
		t.Errorf("Base() = %q, want EUR", table.Base())
	}
}

func TestConvert_Identity(t *testing.T) {
	table := testTable()
	for _, code := range []string{"USD", "EUR", "IDR", "ZZZ"} {
		amount := dec("123.456")
		got := table.Convert(amount, code, code, nil)
		if !got.Equal(amount) {
			t.Errorf("Convert(%v, %s, %s) = %v, want exact identity", amount, code, code, got)
		}
	}
}

func TestConvert_ThroughBase(t *testing.T) {
	table := testTable()

	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{"eur to usd divides by rate", "100", "EUR", "USD", "111.11"},
		{"usd to eur multiplies by rate", "100", "USD", "EUR", "90"},
		{"eur to idr two hops", "90", "EUR", "IDR", "1600000"},
		{"case insensitive codes", "100", "eur", "usd", "111.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Convert(dec(tt.amount), tt.from, tt.to, nil)
			want := dec(tt.want)
			if !got.Round(2).Equal(want.Round(2)) {
				t.Errorf("Convert(%s, %s, %s) = %v, want %v", tt.amount, tt.from, tt.to, got.Round(2), want)
			}
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	table := testTable()
	pairs := [][2]string{{"USD", "EUR"}, {"EUR", "IDR"}, {"IDR", "USD"}}
	amount := dec("1234.56")
	tolerance := dec("0.000001")

	for _, p := range pairs {
		there := table.Convert(amount, p[0], p[1], nil)
		back := table.Convert(there, p[1], p[0], nil)
		if back.Sub(amount).Abs().GreaterThan(tolerance) {
			t.Errorf("round trip %s->%s->%s: got %v, want ~%v", p[0], p[1], p[0], back, amount)
		}
	}
}

func TestConvert_FallbackPolicy(t *testing.T) {
	table := testTable()

	tests := []struct {
		name     string
		from     string
		to       string
		want     string
		wantKind AnomalyKind
	}{
		{"unknown source treated as base", "ZZZ", "USD", "100", AnomalyDanglingRef},
		{"zero-rate source treated as base", "XXX", "EUR", "90", AnomalyMissingRate},
		{"unknown target keeps base amount", "EUR", "ZZZ", "111.11", AnomalyDanglingRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diag Diagnostics
			got := table.Convert(dec("100"), tt.from, tt.to, &diag)
			if !got.Round(2).Equal(dec(tt.want)) {
				t.Errorf("Convert = %v, want %v", got.Round(2), tt.want)
			}
			if diag.Count(tt.wantKind) != 1 {
				t.Errorf("anomalies = %+v, want one %s", diag.Anomalies(), tt.wantKind)
			}
		})
	}
}

func TestConvert_NilDiagnosticsIsSafe(t *testing.T) {
	table := testTable()
	got := table.Convert(dec("100"), "ZZZ", "USD", nil)
	if !got.Equal(dec("100")) {
		t.Errorf("Convert with nil diagnostics = %v, want 100", got)
	}
}
