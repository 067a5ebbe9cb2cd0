package valutatrade

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyString(t *testing.T) {
	tests := []struct {
		money Money
		want  string
	}{
		{M(1234.56, "USD"), "$1,234.56"},
		{M(50, "USD"), "$50.00"},
		{M(0.5, "BTC"), "0.5 BTC"},
		{M(decimal.RequireFromString("0.000001"), "ETH"), "0.000001 ETH"},
	}
	for _, tt := range tests {
		if got := tt.money.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := M(10, "USD")
	b := M(2.5, "USD")
	if got := a.Sub(b); !got.Equal(M(7.5, "USD")) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Add(b); !got.Equal(M(12.5, "USD")) {
		t.Errorf("Add = %v", got)
	}
	// the zero Money has a weak currency and adopts the other side's.
	if got := (Money{}).Add(a); got.Currency() != "USD" {
		t.Errorf("weak currency not adopted: %q", got.Currency())
	}
	if !a.GreaterThan(b) || b.GreaterThan(a) || !b.LessThan(a) {
		t.Error("comparison mismatch")
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic on currency mismatch")
		}
	}()
	M(1, "USD").Add(M(1, "EUR"))
}

func TestRateCost(t *testing.T) {
	rate := R(50000)
	cost := rate.Cost(decimal.RequireFromString("0.5"), "USD")
	if !cost.Equal(M(25000, "USD")) {
		t.Errorf("Cost = %v", cost)
	}
}

func TestRateInverse(t *testing.T) {
	if got := R(2).Inverse(); !got.Equal(R(0.5)) {
		t.Errorf("Inverse = %v", got)
	}
}

func TestRateJSON(t *testing.T) {
	data, err := json.Marshal(R(decimal.RequireFromString("59337.21")))
	if err != nil {
		t.Fatal(err)
	}
	if want := "59337.21"; string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
	var r Rate
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if !r.Equal(R(decimal.RequireFromString("59337.21"))) {
		t.Errorf("roundtrip = %v", r)
	}
}
