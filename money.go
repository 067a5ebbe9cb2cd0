package valutatrade

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value: a decimal amount in a currency.
type Money struct {
	value decimal.Decimal
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		return decimal.Zero
	}
}

// currency returns the money's full currency description.
func (m Money) currency() money.Currency {
	// the Money constructor is the only way to get a never-nil currency.
	return *money.New(0, m.cur).Currency()
}

// String formats the value with its currency symbol. Crypto tickers are not
// known to go-money, those fall back to "<amount> <code>".
func (m Money) String() string {
	if money.GetCurrency(m.cur) == nil {
		return m.value.String() + " " + m.cur
	}
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string             { return m.cur }
func (m Money) Amount() decimal.Decimal      { return m.value }
func (m Money) Equal(n Money) bool           { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                 { return m.value.IsZero() }
func (m Money) IsPositive() bool             { return m.value.IsPositive() }
func (m Money) IsNegative() bool             { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool        { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool     { return m.value.GreaterThan(n.value) }
func (m Money) Add(n Money) Money            { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money            { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + "!=" + b.cur)
	}
	return a.cur
}

// Rate is the price of one unit of a pair's base currency expressed in its
// quote currency.
type Rate struct {
	value decimal.Decimal
}

func R[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Rate {
	return Rate{value: newDecimal(value)}
}

func (r Rate) Decimal() decimal.Decimal { return r.value }
func (r Rate) Equal(s Rate) bool        { return r.value.Equal(s.value) }
func (r Rate) IsZero() bool             { return r.value.IsZero() }
func (r Rate) IsPositive() bool         { return r.value.IsPositive() }
func (r Rate) String() string           { return r.value.String() }

// Cost returns amount×rate as Money in the given currency.
func (r Rate) Cost(amount decimal.Decimal, currency string) Money {
	return Money{value: amount.Mul(r.value), cur: currency}
}

// Inverse returns 1/rate. Division uses decimal's default precision.
func (r Rate) Inverse() Rate {
	return Rate{value: decimal.NewFromInt(1).Div(r.value)}
}

// MarshalJSON emits the rate as a bare JSON number.
func (r Rate) MarshalJSON() ([]byte, error) {
	return r.value.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Rate.
func (r *Rate) UnmarshalJSON(data []byte) error {
	return r.value.UnmarshalJSON(data)
}
