package valutatrade

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Portfolio holds the virtual multi-currency balances and applies buy/sell
// operations priced through the rate aggregator. A single mutex serializes
// mutations: buy and sell read-then-write the shared balance map, so they
// form a critical section. Rates are always resolved before the lock is
// taken, the lock is never held across a network call.
type Portfolio struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	ledger   *Ledger
	rates    *RateAggregator
	log      zerolog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewPortfolio creates a portfolio whose balances are rebuilt by replaying
// the ledger. Replaying an untampered ledger cannot yield a negative balance;
// if it does the ledger was edited by hand and the portfolio refuses to
// start.
func NewPortfolio(rates *RateAggregator, ledger *Ledger, log zerolog.Logger) (*Portfolio, error) {
	balances := ledger.Replay()
	for sym, amount := range balances {
		if amount.IsNegative() {
			return nil, fmt.Errorf("ledger replay yields negative balance %s %s", amount, sym)
		}
	}
	return &Portfolio{
		balances: balances,
		ledger:   ledger,
		rates:    rates,
		log:      log.With().Str("component", "portfolio").Logger(),
		now:      time.Now,
	}, nil
}

// Buy purchases amount of base, paying in quote at the current rate.
// The rate is resolved first; only when pricing succeeded are the two balance
// updates and the ledger append performed, atomically under the lock. On any
// error balances and ledger are untouched.
func (p *Portfolio) Buy(ctx context.Context, base, quote string, amount decimal.Decimal) (Transaction, error) {
	pair, err := p.checkOrder(base, quote, amount)
	if err != nil {
		return Transaction{}, err
	}

	resolved, _, err := p.rates.Resolve(ctx, pair)
	if err != nil {
		return Transaction{}, err
	}
	cost := amount.Mul(resolved.Price.Decimal())

	p.mu.Lock()
	defer p.mu.Unlock()

	available := p.balances[quote]
	if available.LessThan(cost) {
		return Transaction{}, &InsufficientFundsError{
			Available: M(available, quote),
			Required:  M(cost, quote),
		}
	}

	tx := NewTransaction(KindBuy, base, quote, amount, resolved.Price, p.now())
	p.balances[quote] = available.Sub(cost)
	p.balances[base] = p.balances[base].Add(amount)
	p.ledger.Append(tx)

	p.log.Info().Str("base", base).Str("quote", quote).
		Stringer("amount", amount).Stringer("rate", resolved.Price).Msg("buy executed")
	return tx, nil
}

// Sell disposes of amount of base, credited in quote at the current rate.
// The base balance is re-verified under the lock after pricing, so a
// concurrent sell cannot drive it negative.
func (p *Portfolio) Sell(ctx context.Context, base, quote string, amount decimal.Decimal) (Transaction, error) {
	pair, err := p.checkOrder(base, quote, amount)
	if err != nil {
		return Transaction{}, err
	}

	// Fail fast before the network round-trip when the position is plainly
	// too small.
	if held := p.BalanceOf(base); held.Amount().LessThan(amount) {
		return Transaction{}, &InsufficientFundsError{
			Available: held,
			Required:  M(amount, base),
		}
	}

	resolved, _, err := p.rates.Resolve(ctx, pair)
	if err != nil {
		return Transaction{}, err
	}
	proceeds := amount.Mul(resolved.Price.Decimal())

	p.mu.Lock()
	defer p.mu.Unlock()

	held := p.balances[base]
	if held.LessThan(amount) {
		return Transaction{}, &InsufficientFundsError{
			Available: M(held, base),
			Required:  M(amount, base),
		}
	}

	tx := NewTransaction(KindSell, base, quote, amount, resolved.Price, p.now())
	p.balances[base] = held.Sub(amount)
	p.balances[quote] = p.balances[quote].Add(proceeds)
	p.ledger.Append(tx)

	p.log.Info().Str("base", base).Str("quote", quote).
		Stringer("amount", amount).Stringer("rate", resolved.Price).Msg("sell executed")
	return tx, nil
}

// Deposit credits amount of a currency. No pricing involved.
func (p *Portfolio) Deposit(currency string, amount decimal.Decimal) (Transaction, error) {
	if _, err := p.checkAmount(currency, amount); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tx := NewTransaction(KindDeposit, currency, "", amount, Rate{}, p.now())
	p.balances[currency] = p.balances[currency].Add(amount)
	p.ledger.Append(tx)
	return tx, nil
}

// Withdraw debits amount of a currency, failing when the balance is short.
func (p *Portfolio) Withdraw(currency string, amount decimal.Decimal) (Transaction, error) {
	if _, err := p.checkAmount(currency, amount); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	held := p.balances[currency]
	if held.LessThan(amount) {
		return Transaction{}, &InsufficientFundsError{
			Available: M(held, currency),
			Required:  M(amount, currency),
		}
	}

	tx := NewTransaction(KindWithdraw, currency, "", amount, Rate{}, p.now())
	p.balances[currency] = held.Sub(amount)
	p.ledger.Append(tx)
	return tx, nil
}

// BalanceOf returns the held amount of a currency; an absent symbol is zero.
func (p *Portfolio) BalanceOf(symbol string) Money {
	p.mu.Lock()
	defer p.mu.Unlock()
	return M(p.balances[symbol], symbol)
}

// Snapshot returns a read-only copy of the balance mapping. Zero balances
// left behind by a full disposal are omitted.
func (p *Portfolio) Snapshot() map[string]decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make(map[string]decimal.Decimal, len(p.balances))
	for sym, amount := range p.balances {
		if !amount.IsZero() {
			snapshot[sym] = amount
		}
	}
	return snapshot
}

// TotalValue converts every balance into the given currency at current rates
// and sums them. A pair that cannot be resolved fails the whole valuation.
func (p *Portfolio) TotalValue(ctx context.Context, currency string) (Money, error) {
	if _, err := LookupCurrency(currency); err != nil {
		return Money{}, err
	}

	snapshot := p.Snapshot()
	symbols := slices.Collect(maps.Keys(snapshot))
	slices.Sort(symbols)

	total := M(decimal.Zero, currency)
	for _, sym := range symbols {
		pair, err := NewPair(sym, currency)
		if err != nil {
			return Money{}, err
		}
		quote, _, err := p.rates.Resolve(ctx, pair)
		if err != nil {
			return Money{}, err
		}
		total = total.Add(quote.Price.Cost(snapshot[sym], currency))
	}
	return total, nil
}

// checkOrder validates a buy/sell request: positive amount, known currencies,
// distinct sides.
func (p *Portfolio) checkOrder(base, quote string, amount decimal.Decimal) (Pair, error) {
	if _, err := p.checkAmount(base, amount); err != nil {
		return Pair{}, err
	}
	pair, err := NewPair(base, quote)
	if err != nil {
		return Pair{}, err
	}
	if pair.IsIdentity() {
		return Pair{}, fmt.Errorf("cannot trade %s against itself", pair.Base())
	}
	return pair, nil
}

func (p *Portfolio) checkAmount(currency string, amount decimal.Decimal) (Currency, error) {
	if !amount.IsPositive() {
		return Currency{}, &InvalidAmountError{Amount: amount}
	}
	return LookupCurrency(currency)
}
