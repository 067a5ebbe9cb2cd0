package valutatrade

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind is a typed string identifying a ledger operation.
type TransactionKind string

const (
	KindBuy      TransactionKind = "buy"
	KindSell     TransactionKind = "sell"
	KindDeposit  TransactionKind = "deposit"
	KindWithdraw TransactionKind = "withdraw"
)

// Transaction is one recorded portfolio operation. Immutable once recorded.
//
// For buy/sell, Amount is the quantity of Base traded and Price the rate of
// Base in Quote at execution time. Deposit/withdraw move Amount of the Base
// currency directly; they carry no quote side and no price.
type Transaction struct {
	ID     string          `json:"id"`
	Kind   TransactionKind `json:"kind"`
	Base   string          `json:"base"`
	Quote  string          `json:"quote,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Price  Rate            `json:"price,omitempty"`
	Time   time.Time       `json:"time"`
}

// NewTransaction stamps a transaction with a fresh id.
func NewTransaction(kind TransactionKind, base, quote string, amount decimal.Decimal, price Rate, at time.Time) Transaction {
	return Transaction{
		ID:     uuid.NewString(),
		Kind:   kind,
		Base:   base,
		Quote:  quote,
		Amount: amount,
		Price:  price,
		Time:   at,
	}
}

// Cost returns the quote-currency value moved by a buy or sell.
func (t Transaction) Cost() decimal.Decimal {
	return t.Amount.Mul(t.Price.Decimal())
}

// Ledger is the ordered, append-only sequence of all transactions. The
// portfolio's balance must always be reconstructible by replaying it from the
// empty balance.
type Ledger struct {
	mu           sync.Mutex
	transactions []Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records transactions in order. Never reorders or deletes.
func (l *Ledger) Append(txs ...Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = append(l.transactions, txs...)
}

// Len returns the number of recorded transactions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.transactions)
}

// Transactions returns an iterator over all transactions in insertion order.
func (l *Ledger) Transactions() iter.Seq2[int, Transaction] {
	l.mu.Lock()
	snapshot := l.transactions[:len(l.transactions):len(l.transactions)]
	l.mu.Unlock()

	return func(yield func(int, Transaction) bool) {
		for i, tx := range snapshot {
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Replay recomputes a balance mapping from the empty balance by applying
// every transaction in order. Used as the consistency check against the live
// portfolio and to rebuild state after a restart.
func (l *Ledger) Replay() map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, tx := range l.Transactions() {
		applyTransaction(balances, tx)
	}
	return balances
}

// applyTransaction applies one transaction's balance deltas in place.
func applyTransaction(balances map[string]decimal.Decimal, tx Transaction) {
	get := func(sym string) decimal.Decimal { return balances[sym] }
	switch tx.Kind {
	case KindBuy:
		balances[tx.Quote] = get(tx.Quote).Sub(tx.Cost())
		balances[tx.Base] = get(tx.Base).Add(tx.Amount)
	case KindSell:
		balances[tx.Base] = get(tx.Base).Sub(tx.Amount)
		balances[tx.Quote] = get(tx.Quote).Add(tx.Cost())
	case KindDeposit:
		balances[tx.Base] = get(tx.Base).Add(tx.Amount)
	case KindWithdraw:
		balances[tx.Base] = get(tx.Base).Sub(tx.Amount)
	}
}
