package valutatrade

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPortfolio wires a portfolio over a scripted provider.
func newTestPortfolio(t *testing.T, provider *fakeProvider) (*Portfolio, *Ledger) {
	t.Helper()
	agg, _, _, _ := newTestAggregator(provider)
	ledger := NewLedger()
	pf, err := NewPortfolio(agg, ledger, zerolog.Nop())
	require.NoError(t, err)
	return pf, ledger
}

func TestPortfolioBuy(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, ledger := newTestPortfolio(t, provider)

	_, err := pf.Deposit("USD", dec("100000"))
	require.NoError(t, err)

	trade, err := pf.Buy(context.Background(), "BTC", "USD", dec("1"))
	require.NoError(t, err)
	assert.Equal(t, KindBuy, trade.Kind)
	assert.True(t, trade.Price.Equal(R(50000)))
	assert.True(t, pf.BalanceOf("BTC").Amount().Equal(dec("1")))
	assert.True(t, pf.BalanceOf("USD").Amount().Equal(dec("50000")))
	assert.Equal(t, 2, ledger.Len())
}

func TestPortfolioBuyInsufficientFunds(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, ledger := newTestPortfolio(t, provider)

	_, err := pf.Deposit("USD", dec("100"))
	require.NoError(t, err)

	_, err = pf.Buy(context.Background(), "BTC", "USD", dec("1"))
	var funds *InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.True(t, funds.Available.Amount().Equal(dec("100")))
	assert.True(t, funds.Required.Amount().Equal(dec("50000")))

	// nothing moved
	assert.True(t, pf.BalanceOf("USD").Amount().Equal(dec("100")))
	assert.True(t, pf.BalanceOf("BTC").IsZero())
	assert.Equal(t, 1, ledger.Len())
}

func TestPortfolioSell(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, _ := newTestPortfolio(t, provider)

	_, err := pf.Deposit("BTC", dec("1"))
	require.NoError(t, err)

	trade, err := pf.Sell(context.Background(), "BTC", "USD", dec("0.5"))
	require.NoError(t, err)
	assert.Equal(t, KindSell, trade.Kind)
	assert.True(t, pf.BalanceOf("BTC").Amount().Equal(dec("0.5")))
	assert.True(t, pf.BalanceOf("USD").Amount().Equal(dec("25000")))
}

func TestPortfolioSellInsufficientPosition(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, _ := newTestPortfolio(t, provider)

	_, err := pf.Sell(context.Background(), "BTC", "USD", dec("1"))
	var funds *InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	// the funds check comes before any pricing, no network call happened
	assert.Equal(t, 0, provider.fetchCount())
}

func TestPortfolioConcurrentSells(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, ledger := newTestPortfolio(t, provider)

	_, err := pf.Deposit("BTC", dec("1"))
	require.NoError(t, err)

	// 10 goroutines race to sell 0.25 BTC out of a 1 BTC position; at most 4
	// can succeed, the rest must fail cleanly on the under-lock recheck.
	const sellers = 10
	results := make(chan error, sellers)
	for range sellers {
		go func() {
			_, err := pf.Sell(context.Background(), "BTC", "USD", dec("0.25"))
			results <- err
		}()
	}
	sold := 0
	for range sellers {
		err := <-results
		if err == nil {
			sold++
			continue
		}
		var funds *InsufficientFundsError
		require.ErrorAs(t, err, &funds)
	}

	assert.Equal(t, 4, sold)
	assert.False(t, pf.BalanceOf("BTC").IsNegative())
	assert.True(t, pf.BalanceOf("BTC").IsZero())
	assert.True(t, pf.BalanceOf("USD").Amount().Equal(dec("50000")))
	// one deposit plus one transaction per successful sell
	assert.Equal(t, 1+sold, ledger.Len())
	replayed := ledger.Replay()
	for sym, amount := range pf.Snapshot() {
		assert.True(t, replayed[sym].Equal(amount), "replay drift for %s", sym)
	}
}

func TestPortfolioInvalidAmounts(t *testing.T) {
	pf, _ := newTestPortfolio(t, &fakeProvider{name: "p", rate: R(1)})

	for _, amount := range []string{"0", "-1"} {
		var invalid *InvalidAmountError
		_, err := pf.Deposit("USD", dec(amount))
		assert.ErrorAs(t, err, &invalid, "deposit %s", amount)
		_, err = pf.Withdraw("USD", dec(amount))
		assert.ErrorAs(t, err, &invalid, "withdraw %s", amount)
		_, err = pf.Buy(context.Background(), "BTC", "USD", dec(amount))
		assert.ErrorAs(t, err, &invalid, "buy %s", amount)
		_, err = pf.Sell(context.Background(), "BTC", "USD", dec(amount))
		assert.ErrorAs(t, err, &invalid, "sell %s", amount)
	}
}

func TestPortfolioUnknownCurrency(t *testing.T) {
	pf, _ := newTestPortfolio(t, &fakeProvider{name: "p", rate: R(1)})

	var notFound *CurrencyNotFoundError
	_, err := pf.Deposit("XYZ", dec("1"))
	assert.ErrorAs(t, err, &notFound)
	_, err = pf.Buy(context.Background(), "BTC", "XYZ", dec("1"))
	assert.ErrorAs(t, err, &notFound)
}

func TestPortfolioIdentityTradeRejected(t *testing.T) {
	pf, _ := newTestPortfolio(t, &fakeProvider{name: "p", rate: R(1)})

	_, err := pf.Deposit("USD", dec("100"))
	require.NoError(t, err)
	_, err = pf.Buy(context.Background(), "USD", "USD", dec("10"))
	assert.Error(t, err)
}

func TestPortfolioWithdraw(t *testing.T) {
	pf, _ := newTestPortfolio(t, &fakeProvider{name: "p", rate: R(1)})

	_, err := pf.Deposit("EUR", dec("250.50"))
	require.NoError(t, err)
	_, err = pf.Withdraw("EUR", dec("100"))
	require.NoError(t, err)
	assert.True(t, pf.BalanceOf("EUR").Amount().Equal(dec("150.5")))

	_, err = pf.Withdraw("EUR", dec("1000"))
	var funds *InsufficientFundsError
	assert.ErrorAs(t, err, &funds)
}

func TestPortfolioSnapshotOmitsZeroBalances(t *testing.T) {
	pf, _ := newTestPortfolio(t, &fakeProvider{name: "p", rate: R(1)})

	_, err := pf.Deposit("USD", dec("100"))
	require.NoError(t, err)
	_, err = pf.Withdraw("USD", dec("100"))
	require.NoError(t, err)

	assert.Empty(t, pf.Snapshot())
}

func TestPortfolioTotalValue(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, _ := newTestPortfolio(t, provider)

	_, err := pf.Deposit("BTC", dec("0.5"))
	require.NoError(t, err)
	_, err = pf.Deposit("USD", dec("1000"))
	require.NoError(t, err)

	// BTC is valued through the provider, USD through the identity path
	total, err := pf.TotalValue(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", total.Currency())
	assert.True(t, total.Amount().Equal(dec("26000")), "total = %s", total.Amount())
}

func TestPortfolioTotalValueFailsWhenRateMissing(t *testing.T) {
	provider := &fakeProvider{name: "p", err: errors.New("offline")}
	pf, _ := newTestPortfolio(t, provider)

	_, err := pf.Deposit("BTC", dec("0.5"))
	require.NoError(t, err)

	_, err = pf.TotalValue(context.Background(), "USD")
	var unavailable *RateUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestPortfolioReplayMatchesBalances(t *testing.T) {
	provider := &fakeProvider{name: "p", rate: R(50000)}
	pf, ledger := newTestPortfolio(t, provider)

	ctx := context.Background()
	_, err := pf.Deposit("USD", dec("100000"))
	require.NoError(t, err)
	_, err = pf.Buy(ctx, "BTC", "USD", dec("1"))
	require.NoError(t, err)
	_, err = pf.Sell(ctx, "BTC", "USD", dec("0.25"))
	require.NoError(t, err)
	_, err = pf.Withdraw("USD", dec("500"))
	require.NoError(t, err)

	replayed := ledger.Replay()
	for sym, amount := range pf.Snapshot() {
		assert.True(t, replayed[sym].Equal(amount), "replay drift for %s: %s vs %s", sym, replayed[sym], amount)
	}
}

func TestNewPortfolioRejectsNegativeReplay(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(tx(KindWithdraw, "USD", "", "100", ""))

	agg, _, _, _ := newTestAggregator(&fakeProvider{name: "p", rate: R(1)})
	_, err := NewPortfolio(agg, ledger, zerolog.Nop())
	assert.Error(t, err)
}
