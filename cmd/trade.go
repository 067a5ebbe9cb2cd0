package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	valutatrade "github.com/valutatrade/hub"
)

// --- Buy Command ---

type buyCmd struct {
	currency string
	amount   string
	quote    string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy an amount of a currency at the current rate" }
func (*buyCmd) Usage() string {
	return `vth buy -c <currency> -a <amount> [-q <quote>]

  Buys an amount of a currency, paying in the quote currency at the current
  rate. Fails without touching any balance when the quote balance is short.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Currency to buy")
	f.StringVar(&c.amount, "a", "", "Amount of the currency to buy")
	f.StringVar(&c.quote, "q", "", "Currency to pay with (defaults to the configured quote currency)")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.currency == "" || c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	tx, err := rt.portfolio.Buy(ctx, c.currency, rt.quoteCurrency(c.quote), amount)
	if err != nil {
		return fail(err)
	}
	if err := rt.recordTransaction(tx); err != nil {
		return fail(err)
	}
	if err := rt.saveRates(); err != nil {
		return fail(err)
	}

	fmt.Printf("Bought %s %s for %s (rate %s)\n",
		tx.Amount, tx.Base, valutatrade.M(tx.Cost(), tx.Quote), tx.Price)
	fmt.Printf("New balances: %s, %s\n",
		rt.portfolio.BalanceOf(tx.Base), rt.portfolio.BalanceOf(tx.Quote))
	return subcommands.ExitSuccess
}

// --- Sell Command ---

type sellCmd struct {
	currency string
	amount   string
	quote    string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell an amount of a currency at the current rate" }
func (*sellCmd) Usage() string {
	return `vth sell -c <currency> -a <amount> [-q <quote>]

  Sells an amount of a held currency, credited in the quote currency at the
  current rate. Fails without touching any balance when the position is short.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Currency to sell")
	f.StringVar(&c.amount, "a", "", "Amount of the currency to sell")
	f.StringVar(&c.quote, "q", "", "Currency to credit (defaults to the configured quote currency)")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.currency == "" || c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	tx, err := rt.portfolio.Sell(ctx, c.currency, rt.quoteCurrency(c.quote), amount)
	if err != nil {
		return fail(err)
	}
	if err := rt.recordTransaction(tx); err != nil {
		return fail(err)
	}
	if err := rt.saveRates(); err != nil {
		return fail(err)
	}

	fmt.Printf("Sold %s %s for %s (rate %s)\n",
		tx.Amount, tx.Base, valutatrade.M(tx.Cost(), tx.Quote), tx.Price)
	fmt.Printf("New balances: %s, %s\n",
		rt.portfolio.BalanceOf(tx.Base), rt.portfolio.BalanceOf(tx.Quote))
	return subcommands.ExitSuccess
}
