package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// --- Deposit Command ---

type depositCmd struct {
	currency string
	amount   string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "credit an amount of a currency to the portfolio" }
func (*depositCmd) Usage() string {
	return `vth deposit -c <currency> -a <amount>

  Credits an amount of a currency. No pricing is involved.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Currency to credit")
	f.StringVar(&c.amount, "a", "", "Amount to credit")
}

func (c *depositCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tx, err := rt.portfolio.Deposit(c.currency, amount)
	if err != nil {
		return fail(err)
	}
	if err := rt.recordTransaction(tx); err != nil {
		return fail(err)
	}

	fmt.Printf("Deposited %s %s, new balance %s\n", tx.Amount, tx.Base, rt.portfolio.BalanceOf(tx.Base))
	return subcommands.ExitSuccess
}

// --- Withdraw Command ---

type withdrawCmd struct {
	currency string
	amount   string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "debit an amount of a currency from the portfolio" }
func (*withdrawCmd) Usage() string {
	return `vth withdraw -c <currency> -a <amount>

  Debits an amount of a held currency. Fails when the balance is short.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Currency to debit")
	f.StringVar(&c.amount, "a", "", "Amount to debit")
}

func (c *withdrawCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tx, err := rt.portfolio.Withdraw(c.currency, amount)
	if err != nil {
		return fail(err)
	}
	if err := rt.recordTransaction(tx); err != nil {
		return fail(err)
	}

	fmt.Printf("Withdrew %s %s, new balance %s\n", tx.Amount, tx.Base, rt.portfolio.BalanceOf(tx.Base))
	return subcommands.ExitSuccess
}
