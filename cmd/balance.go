package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/subcommands"
)

type balanceCmd struct {
	total    bool
	currency string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show the portfolio balances" }
func (*balanceCmd) Usage() string {
	return `vth balance [-t] [-q <currency>]

  Shows the non-zero balances of the portfolio. With -t the balances are also
  valued at current rates and summed into a single total.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.total, "t", false, "Also print the portfolio total value.")
	f.StringVar(&c.currency, "q", "", "Valuation currency for -t (defaults to the configured quote currency)")
}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	snapshot := rt.portfolio.Snapshot()
	symbols := slices.Collect(maps.Keys(snapshot))
	slices.Sort(symbols)

	var b strings.Builder
	b.WriteString("| Currency | Balance |\n")
	b.WriteString("|---|---|\n")
	for _, sym := range symbols {
		fmt.Fprintf(&b, "| %s | %s |\n", sym, snapshot[sym])
	}
	if len(symbols) == 0 {
		b.WriteString("| - | empty portfolio |\n")
	}

	if c.total {
		total, err := rt.portfolio.TotalValue(ctx, rt.quoteCurrency(c.currency))
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(&b, "\nTotal value: **%s**\n", total)
		// Valuation resolves rates, persist what it fetched.
		if err := rt.saveRates(); err != nil {
			return fail(err)
		}
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
