package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"
	valutatrade "github.com/valutatrade/hub"
)

type rateCmd struct {
	inverse bool
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "resolve the current exchange rate for currency pairs" }
func (*rateCmd) Usage() string {
	return `vth rate [-i] <BASE/QUOTE>...

  Resolves the current rate for each pair: a fresh cache entry first, then the
  providers in priority order, then a stale cache entry as last resort.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.inverse, "i", false, "Also print the inverse rate of each pair.")
}

func (c *rateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	var b strings.Builder
	b.WriteString("| Pair | Rate | Source | Fetched At | Via |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, arg := range f.Args() {
		pair, err := valutatrade.ParsePair(arg)
		if err != nil {
			return fail(err)
		}
		quote, via, err := rt.rates.Resolve(ctx, pair)
		if err != nil {
			return fail(err)
		}
		fetched := quote.FetchedAt.Format(time.RFC3339)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", quote.Pair, quote.Price, quote.Source, fetched, via)
		if c.inverse && quote.Price.IsPositive() {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | derived |\n", quote.Pair.Inverse(), quote.Price.Inverse(), quote.Source, fetched)
		}
	}

	if err := rt.saveRates(); err != nil {
		return fail(err)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
