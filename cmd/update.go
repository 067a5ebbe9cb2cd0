package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	valutatrade "github.com/valutatrade/hub"
)

type updateCmd struct {
	workers int
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "refresh rates for tracked currency pairs" }
func (*updateCmd) Usage() string {
	return `vth update [-w <workers>] [<BASE/QUOTE>...]

  Refreshes the given pairs through the provider chain, several pairs at a
  time. Without arguments every registered currency is refreshed against USD.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.workers, "w", 0, "Refresh concurrency (defaults to the configured worker count).")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	var pairs []valutatrade.Pair
	if f.NArg() == 0 {
		pairs = valutatrade.DefaultTrackedPairs()
	} else {
		for _, arg := range f.Args() {
			pair, err := valutatrade.ParsePair(arg)
			if err != nil {
				return fail(err)
			}
			pairs = append(pairs, pair)
		}
	}

	workers := c.workers
	if workers <= 0 {
		workers = rt.cfg.Workers
	}
	updater := valutatrade.NewUpdater(rt.rates, workers, rt.log)
	results := updater.RefreshAll(ctx, pairs)

	if err := rt.saveRates(); err != nil {
		return fail(err)
	}

	var b strings.Builder
	b.WriteString("| Pair | Via | Error |\n")
	b.WriteString("|---|---|---|\n")
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(&b, "| %s | - | %s |\n", res.Pair, errorMessage(res.Err))
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | - |\n", res.Pair, res.Resolution)
	}
	fmt.Fprintf(&b, "\n%d/%d pair(s) refreshed\n", len(results)-failed, len(results))
	printMarkdown(b.String())

	if failed == len(results) && len(results) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
