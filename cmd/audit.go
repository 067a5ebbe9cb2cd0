package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type auditCmd struct{}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "verify the balances against a full ledger replay" }
func (*auditCmd) Usage() string {
	return `vth audit

  Replays the whole ledger from the empty balance and compares the result with
  the live balances. Any drift or negative balance means the ledger file was
  edited by hand.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {}

func (c *auditCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	replayed := rt.ledger.Replay()
	snapshot := rt.portfolio.Snapshot()

	symbols := make(map[string]struct{})
	for sym := range replayed {
		symbols[sym] = struct{}{}
	}
	for sym := range snapshot {
		symbols[sym] = struct{}{}
	}
	sorted := slices.Collect(maps.Keys(symbols))
	slices.Sort(sorted)

	var problems []string
	for _, sym := range sorted {
		want, got := replayed[sym], snapshot[sym]
		if !want.Equal(got) {
			problems = append(problems, fmt.Sprintf("%s: replay yields %s, balance is %s", sym, want, got))
		}
		if want.LessThan(decimal.Zero) {
			problems = append(problems, fmt.Sprintf("%s: replay yields negative balance %s", sym, want))
		}
	}

	fmt.Printf("ledger: %d transaction(s), %d currency(ies)\n", rt.ledger.Len(), len(sorted))
	if len(problems) > 0 {
		fmt.Println(strings.Join(problems, "\n"))
		return subcommands.ExitFailure
	}
	fmt.Println("balances consistent with ledger replay")
	return subcommands.ExitSuccess
}
