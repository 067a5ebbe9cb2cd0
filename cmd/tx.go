package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	valutatrade "github.com/valutatrade/hub"
)

type txCmd struct {
	kind string
	head int
	tail int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list all transactions in the ledger" }
func (*txCmd) Usage() string {
	return `vth tx [-kind <kind>] [-head <n> | -tail <n>]

  Lists transactions from the ledger in insertion order, with options for
  filtering and limiting the output.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "Only transactions of this kind (buy, sell, deposit, withdraw).")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	var transactions []valutatrade.Transaction
	for _, tx := range rt.ledger.Transactions() {
		if c.kind != "" && tx.Kind != valutatrade.TransactionKind(c.kind) {
			continue
		}
		transactions = append(transactions, tx)
	}

	if c.head > 0 && len(transactions) > c.head {
		transactions = transactions[:c.head]
	}
	if c.tail > 0 && len(transactions) > c.tail {
		transactions = transactions[len(transactions)-c.tail:]
	}

	var b strings.Builder
	b.WriteString("| Time | Kind | Base | Quote | Amount | Price | Cost |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, tx := range transactions {
		quote, price, cost := "-", "-", "-"
		if tx.Quote != "" {
			quote = tx.Quote
			price = tx.Price.String()
			cost = valutatrade.M(tx.Cost(), tx.Quote).String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			tx.Time.Format(time.RFC3339), tx.Kind, tx.Base, quote, tx.Amount, price, cost)
	}
	fmt.Fprintf(&b, "\n%d transaction(s)\n", len(transactions))

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
