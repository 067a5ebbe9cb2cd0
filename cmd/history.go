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

type historyCmd struct {
	pair  string
	start string
	end   string
	head  int
	tail  int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list resolved rates from the history log" }
func (*historyCmd) Usage() string {
	return `vth history [-pair <BASE/QUOTE>] [-s <start>] [-d <end>] [-head <n> | -tail <n>]

  Lists resolved rates from the history log in chronological order, with
  options for filtering by pair and fetch-time range.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pair, "pair", "", "Only records for this pair.")
	f.StringVar(&c.start, "s", "", "Only records fetched at or after this time (YYYY-MM-DD or RFC 3339).")
	f.StringVar(&c.end, "d", "", "Only records fetched at or before this time (YYYY-MM-DD or RFC 3339).")
	f.IntVar(&c.head, "head", 0, "Show only the first N records.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N records.")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	var pair valutatrade.Pair
	if c.pair != "" {
		parsed, err := valutatrade.ParsePair(c.pair)
		if err != nil {
			return fail(err)
		}
		pair = parsed
	}
	since, err := parseTime(c.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing start time: %v\n", err)
		return subcommands.ExitUsageError
	}
	until, err := parseTime(c.end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing end time: %v\n", err)
		return subcommands.ExitUsageError
	}
	if !until.IsZero() && c.end == until.Format(time.DateOnly) {
		// A bare end date means the whole day.
		until = until.Add(24*time.Hour - time.Nanosecond)
	}

	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	var records []valutatrade.HistoryRecord
	for rec := range rt.history.Records(pair, since, until) {
		records = append(records, rec)
	}

	if c.head > 0 && len(records) > c.head {
		records = records[:c.head]
	}
	if c.tail > 0 && len(records) > c.tail {
		records = records[len(records)-c.tail:]
	}

	var b strings.Builder
	b.WriteString("| Fetched At | Pair | Rate | Source | Via |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			rec.Quote.FetchedAt.Format(time.RFC3339), rec.Quote.Pair, rec.Quote.Price,
			rec.Quote.Source, rec.ResolvedVia)
	}
	fmt.Fprintf(&b, "\n%d record(s)\n", len(records))

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

// parseTime accepts a bare date or a full RFC 3339 timestamp. An empty string
// is the zero time, meaning no bound.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
