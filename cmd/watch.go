package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	valutatrade "github.com/valutatrade/hub"
)

type watchCmd struct {
	every time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh tracked pairs periodically until interrupted" }
func (*watchCmd) Usage() string {
	return `vth watch [-every <duration>]

  Refreshes every tracked pair immediately and then on a fixed period, until
  interrupted with SIGINT or SIGTERM. State is persisted after each round.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.every, "every", 0, "Refresh period (defaults to the configured update interval).")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := openRuntime()
	if err != nil {
		return fail(err)
	}

	every := c.every
	if every <= 0 {
		every = rt.cfg.UpdateInterval
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pairs := valutatrade.DefaultTrackedPairs()
	updater := valutatrade.NewUpdater(rt.rates, rt.cfg.Workers, rt.log)

	refresh := func() {
		results := updater.RefreshAll(ctx, pairs)
		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				rt.log.Warn().Err(res.Err).Stringer("pair", res.Pair).Msg("refresh failed")
			}
		}
		if err := rt.saveRates(); err != nil {
			rt.log.Error().Err(err).Msg("cannot persist rates")
		}
		fmt.Printf("%s refreshed %d/%d pair(s)\n",
			time.Now().Format(time.RFC3339), len(results)-failed, len(results))
	}

	refresh()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", every), refresh); err != nil {
		return fail(err)
	}
	scheduler.Start()

	<-ctx.Done()
	// Let an in-flight round finish before exiting.
	<-scheduler.Stop().Done()
	rt.log.Info().Msg("watch stopped")
	return subcommands.ExitSuccess
}
