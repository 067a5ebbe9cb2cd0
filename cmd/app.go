// Package cmd implements the CLI application driving the rate hub and its
// virtual portfolio.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	valutatrade "github.com/valutatrade/hub"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&rateCmd{}, "rates")
	c.Register(&updateCmd{}, "rates")
	c.Register(&watchCmd{}, "rates")
	c.Register(&historyCmd{}, "rates")

	c.Register(&buyCmd{}, "portfolio")
	c.Register(&sellCmd{}, "portfolio")
	c.Register(&depositCmd{}, "portfolio")
	c.Register(&withdrawCmd{}, "portfolio")
	c.Register(&balanceCmd{}, "portfolio")
	c.Register(&txCmd{}, "portfolio")
	c.Register(&auditCmd{}, "portfolio")

	c.Register(&topicCmd{}, "documentation")
}

// runtime is the fully wired application state a command operates on. As a
// CLI application the lifecycle is short lived: open, run one command, save.
type runtime struct {
	cfg       *valutatrade.Config
	log       zerolog.Logger
	store     *valutatrade.Store
	cache     *valutatrade.RateCache
	history   *valutatrade.HistoryLog
	ledger    *valutatrade.Ledger
	rates     *valutatrade.RateAggregator
	portfolio *valutatrade.Portfolio

	// loadedHistory is the record count at load time; saveRates appends only
	// the records produced after it.
	loadedHistory int
}

// openRuntime loads configuration and persisted state and wires the core.
func openRuntime() (*runtime, error) {
	cfg, err := valutatrade.LoadConfig()
	if err != nil {
		return nil, err
	}
	log := valutatrade.NewLogger(cfg)

	store, err := valutatrade.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	cache := valutatrade.NewRateCache()
	if err := store.LoadCache(cache); err != nil {
		return nil, err
	}
	history, err := store.LoadHistory()
	if err != nil {
		return nil, err
	}
	ledger, err := store.LoadLedger()
	if err != nil {
		return nil, err
	}

	providers, err := valutatrade.ProvidersFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	rates := valutatrade.NewRateAggregator(cache, history, providers, cfg.AggregatorOptions(), log)

	pf, err := valutatrade.NewPortfolio(rates, ledger, log)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:           cfg,
		log:           log,
		store:         store,
		cache:         cache,
		history:       history,
		ledger:        ledger,
		rates:         rates,
		portfolio:     pf,
		loadedHistory: history.Len(),
	}, nil
}

// saveRates snapshots the cache and appends the history records produced
// during this run to the history file.
func (rt *runtime) saveRates() error {
	if err := rt.store.SaveCache(rt.cache); err != nil {
		return err
	}

	var added []valutatrade.HistoryRecord
	i := 0
	for rec := range rt.history.All() {
		if i >= rt.loadedHistory {
			added = append(added, rec)
		}
		i++
	}
	if len(added) == 0 {
		return nil
	}
	rt.loadedHistory += len(added)
	return rt.store.AppendHistory(added...)
}

// recordTransaction appends an executed transaction to the ledger file.
func (rt *runtime) recordTransaction(tx valutatrade.Transaction) error {
	return rt.store.AppendTransactions(tx)
}

// quoteCurrency resolves the valuation currency for a command: the flag value
// when given, the configured default otherwise.
func (rt *runtime) quoteCurrency(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return rt.cfg.QuoteCurrency
}

// fail prints a user-facing message for err and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", errorMessage(err))
	var cfgErr *valutatrade.ConfigurationError
	if errors.As(err, &cfgErr) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// errorMessage turns every core failure mode into a distinct, actionable
// message.
func errorMessage(err error) string {
	var (
		curErr    *valutatrade.CurrencyNotFoundError
		rateErr   *valutatrade.RateUnavailableError
		fundsErr  *valutatrade.InsufficientFundsError
		amountErr *valutatrade.InvalidAmountError
		cfgErr    *valutatrade.ConfigurationError
	)
	switch {
	case errors.As(err, &curErr):
		return fmt.Sprintf("unknown currency %q; run 'vth topic currencies' to list the registry", curErr.Code)
	case errors.As(err, &rateErr):
		return fmt.Sprintf("no rate available for %s: all providers failed and nothing is cached", rateErr.Pair)
	case errors.As(err, &fundsErr):
		return fmt.Sprintf("insufficient funds: %s available, %s required", fundsErr.Available, fundsErr.Required)
	case errors.As(err, &amountErr):
		return fmt.Sprintf("amount must be positive, got %s", amountErr.Amount)
	case errors.As(err, &cfgErr):
		return cfgErr.Error()
	default:
		return err.Error()
	}
}
