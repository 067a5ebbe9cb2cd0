package valutatrade

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Names of the files a Store maintains inside its data directory.
const (
	ratesFilename   = "rates.json"
	historyFilename = "history.jsonl"
	ledgerFilename  = "ledger.jsonl"
)

// Store persists the hub's state in a single data directory: the cache
// snapshot in rates.json and the two append-only logs in history.jsonl and
// ledger.jsonl. Missing files read as empty state so a fresh directory just
// works.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) the data directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create data directory %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// LoadLedger reads ledger.jsonl; a missing file is an empty ledger.
func (s *Store) LoadLedger() (*Ledger, error) {
	f, err := os.Open(s.path(ledgerFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeLedger(f)
}

// SaveLedger rewrites ledger.jsonl from the in-memory ledger, atomically.
func (s *Store) SaveLedger(ledger *Ledger) error {
	var buf bytes.Buffer
	if err := EncodeLedger(&buf, ledger); err != nil {
		return err
	}
	return s.atomicWrite(ledgerFilename, buf.Bytes())
}

// AppendTransactions appends transactions to ledger.jsonl without rewriting
// the rest of the file. The ledger on disk only ever grows.
func (s *Store) AppendTransactions(txs ...Transaction) error {
	f, err := os.OpenFile(s.path(ledgerFilename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if err := EncodeTransaction(f, tx); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// LoadHistory reads history.jsonl; a missing file is an empty log.
func (s *Store) LoadHistory() (*HistoryLog, error) {
	f, err := os.Open(s.path(historyFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return NewHistoryLog(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeHistory(f)
}

// SaveHistory rewrites history.jsonl from the in-memory log, atomically.
func (s *Store) SaveHistory(history *HistoryLog) error {
	var buf bytes.Buffer
	if err := EncodeHistory(&buf, history); err != nil {
		return err
	}
	return s.atomicWrite(historyFilename, buf.Bytes())
}

// AppendHistory appends records to history.jsonl without rewriting the file.
func (s *Store) AppendHistory(records ...HistoryRecord) error {
	f, err := os.OpenFile(s.path(historyFilename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := EncodeHistoryRecord(f, rec); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// LoadCache restores the rates.json snapshot into the cache. Entries expired
// while the process was down are kept as the stale fallback. A missing file
// leaves the cache empty.
func (s *Store) LoadCache(cache *RateCache) error {
	f, err := os.Open(s.path(ratesFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := DecodeCacheState(f)
	if err != nil {
		return err
	}
	cache.Restore(entries)
	return nil
}

// SaveCache snapshots the cache to rates.json, atomically.
func (s *Store) SaveCache(cache *RateCache) error {
	var buf bytes.Buffer
	if err := EncodeCacheState(&buf, cache, time.Now()); err != nil {
		return err
	}
	return s.atomicWrite(ratesFilename, buf.Bytes())
}

// atomicWrite writes data to a temp file in the data directory and renames it
// over the target, so a crash mid-write never leaves a truncated file behind.
func (s *Store) atomicWrite(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}
