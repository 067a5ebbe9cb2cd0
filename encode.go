package valutatrade

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// jsonObjectWriter helps construct a JSON object with a specific field order.
// Its zero value is ready to use.
type jsonObjectWriter struct {
	bytes.Buffer
	err error
}

// Append adds a new key-value pair to the JSON object. The value is marshaled
// to JSON using `json.Marshal`.
func (w *jsonObjectWriter) Append(key string, value interface{}) *jsonObjectWriter {
	if w.err != nil {
		return w
	}

	valBytes, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal value for key %q: %w", key, err)
		return w
	}

	w.WriteString(fmt.Sprintf("%q:", key))
	w.Write(valBytes)
	w.WriteString(",")
	return w
}

// Optional appends a key-value pair to the JSON object only if the provided
// value is not its type's zero value. This helps in omitting empty or default
// fields from the JSON output.
func (w *jsonObjectWriter) Optional(key string, value interface{}) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

// Embed appends the fields from a raw JSON object (provided as a byte slice)
// into the current JSON object being built. It strips the outer braces of the
// embedded JSON, effectively merging its contents.
func (w *jsonObjectWriter) Embed(rawJSON []byte) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	trimmed := bytes.TrimSpace(rawJSON)
	if len(trimmed) > 2 && trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	if len(trimmed) > 0 {
		w.Write(trimmed)
		w.WriteString(",")
	}
	return w
}

// EmbedFrom marshals the given Go value into a JSON object and then embeds
// its fields into the current JSON object being built.
func (w *jsonObjectWriter) EmbedFrom(v any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	rawJSON, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("failed to marshal for embedding: %w", err)
		return w
	}
	return w.Embed(rawJSON)
}

// MarshalJSON finalizes the JSON object construction, wraps the content in
// braces, and returns the complete JSON byte slice.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}

	content := bytes.TrimSuffix(w.Bytes(), []byte(","))
	final := make([]byte, 0, len(content)+2)
	final = append(final, '{')
	final = append(final, content...)
	final = append(final, '}')

	return final, nil
}

// MarshalJSON emits the transaction fields in a canonical order. omitempty
// alone cannot drop the zero-valued price of a deposit or withdrawal, Optional
// can.
func (t Transaction) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append("id", t.ID).
		Append("kind", t.Kind).
		Append("base", t.Base).
		Optional("quote", t.Quote).
		Append("amount", t.Amount).
		Optional("price", t.Price).
		Append("time", t.Time)
	return w.MarshalJSON()
}

// MarshalJSON flattens the record into a single-level object so each history
// line stays grep-friendly.
func (r HistoryRecord) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append("id", r.ID).
		EmbedFrom(r.Quote).
		Append("resolvedVia", r.ResolvedVia)
	return w.MarshalJSON()
}

// UnmarshalJSON reads back the flattened form produced by MarshalJSON.
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID          string     `json:"id"`
		Pair        Pair       `json:"pair"`
		Price       Rate       `json:"price"`
		Source      string     `json:"source"`
		FetchedAt   time.Time  `json:"fetchedAt"`
		ResolvedVia Resolution `json:"resolvedVia"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*r = HistoryRecord{
		ID: temp.ID,
		Quote: Quote{
			Pair:      temp.Pair,
			Price:     temp.Price,
			Source:    temp.Source,
			FetchedAt: temp.FetchedAt,
		},
		ResolvedVia: temp.ResolvedVia,
	}
	return nil
}

// EncodeTransaction marshals a single transaction and writes it to the writer
// followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeLedger persists the whole ledger to an io.Writer in JSONL format,
// preserving insertion order.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for _, tx := range ledger.Transactions() {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLedger decodes a stream of JSONL transaction data into a Ledger,
// preserving the order found in the stream.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var tx Transaction
		if err := json.Unmarshal(lineBytes, &tx); err != nil {
			return nil, fmt.Errorf("could not decode transaction line %q: %w", string(lineBytes), err)
		}
		switch tx.Kind {
		case KindBuy, KindSell, KindDeposit, KindWithdraw:
		default:
			return nil, fmt.Errorf("unknown transaction kind: %q", tx.Kind)
		}
		ledger.Append(tx)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return ledger, nil
}

// EncodeHistoryRecord writes one history record as a JSONL line.
func EncodeHistoryRecord(w io.Writer, rec HistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}
	return nil
}

// EncodeHistory persists the whole history log in JSONL format.
func EncodeHistory(w io.Writer, history *HistoryLog) error {
	for rec := range history.All() {
		if err := EncodeHistoryRecord(w, rec); err != nil {
			return err
		}
	}
	return nil
}

// DecodeHistory decodes a stream of JSONL history data into a HistoryLog.
func DecodeHistory(r io.Reader) (*HistoryLog, error) {
	history := NewHistoryLog()
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}
		var rec HistoryRecord
		if err := json.Unmarshal(lineBytes, &rec); err != nil {
			return nil, fmt.Errorf("could not decode history line %q: %w", string(lineBytes), err)
		}
		history.Append(rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return history, nil
}

// cacheState is the on-disk shape of the rate cache snapshot.
type cacheState struct {
	SavedAt time.Time    `json:"savedAt"`
	Entries []CacheEntry `json:"entries"`
}

// EncodeCacheState writes the cache entries as one indented JSON document.
func EncodeCacheState(w io.Writer, cache *RateCache, at time.Time) error {
	state := cacheState{SavedAt: at, Entries: cache.Entries()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("failed to encode cache state: %w", err)
	}
	return nil
}

// DecodeCacheState reads back a cache snapshot's entries.
func DecodeCacheState(r io.Reader) ([]CacheEntry, error) {
	var state cacheState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode cache state: %w", err)
	}
	return state.Entries, nil
}
