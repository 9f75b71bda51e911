package gateway

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nerrad567/tsgate/internal/infrastructure/config"
)

// QueryOptions narrows a List call. Zero values fall back to the
// configured defaults (lookback window, result limit).
type QueryOptions struct {
	Start       time.Time
	End         time.Time
	Measurement string
	Filters     map[string]string
	Limit       int
}

// fluxString escapes a value for interpolation inside a double-quoted Flux
// string literal. Backslashes and quotes are the only characters Flux
// treats specially in this position.
func fluxString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

// buildFluxQuery assembles the List query: range, optional measurement and
// tag filters, and a hard row limit. Filter keys are emitted in sorted
// order so queries are deterministic and testable.
func buildFluxQuery(cfg config.InfluxDBConfig, opts QueryOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "from(bucket: %s)\n", fluxString(cfg.Bucket))

	start := fmt.Sprintf("-%ds", int64(cfg.GetLookback().Seconds()))
	if !opts.Start.IsZero() {
		start = opts.Start.UTC().Format(time.RFC3339Nano)
	}
	if !opts.End.IsZero() {
		fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n", start, opts.End.UTC().Format(time.RFC3339Nano))
	} else {
		fmt.Fprintf(&b, "  |> range(start: %s)\n", start)
	}

	if opts.Measurement != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r[\"_measurement\"] == %s)\n", fluxString(opts.Measurement))
	}

	keys := make([]string, 0, len(opts.Filters))
	for key := range opts.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r[%s] == %s)\n", fluxString(key), fluxString(opts.Filters[key]))
	}

	limit := cfg.QueryLimit
	if opts.Limit > 0 && opts.Limit < limit {
		limit = opts.Limit
	}
	fmt.Fprintf(&b, "  |> limit(n: %d)", limit)

	return b.String()
}

// buildIDPredicate builds the delete predicate matching every point that
// carries the given identifier tag value.
func buildIDPredicate(idTag, id string) string {
	return fmt.Sprintf("%s=%s", idTag, fluxString(id))
}
