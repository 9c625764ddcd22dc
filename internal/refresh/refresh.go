/*
Package refresh keeps the universe's dividend yields fresh without hammering
the rate-limited data source. Each day only the 1/7 slice of codes with
code mod 7 equal to the weekday index is re-fetched; the designated full day
(Sunday) re-fetches everything, which over a week guarantees every record is
covered at least once.
*/
package refresh

import (
	"context"
	"strconv"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/snagasawa/kabupost/internal/types"
)

// YieldSource provides dividend yields per ticker symbol. nil with no error
// means the source has no yield for the symbol.
type YieldSource interface {
	DividendYield(ctx context.Context, symbol string, now time.Time) (*float64, error)
}

type Refresher struct {
	source      YieldSource
	limiter     *rate.Limiter
	fullWeekday int
	loc         *time.Location
}

func New(source YieldSource, fullWeekday int, fetchDelay time.Duration, loc *time.Location) *Refresher {
	return &Refresher{
		source:      source,
		limiter:     rate.NewLimiter(rate.Every(fetchDelay), 1),
		fullWeekday: fullWeekday,
		loc:         loc,
	}
}

// weekdayIndex maps a time to the Monday=0 .. Sunday=6 indexing the cached
// data files were partitioned with.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Eligible reports whether code is due for a live fetch today. Non-numeric
// codes only refresh on the full day.
func (r *Refresher) Eligible(code string, now time.Time, forceFull bool) bool {
	wd := weekdayIndex(now.In(r.loc))
	if forceFull || wd == r.fullWeekday {
		return true
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return n%7 == wd
}

// Run produces the next full record set from the master list and the previous
// cached set. Eligible records get a live fetch, falling back to their cached
// yield when the fetch fails or comes back empty; ineligible records carry
// their cached entry forward unchanged, or a bare skeleton when the cache has
// never held them. A single failed fetch never aborts the run.
func (r *Refresher) Run(ctx context.Context, master, cached []types.CompanyRecord, now time.Time, forceFull bool) ([]types.CompanyRecord, int) {
	cachedByCode := make(map[string]types.CompanyRecord, len(cached))
	for _, rec := range cached {
		cachedByCode[rec.Code] = rec
	}

	result := make([]types.CompanyRecord, 0, len(master))
	checked := 0

	for _, row := range master {
		symbol := row.Symbol
		if symbol == "" {
			symbol = row.Code + ".T"
		}

		if !r.Eligible(row.Code, now, forceFull) {
			if prev, ok := cachedByCode[row.Code]; ok {
				result = append(result, prev)
			} else {
				// Never cached: identity fields only.
				result = append(result, types.CompanyRecord{
					Code:   row.Code,
					Name:   row.Name,
					Symbol: symbol,
					Key:    row.Key,
				})
			}
			continue
		}

		rec := types.CompanyRecord{
			Code:   row.Code,
			Name:   row.Name,
			Symbol: symbol,
			Key:    row.Key,
		}

		if err := r.limiter.Wait(ctx); err != nil {
			// Context cancelled: degrade the rest of the run to cached data.
			log.Warn().Err(err).Msg("refresh interrupted, carrying cached values forward")
			if prev, ok := cachedByCode[row.Code]; ok {
				rec.Yield = prev.Yield
				rec.LastUpdated = prev.LastUpdated
			}
			result = append(result, rec)
			continue
		}

		y, err := r.source.DividendYield(ctx, symbol, now)
		if err != nil {
			log.Warn().Str("symbol", symbol).Err(err).Msg("yield fetch failed, falling back to cache")
		}

		switch {
		case err == nil && y != nil:
			ts := now
			rec.Yield = y
			rec.LastUpdated = &ts
		default:
			if prev, ok := cachedByCode[row.Code]; ok {
				rec.Yield = prev.Yield
				rec.LastUpdated = prev.LastUpdated
			}
		}

		result = append(result, rec)
		checked++
	}

	return result, checked
}
