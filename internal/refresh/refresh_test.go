package refresh

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snagasawa/kabupost/internal/types"
)

type fakeSource struct {
	yields map[string]float64
	errs   map[string]error
	calls  []string
}

func (f *fakeSource) DividendYield(_ context.Context, symbol string, _ time.Time) (*float64, error) {
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if y, ok := f.yields[symbol]; ok {
		return &y, nil
	}
	return nil, nil
}

func jst(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func newRefresher(t *testing.T, src YieldSource) *Refresher {
	t.Helper()
	return New(src, 6, 0, jst(t))
}

// A Monday in JST (weekday index 0).
func monday(t *testing.T) time.Time {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, jst(t))
	require.Equal(t, time.Monday, now.Weekday())
	return now
}

// A Sunday in JST (the full-refresh day, weekday index 6).
func sunday(t *testing.T) time.Time {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, jst(t))
	require.Equal(t, time.Sunday, now.Weekday())
	return now
}

func masterOf(codes ...string) []types.CompanyRecord {
	records := make([]types.CompanyRecord, 0, len(codes))
	for _, code := range codes {
		records = append(records, types.CompanyRecord{Code: code, Name: "社名" + code})
	}
	return records
}

func TestPartitionCoversUniverseOverWeek(t *testing.T) {
	r := newRefresher(t, &fakeSource{})

	codes := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		codes = append(codes, fmt.Sprintf("%04d", 1000+i))
	}

	covered := make(map[string]bool)
	start := monday(t)
	for day := 0; day < 7; day++ {
		now := start.AddDate(0, 0, day)
		for _, code := range codes {
			if r.Eligible(code, now, false) {
				covered[code] = true
			}
		}
	}

	assert.Len(t, covered, len(codes), "every code must be eligible at least once per week")
}

func TestFullDayEverythingEligible(t *testing.T) {
	r := newRefresher(t, &fakeSource{})
	now := sunday(t)

	for _, code := range []string{"1000", "1001", "1006", "XXXX"} {
		assert.True(t, r.Eligible(code, now, false), "code %s on the full day", code)
	}
}

func TestPartitionDayEligibility(t *testing.T) {
	r := newRefresher(t, &fakeSource{})
	now := monday(t) // weekday index 0

	assert.True(t, r.Eligible("7000", now, false))  // 7000 % 7 == 0
	assert.False(t, r.Eligible("7001", now, false)) // 7001 % 7 == 1
	assert.False(t, r.Eligible("XXXX", now, false), "non-numeric codes wait for the full day")
	assert.True(t, r.Eligible("7001", now, true), "forceFull overrides the partition")
}

func TestRunOverwritesOnSuccess(t *testing.T) {
	src := &fakeSource{yields: map[string]float64{"7000.T": 0.051}}
	r := newRefresher(t, src)
	now := monday(t)

	result, checked := r.Run(context.Background(), masterOf("7000"), nil, now, false)
	require.Len(t, result, 1)
	assert.Equal(t, 1, checked)
	require.NotNil(t, result[0].Yield)
	assert.InDelta(t, 0.051, *result[0].Yield, 1e-9)
	require.NotNil(t, result[0].LastUpdated)
	assert.True(t, result[0].LastUpdated.Equal(now))
	assert.Equal(t, "7000.T", result[0].Symbol)
}

func TestRunFallsBackToCacheOnFailure(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"7000.T": types.ErrFetchFailed}}
	r := newRefresher(t, src)
	now := monday(t)

	oldYield := 0.045
	oldTS := now.AddDate(0, 0, -7)
	cached := []types.CompanyRecord{
		{Code: "7000", Name: "社名7000", Symbol: "7000.T", Yield: &oldYield, LastUpdated: &oldTS},
	}

	result, checked := r.Run(context.Background(), masterOf("7000"), cached, now, false)
	require.Len(t, result, 1)
	assert.Equal(t, 1, checked)
	require.NotNil(t, result[0].Yield, "prior cached yield must be retained")
	assert.InDelta(t, 0.045, *result[0].Yield, 1e-9)
	require.NotNil(t, result[0].LastUpdated)
	assert.True(t, result[0].LastUpdated.Equal(oldTS))
}

func TestRunFallsBackToCacheOnAbsentData(t *testing.T) {
	src := &fakeSource{} // returns nil, nil for everything
	r := newRefresher(t, src)
	now := monday(t)

	oldYield := 0.045
	cached := []types.CompanyRecord{{Code: "7000", Symbol: "7000.T", Yield: &oldYield}}

	result, _ := r.Run(context.Background(), masterOf("7000"), cached, now, false)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].Yield)
	assert.InDelta(t, 0.045, *result[0].Yield, 1e-9)
}

func TestRunLeavesYieldAbsentWithoutCache(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"7000.T": types.ErrFetchFailed}}
	r := newRefresher(t, src)

	result, _ := r.Run(context.Background(), masterOf("7000"), nil, monday(t), false)
	require.Len(t, result, 1)
	assert.Nil(t, result[0].Yield)
}

func TestRunCarriesIneligibleForward(t *testing.T) {
	src := &fakeSource{yields: map[string]float64{"7000.T": 0.05, "7001.T": 0.09}}
	r := newRefresher(t, src)
	now := monday(t) // only 7000 is eligible

	oldYield := 0.033
	cached := []types.CompanyRecord{{Code: "7001", Name: "社名7001", Symbol: "7001.T", Yield: &oldYield}}

	result, checked := r.Run(context.Background(), masterOf("7000", "7001", "7002"), cached, now, false)
	require.Len(t, result, 3)
	assert.Equal(t, 1, checked)

	// 7001 keeps its cached entry untouched; no fetch happened for it.
	require.NotNil(t, result[1].Yield)
	assert.InDelta(t, 0.033, *result[1].Yield, 1e-9)
	assert.NotContains(t, src.calls, "7001.T")

	// 7002 was never cached: skeleton only.
	assert.Equal(t, "7002", result[2].Code)
	assert.Equal(t, "7002.T", result[2].Symbol)
	assert.Nil(t, result[2].Yield)
	assert.Nil(t, result[2].LastUpdated)
}

func TestRunSingleFailureDoesNotAbort(t *testing.T) {
	src := &fakeSource{
		yields: map[string]float64{"7007.T": 0.06},
		errs:   map[string]error{"7000.T": types.ErrFetchFailed},
	}
	r := newRefresher(t, src)
	now := monday(t) // 7000 and 7007 both ≡ 0 (mod 7)

	result, checked := r.Run(context.Background(), masterOf("7000", "7007"), nil, now, false)
	require.Len(t, result, 2)
	assert.Equal(t, 2, checked)
	assert.Nil(t, result[0].Yield)
	require.NotNil(t, result[1].Yield)
	assert.InDelta(t, 0.06, *result[1].Yield, 1e-9)
}
