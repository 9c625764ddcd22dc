/*
Package fmp is a thin client for the Financial Modeling Prep API, used to
derive a trailing dividend yield per ticker symbol.
*/
package fmp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/snagasawa/kabupost/internal/types"
)

const (
	requestTimeout = 30 * time.Second
	retryCount     = 2 // 3 attempts total
	retryBackoff   = 1500 * time.Millisecond
)

type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryBackoff).
		SetRetryMaxWaitTime(retryBackoff).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; Bot/1.0)")

	return &Client{http: httpClient, apiKey: apiKey}
}

type quote struct {
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previousClose"`
}

type dividendRow struct {
	Date             string  `json:"date"`
	PaymentDate      string  `json:"paymentDate"`
	Dividend         float64 `json:"dividend"`
	AdjDividend      float64 `json:"adjDividend"`
	AdjustedDividend float64 `json:"adjustedDividend"`
	Yield            float64 `json:"yield"`
	DividendYield    float64 `json:"dividendYield"`
}

// Price returns the latest price for symbol, falling back to the previous
// close. A zero/absent price comes back as nil.
func (c *Client) Price(ctx context.Context, symbol string) (*decimal.Decimal, error) {
	var quotes []quote
	if err := c.get(ctx, "/quote", symbol, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, nil
	}

	px := quotes[0].Price
	if px == 0 {
		px = quotes[0].PreviousClose
	}
	if px == 0 {
		return nil, nil
	}
	d := decimal.NewFromFloat(px)
	return &d, nil
}

// DividendYield returns the dividend yield for symbol as a fraction. The
// latest reported yield wins when the API carries one; otherwise the yield is
// derived as the trailing 365-day dividend sum over the current price. nil
// with no error means the yield is simply not derivable for this symbol.
func (c *Client) DividendYield(ctx context.Context, symbol string, now time.Time) (*float64, error) {
	var rows []dividendRow
	if err := c.get(ctx, "/dividends", symbol, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if y := rows[0].Yield; y != 0 {
		return &y, nil
	}
	if y := rows[0].DividendYield; y != 0 {
		return &y, nil
	}

	oneYearAgo := now.AddDate(0, 0, -365)
	total := decimal.Zero
	for _, row := range rows {
		date := row.Date
		if date == "" {
			date = row.PaymentDate
		}
		if len(date) < 10 {
			continue
		}
		paid, err := time.Parse("2006-01-02", date[:10])
		if err != nil {
			continue
		}
		if paid.Before(oneYearAgo) {
			continue
		}

		amount := row.Dividend
		if amount == 0 {
			amount = row.AdjDividend
		}
		if amount == 0 {
			amount = row.AdjustedDividend
		}
		if amount == 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(amount))
	}
	if !total.IsPositive() {
		return nil, nil
	}

	price, err := c.Price(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if price == nil || !price.IsPositive() {
		return nil, nil
	}

	y, _ := total.Div(*price).Float64()
	return &y, nil
}

func (c *Client) get(ctx context.Context, path, symbol string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"apikey": c.apiKey,
		}).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", types.ErrFetchFailed, path, symbol, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: status %d", types.ErrFetchFailed, path, symbol, resp.StatusCode())
	}
	return nil
}
