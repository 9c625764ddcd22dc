/*
Package jpx rebuilds the listed-issues master from the JPX statistics page,
which links the current workbook of all listed companies.
*/
package jpx

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/xuri/excelize/v2"

	"github.com/snagasawa/kabupost/internal/normalize"
	"github.com/snagasawa/kabupost/internal/types"
)

const (
	requestTimeout = 60 * time.Second
	retryCount     = 2
	retryBackoff   = 1500 * time.Millisecond
)

type Builder struct {
	http       *resty.Client
	listingURL string
}

func NewBuilder(listingURL string) *Builder {
	httpClient := resty.New().
		SetTimeout(requestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryBackoff).
		SetRetryMaxWaitTime(retryBackoff)

	return &Builder{http: httpClient, listingURL: listingURL}
}

// BuildMaster scrapes the listing page for the workbook link, downloads the
// workbook and extracts one record per listed company (4-digit code + name,
// with the matching key precomputed).
func (b *Builder) BuildMaster(ctx context.Context) ([]types.CompanyRecord, error) {
	resp, err := b.http.R().SetContext(ctx).Get(b.listingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: listing page: %v", types.ErrFetchFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: listing page: status %d", types.ErrFetchFailed, resp.StatusCode())
	}

	workbookURL, err := b.workbookURL(resp.Body())
	if err != nil {
		return nil, err
	}

	wb, err := b.http.R().SetContext(ctx).Get(workbookURL)
	if err != nil {
		return nil, fmt.Errorf("%w: workbook %s: %v", types.ErrFetchFailed, workbookURL, err)
	}
	if wb.IsError() {
		return nil, fmt.Errorf("%w: workbook %s: status %d", types.ErrFetchFailed, workbookURL, wb.StatusCode())
	}

	return parseWorkbook(wb.Body())
}

// workbookURL locates the first .xls/.xlsx link on the listing page and
// resolves it against the page URL.
func (b *Builder) workbookURL(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse listing page: %w", err)
	}

	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		h, _ := sel.Attr("href")
		if strings.Contains(h, ".xls") {
			href = h
			return false
		}
		return true
	})
	if href == "" {
		return "", fmt.Errorf("no workbook link found on %s", b.listingURL)
	}

	base, err := url.Parse(b.listingURL)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid workbook href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func parseWorkbook(data []byte) ([]types.CompanyRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}

	return extractRecords(rows)
}

// extractRecords locates the code and name columns by header and emits one
// record per valid 4-digit code row.
func extractRecords(rows [][]string) ([]types.CompanyRecord, error) {
	codeCol, nameCol := -1, -1
	headerRow := -1

	for i, row := range rows {
		for j, cell := range row {
			if strings.Contains(cell, "コード") && codeCol < 0 {
				codeCol = j
				headerRow = i
			}
			if (strings.Contains(cell, "銘柄名") || strings.Contains(cell, "会社名")) && nameCol < 0 {
				nameCol = j
			}
		}
		if codeCol >= 0 && nameCol >= 0 {
			break
		}
	}
	if codeCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("workbook is missing the code or name column")
	}

	var records []types.CompanyRecord
	for _, row := range rows[headerRow+1:] {
		if codeCol >= len(row) || nameCol >= len(row) {
			continue
		}

		code := normalizeCode(row[codeCol])
		if code == "" {
			continue
		}

		name := strings.TrimSpace(row[nameCol])
		records = append(records, types.CompanyRecord{
			Code: code,
			Name: name,
			Key:  normalize.Name(name),
		})
	}
	return records, nil
}

// normalizeCode turns a raw cell value into a 4-digit code, dropping any
// spreadsheet decimal suffix. Non-numeric rows (section headers etc.) are
// rejected.
func normalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if i := strings.Index(code, "."); i >= 0 {
		code = code[:i]
	}
	for len(code) < 4 {
		code = "0" + code
	}
	if len(code) > 4 {
		code = code[:4]
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if code == "0000" {
		return ""
	}
	return code
}
