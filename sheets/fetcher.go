package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"blackout-stats/utils"
)

const (
	userAgent = "blackout-stats/1.0"
	timeout   = 30 * time.Second
)

// Fetcher loads spreadsheet tables from share links, URLs or local files.
type Fetcher struct {
	client *http.Client
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// NewFetcher creates a Fetcher that retries downloads up to maxRetries times.
func NewFetcher(logger *utils.Logger, maxRetries int) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

// WithClient replaces the HTTP client. Used by tests.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// Table loads the source and splits off preamble lines and the header.
func (f *Fetcher) Table(ctx context.Context, source string, preamble int) (*Table, error) {
	switch classify(source) {
	case sourceXLSXFile:
		f.logger.Debug("[sheets] Reading workbook %s", source)
		return ReadXLSX(source, preamble)

	case sourceCSVFile:
		f.logger.Debug("[sheets] Reading CSV file %s", source)
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("sheets: open %q: %w", source, err)
		}
		defer file.Close()
		return ReadCSV(file, preamble)

	case sourceGoogleSheet:
		exportURL, err := ExportURL(source)
		if err != nil {
			return nil, err
		}
		return f.download(ctx, exportURL, preamble)

	default:
		return f.download(ctx, source, preamble)
	}
}

func (f *Fetcher) download(ctx context.Context, url string, preamble int) (*Table, error) {
	var table *Table
	err := f.retry.Do(ctx, "sheet-download", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching sheet: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("sheet download %s: %s (%s)", url, resp.Status, string(b))
		}

		t, err := ReadCSV(resp.Body, preamble)
		if err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("[sheets] Downloaded %d rows x %d columns from %s", len(table.Rows), table.Width(), url)
	return table, nil
}
