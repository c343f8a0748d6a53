// Package sheets retrieves the raw spreadsheet grids the loader works on:
// Google Sheets CSV exports, plain CSV URLs and local .csv/.xlsx files.
package sheets

import (
	"fmt"
	"net/url"
	"strings"

	"blackout-stats/config"
)

const exportURLFormat = "https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s"

// ExportURL converts a Google Sheets share link into its CSV export URL.
// The sheet id is the sixth "/"-separated segment of the link and the grid id
// is the text after "gid=" up to any fragment terminator.
//
//	https://docs.google.com/spreadsheets/d/<id>/edit#gid=<gid>
func ExportURL(shareURL string) (string, error) {
	parts := strings.Split(shareURL, "/")
	if len(parts) < 6 || parts[5] == "" {
		return "", fmt.Errorf("%w: no sheet id in share link %q", config.ErrConfiguration, shareURL)
	}
	sheetID := parts[5]

	_, after, ok := strings.Cut(shareURL, "gid=")
	if !ok {
		return "", fmt.Errorf("%w: no gid in share link %q", config.ErrConfiguration, shareURL)
	}
	gid, _, _ := strings.Cut(after, "#")
	gid, _, _ = strings.Cut(gid, "&")
	if gid == "" {
		return "", fmt.Errorf("%w: empty gid in share link %q", config.ErrConfiguration, shareURL)
	}

	return fmt.Sprintf(exportURLFormat, sheetID, gid), nil
}

// sourceKind classifies a configured sheet location.
type sourceKind int

const (
	sourceGoogleSheet sourceKind = iota
	sourceHTTP
	sourceCSVFile
	sourceXLSXFile
)

func classify(source string) sourceKind {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "docs.google.com" && strings.Contains(u.Path, "/spreadsheets/d/") &&
			!strings.Contains(u.Path, "/export") {
			return sourceGoogleSheet
		}
		return sourceHTTP
	}
	if strings.HasSuffix(strings.ToLower(source), ".xlsx") {
		return sourceXLSXFile
	}
	return sourceCSVFile
}
