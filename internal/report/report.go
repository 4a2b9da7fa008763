// Package report resolves the weekly fashion report details post.
//
// The details are community-published some time after judging opens, so
// "current week's report" is a question with three answers: here it is, not
// posted yet, or the source is unreachable. Latest keeps those apart: a
// missing report is an ok=false result, never an error.
package report

import (
	"context"
	"time"
)

// Report is one week's fashion report details post.
type Report struct {
	Week     int
	Title    string
	URL      string
	ImageURL string
}

// Fetcher resolves the newest published report.
//
// ok is false when the source answered but the current week's report is not
// up yet; rep then still carries the newest one found, if any. err is
// reserved for the source being unreachable or unparseable.
type Fetcher interface {
	Latest(ctx context.Context, now time.Time) (rep Report, ok bool, err error)
}
