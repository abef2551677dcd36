package domain

import (
	"strings"
	"time"
)

// NewsRecord is a headline keyed by calendar date.
// (Date, Title) is the dedup key of the news table.
type NewsRecord struct {
	Date   time.Time // UTC calendar date
	Title  string
	URL    string
	Source string // publishing domain
}

// Key returns the dedup key of the record.
func (n NewsRecord) Key() NewsKey {
	return NewsKey{Date: n.Date.Format(DateLayout), Title: n.Title}
}

// NewsKey identifies a news record for dedup purposes.
type NewsKey struct {
	Date  string
	Title string
}

// RawArticle is an article as returned by an external news source.
type RawArticle struct {
	Title  string
	URL    string
	Domain string
}

// ToNewsRecord converts an article fetched for date into a NewsRecord.
func (a RawArticle) ToNewsRecord(date time.Time) NewsRecord {
	return NewsRecord{
		Date:   Day(date),
		Title:  strings.TrimSpace(a.Title),
		URL:    strings.TrimSpace(a.URL),
		Source: strings.TrimSpace(a.Domain),
	}
}
