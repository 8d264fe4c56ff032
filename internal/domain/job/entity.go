package job

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// RawJob is an unprocessed posting handed over by a scraper collaborator.
type RawJob struct {
	Title      string
	Company    string
	Location   string
	URL        string
	Salary     string
	DatePosted *time.Time
	DateAdded  time.Time
	Source     string
	HasApplied bool
}

// Source describes an origin job board. ReliableTitle is false for boards
// whose listing titles are company names rather than role titles; the
// matcher skips the title predicate for those.
type Source struct {
	Name          string
	ReliableTitle bool
}

// UserJobRecord is the persisted per-(user, job) row. Written once on first
// match; user-editable fields default to false/empty.
type UserJobRecord struct {
	JobID      string
	UserID     string
	Source     string
	Title      string
	Company    string
	URL        string
	Location   string
	AddedAt    time.Time
	HasApplied bool
	IsSaved    bool
	Notes      string
}

// CompiledJob is the single cross-user record of a posting.
type CompiledJob struct {
	JobID     string
	Title     string
	Company   string
	Location  string
	URL       string
	Salary    string
	Source    string
	FirstSeen time.Time
	Sent      bool
}

// ID derives the stable dedup key for a raw job. The key is a hash of the
// URL alone: title text can shift between scrapes of the same posting, so
// hashing it in would split one posting into several identities.
func ID(j RawJob) string {
	u := strings.TrimSpace(j.URL)
	sum := md5.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether a raw job carries the fields the pipeline requires.
func Valid(j RawJob) bool {
	return strings.TrimSpace(j.URL) != "" && strings.TrimSpace(j.Title) != ""
}
