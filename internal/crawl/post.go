// Package crawl drives the paginated search endpoint for one (account,
// keyword, date window) at a time, filters and de-duplicates results, and
// yields normalized records to a sink.
package crawl

import "time"

// ParsedPost is a normalized, immutable post row extracted from either
// response shape the search endpoint may return.
type ParsedPost struct {
	TweetID            string
	AccountHandle      string
	CreatedAtUTC       time.Time
	PostTime           string
	Text               string
	PostURL            string
	Views              string
	Likes              string
	Reposts            string
	Replies            string
	QuotedText         string
	InReplyToStatusID  string
}

// SearchPage is one page of search results: an ordered post list plus the
// cursor to the next page, if any.
type SearchPage struct {
	Posts      []ParsedPost
	NextCursor string
}

// Record is the uniform output row shape written to the JSONL sink.
type Record struct {
	Account    string `json:"account"`
	Keyword    string `json:"keyword"`
	PostTime   string `json:"post_time"`
	Text       string `json:"text"`
	PostURL    string `json:"post_url"`
	Views      string `json:"views"`
	Likes      string `json:"likes"`
	Reposts    string `json:"reposts"`
	Replies    string `json:"replies"`
	QuotedText string `json:"quoted_text"`
	Error      string `json:"error"`
}

func errorRecord(account, keyword, message string) Record {
	return Record{Account: account, Keyword: keyword, Error: message}
}
