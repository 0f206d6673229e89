package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// maxEmptyPages is the number of consecutive pages yielding zero accepted
// posts before a crawl gives up on a (account, keyword) pair.
const maxEmptyPages = 3

var fold = cases.Fold()

// parsePageFunc is swapped out in tests to drive Crawl with canned
// SearchPage values without round-tripping through JSON.
var parsePageFunc = ParsePage

// Fetcher fetches one page of raw search results for an account/query pair.
// Implemented by the protocol client; kept as a narrow interface here so
// this package never imports protocol.
type Fetcher interface {
	SearchAccountKeyword(ctx context.Context, handle, query string, start, end time.Time, cursor string) ([]byte, error)
}

// Params bundles one crawl unit's inputs.
type Params struct {
	AccountHandle string
	Keyword       string
	Window        DateWindow
}

// Crawl pages through search results for one (account, keyword) pair,
// filters and de-duplicates posts, and emits one Record per accepted post
// via emit. It returns once the page stream is exhausted, the date window
// is passed, or emptiness/cursor conditions signal no further progress.
//
// Mirrors the termination and filtering order of the reference crawler
// exactly: handle match, tweet-id dedup, reply exclusion, date-window
// check, then keyword match.
func Crawl(ctx context.Context, fetcher Fetcher, p Params, emit func(Record)) error {
	wantHandle := fold.String(p.AccountHandle)

	seenTweetIDs := make(map[string]struct{})
	seenCursors := make(map[string]struct{})

	cursor := ""
	emptyPageStreak := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := fetcher.SearchAccountKeyword(ctx, p.AccountHandle, p.Keyword, p.Window.Start, p.Window.End, cursor)
		if err != nil {
			return fmt.Errorf("fetch page for %s/%s: %w", p.AccountHandle, p.Keyword, err)
		}

		page, err := parsePageFunc(body)
		if err != nil {
			return fmt.Errorf("parse page for %s/%s: %w", p.AccountHandle, p.Keyword, err)
		}

		if len(page.Posts) == 0 && page.NextCursor == "" {
			return nil
		}

		accepted := 0
		reachedOlderPosts := false

		for _, post := range page.Posts {
			if fold.String(post.AccountHandle) != wantHandle {
				continue
			}

			if _, dup := seenTweetIDs[post.TweetID]; dup {
				continue
			}
			seenTweetIDs[post.TweetID] = struct{}{}

			if post.InReplyToStatusID != "" {
				continue
			}

			inRange, err := InDateRange(post.CreatedAtUTC, p.Window.Start, p.Window.End, p.Window.Timezone)
			if err != nil {
				return fmt.Errorf("evaluate date window: %w", err)
			}
			if !inRange {
				localDay, derr := ToLocalDate(post.CreatedAtUTC, p.Window.Timezone)
				if derr == nil && localDay.Before(p.Window.Start) {
					reachedOlderPosts = true
				}
				continue
			}

			if !keywordHit(p.Keyword, post.Text, post.QuotedText) {
				continue
			}

			emit(Record{
				Account:    p.AccountHandle,
				Keyword:    p.Keyword,
				PostTime:   post.PostTime,
				Text:       post.Text,
				PostURL:    post.PostURL,
				Views:      post.Views,
				Likes:      post.Likes,
				Reposts:    post.Reposts,
				Replies:    post.Replies,
				QuotedText: post.QuotedText,
			})
			accepted++
		}

		if reachedOlderPosts {
			return nil
		}

		if accepted == 0 {
			emptyPageStreak++
		} else {
			emptyPageStreak = 0
		}
		if emptyPageStreak >= maxEmptyPages {
			return nil
		}

		if page.NextCursor == "" {
			return nil
		}
		if _, seen := seenCursors[page.NextCursor]; seen {
			return nil
		}
		seenCursors[page.NextCursor] = struct{}{}

		cursor = page.NextCursor
	}
}

// keywordHit reports whether every whitespace-separated term in keyword is
// present, case-folded, in either the post text or its quoted/retweeted
// source text.
func keywordHit(keyword, text, quotedText string) bool {
	terms := strings.Fields(keyword)
	if len(terms) == 0 {
		return false
	}
	haystack := fold.String(text + " " + quotedText)
	for _, term := range terms {
		if !strings.Contains(haystack, fold.String(term)) {
			return false
		}
	}
	return true
}

// ErrorRecord builds a Record carrying a crawl-level failure, for the
// driver to emit when a (account, keyword) pair fails outright.
func ErrorRecord(account, keyword, message string) Record {
	return errorRecord(account, keyword, message)
}
