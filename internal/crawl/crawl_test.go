package crawl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost(id, handle, text string, createdAt time.Time, replyTo string) ParsedPost {
	return ParsedPost{
		TweetID:           id,
		AccountHandle:     handle,
		CreatedAtUTC:      createdAt,
		PostTime:          createdAt.Format(time.RFC3339),
		Text:              text,
		InReplyToStatusID: replyTo,
	}
}

// stubFetcher drives Crawl with scripted SearchPage values via
// parsePageFunc, bypassing JSON encoding entirely.
type stubFetcher struct {
	pages        []SearchPage
	idx          int
	calls        int
	repeatCursor bool
}

func (f *stubFetcher) SearchAccountKeyword(ctx context.Context, handle, query string, start, end time.Time, cursor string) ([]byte, error) {
	f.calls++
	if f.idx >= len(f.pages) {
		return []byte("stub"), nil
	}
	p := f.pages[f.idx]
	if !f.repeatCursor || f.idx < len(f.pages)-1 {
		f.idx++
	}
	return []byte("stub"), nil
}

// withScriptedPages installs parsePageFunc to return pages in sequence
// (by call count) and restores ParsePage on cleanup.
func withScriptedPages(t *testing.T, pages []SearchPage) {
	t.Helper()
	call := 0
	parsePageFunc = func(body []byte) (SearchPage, error) {
		if call >= len(pages) {
			return SearchPage{}, nil
		}
		p := pages[call]
		call++
		return p, nil
	}
	t.Cleanup(func() { parsePageFunc = ParsePage })
}

func TestCrawlFiltersByHandleDedupReplyAndKeyword(t *testing.T) {
	day := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	window := DateWindow{
		Start:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Timezone: "UTC",
	}

	posts := []ParsedPost{
		newPost("1", "acme", "launch announcement today", day, ""),
		newPost("1", "acme", "launch announcement today", day, ""), // duplicate id
		newPost("2", "other", "launch announcement today", day, ""), // wrong handle
		newPost("3", "acme", "unrelated text", day, ""),             // no keyword hit
		newPost("4", "acme", "another launch update", day, "99"),    // reply, excluded
		newPost("5", "acme", "final launch wrap-up", day, ""),
	}
	withScriptedPages(t, []SearchPage{{Posts: posts, NextCursor: ""}})

	var got []Record
	err := Crawl(context.Background(), &stubFetcher{pages: []SearchPage{{}}}, Params{
		AccountHandle: "ACME",
		Keyword:       "launch",
		Window:        window,
	}, func(r Record) { got = append(got, r) })

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "launch announcement today", got[0].Text)
	assert.Equal(t, "final launch wrap-up", got[1].Text)
}

func TestCrawlStopsAtOlderPosts(t *testing.T) {
	window := DateWindow{
		Start:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Timezone: "UTC",
	}

	inWindow := newPost("1", "acme", "launch in window", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), "")
	tooOld := newPost("2", "acme", "launch too old", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "")
	neverReached := newPost("3", "acme", "launch should not be reached", time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), "")

	withScriptedPages(t, []SearchPage{
		{Posts: []ParsedPost{inWindow, tooOld}, NextCursor: "next"},
		{Posts: []ParsedPost{neverReached}, NextCursor: ""},
	})

	fetcher := &stubFetcher{pages: []SearchPage{{}, {}}}

	var got []Record
	err := Crawl(context.Background(), fetcher, Params{AccountHandle: "acme", Keyword: "launch", Window: window}, func(r Record) {
		got = append(got, r)
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, fetcher.calls)
}

func TestCrawlStopsAfterMaxEmptyPages(t *testing.T) {
	window := DateWindow{
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Timezone: "UTC",
	}

	irrelevant := newPost("x", "other", "irrelevant", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "")
	pages := make([]SearchPage, maxEmptyPages+2)
	for i := range pages {
		pages[i] = SearchPage{Posts: []ParsedPost{irrelevant}, NextCursor: "keep-going"}
	}
	withScriptedPages(t, pages)

	fetcher := &stubFetcher{pages: pages, repeatCursor: true}

	err := Crawl(context.Background(), fetcher, Params{AccountHandle: "acme", Keyword: "launch", Window: window}, func(r Record) {})

	require.NoError(t, err)
	assert.Equal(t, maxEmptyPages, fetcher.calls)
}

func TestKeywordHitRequiresAllTermsCaseFolded(t *testing.T) {
	assert.True(t, keywordHit("Launch Day", "Our LAUNCH DAY is here", ""))
	assert.False(t, keywordHit("launch day", "launch only", ""))
	assert.True(t, keywordHit("launch", "", "quoted launch text"))
}
