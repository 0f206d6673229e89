package crawl

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ParsePage parses a raw SearchTimeline response body into a SearchPage.
// The endpoint returns either a modern GraphQL shape or a legacy
// "globalObjects + timeline.instructions" shape; both are handled.
func ParsePage(body []byte) (SearchPage, error) {
	root := gjson.ParseBytes(body)
	if root.Get("data").Exists() {
		return parseGraphQLPage(root), nil
	}
	return parseLegacyPage(root), nil
}

func parseGraphQLPage(root gjson.Result) SearchPage {
	instructions := root.Get("data.search_by_raw_query.search_timeline.timeline.instructions")

	var page SearchPage
	instructions.ForEach(func(_, instruction gjson.Result) bool {
		if entries := instruction.Get("entries"); entries.IsArray() {
			entries.ForEach(func(_, entry gjson.Result) bool {
				if post, ok := parseGraphQLEntry(entry); ok {
					page.Posts = append(page.Posts, post)
				}
				if cursor := extractCursor(entry); cursor != "" {
					page.NextCursor = cursor
				}
				return true
			})
		}
		if entry := instruction.Get("entry"); entry.IsObject() {
			if cursor := extractCursor(entry); cursor != "" {
				page.NextCursor = cursor
			}
		}
		return true
	})
	return page
}

func parseGraphQLEntry(entry gjson.Result) (ParsedPost, bool) {
	entryID := entry.Get("entryId").String()
	if !strings.HasPrefix(entryID, "tweet-") {
		return ParsedPost{}, false
	}

	tweetResult := entry.Get("content.itemContent.tweet_results.result")
	tweet, ok := unwrapGraphQLTweet(tweetResult)
	if !ok {
		return ParsedPost{}, false
	}
	return tweetToParsedPost(tweet)
}

// unwrapGraphQLTweet descends through visibility-result wrapper shapes
// (e.g. TweetWithVisibilityResults -> tweet) until a Tweet typename is
// reached, or reports failure for an unrecognized shape.
func unwrapGraphQLTweet(tweetResult gjson.Result) (gjson.Result, bool) {
	if !tweetResult.IsObject() {
		return gjson.Result{}, false
	}
	if tweetResult.Get("__typename").String() == "Tweet" {
		return tweetResult, true
	}
	if nested := tweetResult.Get("tweet"); nested.IsObject() {
		return unwrapGraphQLTweet(nested)
	}
	return gjson.Result{}, false
}

func tweetToParsedPost(tweet gjson.Result) (ParsedPost, bool) {
	legacy := tweet.Get("legacy")
	createdRaw := legacy.Get("created_at").String()
	if createdRaw == "" {
		return ParsedPost{}, false
	}
	createdAt, err := parseXCreatedAt(createdRaw)
	if err != nil {
		return ParsedPost{}, false
	}

	tweetID := tweet.Get("rest_id").String()
	if tweetID == "" {
		tweetID = legacy.Get("id_str").String()
	}
	if tweetID == "" {
		return ParsedPost{}, false
	}

	userResult := tweet.Get("core.user_results.result")
	handle := userResult.Get("core.screen_name").String()
	if handle == "" {
		handle = userResult.Get("legacy.screen_name").String()
	}
	if handle == "" {
		handle = "unknown"
	}

	views := ""
	if v := tweet.Get("views"); v.IsObject() {
		if v.Get("count").Exists() {
			views = v.Get("count").String()
		}
	}

	return ParsedPost{
		TweetID:           tweetID,
		AccountHandle:     handle,
		CreatedAtUTC:      createdAt,
		PostTime:          createdAt.Format(time.RFC3339),
		Text:              legacy.Get("full_text").String(),
		PostURL:           fmt.Sprintf("https://x.com/%s/status/%s", handle, tweetID),
		Views:             views,
		Likes:             numberString(legacy.Get("favorite_count")),
		Reposts:           numberString(legacy.Get("retweet_count")),
		Replies:           numberString(legacy.Get("reply_count")),
		QuotedText:        extractGraphQLReferencedText(tweet),
		InReplyToStatusID: legacy.Get("in_reply_to_status_id_str").String(),
	}, true
}

// extractGraphQLReferencedText finds quoted/retweeted source text, trying
// each known shape in order and taking the first non-empty match.
func extractGraphQLReferencedText(tweet gjson.Result) string {
	if quoted, ok := unwrapGraphQLTweet(tweet.Get("quoted_status_result.result")); ok {
		if text := quoted.Get("legacy.full_text").String(); text != "" {
			return text
		}
	}
	if retweet, ok := unwrapGraphQLTweet(tweet.Get("retweeted_status_result.result")); ok {
		if text := retweet.Get("legacy.full_text").String(); text != "" {
			return text
		}
	}

	legacy := tweet.Get("legacy")
	if retweet, ok := unwrapGraphQLTweet(legacy.Get("retweeted_status_result.result")); ok {
		if text := retweet.Get("legacy.full_text").String(); text != "" {
			return text
		}
	}
	if text := legacy.Get("retweeted_status.full_text").String(); text != "" {
		return text
	}
	return ""
}

func extractCursor(entry gjson.Result) string {
	content := entry.Get("content")
	if content.Get("cursorType").String() == "Bottom" {
		if v := content.Get("value").String(); v != "" {
			return v
		}
	}
	if v := content.Get("operation.cursor.value").String(); v != "" {
		return v
	}
	return ""
}

func parseLegacyPage(root gjson.Result) SearchPage {
	tweets := root.Get("globalObjects.tweets")
	users := root.Get("globalObjects.users")

	var page SearchPage
	tweets.ForEach(func(key, tweet gjson.Result) bool {
		createdRaw := tweet.Get("created_at").String()
		if createdRaw == "" {
			return true
		}
		createdAt, err := parseXCreatedAt(createdRaw)
		if err != nil {
			return true
		}

		tweetID := tweet.Get("id_str").String()
		if tweetID == "" {
			tweetID = key.String()
		}

		userID := tweet.Get("user_id_str").String()
		if userID == "" {
			userID = tweet.Get("user_id").String()
		}
		handle := users.Get(gjsonEscape(userID) + ".screen_name").String()
		if handle == "" {
			handle = "unknown"
		}

		quotedText := ""
		if quotedID := tweet.Get("quoted_status_id_str").String(); quotedID != "" {
			quotedText = tweets.Get(gjsonEscape(quotedID) + ".full_text").String()
		}
		if quotedText == "" {
			if retweetID := tweet.Get("retweeted_status_id_str").String(); retweetID != "" {
				quotedText = tweets.Get(gjsonEscape(retweetID) + ".full_text").String()
			}
		}
		if quotedText == "" {
			quotedText = tweet.Get("retweeted_status.full_text").String()
		}
		if quotedText == "" {
			quotedText = tweet.Get("retweeted_status_result.result.legacy.full_text").String()
		}

		views := ""
		if ev := tweet.Get("ext_views"); ev.Get("count").Exists() {
			views = ev.Get("count").String()
		}

		page.Posts = append(page.Posts, ParsedPost{
			TweetID:           tweetID,
			AccountHandle:     handle,
			CreatedAtUTC:      createdAt,
			PostTime:          createdAt.Format(time.RFC3339),
			Text:              tweet.Get("full_text").String(),
			PostURL:           fmt.Sprintf("https://x.com/%s/status/%s", handle, tweetID),
			Views:             views,
			Likes:             numberString(tweet.Get("favorite_count")),
			Reposts:           numberString(tweet.Get("retweet_count")),
			Replies:           numberString(tweet.Get("reply_count")),
			QuotedText:        quotedText,
			InReplyToStatusID: tweet.Get("in_reply_to_status_id_str").String(),
		})
		return true
	})

	root.Get("timeline.instructions").ForEach(func(_, instruction gjson.Result) bool {
		instruction.Get("addEntries.entries").ForEach(func(_, entry gjson.Result) bool {
			if cursor := extractCursor(entry); cursor != "" {
				page.NextCursor = cursor
			}
			return true
		})
		return true
	})

	return page
}

// numberString stringifies a gjson field the way Python's str(int_or_empty)
// does: a numeric value becomes its decimal string, a missing field becomes
// an empty string.
func numberString(v gjson.Result) string {
	if !v.Exists() {
		return ""
	}
	return v.String()
}

// gjsonEscape escapes path-special characters so arbitrary object keys
// (e.g. numeric tweet/user IDs) are safe to splice into a gjson path.
func gjsonEscape(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

func parseXCreatedAt(raw string) (time.Time, error) {
	t, err := time.Parse("Mon Jan 02 15:04:05 -0700 2006", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", raw, err)
	}
	return t.UTC(), nil
}
