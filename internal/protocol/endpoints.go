package protocol

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

const profileFeatures = `{"hidden_profile_subscriptions_enabled":true,"responsive_web_graphql_skip_user_profile_image_extensions_enabled":false,"responsive_web_graphql_timeline_navigation_enabled":true,"subscriptions_verification_info_is_identity_verified_enabled":true,"subscriptions_verification_info_verified_since_enabled":true,"highlights_tweets_tab_ui_enabled":true,"creator_subscriptions_tweet_preview_api_enabled":true,"responsive_web_twitter_article_notes_tab_enabled":false,"rweb_xchat_enabled":false}`

// Profile fetches one account's public profile by handle, used by the
// CLI for a quick account lookup outside of the crawl loop.
func (c *Client) Profile(ctx context.Context, handle string) (*ProfileSnapshot, error) {
	variables := fmt.Sprintf(`{"screen_name":%q,"withGrokTranslatedBio":false}`, handle)

	query := url.Values{}
	query.Set("variables", variables)
	query.Set("features", profileFeatures)

	body, err := c.getJSONWithRetry(ctx, "/graphql/ck5KkZ8t5cOmoLssopN99Q/UserByScreenName", query)
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, "data.user.result")
	if !result.Exists() {
		return nil, fmt.Errorf("profile for %q not found", handle)
	}

	legacy := result.Get("legacy")
	return &ProfileSnapshot{
		UserID:         result.Get("rest_id").String(),
		ScreenName:     firstNonEmpty(result.Get("core.screen_name").String(), legacy.Get("screen_name").String()),
		Name:           firstNonEmpty(result.Get("core.name").String(), legacy.Get("name").String()),
		FollowersCount: legacy.Get("followers_count").Int(),
		FollowingCount: legacy.Get("friends_count").Int(),
		StatusesCount:  legacy.Get("statuses_count").Int(),
		CreatedAt:      firstNonEmpty(result.Get("core.created_at").String(), legacy.Get("created_at").String()),
	}, nil
}

// TweetDetail fetches a single tweet by rest ID, used by the CLI's
// "tweet" inspection subcommand.
func (c *Client) TweetDetail(ctx context.Context, tweetID string) (*TweetDetail, error) {
	variables := fmt.Sprintf(`{"tweetId":%q,"withCommunity":false,"includePromotedContent":false,"withVoice":false}`, tweetID)

	query := url.Values{}
	query.Set("variables", variables)

	body, err := c.getJSONWithRetry(ctx, "/graphql/qxWQxcMLiTPcavz9Qy5hwQ/TweetResultByRestId", query)
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, "data.tweetResult.result")
	tweet, ok := unwrapGraphQLTweetResult(result)
	if !ok {
		return nil, fmt.Errorf("tweet %q not found", tweetID)
	}

	legacy := tweet.Get("legacy")
	views := ""
	if v := tweet.Get("views"); v.Get("count").Exists() {
		views = v.Get("count").String()
	}

	return &TweetDetail{
		TweetID:    firstNonEmpty(tweet.Get("rest_id").String(), tweetID),
		ScreenName: firstNonEmpty(tweet.Get("core.user_results.result.core.screen_name").String(), tweet.Get("core.user_results.result.legacy.screen_name").String()),
		Text:       legacy.Get("full_text").String(),
		CreatedAt:  legacy.Get("created_at").String(),
		Likes:      legacy.Get("favorite_count").Int(),
		Retweets:   legacy.Get("retweet_count").Int(),
		Replies:    legacy.Get("reply_count").Int(),
		Views:      views,
	}, nil
}

// unwrapGraphQLTweetResult descends through a TweetWithVisibilityResults
// wrapper, mirroring crawl.unwrapGraphQLTweet for the single-tweet shape.
func unwrapGraphQLTweetResult(result gjson.Result) (gjson.Result, bool) {
	if !result.IsObject() {
		return gjson.Result{}, false
	}
	if result.Get("__typename").String() == "Tweet" {
		return result, true
	}
	if nested := result.Get("tweet"); nested.IsObject() {
		return unwrapGraphQLTweetResult(nested)
	}
	return gjson.Result{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
