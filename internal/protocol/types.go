package protocol

// ProfileSnapshot is the normalized result of a one-shot profile lookup,
// used by the CLI's "tweet" inspection subcommand and by session
// verification's fallback probe.
type ProfileSnapshot struct {
	UserID         string
	ScreenName     string
	Name           string
	FollowersCount int64
	FollowingCount int64
	StatusesCount  int64
	CreatedAt      string
}

// TweetDetail is the normalized result of a single-tweet lookup by ID.
type TweetDetail struct {
	TweetID    string
	ScreenName string
	Text       string
	CreatedAt  string
	Likes      int64
	Retweets   int64
	Replies    int64
	Views      string
}
