package domain

import "time"

// Account is a platform account as returned by a handle lookup.
type Account struct {
	ID             string
	Username       string
	Name           string
	CreatedAt      time.Time
	Protected      bool
	Withheld       bool
	TweetCount     int
	FollowersCount int
}

// Profile is the authenticated agent account.
type Profile struct {
	ID       string
	Username string
	Name     string
}
