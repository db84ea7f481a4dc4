package timeline

import (
	"errors"
	"time"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// postsResponse is the raw v2 response for timeline and search endpoints.
type postsResponse struct {
	Data     []apiPost    `json:"data"`
	Includes *apiIncludes `json:"includes"`
}

// postResponse is the raw v2 response for a single post lookup.
type postResponse struct {
	Data     *apiPost     `json:"data"`
	Includes *apiIncludes `json:"includes"`
}

type apiPost struct {
	ID               string         `json:"id"`
	Text             string         `json:"text"`
	AuthorID         string         `json:"author_id"`
	CreatedAt        string         `json:"created_at"`
	ConversationID   string         `json:"conversation_id"`
	ReferencedTweets []apiReference `json:"referenced_tweets"`
	Attachments      *struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

type apiReference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type apiIncludes struct {
	Users []apiUser  `json:"users"`
	Media []apiMedia `json:"media"`
}

type apiMedia struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

type apiUser struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	Name          string          `json:"name"`
	CreatedAt     string          `json:"created_at"`
	Protected     bool            `json:"protected"`
	Withheld      *apiWithheld    `json:"withheld"`
	PublicMetrics *apiUserMetrics `json:"public_metrics"`
}

type apiWithheld struct {
	CountryCodes []string `json:"country_codes"`
}

type apiUserMetrics struct {
	FollowersCount int `json:"followers_count"`
	TweetCount     int `json:"tweet_count"`
}

// Reference types in referenced_tweets.
const (
	refRepliedTo = "replied_to"
	refRetweeted = "retweeted"
)

func (r postsResponse) candidates() []*domain.Candidate {
	out := make([]*domain.Candidate, 0, len(r.Data))
	for i := range r.Data {
		out = append(out, r.Data[i].toCandidate(r.Includes))
	}
	return out
}

func (p *apiPost) toCandidate(inc *apiIncludes) *domain.Candidate {
	c := &domain.Candidate{
		ID:             p.ID,
		AuthorID:       p.AuthorID,
		Text:           p.Text,
		ConversationID: p.ConversationID,
	}
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		c.CreatedAt = t.Unix()
	}

	for _, ref := range p.ReferencedTweets {
		switch ref.Type {
		case refRepliedTo:
			c.IsReply = true
			c.ParentID = ref.ID
		case refRetweeted:
			c.IsRetweet = true
		}
	}

	if inc != nil {
		for _, u := range inc.Users {
			if u.ID == p.AuthorID {
				c.AuthorHandle = u.Username
				c.AuthorName = u.Name
				break
			}
		}
		if p.Attachments != nil {
			for _, key := range p.Attachments.MediaKeys {
				for _, m := range inc.Media {
					if m.MediaKey == key && m.Type == "photo" && m.URL != "" {
						c.Attachments = append(c.Attachments, domain.Attachment{URL: m.URL})
					}
				}
			}
		}
	}

	if c.AuthorHandle != "" {
		c.PermanentURL = "https://x.com/" + c.AuthorHandle + "/status/" + c.ID
	}
	return c
}

func (u *apiUser) toAccount() *domain.Account {
	a := &domain.Account{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Protected: u.Protected,
		Withheld:  u.Withheld != nil && len(u.Withheld.CountryCodes) > 0,
	}
	if t, err := time.Parse(time.RFC3339, u.CreatedAt); err == nil {
		a.CreatedAt = t
	}
	if u.PublicMetrics != nil {
		a.FollowersCount = u.PublicMetrics.FollowersCount
		a.TweetCount = u.PublicMetrics.TweetCount
	}
	return a
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}
