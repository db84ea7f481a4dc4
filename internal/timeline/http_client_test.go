package timeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string, opts ...ClientOption) *HTTPClient {
	base := []ClientOption{
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		WithBaseURL(serverURL),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
	}
	return NewHTTPClient(Credentials{}, append(base, opts...)...)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_FetchMentions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/42/mentions", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("max_results"))

		writeJSON(w, map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id":              "1850000000000000002",
					"text":            "@tokimonster deploy $MCAT",
					"author_id":       "7",
					"created_at":      "2026-10-15T10:00:00.000Z",
					"conversation_id": "1850000000000000001",
					"referenced_tweets": []map[string]string{
						{"type": "replied_to", "id": "1850000000000000001"},
					},
					"attachments": map[string]interface{}{"media_keys": []string{"3_1"}},
				},
			},
			"includes": map[string]interface{}{
				"users": []map[string]string{{"id": "7", "username": "alice", "name": "Alice"}},
				"media": []map[string]string{{"media_key": "3_1", "type": "photo", "url": "https://pbs.twimg.com/media/cat.jpg"}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.FetchMentions(context.Background(), "42", 100)
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "1850000000000000002", c.ID)
	assert.Equal(t, "alice", c.AuthorHandle)
	assert.Equal(t, "Alice", c.AuthorName)
	assert.True(t, c.IsReply)
	assert.False(t, c.IsRetweet)
	assert.Equal(t, "1850000000000000001", c.ParentID)
	assert.Equal(t, "https://x.com/alice/status/1850000000000000002", c.PermanentURL)
	assert.Equal(t, int64(1792058400), c.CreatedAt)
	require.Len(t, c.Attachments, 1)
	assert.Equal(t, "https://pbs.twimg.com/media/cat.jpg", c.Attachments[0].URL)
}

func TestHTTPClient_FetchUserRecent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "from:bob", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("max_results"))

		var data []map[string]interface{}
		for _, id := range []string{"5", "4", "3", "2"} {
			data = append(data, map[string]interface{}{"id": id, "text": "post " + id, "author_id": "8"})
		}
		data[1]["referenced_tweets"] = []map[string]string{{"type": "retweeted", "id": "1"}}
		writeJSON(w, map[string]interface{}{"data": data})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	got, err := client.FetchUserRecent(context.Background(), "bob", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "5", got[0].ID)
	assert.True(t, got[1].IsRetweet)
}

func TestHTTPClient_GetCandidate_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"errors": []map[string]string{{"title": "Not Found Error", "detail": "Could not find tweet"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetCandidate(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_LookupAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/by/username/alice":
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"id":         "7",
					"username":   "alice",
					"name":       "Alice",
					"created_at": "2020-01-01T00:00:00.000Z",
					"protected":  false,
					"withheld":   map[string]interface{}{"country_codes": []string{"DE"}},
					"public_metrics": map[string]int{
						"followers_count": 150,
						"tweet_count":     42,
					},
				},
			})
		default:
			writeJSON(w, map[string]interface{}{
				"errors": []map[string]string{{"title": "Not Found Error"}},
			})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	acc, err := client.LookupAccount(context.Background(), "@alice")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "7", acc.ID)
	assert.True(t, acc.Withheld)
	assert.Equal(t, 150, acc.FollowersCount)
	assert.Equal(t, 42, acc.TweetCount)
	assert.Equal(t, 2020, acc.CreatedAt.Year())

	missing, err := client.LookupAccount(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHTTPClient_SendReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/2/tweets":
			var body struct {
				Text  string `json:"text"`
				Reply struct {
					InReplyToTweetID string `json:"in_reply_to_tweet_id"`
				} `json:"reply"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gm", body.Text)
			assert.Equal(t, "100", body.Reply.InReplyToTweetID)
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, map[string]interface{}{"data": map[string]string{"id": "101", "text": "gm"}})
		case r.URL.Path == "/2/tweets/101":
			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"id": "101", "text": "gm", "author_id": "42",
					"referenced_tweets": []map[string]string{{"type": "replied_to", "id": "100"}},
				},
				"includes": map[string]interface{}{
					"users": []map[string]string{{"id": "42", "username": "tokimonster"}},
				},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	post, err := client.SendReply(context.Background(), "gm", "100")
	require.NoError(t, err)
	assert.Equal(t, "101", post.ID)
	assert.Equal(t, "100", post.ParentID)
	assert.Equal(t, "https://x.com/tokimonster/status/101", post.PermanentURL)
}

func TestHTTPClient_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(3))
	_, err := client.FetchMentions(context.Background(), "42", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_SendReplyNotRetried(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			return
		}
		if posts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"data": map[string]string{"id": "101", "text": "gm"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(3))
	post, err := client.SendReply(context.Background(), "gm", "100")
	require.Error(t, err)
	assert.Nil(t, post)
	assert.Equal(t, int32(1), posts.Load())
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"title": "Unauthorized", "detail": "bad token"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(3))
	_, err := client.FetchMentions(context.Background(), "42", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad token", apiErr.Detail)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_Login(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/me", r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]string{"id": "42", "username": "tokimonster", "name": "Toki"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithLoginAttempts(2))
	assert.False(t, client.IsAuthenticated())

	_, err := client.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, client.Login(context.Background()))
	assert.True(t, client.IsAuthenticated())

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", profile.ID)
}

func TestRouteName(t *testing.T) {
	assert.Equal(t, "/2/users/:id/mentions", routeName("/2/users/42/mentions"))
	assert.Equal(t, "/2/users/by/username/:id", routeName("/2/users/by/username/alice"))
	assert.Equal(t, "/2/tweets", routeName("/2/tweets"))
}
