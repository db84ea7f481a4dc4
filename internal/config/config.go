// Package config builds the validated runtime configuration from character
// settings layered over the process environment.
package config

import (
	"fmt"
	"net/mail"
	"os"
	"regexp"
	"strings"
	"time"
)

// Environment keys.
const (
	KeyDryRun           = "TWITTER_DRY_RUN"
	KeyUsername         = "TWITTER_USERNAME"
	KeyPassword         = "TWITTER_PASSWORD"
	KeyEmail            = "TWITTER_EMAIL"
	KeyMaxTweetLength   = "MAX_TWEET_LENGTH"
	KeyTwoFASecret      = "TWITTER_2FA_SECRET"
	KeyAppKey           = "TWITTER_APP_KEY"
	KeyAppSecret        = "TWITTER_APP_SECRET"
	KeyAccessToken      = "TWITTER_ACCESS_TOKEN"
	KeyAccessSecret     = "TWITTER_ACCESS_SECRET"
	KeyRetryLimit       = "TWITTER_RETRY_LIMIT"
	KeyPollInterval     = "TWITTER_POLL_INTERVAL"
	KeyTargetUsers      = "TWITTER_TARGET_USERS"
	KeyWhitelistedUsers = "TOKIMONSTER_TWITTER_WHITELISTED_USERS"
	KeyDeployDryRun     = "TOKIMONSTER_DEPLOY_TOKEN_DRY_RUN"
	KeyWalletPrivateKey = "WALLET_PRIVATE_KEY"
	KeyChainNodeURL     = "APTOS_NODE_URL"
	KeyChainNetwork     = "APTOS_NETWORK"
	KeyReplyMinDelayMs  = "TWITTER_REPLY_MIN_DELAY_MS"
	KeyReplyMaxDelayMs  = "TWITTER_REPLY_MAX_DELAY_MS"
	KeyCallTimeout      = "OUTBOUND_CALL_TIMEOUT"
	KeyTelegramToken    = "TOKIMONSTER_NOTIFICATION_TELEGRAM_TOKEN"
	KeyTelegramChatID   = "TOKIMONSTER_NOTIFICATION_TELEGRAM_CHAT_ID"
	KeyGoogleAPIKey     = "GOOGLE_API_KEY"
	KeyGoogleModel      = "GOOGLE_MODEL"
)

// Defaults.
const (
	DefaultMaxTweetLength  = 280
	DefaultRetryLimit      = 5
	DefaultPollInterval    = 120
	DefaultReplyMinDelayMs = 1000
	DefaultReplyMaxDelayMs = 3000
	DefaultCallTimeout     = 60
	DefaultChainNodeURL    = "https://fullnode.testnet.aptoslabs.com/v1"
	DefaultChainNetwork    = "testnet"
	DefaultTelegramChatID  = "-1002271852446"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Config is the validated runtime configuration.
type Config struct {
	DryRun         bool
	Username       string
	Password       string
	Email          string
	MaxTweetLength int
	TwoFASecret    string

	AppKey       string
	AppSecret    string
	AccessToken  string
	AccessSecret string

	RetryLimit          int
	PollIntervalSeconds int

	TargetUsers      []string
	WhitelistedUsers []string

	DeployDryRun     bool
	WalletPrivateKey string
	ChainNodeURL     string
	ChainNetwork     string

	ReplyMinDelayMs    int
	ReplyMaxDelayMs    int
	CallTimeoutSeconds int

	TelegramToken  string
	TelegramChatID string

	GoogleAPIKey string
	GoogleModel  string
}

// PollInterval returns the delay between poll cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// CallTimeout returns the timeout applied to each outbound call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// ReplyDelay returns the bounds of the pause after each sent reply.
func (c *Config) ReplyDelay() (min, max time.Duration) {
	return time.Duration(c.ReplyMinDelayMs) * time.Millisecond, time.Duration(c.ReplyMaxDelayMs) * time.Millisecond
}

// Violation is a single failed validation rule.
type Violation struct {
	Path    string
	Message string
}

// ValidationError lists every violated rule.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return "X/Twitter configuration validation failed:\n" + strings.Join(lines, "\n")
}

// Load builds the configuration from settings layered over the process environment.
func Load(settings map[string]string) (*Config, error) {
	return LoadFrom(settings, os.Getenv)
}

// LoadFrom builds the configuration from settings layered over env.
// A non-empty setting wins over the environment value.
func LoadFrom(settings map[string]string, env func(string) string) (*Config, error) {
	get := func(key string) string {
		if v := settings[key]; v != "" {
			return v
		}
		if env == nil {
			return ""
		}
		return env(key)
	}

	dryRun, _ := ParseBool(get(KeyDryRun))
	deployDryRun, _ := ParseBool(get(KeyDeployDryRun))

	cfg := &Config{
		DryRun:         dryRun,
		Username:       get(KeyUsername),
		Password:       get(KeyPassword),
		Email:          get(KeyEmail),
		MaxTweetLength: ParseInt(get(KeyMaxTweetLength), DefaultMaxTweetLength),
		TwoFASecret:    get(KeyTwoFASecret),

		AppKey:       get(KeyAppKey),
		AppSecret:    get(KeyAppSecret),
		AccessToken:  get(KeyAccessToken),
		AccessSecret: get(KeyAccessSecret),

		RetryLimit:          ParseInt(get(KeyRetryLimit), DefaultRetryLimit),
		PollIntervalSeconds: ParseInt(get(KeyPollInterval), DefaultPollInterval),

		TargetUsers:      ParseUserList(get(KeyTargetUsers)),
		WhitelistedUsers: ParseUserList(get(KeyWhitelistedUsers)),

		DeployDryRun:     deployDryRun,
		WalletPrivateKey: get(KeyWalletPrivateKey),
		ChainNodeURL:     withDefault(get(KeyChainNodeURL), DefaultChainNodeURL),
		ChainNetwork:     withDefault(get(KeyChainNetwork), DefaultChainNetwork),

		ReplyMinDelayMs:    ParseInt(get(KeyReplyMinDelayMs), DefaultReplyMinDelayMs),
		ReplyMaxDelayMs:    ParseInt(get(KeyReplyMaxDelayMs), DefaultReplyMaxDelayMs),
		CallTimeoutSeconds: ParseInt(get(KeyCallTimeout), DefaultCallTimeout),

		TelegramToken:  get(KeyTelegramToken),
		TelegramChatID: withDefault(get(KeyTelegramChatID), DefaultTelegramChatID),

		GoogleAPIKey: get(KeyGoogleAPIKey),
		GoogleModel:  get(KeyGoogleModel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every rule and returns a *ValidationError listing all violations.
func (c *Config) Validate() error {
	var vs []Violation
	add := func(path, msg string) {
		vs = append(vs, Violation{Path: path, Message: msg})
	}

	if c.Username == "" {
		add(KeyUsername, "X/Twitter username is required")
	} else {
		for _, msg := range usernameViolations(c.Username) {
			add(KeyUsername, msg)
		}
	}
	if c.Password == "" {
		add(KeyPassword, "X/Twitter password is required")
	}
	if !validEmail(c.Email) {
		add(KeyEmail, "Valid X/Twitter email is required")
	}
	if c.AppKey == "" {
		add(KeyAppKey, "X/Twitter appKey is required")
	}
	if c.AppSecret == "" {
		add(KeyAppSecret, "X/Twitter appSecret is required")
	}
	if c.AccessToken == "" {
		add(KeyAccessToken, "X/Twitter accessToken is required")
	}
	if c.AccessSecret == "" {
		add(KeyAccessSecret, "X/Twitter accessSecret is required")
	}

	for i, u := range c.TargetUsers {
		for _, msg := range usernameViolations(u) {
			add(fmt.Sprintf("%s.%d", KeyTargetUsers, i), msg)
		}
	}
	for i, u := range c.WhitelistedUsers {
		for _, msg := range usernameViolations(u) {
			add(fmt.Sprintf("%s.%d", KeyWhitelistedUsers, i), msg)
		}
	}

	if c.ReplyMaxDelayMs < c.ReplyMinDelayMs {
		add(KeyReplyMaxDelayMs, "must not be less than "+KeyReplyMinDelayMs)
	}

	if len(vs) > 0 {
		return &ValidationError{Violations: vs}
	}
	return nil
}

func usernameViolations(u string) []string {
	var msgs []string
	if len(u) < 1 {
		msgs = append(msgs, "An X/Twitter Username must be at least 1 characters long")
	}
	if len(u) > 15 {
		msgs = append(msgs, "An X/Twitter Username cannot exceed 15 characters")
	}
	if !usernamePattern.MatchString(u) {
		msgs = append(msgs, "An X Username can only contain letters, numbers, and underscores")
	}
	return msgs
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && addr.Name == ""
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
