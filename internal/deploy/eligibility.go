package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// Eligibility thresholds for accounts that are not whitelisted.
const (
	MinAccountAge = 90 * 24 * time.Hour
	MinPostCount  = 10
	MinFollowers  = 100
)

// AccountLookup resolves a platform handle. A missing account yields (nil, nil).
type AccountLookup interface {
	LookupAccount(ctx context.Context, handle string) (*domain.Account, error)
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// EligibilityResult is the checklist for one account.
type EligibilityResult struct {
	Username    string
	Eligible    bool
	Whitelisted bool
	Criteria    []CriterionResult
}

// FirstFailure returns the name of the first failed criterion, or "".
func (r *EligibilityResult) FirstFailure() string {
	for _, c := range r.Criteria {
		if !c.Pass {
			return c.Name
		}
	}
	return ""
}

// EligibilityChecker decides whether an account may request a deploy.
type EligibilityChecker struct {
	lookup    AccountLookup
	whitelist map[string]struct{}
	now       func() time.Time
}

// NewEligibilityChecker creates a checker. Whitelisted usernames skip every criterion.
func NewEligibilityChecker(lookup AccountLookup, whitelist []string) *EligibilityChecker {
	wl := make(map[string]struct{}, len(whitelist))
	for _, u := range whitelist {
		wl[normalizeHandle(u)] = struct{}{}
	}
	return &EligibilityChecker{lookup: lookup, whitelist: wl, now: time.Now}
}

// WithClock replaces the time source.
func (c *EligibilityChecker) WithClock(now func() time.Time) *EligibilityChecker {
	c.now = now
	return c
}

// Check evaluates username.
// Eligible if whitelisted, or if the account exists and ALL criteria pass.
func (c *EligibilityChecker) Check(ctx context.Context, username string) (*EligibilityResult, error) {
	result := &EligibilityResult{Username: username}

	if _, ok := c.whitelist[normalizeHandle(username)]; ok {
		result.Eligible = true
		result.Whitelisted = true
		return result, nil
	}

	acct, err := c.lookup.LookupAccount(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup account %s: %w", username, err)
	}

	result.Criteria = append(result.Criteria, CriterionResult{
		Name:      "Account exists",
		Threshold: "true",
		Actual:    fmt.Sprintf("%t", acct != nil),
		Pass:      acct != nil,
	})
	if acct == nil {
		return result, nil
	}

	result.Criteria = append(result.Criteria, c.evaluateCriteria(acct)...)

	result.Eligible = true
	for _, cr := range result.Criteria {
		if !cr.Pass {
			result.Eligible = false
			break
		}
	}
	return result, nil
}

// evaluateCriteria evaluates the 4 account criteria.
func (c *EligibilityChecker) evaluateCriteria(acct *domain.Account) []CriterionResult {
	criteria := make([]CriterionResult, 4)

	// 1. Not protected and not withheld
	restricted := acct.Protected || acct.Withheld
	criteria[0] = CriterionResult{
		Name:      "Not restricted",
		Threshold: "protected=false AND withheld=false",
		Actual:    fmt.Sprintf("protected=%t, withheld=%t", acct.Protected, acct.Withheld),
		Pass:      !restricted,
	}

	// 2. Account age >= 90 days
	age := c.now().Sub(acct.CreatedAt)
	criteria[1] = CriterionResult{
		Name:      "Account age",
		Threshold: ">= 90 days",
		Actual:    fmt.Sprintf("%.1f days", age.Hours()/24),
		Pass:      !acct.CreatedAt.IsZero() && age >= MinAccountAge,
	}

	// 3. Post count >= 10
	criteria[2] = CriterionResult{
		Name:      "Post count",
		Threshold: fmt.Sprintf(">= %d", MinPostCount),
		Actual:    fmt.Sprintf("%d", acct.TweetCount),
		Pass:      acct.TweetCount >= MinPostCount,
	}

	// 4. Followers >= 100
	criteria[3] = CriterionResult{
		Name:      "Followers",
		Threshold: fmt.Sprintf(">= %d", MinFollowers),
		Actual:    fmt.Sprintf("%d", acct.FollowersCount),
		Pass:      acct.FollowersCount >= MinFollowers,
	}

	return criteria
}

func normalizeHandle(u string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u), "@"))
}
