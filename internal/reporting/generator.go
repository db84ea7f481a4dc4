package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// DefaultTopUsers is how many usernames the report lists.
const DefaultTopUsers = 10

// Generator builds reports from the evaluation store.
type Generator struct {
	store    storage.EvaluationStore
	clock    func() time.Time
	topUsers int
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.EvaluationStore) *Generator {
	return &Generator{
		store:    store,
		clock:    time.Now,
		topUsers: DefaultTopUsers,
	}
}

// WithClock sets a fixed clock for deterministic output.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	g.clock = clock
	return g
}

// Generate loads evaluations within [start, end] (Unix ms) and summarizes them.
func (g *Generator) Generate(ctx context.Context, start, end int64) (*Report, []*domain.EvaluationRecord, error) {
	records, err := g.store.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("load evaluations: %w", err)
	}

	r := Build(records, g.topUsers)
	r.GeneratedAt = g.clock().UTC()
	r.RangeStart = start
	r.RangeEnd = end
	return r, records, nil
}

// Build summarizes records, listing at most topUsers usernames.
func Build(records []*domain.EvaluationRecord, topUsers int) *Report {
	r := &Report{}
	reasons := make(map[string]int)
	users := make(map[string]*UserRow)
	scoreSum := 0

	for _, rec := range records {
		r.Summary.Total++
		scoreSum += rec.TotalScore
		if rec.TotalScore > r.Summary.MaxScore {
			r.Summary.MaxScore = rec.TotalScore
		}

		switch {
		case rec.Approved:
			r.Summary.Approved++
		case !rec.Eligible:
			r.Summary.Ineligible++
		default:
			r.Summary.Rejected++
		}
		if rec.Reason != "" {
			reasons[rec.Reason]++
		}

		if name := strings.ToLower(rec.Username); name != "" {
			u, ok := users[name]
			if !ok {
				u = &UserRow{Username: name}
				users[name] = u
			}
			u.Requests++
			if rec.Approved {
				u.Approved++
			}
		}
	}

	if r.Summary.Total > 0 {
		r.Summary.ApprovalRate = float64(r.Summary.Approved) / float64(r.Summary.Total)
		r.Summary.MeanScore = float64(scoreSum) / float64(r.Summary.Total)
	}

	for reason, n := range reasons {
		r.Reasons = append(r.Reasons, ReasonRow{Reason: reason, Count: n})
	}
	sort.Slice(r.Reasons, func(i, j int) bool {
		if r.Reasons[i].Count != r.Reasons[j].Count {
			return r.Reasons[i].Count > r.Reasons[j].Count
		}
		return r.Reasons[i].Reason < r.Reasons[j].Reason
	})

	for _, u := range users {
		r.TopUsers = append(r.TopUsers, *u)
	}
	sort.Slice(r.TopUsers, func(i, j int) bool {
		if r.TopUsers[i].Requests != r.TopUsers[j].Requests {
			return r.TopUsers[i].Requests > r.TopUsers[j].Requests
		}
		return r.TopUsers[i].Username < r.TopUsers[j].Username
	})
	if topUsers > 0 && len(r.TopUsers) > topUsers {
		r.TopUsers = r.TopUsers[:topUsers]
	}

	return r
}
