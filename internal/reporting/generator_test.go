package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage/memory"
)

var fixedTime = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testRecords() []*domain.EvaluationRecord {
	return []*domain.EvaluationRecord{
		{RequestID: "r1", Username: "Alice", TokenName: "Lilys", TokenSymbol: "LYS", TotalScore: 260, Approved: true, Eligible: true, EvaluatedAt: 1000},
		{RequestID: "r2", Username: "alice", TotalScore: 120, Eligible: true, Reason: "not_approved", EvaluatedAt: 2000},
		{RequestID: "r3", Username: "bob", TotalScore: 240, Reason: "not_eligible", EvaluatedAt: 3000},
		{RequestID: "r4", Username: "carol", TotalScore: 80, Eligible: true, Reason: "not_approved", EvaluatedAt: 4000},
	}
}

func TestBuild(t *testing.T) {
	r := Build(testRecords(), 2)

	assert.Equal(t, 4, r.Summary.Total)
	assert.Equal(t, 1, r.Summary.Approved)
	assert.Equal(t, 2, r.Summary.Rejected)
	assert.Equal(t, 1, r.Summary.Ineligible)
	assert.InDelta(t, 0.25, r.Summary.ApprovalRate, 1e-9)
	assert.InDelta(t, 175.0, r.Summary.MeanScore, 1e-9)
	assert.Equal(t, 260, r.Summary.MaxScore)

	assert.Equal(t, []ReasonRow{{Reason: "not_approved", Count: 2}, {Reason: "not_eligible", Count: 1}}, r.Reasons)

	require.Len(t, r.TopUsers, 2)
	assert.Equal(t, UserRow{Username: "alice", Requests: 2, Approved: 1}, r.TopUsers[0])
	assert.Equal(t, "bob", r.TopUsers[1].Username)
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, DefaultTopUsers)
	assert.Equal(t, 0, r.Summary.Total)
	assert.Zero(t, r.Summary.ApprovalRate)

	md := RenderMarkdown(r)
	assert.Contains(t, md, "No rejections.")
	assert.Contains(t, md, "No requests.")
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEvaluationStore()
	for _, rec := range testRecords() {
		require.NoError(t, store.Insert(ctx, rec))
	}

	g := NewGenerator(store).WithClock(func() time.Time { return fixedTime })
	r, records, err := g.Generate(ctx, 1500, 3500)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 2, r.Summary.Total)
	assert.Equal(t, fixedTime, r.GeneratedAt)
	assert.Equal(t, int64(1500), r.RangeStart)

	md := RenderMarkdown(r)
	assert.True(t, strings.HasPrefix(md, "# Deploy Evaluation Report\n"))
	assert.Contains(t, md, "Generated: 2026-10-15T12:00:00Z")
	assert.Contains(t, md, "| Ineligible | 1 |")
	assert.Contains(t, md, "| @alice | 1 | 0 |")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRecords()[:1]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "evaluated_at,request_id,username,token_name,token_symbol,virality,storytelling,innovation,mood,total_score,approved,eligible,reason", lines[0])
	assert.Equal(t, "1000,r1,Alice,Lilys,LYS,0,0,0,0,260,true,true,", lines[1])
}
