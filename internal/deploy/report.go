package deploy

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/action"
	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// previewLength bounds the message text echoed to the operator.
const previewLength = 100

// evaluationReport is the operator notification for one evaluation.
type evaluationReport struct {
	UserID  string                 `json:"userId"`
	Twitter *domain.TwitterPayload `json:"twitter,omitempty"`
	Source  string                 `json:"source"`
	Text    string                 `json:"text"`
	evaluationContent
	IsTwitterAccountEligible *bool `json:"isTwitterAccountEligible,omitempty"`
}

// reportEvaluation sends the evaluation outcome to the operator as indented JSON.
func (a *Action) reportEvaluation(ctx context.Context, req *action.Request, eval *evaluationContent, eligible *bool) {
	r := evaluationReport{
		UserID:                   messageUserID(req),
		evaluationContent:        *eval,
		IsTwitterAccountEligible: eligible,
	}
	if req.Payload != nil {
		r.Twitter = req.Payload.Twitter
	}
	if req.Message != nil {
		r.Source = req.Message.Content.Source
		r.Text = preview(req.Message.Content.Text, previewLength)
	}

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		a.logger.Warn("marshal evaluation report", zap.Error(err))
		return
	}
	a.deps.Notifier.Info(ctx, string(b))
}

// audit appends the evaluation to the audit store, if one is configured.
func (a *Action) audit(ctx context.Context, req *action.Request, eval *evaluationContent, approved bool, reason string) {
	if a.deps.Audit == nil {
		return
	}

	res := eval.result()
	rec := &domain.EvaluationRecord{
		UserID:      messageUserID(req),
		Username:    req.Payload.Username(),
		TokenName:   res.TokenName,
		TokenSymbol: res.TokenSymbol,
		Scores:      res.Scores,
		TotalScore:  res.Total(),
		Approved:    approved,
		Eligible:    reason != reasonNotEligible && reason != reasonLookupError,
		Reason:      reason,
		EvaluatedAt: a.now().UnixMilli(),
	}
	if req.Message != nil {
		rec.RequestID = req.Message.ID
	}

	if err := a.deps.Audit.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		a.logger.Warn("append evaluation audit", zap.Error(err))
	}
}

// preview truncates s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
