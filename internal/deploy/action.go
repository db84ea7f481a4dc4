// Package deploy implements the token deploy action: a scored, eligibility
// gated request that ends in an on-chain deploy_token call.
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/action"
	"github.com/tokimonsterAI/agent/internal/chain"
	"github.com/tokimonsterAI/agent/internal/domain"
	"github.com/tokimonsterAI/agent/internal/llm"
	"github.com/tokimonsterAI/agent/internal/notify"
	"github.com/tokimonsterAI/agent/internal/observability"
	"github.com/tokimonsterAI/agent/internal/prompt"
	"github.com/tokimonsterAI/agent/internal/storage"
)

// Contract call constants.
const (
	ActionName         = "DEPLOY_TOKEN"
	ContractFunction   = "0x360d4b3ce4a3f48470ded6b55a820abfe1d1cde1daa1ca966f31bbece23c171b::Tokimonster::deploy_token"
	FeeTier            = 3
	Tick               = 200 // must match FeeTier
	PairedAssetAddress = "0x000000000000000000000000000000000000000000000000000000000000000a"
	DefaultCasterID    = "741187"
	DefaultCastHash    = "{}"
	DefaultImage       = "https://testnet.tokimonster.io/static/default-token-image.jpeg"
	MaxSalt            = 1_000_000_000
	ExplorerURL        = "https://explorer.aptoslabs.com/txn/%s?network=%s"
)

// Replies sent back to the requester.
const (
	ReplyAskName       = "What will be the name of the token?"
	ReplyAskSymbol     = "What will be the symbol of the token?"
	ReplyInvalidSource = "Congratulations! You can @TokimonsterAI on X to deploy the token for you. Thanks!"
	ReplyDryRun        = "[DryRun] Token deployed successfully!"
	ReplyFailed        = "Failed to deploy token."
	ReplySuccess       = "Token deployed successfully! %s"
)

// Audit reasons.
const (
	reasonEvaluationError = "evaluation_error"
	reasonNotApproved     = "not_approved"
	reasonLookupError     = "eligibility_lookup_error"
	reasonNotEligible     = "not_eligible"
	reasonDailyCap        = "daily_cap"
)

// ErrMissingWalletKey is returned when a live deploy runs without a wallet key.
var ErrMissingWalletKey = errors.New("WALLET_PRIVATE_KEY is not provided")

// Config configures the action.
type Config struct {
	DryRun           bool
	WalletPrivateKey string
	Network          string // explorer network name, e.g. "testnet"
	Threshold        int    // minimum total score, 0 selects prompt.MinApprovalScore
}

// Deps are the collaborators of the action.
type Deps struct {
	LLM         llm.Provider
	Chain       chain.Client
	Counter     *DailyCounter
	Eligibility *EligibilityChecker
	Notifier    notify.Notifier
	Audit       storage.EvaluationStore // optional
	Logger      *zap.Logger
}

// Action is the DEPLOY_TOKEN action.
type Action struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
	salt   func() int64
}

// New creates the action.
func New(cfg Config, deps Deps) (*Action, error) {
	switch {
	case deps.LLM == nil:
		return nil, errors.New("deploy: llm provider is required")
	case deps.Chain == nil:
		return nil, errors.New("deploy: chain client is required")
	case deps.Counter == nil:
		return nil, errors.New("deploy: daily counter is required")
	case deps.Eligibility == nil:
		return nil, errors.New("deploy: eligibility checker is required")
	case deps.Notifier == nil:
		return nil, errors.New("deploy: notifier is required")
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = prompt.MinApprovalScore
	}
	if cfg.Network == "" {
		cfg.Network = "testnet"
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Action{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With(zap.String("action", ActionName)),
		now:    time.Now,
		salt:   func() int64 { return rand.Int64N(MaxSalt + 1) },
	}, nil
}

// Compile-time interface check.
var _ action.Action = (*Action)(nil)

// Name returns the action tag.
func (a *Action) Name() string { return ActionName }

// Similes returns alternative tags.
func (a *Action) Similes() []string {
	return []string{"CREATE_TOKEN", "LAUNCH_TOKEN", "ISSUE_TOKEN"}
}

// Description is shown to the model.
func (a *Action) Description() string {
	return "Deploy a new token based on the user's eligibility"
}

// Validate runs the gates in order: daily cap, scoring pass, approval, account
// eligibility. Every evaluated request is reported to the operator and audited.
func (a *Action) Validate(ctx context.Context, req *action.Request) (bool, error) {
	userID := messageUserID(req)
	logger := a.logger.With(zap.String("user_id", userID))

	ok, count, err := a.deps.Counter.Allow(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Warn("daily deploy limit reached", zap.Int("count", count), zap.Int("cap", a.deps.Counter.Cap()))
		a.deps.Notifier.Info(ctx, fmt.Sprintf("[deployToken][validate] daily deploy limit reached (%d/%d), userId: %s",
			count, a.deps.Counter.Cap(), userID))
		a.audit(ctx, req, &evaluationContent{}, false, reasonDailyCap)
		observability.RecordDeployEvaluation("capped")
		return false, nil
	}

	eval, err := a.evaluate(ctx, req)
	if err != nil {
		logger.Error("evaluation failed", zap.Error(err))
		a.deps.Notifier.Error(ctx, fmt.Sprintf("[deployToken][validate] failed to generate evaluation, userId: %s", userID))
		a.audit(ctx, req, &evaluationContent{}, false, reasonEvaluationError)
		observability.RecordDeployEvaluation("error")
		return false, nil
	}

	result := eval.result()
	if !result.Approved(a.cfg.Threshold) {
		logger.Info("evaluation not approved",
			zap.Int("total", result.Total()),
			zap.Bool("model_approved", result.LLMApproved))
		a.reportEvaluation(ctx, req, eval, nil)
		a.audit(ctx, req, eval, false, reasonNotApproved)
		observability.RecordDeployEvaluation("not_approved")
		return false, nil
	}

	if username := req.Payload.Username(); username != "" {
		elig, err := a.deps.Eligibility.Check(ctx, username)
		if err != nil {
			logger.Error("eligibility check failed", zap.String("username", username), zap.Error(err))
			a.reportEvaluation(ctx, req, eval, boolPtr(false))
			a.audit(ctx, req, eval, false, reasonLookupError)
			observability.RecordDeployEvaluation("error")
			return false, nil
		}
		if !elig.Eligible {
			logger.Info("account not eligible",
				zap.String("username", username),
				zap.String("failed", elig.FirstFailure()))
			a.reportEvaluation(ctx, req, eval, boolPtr(false))
			a.audit(ctx, req, eval, false, reasonNotEligible)
			observability.RecordDeployEvaluation("not_eligible")
			return false, nil
		}
	}

	a.reportEvaluation(ctx, req, eval, nil)
	a.audit(ctx, req, eval, true, "")
	observability.RecordDeployEvaluation("approved")
	return true, nil
}

// Handle extracts the token metadata, asks for anything missing and deploys.
func (a *Action) Handle(ctx context.Context, req *action.Request, cb action.Callback) error {
	userID := messageUserID(req)
	logger := a.logger.With(zap.String("user_id", userID))
	notifier := a.deps.Notifier

	logger.Info("action started")
	notifier.Info(ctx, fmt.Sprintf("[deployToken] action started, userId: %s", userID))

	meta, err := a.extract(ctx, req)
	if err != nil {
		notifier.Error(ctx, fmt.Sprintf("[deployToken] failed to extract token metadata, userId: %s", userID))
		observability.RecordDeploy("error")
		return err
	}

	if meta.Name == "" {
		reply(ctx, cb, ReplyAskName)
		notifier.Info(ctx, fmt.Sprintf("[deployToken] token name is missing, userId: %s", userID))
		observability.RecordDeploy("clarify")
		return nil
	}
	if meta.Symbol == "" {
		reply(ctx, cb, ReplyAskSymbol)
		notifier.Info(ctx, fmt.Sprintf("[deployToken] token symbol is missing, userId: %s", userID))
		observability.RecordDeploy("clarify")
		return nil
	}

	if !req.Payload.Valid() {
		notifier.Error(ctx, fmt.Sprintf("[deployToken] invalid client payload, userId: %s", userID))
		reply(ctx, cb, ReplyInvalidSource)
		observability.RecordDeploy("invalid_source")
		return nil
	}

	var deployer *chain.Account
	if a.cfg.WalletPrivateKey != "" {
		deployer, err = chain.DeriveAccount(a.cfg.WalletPrivateKey)
		if err != nil {
			notifier.Error(ctx, fmt.Sprintf("[deployToken] invalid wallet key, userId: %s", userID))
			observability.RecordDeploy("error")
			return fmt.Errorf("derive deployer: %w", err)
		}
	} else if !a.cfg.DryRun {
		notifier.Error(ctx, fmt.Sprintf("[deployToken] wallet key missing, userId: %s", userID))
		observability.RecordDeploy("error")
		return ErrMissingWalletKey
	}

	params := a.buildParams(meta, req)
	fn := entryFunction(params, deployerAddress(deployer))
	logger.Info("deploy params", zap.Any("arguments", fn.Arguments))

	if a.cfg.DryRun {
		logger.Info("dry run, contract not executed")
		notifier.Info(ctx, fmt.Sprintf("[deployToken] dry run successfully, userId: %s", userID))
		reply(ctx, cb, ReplyDryRun)
		observability.RecordDeploy("dry_run")
		return nil
	}

	hash, err := a.execute(ctx, deployer, fn)
	if errors.Is(err, errSimulationFailed) {
		logger.Warn("simulation failed", zap.Error(err))
		notifier.Error(ctx, fmt.Sprintf("[deployToken] simulation failed, userId: %s", userID))
		reply(ctx, cb, ReplyFailed)
		observability.RecordDeploy("simulation_failed")
		return nil
	}
	if err != nil {
		logger.Error("deploy failed", zap.Error(err))
		notifier.Error(ctx, fmt.Sprintf("[deployToken] Token deployed failed, userId: %s", userID))
		reply(ctx, cb, ReplyFailed)
		observability.RecordDeploy("error")
		return err
	}

	url := fmt.Sprintf(ExplorerURL, hash, a.cfg.Network)
	reply(ctx, cb, fmt.Sprintf(ReplySuccess, url))
	notifier.Success(ctx, fmt.Sprintf("[deployToken] Token deployed successfully! %s, userId: %s", url, userID))
	observability.RecordDeploy("success")
	logger.Info("token deployed", zap.String("hash", hash))
	return nil
}

var errSimulationFailed = errors.New("simulation failed")

// execute counts the deploy, then builds, simulates, submits and waits.
// A failed simulation never reaches submission.
func (a *Action) execute(ctx context.Context, deployer *chain.Account, fn chain.EntryFunction) (string, error) {
	if _, err := a.deps.Counter.Increment(ctx); err != nil {
		return "", err
	}

	tx, err := a.deps.Chain.BuildTransaction(ctx, deployer, fn)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	sim, err := a.deps.Chain.Simulate(ctx, deployer, tx)
	if err != nil {
		return "", fmt.Errorf("simulate transaction: %w", err)
	}
	if !sim.Success {
		return "", fmt.Errorf("%w: %w", errSimulationFailed, &chain.SimulationError{VMStatus: sim.VMStatus})
	}

	hash, err := a.deps.Chain.SignAndSubmit(ctx, deployer, tx)
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}

	committed, err := a.deps.Chain.WaitForTransaction(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("wait for transaction: %w", err)
	}
	return committed.Hash, nil
}

func (a *Action) evaluate(ctx context.Context, req *action.Request) (*evaluationContent, error) {
	text, err := a.compose(req, prompt.Evaluation)
	if err != nil {
		return nil, err
	}
	var out evaluationContent
	if err := a.deps.LLM.GenerateObject(ctx, text, evaluationSchema, &out); err != nil {
		return nil, fmt.Errorf("generate evaluation: %w", err)
	}
	return &out, nil
}

func (a *Action) extract(ctx context.Context, req *action.Request) (*tokenMetadata, error) {
	text, err := a.compose(req, prompt.Extraction)
	if err != nil {
		return nil, err
	}
	var out extractionContent
	if err := a.deps.LLM.GenerateObject(ctx, text, extractionSchema, &out); err != nil {
		return nil, fmt.Errorf("generate extraction: %w", err)
	}
	return &out.TokenMetadata, nil
}

func (a *Action) compose(req *action.Request, tmpl *template.Template) (string, error) {
	if req == nil || req.State == nil {
		return "", fmt.Errorf("compose %s prompt: missing state", tmpl.Name())
	}
	return prompt.Compose(tmpl, req.State)
}

// buildParams assembles the deploy arguments of an approved request.
func (a *Action) buildParams(meta *tokenMetadata, req *action.Request) domain.DeployParams {
	supply := meta.Supply
	if supply == "" {
		supply = prompt.DefaultSupply
	}

	casterID := DefaultCasterID
	castHash := DefaultCastHash
	if tw := req.Payload.Twitter; tw != nil && tw.UserID != "" {
		casterID = tw.UserID
		if b, err := json.Marshal(req.Payload); err == nil {
			castHash = string(b)
		}
	}

	image := DefaultImage
	if len(req.Photos) > 0 && req.Photos[0].URL != "" {
		image = req.Photos[0].URL
	}

	return domain.DeployParams{
		Name:               meta.Name,
		Symbol:             meta.Symbol,
		Supply:             supply,
		FeeTier:            FeeTier,
		SaltNonce:          fmt.Sprintf("0x%x", a.salt()),
		CasterID:           casterID,
		Image:              image,
		CastHash:           castHash,
		Tick:               Tick,
		PairedAssetAddress: PairedAssetAddress,
	}
}

// entryFunction orders params as the contract expects.
func entryFunction(p domain.DeployParams, deployer string) chain.EntryFunction {
	return chain.EntryFunction{
		Function: ContractFunction,
		Arguments: []interface{}{
			p.Name,
			p.Symbol,
			p.Supply,
			p.FeeTier,
			p.SaltNonce,
			deployer,
			p.CasterID,
			p.Image,
			p.CastHash,
			p.Tick,
			p.PairedAssetAddress,
		},
	}
}

func deployerAddress(acct *chain.Account) string {
	if acct == nil {
		return ""
	}
	return acct.Address
}

func reply(ctx context.Context, cb action.Callback, text string) {
	if cb == nil {
		return
	}
	_, _ = cb(ctx, domain.Content{Text: text, Action: domain.ActionNone})
}

func messageUserID(req *action.Request) string {
	if req == nil || req.Message == nil {
		return ""
	}
	return req.Message.UserID
}

func boolPtr(b bool) *bool { return &b }
