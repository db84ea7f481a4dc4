package domain

// Scores are the rubric dimensions of a deploy evaluation.
// Virality and Storytelling are worth 150 points each, Innovation and Mood 50 each.
type Scores struct {
	Virality     int `json:"virality"`
	Storytelling int `json:"storytelling"`
	Innovation   int `json:"innovation"`
	Mood         int `json:"mood"`
}

// Sum returns the total of all dimensions.
func (s Scores) Sum() int {
	return s.Virality + s.Storytelling + s.Innovation + s.Mood
}

// EvaluationResult is the scoring pass output for a deploy request.
type EvaluationResult struct {
	TokenName   string `json:"tokenName,omitempty"`
	TokenSymbol string `json:"tokenSymbol,omitempty"`
	Scores      Scores `json:"scores"`
	TotalScore  *int   `json:"totalScore,omitempty"` // as reported by the model
	LLMApproved bool   `json:"approved"`             // as reported by the model
}

// Total returns the model-reported total, falling back to the sum of dimensions.
func (e *EvaluationResult) Total() int {
	if e.TotalScore != nil {
		return *e.TotalScore
	}
	return e.Scores.Sum()
}

// Approved reports whether the request may proceed. The model's own flag is not
// trusted alone: the total must reach threshold and name and symbol must be present.
func (e *EvaluationResult) Approved(threshold int) bool {
	if e == nil {
		return false
	}
	return e.LLMApproved &&
		e.Total() >= threshold &&
		e.TokenName != "" &&
		e.TokenSymbol != ""
}

// EvaluationRecord is an audit row appended for every deploy evaluation.
// Corresponds to deploy_evaluations table in ClickHouse.
type EvaluationRecord struct {
	RequestID   string // memory id of the triggering message
	UserID      string
	Username    string // originating platform username, if any
	TokenName   string
	TokenSymbol string
	Scores      Scores
	TotalScore  int
	Approved    bool
	Eligible    bool
	Reason      string // first failing gate, empty when approved
	EvaluatedAt int64  // Unix timestamp in milliseconds
}
