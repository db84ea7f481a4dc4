package deploy

import (
	"google.golang.org/genai"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// tokenMetadata is the token description as extracted by the model.
type tokenMetadata struct {
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Supply string `json:"supply,omitempty"`
}

// evaluationContent is the scoring pass answer.
type evaluationContent struct {
	TokenMetadata tokenMetadata `json:"tokenMetadata"`
	Scores        domain.Scores `json:"scores"`
	TotalScores   *int          `json:"totalScores,omitempty"`
	Approved      bool          `json:"approved"`
}

// result converts the answer into the domain record.
func (e *evaluationContent) result() *domain.EvaluationResult {
	return &domain.EvaluationResult{
		TokenName:   e.TokenMetadata.Name,
		TokenSymbol: e.TokenMetadata.Symbol,
		Scores:      e.Scores,
		TotalScore:  e.TotalScores,
		LLMApproved: e.Approved,
	}
}

// extractionContent is the extraction pass answer.
type extractionContent struct {
	TokenMetadata tokenMetadata `json:"tokenMetadata"`
}

var evaluationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"tokenMetadata": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":   {Type: genai.TypeString},
				"symbol": {Type: genai.TypeString},
			},
		},
		"scores": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"virality":     {Type: genai.TypeInteger},
				"storytelling": {Type: genai.TypeInteger},
				"innovation":   {Type: genai.TypeInteger},
				"mood":         {Type: genai.TypeInteger},
			},
		},
		"totalScores": {Type: genai.TypeInteger},
		"approved":    {Type: genai.TypeBoolean},
	},
	Required: []string{"tokenMetadata", "scores"},
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"tokenMetadata": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":   {Type: genai.TypeString},
				"symbol": {Type: genai.TypeString},
				"supply": {Type: genai.TypeString},
			},
		},
	},
	Required: []string{"tokenMetadata"},
}
