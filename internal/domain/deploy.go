package domain

// TwitterPayload identifies the post that triggered an action.
type TwitterPayload struct {
	ID       string `json:"id,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ClientPayload carries platform-specific context of the originating message.
type ClientPayload struct {
	Twitter *TwitterPayload `json:"twitter,omitempty"`
}

// Valid reports whether the payload identifies an originating post completely.
func (p *ClientPayload) Valid() bool {
	if p == nil || p.Twitter == nil {
		return false
	}
	t := p.Twitter
	return t.ID != "" && t.UserID != "" && t.URL != ""
}

// Username returns the originating twitter username, or empty.
func (p *ClientPayload) Username() string {
	if p == nil || p.Twitter == nil {
		return ""
	}
	return p.Twitter.Username
}

// DeployParams are the arguments of a single token deploy transaction.
// Built only after the request was approved and consumed once by the chain client.
type DeployParams struct {
	Name               string
	Symbol             string
	Supply             string // decimal string
	FeeTier            int
	SaltNonce          string // 0x-prefixed hex
	CasterID           string // originating account id, or a fixed fallback
	Image              string
	CastHash           string // JSON of the client payload, or "{}"
	Tick               int
	PairedAssetAddress string
}
