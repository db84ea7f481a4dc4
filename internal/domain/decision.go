package domain

// Decision is the outcome of the respond classifier.
// The zero value means the classifier failed and is handled like DecisionIgnore.
type Decision string

const (
	DecisionRespond Decision = "RESPOND"
	DecisionIgnore  Decision = "IGNORE"
	DecisionStop    Decision = "STOP"
)

// String returns the string representation of Decision.
func (d Decision) String() string {
	if d == "" {
		return "NONE"
	}
	return string(d)
}

// IsValid checks if the decision is one of the classifier outputs.
func (d Decision) IsValid() bool {
	return d == DecisionRespond || d == DecisionIgnore || d == DecisionStop
}
