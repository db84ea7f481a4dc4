// Package prompt renders the fixed model prompts from a typed State.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// State is the context a prompt is rendered from.
type State struct {
	AgentName       string
	TwitterUserName string

	Bio                   string
	Lore                  string
	Topics                string
	Knowledge             string
	Providers             string
	CharacterPostExamples string
	PostDirections        string

	RecentPosts            string
	RecentPostInteractions string
	RecentMessages         string

	CurrentPost           string
	FormattedConversation string

	ActionNames string
	Actions     string

	// PriorityUsers are always responded to, whatever the topic.
	PriorityUsers []string
}

// PriorityUsersText joins the priority usernames with commas.
func (s *State) PriorityUsersText() string {
	return strings.Join(s.PriorityUsers, ",")
}

// Compose renders tmpl against state.
func Compose(tmpl *template.Template, state *State) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
