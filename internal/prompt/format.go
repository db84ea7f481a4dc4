package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/tokimonsterAI/agent/internal/domain"
)

// FormatPost renders a single post for the Current Post section.
func FormatPost(c *domain.Candidate) string {
	return fmt.Sprintf("  ID: %s\n  From: %s (@%s)\n  Text: %s", c.ID, c.AuthorName, c.AuthorHandle, c.Text)
}

// FormatThread renders a reply chain, root first, with post times in loc.
func FormatThread(thread domain.Thread, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	parts := make([]string, 0, len(thread))
	for _, c := range thread {
		ts := c.CreatedTime().In(loc).Format("Jan 2, 03:04 PM")
		parts = append(parts, fmt.Sprintf("@%s (%s):\n        %s", c.AuthorHandle, ts, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

// FormatMemories renders conversation records as "name: text" lines, oldest first.
// names maps runtime user ids to display names; unknown ids are shown as "user".
func FormatMemories(memories []*domain.Memory, names map[string]string) string {
	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		if m.Content.Text == "" {
			continue
		}
		name, ok := names[m.UserID]
		if !ok {
			name = "user"
		}
		line := fmt.Sprintf("%s: %s", name, m.Content.Text)
		if m.Content.Action != "" && m.Content.Action != domain.ActionNone && m.Content.Action != domain.ActionContinue {
			line += fmt.Sprintf(" (%s)", m.Content.Action)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FormatRecentPosts renders the agent's own recent posts under a heading.
func FormatRecentPosts(agentName string, memories []*domain.Memory) string {
	if len(memories) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Recent posts by %s", agentName)
	for _, m := range memories {
		if m.Content.Text == "" {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(m.Content.Text)
	}
	return b.String()
}
