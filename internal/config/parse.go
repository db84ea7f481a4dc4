package config

import (
	"strconv"
	"strings"
)

// ParseBool interprets common truthy and falsy words.
// ok is false when value is empty or unrecognised.
func ParseBool(value string) (b bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on", "enable", "enabled":
		return true, true
	case "0", "false", "no", "n", "off", "disable", "disabled":
		return false, true
	default:
		return false, false
	}
}

// ParseInt parses the leading integer of value.
// Missing or invalid input yields def; a parsed value is clamped to at least 1.
func ParseInt(value string, def int) int {
	value = strings.TrimSpace(value)
	end := 0
	if end < len(value) && (value[end] == '-' || value[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return def
	}

	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	return n
}

// ParseUserList splits a comma-separated list, trimming entries and dropping empty ones.
func ParseUserList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			users = append(users, p)
		}
	}
	return users
}
