package utils

import "strings"

// SplitList splits a comma-separated flag value, trimming spaces and dropping
// empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Redact hides a secret for logging while still showing whether it is set.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}
