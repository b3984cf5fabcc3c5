package factle

import "strings"

// IsTopicAppropriate reports whether the topic text clears the blocked-term
// list. Deliberately crude: a case-insensitive substring match on any
// blocked term rejects the topic before any model or search spend.
func IsTopicAppropriate(blocked []string, topicText string) bool {
	lower := strings.ToLower(topicText)
	for _, term := range blocked {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}
