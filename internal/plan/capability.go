package plan

import "strings"

// capabilityBuckets maps marker verbs to a normalized capability tag.
// Obvious categories cluster together; anything else falls back to the
// first significant word of the title.
var capabilityBuckets = []struct {
	tag     string
	markers []string
}{
	{"summarization", []string{"summarize", "summary", "summarization", "synthesize"}},
	{"review_approval", []string{"review", "approve", "approval", "validate", "check"}},
	{"data_extraction", []string{"extract", "parse", "analyze", "classify"}},
	{"content_generation", []string{"generate", "write", "draft", "compose"}},
	{"deployment", []string{"deploy", "release", "publish"}},
	{"testing", []string{"test", "qa", "verify"}},
	{"api_integration", []string{"fetch", "retrieve", "get", "call", "api"}},
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "all": true, "each": true, "every": true, "then": true,
}

// domainKeywords split human roles by business domain when a title names
// one ("finance approval" vs "legal approval").
var domainKeywords = []string{"finance", "legal", "security", "compliance", "budget", "hr"}

// domainKeyword returns the first domain named in the title, or "".
func domainKeyword(title string) string {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(title)) {
		words[strings.Trim(w, ",.:;!?\"'")] = true
	}
	for _, d := range domainKeywords {
		if words[d] {
			return d
		}
	}
	return ""
}

// capability normalizes a task title to a capability tag used for agent
// clustering.
func capability(title string) string {
	s := strings.ToLower(title)
	s = strings.NewReplacer(",", " ", ".", " ", ":", " ", ";", " ", "!", " ", "?", " ").Replace(s)

	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > 2 && !stopWords[w] {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return "generic"
	}

	has := make(map[string]bool, len(words))
	for _, w := range words {
		has[w] = true
	}
	for _, bucket := range capabilityBuckets {
		for _, marker := range bucket.markers {
			if has[marker] {
				return bucket.tag
			}
		}
	}
	return words[0]
}
