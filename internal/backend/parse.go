package backend

import (
	"regexp"
	"strings"
)

// StructuredResponse is a model answer split into its blocks.
type StructuredResponse struct {
	Thinking string
	Response string
	Sources  []string
}

var (
	thinkingBlock = regexp.MustCompile(`(?is)\[THINKING\](.*?)\[/THINKING\]`)
	responseBlock = regexp.MustCompile(`(?is)\[RESPONSE\](.*?)\[/RESPONSE\]`)
	sourcesBlock  = regexp.MustCompile(`(?is)\[SOURCES\](.*?)\[/SOURCES\]`)
	sourcesLine   = regexp.MustCompile(`(?m)Sources?:.*$`)

	// blockSources are recognized inside a SOURCES block, textSources anywhere in an answer without one.
	blockSources = []string{"CDC", "WHO", "NIH", "Mayo Clinic", "USDA", "Harvard Health"}
	textSources  = []string{"CDC", "WHO", "NIH", "Mayo Clinic", "USDA"}
)

// ParseStructuredResponse splits text into the [THINKING], [RESPONSE] and [SOURCES] blocks the wellness
// prompt asks for. Tags match case-insensitively. Without a RESPONSE block the whole text, minus the
// thinking block, is the response. Known source names are collected from the SOURCES block, or from the
// whole text when there is none, and "Sources:" lines are stripped from the response.
func ParseStructuredResponse(text string) StructuredResponse {
	var res StructuredResponse

	if m := thinkingBlock.FindStringSubmatch(text); m != nil {
		res.Thinking = strings.TrimSpace(m[1])
	}

	switch m := responseBlock.FindStringSubmatch(text); {
	case m != nil:
		res.Response = strings.TrimSpace(m[1])
	case res.Thinking != "":
		res.Response = strings.TrimSpace(thinkingBlock.ReplaceAllString(text, ""))
	default:
		res.Response = strings.TrimSpace(text)
	}

	if m := sourcesBlock.FindStringSubmatch(text); m != nil {
		res.Sources = matchSources(m[1], blockSources)
	} else {
		res.Sources = matchSources(text, textSources)
	}

	res.Response = strings.TrimSpace(sourcesBlock.ReplaceAllString(res.Response, ""))
	res.Response = strings.TrimSpace(sourcesLine.ReplaceAllString(res.Response, ""))

	return res
}

func matchSources(text string, names []string) []string {
	var found []string
	for _, n := range names {
		if strings.Contains(text, n) {
			found = append(found, n)
		}
	}
	return found
}
