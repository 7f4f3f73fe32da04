package models

import (
	"fmt"
	"strings"
)

// RenderTranscript renders the transcript, followed by the in-flight draft if any, as a single markdown
// document. Thinking traces are rendered as block quotes and sources as a trailing list line.
func RenderTranscript(messages []Message, draft *Draft) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		switch msg.Role {
		case RoleUser:
			sb.WriteString("**You**\n\n")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		case RoleAssistant:
			sb.WriteString("**Assistant**\n\n")
			renderAssistant(&sb, msg.Thinking, true, msg.Content, msg.Sources, msg.WebSearched)
		}
	}
	if draft != nil {
		if len(messages) > 0 {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString("**Assistant**\n\n")
		renderAssistant(&sb, draft.Thinking, draft.ThinkingComplete, draft.Content, draft.Sources, draft.WebSearched)
	}
	return sb.String()
}

func renderAssistant(sb *strings.Builder, thinking string, thinkingDone bool, content string, sources []string,
	webSearched bool,
) {
	if thinking != "" {
		label := "Thinking..."
		if thinkingDone {
			label = "Thought process"
		}
		sb.WriteString(fmt.Sprintf("> *%s*\n>\n", label))
		for _, line := range strings.Split(thinking, "\n") {
			sb.WriteString("> ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if content != "" {
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	if len(sources) > 0 {
		sb.WriteString("\n*Sources: ")
		sb.WriteString(strings.Join(sources, ", "))
		if webSearched {
			sb.WriteString(" (web search)")
		}
		sb.WriteString("*\n")
	}
}
