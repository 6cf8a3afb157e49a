// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock extracts the JSON payload from a model reply. Models wrap
// JSON in ```json fences or conversational preamble even when instructed not
// to; both are stripped. Text with no JSON in it is returned as-is so the
// schema validator can reject it with a useful message.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = stripFence(text)
	}

	if payload := firstJSONValue(text); payload != "" {
		return payload
	}
	return text
}

// stripFence removes a leading ``` or ```json fence and its closing ```.
func stripFence(text string) string {
	text = strings.TrimPrefix(text, "```")
	// The fence may carry a language tag on its first line.
	if idx := strings.Index(text, "\n"); idx >= 0 {
		tag := text[:idx]
		if len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// firstJSONValue returns the first balanced JSON object or array in text,
// skipping any preamble before it and any prose after it. Returns "" when the
// text holds no complete value. Brackets inside strings do not count; escaped
// quotes do not end a string.
func firstJSONValue(text string) string {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
