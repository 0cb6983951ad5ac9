package service

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	mentionTokenRe = regexp.MustCompile(`@_user_\d+`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
)

// ExtractText normalizes a platform message content payload into a flat
// string. Content arrives JSON-encoded: either {"text":"..."} for plain
// messages or a rich post with paragraphs of tagged elements. Anything
// unparseable yields "", which callers treat as "no message".
func ExtractText(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	var node map[string]any
	if err := json.Unmarshal([]byte(trimmed), &node); err != nil {
		return ""
	}

	if text, ok := node["text"].(string); ok {
		return cleanMessageText(text)
	}

	// 리치 포스트: {"title":...,"content":[[{"tag":"text","text":"..."}],...]}
	// 레거시 포스트는 post 아래 언어 키 한 겹이 더 있다
	if post, ok := node["post"].(map[string]any); ok {
		for _, lang := range post {
			if body, ok := lang.(map[string]any); ok {
				node = body
				break
			}
		}
	}

	paragraphs, ok := node["content"].([]any)
	if !ok {
		return ""
	}
	return cleanMessageText(flattenParagraphs(paragraphs))
}

func flattenParagraphs(paragraphs []any) string {
	var parts []string
	for _, p := range paragraphs {
		elements, ok := p.([]any)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, el := range elements {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			if tag, _ := m["tag"].(string); tag != "text" {
				continue
			}
			if text, ok := m["text"].(string); ok {
				sb.WriteString(text)
			}
		}
		if sb.Len() > 0 {
			parts = append(parts, sb.String())
		}
	}
	return strings.Join(parts, " ")
}

func cleanMessageText(text string) string {
	cleaned := mentionTokenRe.ReplaceAllString(text, " ")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
