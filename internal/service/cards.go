package service

import (
	"fmt"
	"strings"
)

// 인터랙티브 카드 페이로드 빌더. 텍스트 메뉴는 카드가 전송 실패할 때의
// 폴백이자 번호 입력 방식의 안내 역할을 겸한다.

func buildPageMenuCard() map[string]any {
	var actions []any
	for _, page := range MenuPages {
		actions = append(actions, map[string]any{
			"tag":  "button",
			"text": map[string]any{"tag": "plain_text", "content": titleCase(page)},
			"type": "default",
			"value": map[string]any{
				"action": "select_page",
				"page":   page,
			},
		})
	}

	return map[string]any{
		"config": map[string]any{"wide_screen_mode": true},
		"header": map[string]any{
			"title": map[string]any{"tag": "plain_text", "content": "PMN Support"},
		},
		"elements": []any{
			map[string]any{
				"tag":  "div",
				"text": map[string]any{"tag": "lark_md", "content": "Which part of the app do you need help with?"},
			},
			map[string]any{"tag": "action", "actions": actions},
		},
	}
}

func buildFAQMenuCard(page string) map[string]any {
	var actions []any
	for _, question := range pageFAQs[page] {
		actions = append(actions, map[string]any{
			"tag":  "button",
			"text": map[string]any{"tag": "plain_text", "content": question},
			"type": "default",
			"value": map[string]any{
				"action": "select_faq",
				"page":   page,
				"faq":    question,
			},
		})
	}
	actions = append(actions, map[string]any{
		"tag":  "button",
		"text": map[string]any{"tag": "plain_text", "content": "None of these - open a ticket"},
		"type": "primary",
		"value": map[string]any{
			"action":   "create_ticket",
			"category": CategoryForPage(page),
		},
	})

	return map[string]any{
		"config": map[string]any{"wide_screen_mode": true},
		"header": map[string]any{
			"title": map[string]any{"tag": "plain_text", "content": fmt.Sprintf("%s - common questions", titleCase(page))},
		},
		"elements": []any{
			map[string]any{"tag": "action", "actions": actions},
		},
	}
}

func pageMenuText() string {
	var sb strings.Builder
	sb.WriteString("Hi! Which part of the app do you need help with? Reply with a number:\n")
	for i, page := range MenuPages {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, titleCase(page)))
	}
	sb.WriteString("Or just type your question.")
	return sb.String()
}

func faqMenuText(page string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Common questions about %s - reply with a number:\n", page))
	for i, question := range pageFAQs[page] {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, question))
	}
	sb.WriteString("Type \"back\" for the page menu, or ask your own question.")
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
