// Package template renders the LLM prompts used by the dialogue pipeline.
package template

import (
	"fmt"
	"strings"
	"text/template"
)

const supportPromptText = `You are the support assistant for the PMN recruitment platform.
Answer questions about the application using ONLY the knowledge base below.
Be concise and practical. If the knowledge base does not cover the question,
say so and suggest opening a support ticket.
{{if .Page}}
The user is currently asking about the "{{.Page}}" page.
{{end}}
KNOWLEDGE BASE:
{{.Knowledge}}`

const distillPromptText = `A support ticket was just resolved. Distill it into one FAQ entry.

Ticket title: {{.Title}}
Ticket description: {{.Description}}
Solution from the support team: {{.Solution}}

Respond with ONLY a JSON object, no markdown fences:
{"question": "<the user question, generalized>", "answer": "<the working solution, step by step>", "category": "<one of: candidate_management, authentication, job_posting, client_management, calendar, claims, dashboard, general>"}`

var (
	supportPrompt = template.Must(template.New("support").Parse(supportPromptText))
	distillPrompt = template.Must(template.New("distill").Parse(distillPromptText))
)

type SupportPromptData struct {
	Knowledge string
	Page      string
}

type DistillPromptData struct {
	Title       string
	Description string
	Solution    string
}

func RenderSupportPrompt(data SupportPromptData) (string, error) {
	return render(supportPrompt, data)
}

func RenderDistillPrompt(data DistillPromptData) (string, error) {
	return render(distillPrompt, data)
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
