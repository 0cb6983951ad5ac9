package service

import (
	"testing"

	"github.com/pmn-helpdesk/backend/internal/model"
)

func TestCategorizeIssue(t *testing.T) {
	tests := []struct {
		name    string
		message string
		context []model.ConversationTurn
		want    string
	}{
		{"resume", "I can't upload a resume", nil, CategoryCandidateManagement},
		{"login", "the login page won't load", nil, CategoryAuthentication},
		{"job", "my job posting disappeared", nil, CategoryJobPosting},
		{"claim", "claim was rejected", nil, CategoryClaims},
		{"default", "everything is weird", nil, CategoryGeneral},
		{
			"from-context",
			"it still fails",
			[]model.ConversationTurn{{Role: model.RoleUser, Content: "my password reset mail never arrives"}},
			CategoryAuthentication,
		},
		{
			"context-beyond-window-ignored",
			"it still fails",
			append([]model.ConversationTurn{{Role: model.RoleUser, Content: "calendar sync problem"}},
				make([]model.ConversationTurn, 6)...),
			CategoryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeIssue(tt.message, tt.context); got != tt.want {
				t.Fatalf("CategorizeIssue(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestShouldEscalateToTicket(t *testing.T) {
	escalating := []string{
		"the login page won't load",
		"still not working",
		"this is broken",
		"I've tried everything and nothing works",
		"I need help urgently",
		"let me talk to a human",
		"please create a ticket",
	}
	for _, msg := range escalating {
		if !ShouldEscalateToTicket(msg) {
			t.Errorf("expected escalation for %q", msg)
		}
	}

	calm := []string{
		"how do I add a new client?",
		"thanks, that solved it",
		"what does the dashboard show?",
	}
	for _, msg := range calm {
		if ShouldEscalateToTicket(msg) {
			t.Errorf("did not expect escalation for %q", msg)
		}
	}
}

func TestIsDirectEscalation(t *testing.T) {
	if !IsDirectEscalation("please create a ticket for this") {
		t.Fatalf("expected direct escalation")
	}
	if IsDirectEscalation("my dashboard is broken") {
		t.Fatalf("broken alone should not be direct escalation")
	}
}

func TestCheckTicketConfirmation(t *testing.T) {
	offer := model.ConversationTurn{Role: model.RoleAssistant, Content: "I can open a ticket", TicketOffer: true}
	plain := model.ConversationTurn{Role: model.RoleAssistant, Content: "here is an answer"}

	tests := []struct {
		name    string
		context []model.ConversationTurn
		message string
		want    bool
	}{
		{"affirmative-after-offer", []model.ConversationTurn{offer}, "yes", true},
		{"ok-after-offer", []model.ConversationTurn{offer}, "ok!", true},
		{"go-ahead-after-offer", []model.ConversationTurn{offer}, "go ahead", true},
		{"no-offer", []model.ConversationTurn{plain}, "yes", false},
		{"affirmative-without-context", nil, "yes", false},
		{"non-affirmative-after-offer", []model.ConversationTurn{offer}, "yes but also my calendar broke", false},
		{
			"offer-outside-window",
			append([]model.ConversationTurn{offer}, plain, plain, plain, plain),
			"yes",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckTicketConfirmation(tt.context, tt.message); got != tt.want {
				t.Fatalf("CheckTicketConfirmation(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestIsSupportSolution(t *testing.T) {
	tests := []struct {
		name            string
		message         string
		isReplyToTicket bool
		want            bool
	}{
		{"thread-reply-long-enough", "Clear your cache and retry - resolved.", true, true},
		{"thread-reply-too-short", "ok", true, false},
		{"solution-keyword", "Solution: restart the parser service", false, true},
		{"fix-keyword", "fix: bump the upload limit", false, true},
		{"kb-indicator", "add this to the FAQ please", false, true},
		{"generic-support-phrase", "try clearing your cache first", false, true},
		{"plain-question", "why is my claim rejected?", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSupportSolution(tt.message, tt.isReplyToTicket); got != tt.want {
				t.Fatalf("IsSupportSolution(%q, %v) = %v, want %v", tt.message, tt.isReplyToTicket, got, tt.want)
			}
		})
	}
}

func TestGreetingAndRestart(t *testing.T) {
	if !IsGreeting("hi") || !IsGreeting("Hello!") || !IsGreeting("menu") {
		t.Fatalf("expected greetings to match")
	}
	if IsGreeting("hi, my login is broken") {
		t.Fatalf("greeting with payload should not match")
	}
	if !IsRestartRequest("start over") || !IsRestartRequest("menu") {
		t.Fatalf("expected restart keywords to match")
	}
	if IsRestartRequest("hello") {
		t.Fatalf("hello is not a restart request")
	}
}

func TestExtractTicketNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"resolved PMN-20240101-0001 just now", "PMN-20240101-0001"},
		{"see AB-12345678-1234.", "AB-12345678-1234"},
		{"prefix too long ABCD-12345678-1234", ""},
		{"PMN-2024-0001 is malformed", ""},
		{"no ticket here", ""},
	}
	for _, tt := range tests {
		if got := ExtractTicketNumber(tt.in); got != tt.want {
			t.Errorf("ExtractTicketNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
