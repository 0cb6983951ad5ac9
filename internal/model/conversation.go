package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one entry of a chat's rolling history. FAQCategory and
// TicketOffer are set by the orchestrator when the assistant shows FAQs or
// offers to open a ticket, so later turns can check those facts without
// scanning reply text for marker substrings.
type ConversationTurn struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	FAQCategory string `json:"faq_category,omitempty"`
	TicketOffer bool   `json:"ticket_offer,omitempty"`
}

// MenuStep - 메뉴 내비게이션 상태의 현재 단계
type MenuStep string

const (
	MenuAwaitingPageSelection MenuStep = "awaiting_page_selection"
	MenuAwaitingFAQSelection  MenuStep = "awaiting_faq_selection"
	MenuTextPageSelection     MenuStep = "text_page_selection"
	MenuTextFAQMode           MenuStep = "text_faq_mode"
)

// MenuState - 채팅별 메뉴 내비게이션 상태 (메뉴를 보여준 동안만 존재)
type MenuState struct {
	Step         MenuStep
	SelectedPage string
	CreatedAt    time.Time
}

// ChatMode - 채팅이 현재 어떤 모드인지 나타내는 명시적 태그
type ChatMode int

const (
	ModeIdle ChatMode = iota
	ModeTicketIntake
	ModeMenuSelection
)
