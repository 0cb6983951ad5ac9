package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusResolved TicketStatus = "resolved"
)

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// Ticket - tickets 테이블에 저장되는 지원 티켓
type Ticket struct {
	ID                  int64        `json:"id"`
	TicketNumber        string       `json:"ticket_number"`
	UserID              string       `json:"user_id"`
	ChatID              string       `json:"chat_id"`
	UserName            string       `json:"user_name"`
	IssueCategory       string       `json:"issue_category"`
	IssueTitle          string       `json:"issue_title"`
	IssueDescription    string       `json:"issue_description"`
	StepsAttempted      []string     `json:"steps_attempted"`
	BrowserInfo         string       `json:"browser_info"`
	DeviceInfo          string       `json:"device_info"`
	UrgencyLevel        UrgencyLevel `json:"urgency_level"`
	Status              TicketStatus `json:"status"`
	ConversationContext string       `json:"conversation_context,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	ResolvedAt          *time.Time   `json:"resolved_at,omitempty"`
	ResolutionNotes     *string      `json:"resolution_notes,omitempty"`
}

// TicketStep - 티켓 수집 대화의 현재 단계
type TicketStep string

const (
	TicketStepTitle       TicketStep = "title"
	TicketStepDescription TicketStep = "description"
	TicketStepSteps       TicketStep = "steps"
)

// TicketCollectionState - 채팅별 티켓 수집 진행 상태 (수집 중에만 존재)
type TicketCollectionState struct {
	Step            TicketStep
	Category        string
	OriginalMessage string
	SenderID        string
	Title           string
	Description     string
	StepsAttempted  []string
}

type TicketListResponse struct {
	Status string   `json:"status"`
	Data   []Ticket `json:"data"`
}

type TicketDetailResponse struct {
	Status string  `json:"status"`
	Data   *Ticket `json:"data"`
}

type ResolveTicketRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

type TicketMutationResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TicketNumber string `json:"ticket_number,omitempty"`
}
