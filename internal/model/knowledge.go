package model

import "time"

// KnowledgeEntry - 정적 지식 문서를 보강하는 DB 저장 Q&A 항목
type KnowledgeEntry struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Category     string    `json:"category"`
	TicketSource *string   `json:"ticket_source,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`
}

type KnowledgeEntryRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	Category string `json:"category"`
}

type KnowledgeListResponse struct {
	Status string           `json:"status"`
	Data   []KnowledgeEntry `json:"data"`
}

type KnowledgeMutationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// DistilledQA - 해결 답변에서 LLM이 추출한 Q&A 쌍
type DistilledQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}
