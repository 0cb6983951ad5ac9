package model

type ChatRequest struct {
	ChatID  string `json:"chat_id"`
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type ChatResponse struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
	Source string `json:"source,omitempty"`
}
