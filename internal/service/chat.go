package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pmn-helpdesk/backend/internal/model"
)

var ErrInvalidChatRequest = errors.New("invalid chat request")

// ChatService exposes the dialogue pipeline over a plain request/response
// API, for local testing and the embedded web widget. It shares all state
// with the webhook path, keyed by chat_id.
type ChatService struct {
	dialogue *DialogueService
}

func NewChatService(dialogue *DialogueService) *ChatService {
	return &ChatService{dialogue: dialogue}
}

func (s *ChatService) Chat(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	req.ChatID = strings.TrimSpace(req.ChatID)
	req.Message = strings.TrimSpace(req.Message)

	if req.ChatID == "" {
		return nil, fmt.Errorf("%w: chat_id is required", ErrInvalidChatRequest)
	}
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidChatRequest)
	}

	reply, err := s.dialogue.Respond(ctx, model.InboundMessage{
		ChatID:   req.ChatID,
		SenderID: req.UserID,
		Text:     req.Message,
	})
	if err != nil {
		return nil, err
	}

	answer := reply.Text
	if answer == "" {
		answer = "Sorry, I don't have an answer for that."
	}

	return &model.ChatResponse{
		Status: "success",
		Answer: answer,
		Source: reply.Source,
	}, nil
}
