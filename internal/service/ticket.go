package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pmn-helpdesk/backend/internal/client"
	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/state"
)

// ticketRepo - DB 인터페이스
type ticketRepo interface {
	InsertTicket(ctx context.Context, t model.Ticket) (string, error)
}

// channelNotifier - 지원팀 채널 알림 전송 인터페이스
type channelNotifier interface {
	SendText(ctx context.Context, chatID, text string) (string, error)
}

// userInfoFetcher - 사용자 프로필 조회 인터페이스 (실패해도 진행)
type userInfoFetcher interface {
	GetUserInfo(ctx context.Context, openID string) (*client.UserInfo, error)
}

const persistFailureReply = "Sorry, I couldn't save your ticket just now. Please try again in a few minutes, or email support@pmn.example.com directly and the team will pick it up."

// TicketService drives the three-step intake dialogue and persists the
// resulting ticket. Intake is strictly linear: title, description, steps.
type TicketService struct {
	repo           ticketRepo
	notifier       channelNotifier
	users          userInfoFetcher
	states         *state.Store[model.TicketCollectionState]
	supportChannel string
}

func NewTicketService(repo ticketRepo, notifier channelNotifier, users userInfoFetcher, states *state.Store[model.TicketCollectionState], supportChannel string) *TicketService {
	return &TicketService{
		repo:           repo,
		notifier:       notifier,
		users:          users,
		states:         states,
		supportChannel: supportChannel,
	}
}

// InProgress reports whether a ticket is being collected for the chat.
func (s *TicketService) InProgress(chatID string) bool {
	_, ok := s.states.Get(chatID)
	return ok
}

// Begin starts intake at the title step and returns the first prompt.
func (s *TicketService) Begin(chatID, senderID, category, originalMessage string) string {
	s.states.Set(chatID, model.TicketCollectionState{
		Step:            model.TicketStepTitle,
		Category:        category,
		OriginalMessage: originalMessage,
		SenderID:        senderID,
	})
	return "I'll open a support ticket for you. First, give me a short title for the issue (a few words is fine)."
}

// HandleIntakeMessage consumes one user reply while intake is in progress
// and returns the next prompt, or the final confirmation.
func (s *TicketService) HandleIntakeMessage(ctx context.Context, chatID, message string, conversation []model.ConversationTurn) string {
	st, ok := s.states.Get(chatID)
	if !ok {
		// Shouldn't happen; callers check InProgress first.
		return s.Begin(chatID, "", CategoryGeneral, message)
	}

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "I didn't catch that. Please type a short reply so I can fill in the ticket."
	}

	switch st.Step {
	case model.TicketStepTitle:
		st.Title = trimmed
		st.Step = model.TicketStepDescription
		s.states.Set(chatID, st)
		return "Got it. Now describe what happened, including what you expected to see."

	case model.TicketStepDescription:
		st.Description = trimmed
		st.Step = model.TicketStepSteps
		s.states.Set(chatID, st)
		return "Thanks. Last question: what have you already tried? (separate steps with commas, or say \"nothing\")"

	case model.TicketStepSteps:
		st.StepsAttempted = splitSteps(trimmed)
		return s.finalize(ctx, chatID, st, conversation)

	default:
		// Unknown step means corrupted state; reset to the start.
		log.Printf("[Ticket] Unknown intake step %q for chat %s, resetting", st.Step, chatID)
		s.states.Delete(chatID)
		return s.Begin(chatID, st.SenderID, st.Category, st.OriginalMessage)
	}
}

// finalize assembles and persists the ticket. The in-progress state is
// cleared whether or not persistence succeeds.
func (s *TicketService) finalize(ctx context.Context, chatID string, st model.TicketCollectionState, conversation []model.ConversationTurn) string {
	defer s.states.Delete(chatID)

	userName := ""
	if s.users != nil && st.SenderID != "" {
		if info, err := s.users.GetUserInfo(ctx, st.SenderID); err != nil {
			log.Printf("[Ticket] Failed to fetch user info for %s: %v", st.SenderID, err)
		} else if info != nil {
			userName = info.Name
		}
	}

	ticket := model.Ticket{
		UserID:              st.SenderID,
		ChatID:              chatID,
		UserName:            userName,
		IssueCategory:       st.Category,
		IssueTitle:          st.Title,
		IssueDescription:    st.Description,
		StepsAttempted:      st.StepsAttempted,
		BrowserInfo:         "Not specified",
		DeviceInfo:          "Not specified",
		UrgencyLevel:        model.UrgencyMedium,
		ConversationContext: marshalConversation(conversation),
	}

	ticketNumber, err := s.repo.InsertTicket(ctx, ticket)
	if err != nil {
		log.Printf("[Ticket] Failed to persist ticket for chat %s: %v", chatID, err)
		return persistFailureReply
	}

	s.notifySupportChannel(ctx, ticketNumber, ticket)

	return fmt.Sprintf("Done! Your ticket %s has been created and the support team has been notified. They'll reply here as soon as possible.", ticketNumber)
}

func (s *TicketService) notifySupportChannel(ctx context.Context, ticketNumber string, t model.Ticket) {
	if s.supportChannel == "" || s.notifier == nil {
		return
	}

	text := fmt.Sprintf("New support ticket %s\nCategory: %s\nTitle: %s\nDescription: %s\nSteps attempted: %s\nReported by: %s",
		ticketNumber, t.IssueCategory, t.IssueTitle, t.IssueDescription,
		strings.Join(t.StepsAttempted, "; "), displayName(t.UserName, t.UserID))

	if _, err := s.notifier.SendText(ctx, s.supportChannel, text); err != nil {
		log.Printf("[Ticket] Failed to notify support channel about %s: %v", ticketNumber, err)
	}
}

func splitSteps(text string) []string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "nothing" || lower == "none" || lower == "n/a" {
		return []string{}
	}

	var steps []string
	for _, part := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			steps = append(steps, trimmed)
		}
	}
	return steps
}

func marshalConversation(turns []model.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return ""
	}
	return string(raw)
}

func displayName(name, userID string) string {
	if name != "" {
		return name
	}
	if userID != "" {
		return userID
	}
	return "unknown user"
}
