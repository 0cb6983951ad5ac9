package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pmn-helpdesk/backend/internal/client"
	"github.com/pmn-helpdesk/backend/internal/db"
	"github.com/pmn-helpdesk/backend/internal/model"
	tmpl "github.com/pmn-helpdesk/backend/internal/template"
)

// resolutionRepo - DB 인터페이스
type resolutionRepo interface {
	GetTicketByNumber(ctx context.Context, ticketNumber string) (*model.Ticket, error)
	GetRecentOpenTicket(ctx context.Context, chatID string, since time.Time) (*model.Ticket, error)
	ResolveTicket(ctx context.Context, ticketNumber, notes string) error
	InsertKnowledgeEntry(ctx context.Context, e model.KnowledgeEntry) (int64, error)
}

// messageFetcher - 스레드 부모 메시지 조회 인터페이스
type messageFetcher interface {
	GetMessage(ctx context.Context, messageID string) (*client.FetchedMessage, error)
}

// qaDistiller - 해결 답변을 Q&A로 증류하는 LLM 인터페이스
type qaDistiller interface {
	DistillQA(ctx context.Context, prompt, fallbackCategory, solutionText, issueTitle string) (*model.DistilledQA, error)
}

// knowledgeReloader - 새 항목 반영을 위한 재적재 인터페이스
type knowledgeReloader interface {
	Reload(ctx context.Context) error
}

const (
	recentTicketWindow = 7 * 24 * time.Hour
	threadParentDepth  = 3
)

// ResolutionService is the knowledge-base updater. It runs before the
// dialogue on every inbound message; when the message turns out to be a
// support-team solution for a ticket, it distills a Q&A entry, persists it,
// resolves the ticket and reports handled. Every failure is logged and
// reported as not-handled so the message falls through to the dialogue.
type ResolutionService struct {
	repo      resolutionRepo
	fetcher   messageFetcher
	distiller qaDistiller
	knowledge knowledgeReloader
}

func NewResolutionService(repo resolutionRepo, fetcher messageFetcher, distiller qaDistiller, knowledge knowledgeReloader) *ResolutionService {
	return &ResolutionService{
		repo:      repo,
		fetcher:   fetcher,
		distiller: distiller,
		knowledge: knowledge,
	}
}

// HandleSolutionReply returns (handled, confirmation text). handled=false
// means the caller should run the normal dialogue instead.
func (s *ResolutionService) HandleSolutionReply(ctx context.Context, in model.InboundMessage) (bool, string) {
	ticket, viaThread := s.findTicket(ctx, in)
	if ticket == nil {
		return false, ""
	}
	if ticket.Status != model.TicketStatusOpen {
		return false, ""
	}

	if !IsSupportSolution(in.Text, viaThread) {
		return false, ""
	}

	prompt, err := tmpl.RenderDistillPrompt(tmpl.DistillPromptData{
		Title:       ticket.IssueTitle,
		Description: ticket.IssueDescription,
		Solution:    in.Text,
	})
	if err != nil {
		log.Printf("[Resolution] Failed to render distill prompt: %v", err)
		return false, ""
	}

	qa, err := s.distiller.DistillQA(ctx, prompt, ticket.IssueCategory, in.Text, ticket.IssueTitle)
	if err != nil {
		log.Printf("[Resolution] Failed to distill Q&A for %s: %v", ticket.TicketNumber, err)
		return false, ""
	}

	source := ticket.TicketNumber
	if _, err := s.repo.InsertKnowledgeEntry(ctx, model.KnowledgeEntry{
		Question:     qa.Question,
		Answer:       qa.Answer,
		Category:     qa.Category,
		TicketSource: &source,
	}); err != nil {
		log.Printf("[Resolution] Failed to persist knowledge entry for %s: %v", ticket.TicketNumber, err)
		return false, ""
	}

	if err := s.repo.ResolveTicket(ctx, ticket.TicketNumber, in.Text); err != nil {
		log.Printf("[Resolution] Failed to mark %s resolved: %v", ticket.TicketNumber, err)
	}

	if err := s.knowledge.Reload(ctx); err != nil {
		log.Printf("[Resolution] Failed to reload knowledge document: %v", err)
	}

	confirmation := fmt.Sprintf("Thanks! Ticket %s is now marked resolved and the fix was added to the knowledge base.", ticket.TicketNumber)
	return true, confirmation
}

// findTicket correlates the message to a ticket: an explicit ticket number
// in the text or raw event, then the thread parent chain, then the most
// recent open ticket in this chat within the last 7 days.
func (s *ResolutionService) findTicket(ctx context.Context, in model.InboundMessage) (ticket *model.Ticket, viaThread bool) {
	if number := ExtractTicketNumber(in.Text); number != "" {
		if t := s.lookupTicket(ctx, number); t != nil {
			return t, false
		}
	}

	if number := ExtractTicketNumber(in.RawEvent); number != "" {
		if t := s.lookupTicket(ctx, number); t != nil {
			return t, false
		}
	}

	if t := s.ticketFromThread(ctx, in); t != nil {
		return t, true
	}

	// 스레드 밖 일반 답글: 최근 7일 내 이 채팅에서 열린 티켓으로 폴백
	if in.ParentID != "" || in.RootID != "" {
		t, err := s.repo.GetRecentOpenTicket(ctx, in.ChatID, time.Now().Add(-recentTicketWindow))
		if err != nil {
			if !errors.Is(err, db.ErrTicketNotFound) {
				log.Printf("[Resolution] Failed to load recent ticket for chat %s: %v", in.ChatID, err)
			}
			return nil, false
		}
		return t, true
	}

	return nil, false
}

// ticketFromThread walks up the parent chain looking for a ticket number in
// the original messages, bounded to a few hops.
func (s *ResolutionService) ticketFromThread(ctx context.Context, in model.InboundMessage) *model.Ticket {
	if s.fetcher == nil {
		return nil
	}

	parentID := in.ParentID
	if parentID == "" {
		parentID = in.RootID
	}

	for depth := 0; depth < threadParentDepth && parentID != ""; depth++ {
		parent, err := s.fetcher.GetMessage(ctx, parentID)
		if err != nil {
			log.Printf("[Resolution] Failed to fetch thread parent %s: %v", parentID, err)
			return nil
		}
		if number := ExtractTicketNumber(parent.Content); number != "" {
			return s.lookupTicket(ctx, number)
		}
		next := parent.ParentID
		if next == "" {
			next = parent.RootID
		}
		if next == parent.MessageID {
			break
		}
		parentID = next
	}
	return nil
}

func (s *ResolutionService) lookupTicket(ctx context.Context, number string) *model.Ticket {
	ticket, err := s.repo.GetTicketByNumber(ctx, number)
	if err != nil {
		if !errors.Is(err, db.ErrTicketNotFound) {
			log.Printf("[Resolution] Failed to load ticket %s: %v", number, err)
		}
		return nil
	}
	return ticket
}
