package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pmn-helpdesk/backend/internal/client"
	"github.com/pmn-helpdesk/backend/internal/db"
	"github.com/pmn-helpdesk/backend/internal/model"
)

type fakeResolutionRepo struct {
	tickets    map[string]*model.Ticket
	recent     *model.Ticket
	entries    []model.KnowledgeEntry
	resolved   []string
	insertErr  error
	resolveErr error
}

func (f *fakeResolutionRepo) GetTicketByNumber(_ context.Context, number string) (*model.Ticket, error) {
	if t, ok := f.tickets[number]; ok {
		return t, nil
	}
	return nil, db.ErrTicketNotFound
}

func (f *fakeResolutionRepo) GetRecentOpenTicket(_ context.Context, _ string, _ time.Time) (*model.Ticket, error) {
	if f.recent == nil {
		return nil, db.ErrTicketNotFound
	}
	return f.recent, nil
}

func (f *fakeResolutionRepo) ResolveTicket(_ context.Context, number, _ string) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	f.resolved = append(f.resolved, number)
	return nil
}

func (f *fakeResolutionRepo) InsertKnowledgeEntry(_ context.Context, e model.KnowledgeEntry) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

type fakeFetcher struct {
	messages map[string]*client.FetchedMessage
}

func (f *fakeFetcher) GetMessage(_ context.Context, id string) (*client.FetchedMessage, error) {
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, errors.New("message not found")
}

type fakeDistiller struct {
	qa  *model.DistilledQA
	err error
}

func (f *fakeDistiller) DistillQA(_ context.Context, _, _, _, _ string) (*model.DistilledQA, error) {
	return f.qa, f.err
}

type fakeReloader struct {
	calls int
}

func (f *fakeReloader) Reload(_ context.Context) error {
	f.calls++
	return nil
}

func openTicket(number string) *model.Ticket {
	return &model.Ticket{
		TicketNumber:     number,
		Status:           model.TicketStatusOpen,
		IssueCategory:    CategoryAuthentication,
		IssueTitle:       "Login page stuck",
		IssueDescription: "Spinner never finishes",
	}
}

func TestHandleSolutionReplyByTicketNumber(t *testing.T) {
	repo := &fakeResolutionRepo{tickets: map[string]*model.Ticket{
		"PMN-20260820-0001": openTicket("PMN-20260820-0001"),
	}}
	distiller := &fakeDistiller{qa: &model.DistilledQA{
		Question: "Why does the login page hang?",
		Answer:   "Clear the session cookie and retry.",
		Category: CategoryAuthentication,
	}}
	reloader := &fakeReloader{}
	svc := NewResolutionService(repo, &fakeFetcher{}, distiller, reloader)

	handled, reply := svc.HandleSolutionReply(context.Background(), model.InboundMessage{
		ChatID: "chat-1",
		Text:   "Fix: clear the session cookie. Closing PMN-20260820-0001.",
	})

	if !handled {
		t.Fatalf("solution with explicit ticket number should be handled")
	}
	if !strings.Contains(reply, "PMN-20260820-0001") {
		t.Fatalf("confirmation missing ticket number: %q", reply)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("knowledge entry not persisted")
	}
	entry := repo.entries[0]
	if entry.Question != "Why does the login page hang?" || entry.TicketSource == nil || *entry.TicketSource != "PMN-20260820-0001" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if len(repo.resolved) != 1 || repo.resolved[0] != "PMN-20260820-0001" {
		t.Fatalf("ticket not resolved: %v", repo.resolved)
	}
	if reloader.calls != 1 {
		t.Fatalf("knowledge document not reloaded")
	}
}

func TestHandleSolutionReplyViaThreadParent(t *testing.T) {
	repo := &fakeResolutionRepo{tickets: map[string]*model.Ticket{
		"PMN-20260820-0002": openTicket("PMN-20260820-0002"),
	}}
	fetcher := &fakeFetcher{messages: map[string]*client.FetchedMessage{
		"msg-parent": {
			MessageID: "msg-parent",
			Content:   `{"text":"New support ticket PMN-20260820-0002"}`,
		},
	}}
	distiller := &fakeDistiller{qa: &model.DistilledQA{Question: "q", Answer: "a", Category: CategoryGeneral}}
	svc := NewResolutionService(repo, fetcher, distiller, &fakeReloader{})

	// Thread replies only need to be long enough, no solution keyword.
	handled, _ := svc.HandleSolutionReply(context.Background(), model.InboundMessage{
		ChatID:   "chat-1",
		ParentID: "msg-parent",
		Text:     "Clear your session cookie and log in again.",
	})

	if !handled {
		t.Fatalf("thread reply above an open ticket should be handled")
	}
	if len(repo.resolved) != 1 {
		t.Fatalf("ticket not resolved via thread correlation")
	}
}

func TestHandleSolutionReplyIgnoresOrdinaryMessages(t *testing.T) {
	repo := &fakeResolutionRepo{}
	svc := NewResolutionService(repo, &fakeFetcher{}, &fakeDistiller{}, &fakeReloader{})

	handled, reply := svc.HandleSolutionReply(context.Background(), model.InboundMessage{
		ChatID: "chat-1",
		Text:   "my dashboard is empty",
	})

	if handled || reply != "" {
		t.Fatalf("ordinary message must pass through, got handled=%v reply=%q", handled, reply)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("no knowledge entry expected")
	}
}

func TestHandleSolutionReplySkipsResolvedTickets(t *testing.T) {
	done := openTicket("PMN-20260820-0003")
	done.Status = model.TicketStatusResolved
	repo := &fakeResolutionRepo{tickets: map[string]*model.Ticket{"PMN-20260820-0003": done}}
	svc := NewResolutionService(repo, &fakeFetcher{}, &fakeDistiller{}, &fakeReloader{})

	handled, _ := svc.HandleSolutionReply(context.Background(), model.InboundMessage{
		ChatID: "chat-1",
		Text:   "Fix: already done, see PMN-20260820-0003",
	})

	if handled {
		t.Fatalf("already-resolved ticket must not be handled again")
	}
}

func TestHandleSolutionReplyDistillFailurePassesThrough(t *testing.T) {
	repo := &fakeResolutionRepo{tickets: map[string]*model.Ticket{
		"PMN-20260820-0004": openTicket("PMN-20260820-0004"),
	}}
	svc := NewResolutionService(repo, &fakeFetcher{},
		&fakeDistiller{err: errors.New("model unavailable")}, &fakeReloader{})

	handled, reply := svc.HandleSolutionReply(context.Background(), model.InboundMessage{
		ChatID: "chat-1",
		Text:   "Fix: restart the sync worker, closes PMN-20260820-0004",
	})

	if handled || reply != "" {
		t.Fatalf("distill failure must pass through silently, got handled=%v reply=%q", handled, reply)
	}
	if len(repo.resolved) != 0 {
		t.Fatalf("ticket must stay open when distillation fails")
	}
}

func TestHandleSolutionReplyRecentTicketFallback(t *testing.T) {
	repo := &fakeResolutionRepo{recent: openTicket("PMN-20260825-0001")}
	distiller := &fakeDistiller{qa: &model.DistilledQA{Question: "q", Answer: "a", Category: CategoryGeneral}}
	svc := NewResolutionService(repo, &fakeFetcher{}, distiller, &fakeReloader{})

	// Reply in a thread whose parents carry no ticket number.
	handled, _ := svc.HandleSolutionReply(context.Background(), model.InboundMessage{
		ChatID: "chat-1",
		RootID: "msg-unknown",
		Text:   "Restart the browser and it works again.",
	})

	if !handled {
		t.Fatalf("recent open ticket fallback should apply to thread replies")
	}
	if len(repo.resolved) != 1 || repo.resolved[0] != "PMN-20260825-0001" {
		t.Fatalf("recent ticket not resolved: %v", repo.resolved)
	}
}
