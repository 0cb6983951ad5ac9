package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pmn-helpdesk/backend/internal/client"
	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/state"
)

type fakeTicketRepo struct {
	inserted []model.Ticket
	number   string
	err      error
}

func (f *fakeTicketRepo) InsertTicket(_ context.Context, t model.Ticket) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.inserted = append(f.inserted, t)
	return f.number, nil
}

type fakeNotifier struct {
	chatIDs []string
	texts   []string
}

func (f *fakeNotifier) SendText(_ context.Context, chatID, text string) (string, error) {
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return "msg-1", nil
}

type fakeUserInfo struct {
	name string
	err  error
}

func (f *fakeUserInfo) GetUserInfo(_ context.Context, _ string) (*client.UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &client.UserInfo{Name: f.name}, nil
}

func newTicketFixture(repo *fakeTicketRepo, notifier *fakeNotifier, users *fakeUserInfo) (*TicketService, *state.Store[model.TicketCollectionState]) {
	states := state.NewStore[model.TicketCollectionState](0)
	var fetcher userInfoFetcher
	if users != nil {
		fetcher = users
	}
	return NewTicketService(repo, notifier, fetcher, states, "support-chan"), states
}

func TestTicketIntakeFullFlow(t *testing.T) {
	repo := &fakeTicketRepo{number: "PMN-20260829-0001"}
	notifier := &fakeNotifier{}
	svc, _ := newTicketFixture(repo, notifier, &fakeUserInfo{name: "Jamie Park"})
	ctx := context.Background()

	prompt := svc.Begin("chat-1", "ou_sender", CategoryAuthentication, "login page won't load")
	if !strings.Contains(prompt, "title") {
		t.Fatalf("Begin prompt should ask for a title: %q", prompt)
	}
	if !svc.InProgress("chat-1") {
		t.Fatalf("intake not marked in progress after Begin")
	}

	reply := svc.HandleIntakeMessage(ctx, "chat-1", "Login page stuck", nil)
	if !strings.Contains(reply, "describe") {
		t.Fatalf("title step should advance to description: %q", reply)
	}

	reply = svc.HandleIntakeMessage(ctx, "chat-1", "Spinner never finishes after entering credentials", nil)
	if !strings.Contains(reply, "already tried") {
		t.Fatalf("description step should advance to steps: %q", reply)
	}

	reply = svc.HandleIntakeMessage(ctx, "chat-1", "cleared cache, tried another browser", nil)
	if !strings.Contains(reply, "PMN-20260829-0001") {
		t.Fatalf("final reply missing ticket number: %q", reply)
	}

	if svc.InProgress("chat-1") {
		t.Fatalf("intake state not cleared after finalize")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("InsertTicket called %d times, want 1", len(repo.inserted))
	}

	got := repo.inserted[0]
	if got.IssueTitle != "Login page stuck" ||
		got.IssueCategory != CategoryAuthentication ||
		got.UserName != "Jamie Park" ||
		got.UrgencyLevel != model.UrgencyMedium {
		t.Fatalf("unexpected ticket fields: %+v", got)
	}
	if !reflect.DeepEqual(got.StepsAttempted, []string{"cleared cache", "tried another browser"}) {
		t.Fatalf("StepsAttempted = %v", got.StepsAttempted)
	}

	if len(notifier.chatIDs) != 1 || notifier.chatIDs[0] != "support-chan" {
		t.Fatalf("support channel not notified: %v", notifier.chatIDs)
	}
	if !strings.Contains(notifier.texts[0], "PMN-20260829-0001") || !strings.Contains(notifier.texts[0], "Jamie Park") {
		t.Fatalf("notification text incomplete: %q", notifier.texts[0])
	}
}

func TestTicketIntakeEmptyReplyReprompts(t *testing.T) {
	svc, states := newTicketFixture(&fakeTicketRepo{number: "PMN-20260829-0002"}, &fakeNotifier{}, nil)

	svc.Begin("chat-1", "ou_sender", CategoryGeneral, "it broke")
	reply := svc.HandleIntakeMessage(context.Background(), "chat-1", "   ", nil)

	if !strings.Contains(reply, "didn't catch") {
		t.Fatalf("empty reply should re-prompt: %q", reply)
	}
	st, ok := states.Get("chat-1")
	if !ok || st.Step != model.TicketStepTitle {
		t.Fatalf("empty reply must not advance the step: %+v (%v)", st, ok)
	}
}

func TestTicketIntakePersistFailureClearsState(t *testing.T) {
	repo := &fakeTicketRepo{err: errors.New("connection refused")}
	notifier := &fakeNotifier{}
	svc, _ := newTicketFixture(repo, notifier, nil)
	ctx := context.Background()

	svc.Begin("chat-1", "ou_sender", CategoryClaims, "claim rejected")
	svc.HandleIntakeMessage(ctx, "chat-1", "Claim rejected", nil)
	svc.HandleIntakeMessage(ctx, "chat-1", "My August claim was rejected with no reason", nil)
	reply := svc.HandleIntakeMessage(ctx, "chat-1", "nothing", nil)

	if reply != persistFailureReply {
		t.Fatalf("persist failure reply = %q", reply)
	}
	if svc.InProgress("chat-1") {
		t.Fatalf("intake state must be cleared even when persistence fails")
	}
	if len(notifier.texts) != 0 {
		t.Fatalf("support channel must not be notified on persist failure")
	}
}

func TestTicketIntakeUserInfoFailureStillCreatesTicket(t *testing.T) {
	repo := &fakeTicketRepo{number: "PMN-20260829-0003"}
	svc, _ := newTicketFixture(repo, &fakeNotifier{}, &fakeUserInfo{err: errors.New("permission denied")})
	ctx := context.Background()

	svc.Begin("chat-1", "ou_sender", CategoryGeneral, "hmm")
	svc.HandleIntakeMessage(ctx, "chat-1", "title", nil)
	svc.HandleIntakeMessage(ctx, "chat-1", "description", nil)
	reply := svc.HandleIntakeMessage(ctx, "chat-1", "none", nil)

	if !strings.Contains(reply, "PMN-20260829-0003") {
		t.Fatalf("ticket should be created without user info: %q", reply)
	}
	if repo.inserted[0].UserName != "" {
		t.Fatalf("UserName should stay empty on lookup failure, got %q", repo.inserted[0].UserName)
	}
	if len(repo.inserted[0].StepsAttempted) != 0 {
		t.Fatalf("\"none\" should yield no steps, got %v", repo.inserted[0].StepsAttempted)
	}
}

func TestSplitSteps(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"nothing", []string{}},
		{"N/A", []string{}},
		{"cleared cache, restarted, , tried chrome", []string{"cleared cache", "restarted", "tried chrome"}},
		{"single step", []string{"single step"}},
	}
	for _, tt := range tests {
		if got := splitSteps(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitSteps(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
