package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/state"
)

type fakeProcessor struct {
	messages chan model.InboundMessage
	cards    chan model.CardActionValue
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		messages: make(chan model.InboundMessage, 4),
		cards:    make(chan model.CardActionValue, 4),
	}
}

func (f *fakeProcessor) ProcessMessage(_ context.Context, in model.InboundMessage) {
	f.messages <- in
}

func (f *fakeProcessor) ProcessCardAction(_ context.Context, _, _ string, value model.CardActionValue) {
	f.cards <- value
}

func newWebhookRouter(processor *fakeProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWebhookHandler(processor, state.NewDedupe())
	r.POST("/webhook/events", h.HandleEvent)
	return r
}

func postEvent(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ackMsg(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var ack model.EventAckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("unmarshal ack: %v (%s)", err, w.Body.String())
	}
	return ack.Msg
}

const messageEventBody = `{
	"schema": "2.0",
	"header": {"event_id": "evt-100", "event_type": "im.message.receive_v1"},
	"event": {
		"sender": {"sender_id": {"open_id": "ou_abc"}, "sender_type": "user"},
		"message": {
			"message_id": "om_1",
			"chat_id": "oc_chat",
			"message_type": "text",
			"content": "{\"text\":\"hello there\"}"
		}
	}
}`

func TestHandleEventURLVerification(t *testing.T) {
	r := newWebhookRouter(newFakeProcessor())

	w := postEvent(t, r, `{"type":"url_verification","challenge":"abc123"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp model.ChallengeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Challenge != "abc123" {
		t.Fatalf("challenge = %q, want abc123", resp.Challenge)
	}
}

func TestHandleEventMessageDispatch(t *testing.T) {
	processor := newFakeProcessor()
	r := newWebhookRouter(processor)

	w := postEvent(t, r, messageEventBody)
	if w.Code != http.StatusOK || ackMsg(t, w) != "success" {
		t.Fatalf("ack = %d %q", w.Code, w.Body.String())
	}

	select {
	case in := <-processor.messages:
		if in.EventID != "evt-100" || in.ChatID != "oc_chat" || in.Text != "hello there" {
			t.Fatalf("unexpected inbound message: %+v", in)
		}
	case <-time.After(time.Second):
		t.Fatalf("message never dispatched to processor")
	}
}

func TestHandleEventDuplicateDelivery(t *testing.T) {
	processor := newFakeProcessor()
	r := newWebhookRouter(processor)

	postEvent(t, r, messageEventBody)
	<-processor.messages

	w := postEvent(t, r, messageEventBody)
	if ackMsg(t, w) != "duplicate" {
		t.Fatalf("second delivery ack = %q, want duplicate", w.Body.String())
	}

	select {
	case in := <-processor.messages:
		t.Fatalf("duplicate delivery reached the processor: %+v", in)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleEventSkipsBotMessages(t *testing.T) {
	processor := newFakeProcessor()
	r := newWebhookRouter(processor)

	body := strings.Replace(messageEventBody, `"sender_type": "user"`, `"sender_type": "app"`, 1)
	postEvent(t, r, body)

	select {
	case in := <-processor.messages:
		t.Fatalf("bot message reached the processor: %+v", in)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleEventCardActionV2(t *testing.T) {
	processor := newFakeProcessor()
	r := newWebhookRouter(processor)

	body := `{
		"schema": "2.0",
		"header": {"event_id": "evt-200", "event_type": "card.action.trigger"},
		"event": {
			"operator": {"open_id": "ou_abc"},
			"context": {"open_chat_id": "oc_chat"},
			"action": {"tag": "button", "value": {"action": "select_page", "page": "jobs"}}
		}
	}`
	w := postEvent(t, r, body)
	if ackMsg(t, w) != "success" {
		t.Fatalf("ack = %q", w.Body.String())
	}

	select {
	case value := <-processor.cards:
		if value.Action != "select_page" || value.Page != "jobs" {
			t.Fatalf("unexpected card value: %+v", value)
		}
	case <-time.After(time.Second):
		t.Fatalf("card action never dispatched")
	}
}

func TestHandleEventLegacyCardCallback(t *testing.T) {
	processor := newFakeProcessor()
	r := newWebhookRouter(processor)

	// Legacy callbacks double-encode the value as a JSON string.
	body := `{
		"open_message_id": "om_1",
		"open_chat_id": "oc_chat",
		"user_id": "ou_abc",
		"action": {"tag": "button", "value": "{\"action\":\"create_ticket\",\"category\":\"claims\"}"}
	}`
	w := postEvent(t, r, body)
	if ackMsg(t, w) != "success" {
		t.Fatalf("ack = %q", w.Body.String())
	}

	select {
	case value := <-processor.cards:
		if value.Action != "create_ticket" || value.Category != "claims" {
			t.Fatalf("unexpected card value: %+v", value)
		}
	case <-time.After(time.Second):
		t.Fatalf("legacy card callback never dispatched")
	}
}

func TestHandleEventUnparseableBody(t *testing.T) {
	r := newWebhookRouter(newFakeProcessor())

	w := postEvent(t, r, "this is not json")
	if w.Code != http.StatusOK || ackMsg(t, w) != "ignored" {
		t.Fatalf("unparseable body must still be acked: %d %q", w.Code, w.Body.String())
	}
}

func TestParseCardValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.CardActionValue
		ok   bool
	}{
		{"direct", `{"action":"select_faq","page":"jobs","faq":"How do I create a new job posting?"}`,
			model.CardActionValue{Action: "select_faq", Page: "jobs", FAQ: "How do I create a new job posting?"}, true},
		{"double-encoded", `"{\"action\":\"select_page\",\"page\":\"claims\"}"`,
			model.CardActionValue{Action: "select_page", Page: "claims"}, true},
		{"missing-action", `{"page":"jobs"}`, model.CardActionValue{}, false},
		{"empty", ``, model.CardActionValue{}, false},
		{"garbage", `42`, model.CardActionValue{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCardValue(json.RawMessage(tt.raw))
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parseCardValue(%s) = %+v (%v), want %+v (%v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}
