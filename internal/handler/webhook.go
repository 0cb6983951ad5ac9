package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/service"
	"github.com/pmn-helpdesk/backend/internal/state"
)

// eventProcessor - 서비스 인터페이스
type eventProcessor interface {
	ProcessMessage(ctx context.Context, in model.InboundMessage)
	ProcessCardAction(ctx context.Context, chatID, senderID string, value model.CardActionValue)
}

const processTimeout = 90 * time.Second

// WebhookHandler - 플랫폼 이벤트 웹훅 핸들러
//
// 플랫폼이 웹훅을 타임아웃시키지 않도록 모든 이벤트는 즉시 ack하고
// 느린 작업(LLM, DB, 메시지 전송)은 비동기로 처리한다.
type WebhookHandler struct {
	processor eventProcessor
	dedupe    *state.Dedupe
}

func NewWebhookHandler(processor eventProcessor, dedupe *state.Dedupe) *WebhookHandler {
	return &WebhookHandler{processor: processor, dedupe: dedupe}
}

// HandleEvent godoc
// @Summary Chat platform event webhook
// @Description Accepts URL verification challenges, message events and card actions.
// @Tags webhook
// @Accept json
// @Produce json
// @Param request body model.EventEnvelope true "Event envelope"
// @Success 200 {object} model.EventAckResponse
// @Router /webhook/events [post]
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	var envelope model.EventEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		// 파싱 불가 본문도 성공으로 ack해서 플랫폼 재시도를 막는다
		log.Printf("[Webhook] Unparseable event body: %v", err)
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "ignored"})
		return
	}

	// URL 검증 챌린지
	if envelope.Type == "url_verification" {
		c.JSON(http.StatusOK, model.ChallengeResponse{Challenge: envelope.Challenge})
		return
	}

	switch {
	case envelope.Header != nil && envelope.Header.EventType == "im.message.receive_v1":
		h.handleMessageEvent(c, envelope)
	case envelope.Header != nil && envelope.Header.EventType == "card.action.trigger":
		h.handleCardActionV2(c, envelope)
	case envelope.OpenMessageID != "" && envelope.Action != nil:
		h.handleLegacyCardCallback(c, envelope)
	default:
		// 모르는 모양은 조용히 성공 처리
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "success"})
	}
}

func (h *WebhookHandler) handleMessageEvent(c *gin.Context, envelope model.EventEnvelope) {
	eventID := envelope.Header.EventID
	if h.dedupe.Seen(eventID) {
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "duplicate"})
		return
	}

	var event model.MessageReceiveEvent
	if err := json.Unmarshal(envelope.Event, &event); err != nil {
		log.Printf("[Webhook] Unparseable message event %s: %v", eventID, err)
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "ignored"})
		return
	}

	// 봇 자신의 메시지는 무시
	if event.Sender.SenderType == "app" {
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "success"})
		return
	}

	in := model.InboundMessage{
		EventID:   eventID,
		ChatID:    event.Message.ChatID,
		SenderID:  event.Sender.SenderID.OpenID,
		MessageID: event.Message.MessageID,
		ParentID:  event.Message.ParentID,
		RootID:    event.Message.RootID,
		Text:      service.ExtractText(event.Message.Content),
		RawEvent:  string(envelope.Event),
	}

	c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "success"})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		h.processor.ProcessMessage(ctx, in)
	}()
}

func (h *WebhookHandler) handleCardActionV2(c *gin.Context, envelope model.EventEnvelope) {
	eventID := envelope.Header.EventID
	if h.dedupe.Seen(eventID) {
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "duplicate"})
		return
	}

	var event model.CardActionEvent
	if err := json.Unmarshal(envelope.Event, &event); err != nil {
		log.Printf("[Webhook] Unparseable card action event %s: %v", eventID, err)
		c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "ignored"})
		return
	}

	value, ok := parseCardValue(event.Action.Value)
	chatID := event.Context.OpenChatID
	senderID := event.Operator.OpenID

	c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "success"})
	if !ok || chatID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		h.processor.ProcessCardAction(ctx, chatID, senderID, value)
	}()
}

// handleLegacyCardCallback - 이벤트 ID가 없는 구형 카드 콜백.
// 디듀프 키가 비지 않도록 합성 ID를 만들어 로그와 추적에 쓴다.
func (h *WebhookHandler) handleLegacyCardCallback(c *gin.Context, envelope model.EventEnvelope) {
	syntheticID := uuid.NewString()
	h.dedupe.Seen(syntheticID)

	value, ok := parseCardValue(envelope.Action.Value)
	chatID := envelope.OpenChatID
	senderID := envelope.UserID

	c.JSON(http.StatusOK, model.EventAckResponse{Code: 0, Msg: "success"})
	if !ok || chatID == "" {
		return
	}

	log.Printf("[Webhook] Legacy card callback %s (chat=%s action=%s)", syntheticID, chatID, value.Action)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		h.processor.ProcessCardAction(ctx, chatID, senderID, value)
	}()
}

func parseCardValue(raw json.RawMessage) (model.CardActionValue, bool) {
	if len(raw) == 0 {
		return model.CardActionValue{}, false
	}

	var value model.CardActionValue
	if err := json.Unmarshal(raw, &value); err == nil && value.Action != "" {
		return value, true
	}

	// 일부 클라이언트는 value를 JSON 문자열로 한 번 더 감싼다
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &value); err == nil && value.Action != "" {
			return value, true
		}
	}
	return model.CardActionValue{}, false
}
