package service

import (
	"context"
	"log"

	"github.com/pmn-helpdesk/backend/internal/model"
)

// replySender - 답장 전송 인터페이스
type replySender interface {
	SendText(ctx context.Context, chatID, text string) (string, error)
	SendCard(ctx context.Context, chatID string, card map[string]any) (string, error)
}

// EventProcessor runs the two consumers of every inbound message in order:
// the resolution pipeline first (which can short-circuit), then the dialogue.
// It owns sending the decided reply back to the chat.
type EventProcessor struct {
	resolution *ResolutionService
	dialogue   *DialogueService
	sender     replySender
}

func NewEventProcessor(resolution *ResolutionService, dialogue *DialogueService, sender replySender) *EventProcessor {
	return &EventProcessor{
		resolution: resolution,
		dialogue:   dialogue,
		sender:     sender,
	}
}

// ProcessMessage handles one deduplicated inbound message end to end.
func (p *EventProcessor) ProcessMessage(ctx context.Context, in model.InboundMessage) {
	if in.Text == "" {
		return
	}

	if handled, confirmation := p.resolution.HandleSolutionReply(ctx, in); handled {
		p.send(ctx, in.ChatID, Reply{Text: confirmation, Source: "resolution"})
		return
	}

	reply, err := p.dialogue.Respond(ctx, in)
	if err != nil {
		log.Printf("[Processor] Dialogue failed for chat %s: %v", in.ChatID, err)
		return
	}
	p.send(ctx, in.ChatID, reply)
}

// ProcessCardAction handles one deduplicated card button click.
func (p *EventProcessor) ProcessCardAction(ctx context.Context, chatID, senderID string, value model.CardActionValue) {
	reply, err := p.dialogue.HandleCardAction(ctx, chatID, senderID, value)
	if err != nil {
		log.Printf("[Processor] Card action failed for chat %s: %v", chatID, err)
		return
	}
	p.send(ctx, chatID, reply)
}

func (p *EventProcessor) send(ctx context.Context, chatID string, reply Reply) {
	if reply.Empty() || chatID == "" {
		return
	}

	if reply.Card != nil {
		_, err := p.sender.SendCard(ctx, chatID, reply.Card)
		if err == nil {
			return
		}
		log.Printf("[Processor] Card send failed for chat %s, falling back to text: %v", chatID, err)
	}
	if reply.Text == "" {
		return
	}
	if _, err := p.sender.SendText(ctx, chatID, reply.Text); err != nil {
		log.Printf("[Processor] Text send failed for chat %s: %v", chatID, err)
	}
}
