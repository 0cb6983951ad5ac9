package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/state"
	tmpl "github.com/pmn-helpdesk/backend/internal/template"
)

// completionClient - LLM 인터페이스
type completionClient interface {
	ChatCompletion(ctx context.Context, systemPrompt string, history []model.ConversationTurn, userMessage string) (string, error)
}

// knowledgeBase - 지식 문서 인터페이스
type knowledgeBase interface {
	Document() string
	Lookup(question string, terms []string) (string, bool)
	FallbackForCategory(category string) string
	FallbackForPage(page string) string
}

// Reply is what the dialogue decided to answer. Text and Card are both
// optional; Source names which branch produced the answer.
type Reply struct {
	Text   string
	Card   map[string]any
	Source string
}

func (r Reply) Empty() bool {
	return r.Text == "" && r.Card == nil
}

const (
	maxContextTurns = 20
	llmHistoryTurns = 6
)

const llmFailureReply = "Sorry, I'm having trouble answering right now. Please try again in a moment, or say \"create ticket\" and I'll get the support team involved."

// DialogueService decides, per inbound message, whether to continue ticket
// intake, interpret a menu selection, start a ticket, greet with the page
// menu, escalate, serve a cached or knowledge answer, or fall through to
// the LLM. Ticket intake and menu navigation are sticky: they capture all
// input for the chat until finished.
type DialogueService struct {
	llm       completionClient
	knowledge knowledgeBase
	cache     *ResponseCache
	tickets   *TicketService
	contexts  *state.Store[[]model.ConversationTurn]
	menus     *state.Store[model.MenuState]
}

func NewDialogueService(llm completionClient, knowledge knowledgeBase, cache *ResponseCache, tickets *TicketService, contexts *state.Store[[]model.ConversationTurn], menus *state.Store[model.MenuState]) *DialogueService {
	return &DialogueService{
		llm:       llm,
		knowledge: knowledge,
		cache:     cache,
		tickets:   tickets,
		contexts:  contexts,
		menus:     menus,
	}
}

// Mode derives the chat's current mode from the state stores.
func (s *DialogueService) Mode(chatID string) model.ChatMode {
	if s.tickets.InProgress(chatID) {
		return model.ModeTicketIntake
	}
	if _, ok := s.menus.Get(chatID); ok {
		return model.ModeMenuSelection
	}
	return model.ModeIdle
}

// Respond runs the precedence chain for one inbound message.
func (s *DialogueService) Respond(ctx context.Context, in model.InboundMessage) (Reply, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Reply{}, nil
	}

	conv, _ := s.contexts.Get(in.ChatID)

	// 1. Active ticket intake captures everything, regardless of content.
	if s.tickets.InProgress(in.ChatID) {
		reply := s.tickets.HandleIntakeMessage(ctx, in.ChatID, text, conv)
		s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: reply})
		return Reply{Text: reply, Source: "ticket_flow"}, nil
	}

	// 2. Active menu navigation interprets the message as a selection.
	if menu, ok := s.menus.Get(in.ChatID); ok {
		return s.handleMenuText(ctx, in, menu, conv, text)
	}

	return s.respondIdle(ctx, in, conv, text, "")
}

// respondIdle is the chain from step 3 down; menu fall-through re-enters
// here with the previously selected page as LLM context.
func (s *DialogueService) respondIdle(ctx context.Context, in model.InboundMessage, conv []model.ConversationTurn, text, pageContext string) (Reply, error) {
	// 3. Short affirmative after a ticket offer starts intake at the title step.
	if CheckTicketConfirmation(conv, text) {
		category := CategorizeIssue(text, conv)
		prompt := s.tickets.Begin(in.ChatID, in.SenderID, category, lastUserMessage(conv))
		s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: prompt})
		return Reply{Text: prompt, Source: "ticket_flow"}, nil
	}

	// 4. Greeting on a fresh conversation, or an explicit restart, shows the
	// page menu without touching the LLM.
	if IsGreeting(text) && (len(conv) == 0 || IsRestartRequest(text)) {
		s.menus.Set(in.ChatID, model.MenuState{Step: model.MenuAwaitingPageSelection})
		reply := Reply{
			Text:   pageMenuText(),
			Card:   buildPageMenuCard(),
			Source: "greeting",
		}
		s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: reply.Text})
		return reply, nil
	}

	// 5. Content-triggered escalation, gated on one FAQ showing per category.
	if ShouldEscalateToTicket(text) {
		category := CategorizeIssue(text, conv)
		if IsDirectEscalation(text) || faqShownFor(conv, category) {
			prompt := s.tickets.Begin(in.ChatID, in.SenderID, category, text)
			s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: prompt})
			return Reply{Text: prompt, Source: "ticket_flow"}, nil
		}

		faq := FAQTextForCategory(category) + "\n\nIf none of these help, I can open a support ticket for you - just say yes."
		s.appendExchange(in.ChatID, text, model.ConversationTurn{
			Role:        model.RoleAssistant,
			Content:     faq,
			FAQCategory: category,
			TicketOffer: true,
		})
		return Reply{Text: faq, Source: "faq"}, nil
	}

	// 6. Cached answer for the allowlisted question shapes.
	if cached, ok := s.cache.Get(text); ok {
		s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: cached})
		return Reply{Text: cached, Source: "cache"}, nil
	}

	// 7. LLM completion grounded on the knowledge document.
	answer, err := s.completeWithLLM(ctx, conv, text, pageContext)
	if err != nil {
		log.Printf("[Dialogue] LLM completion failed for chat %s: %v", in.ChatID, err)
		if section, ok := s.knowledge.Lookup(text, nil); ok {
			answer = section
		} else {
			answer = llmFailureReply
		}
		s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: answer})
		return Reply{Text: answer, Source: "knowledge"}, nil
	}

	s.cache.Set(text, answer)
	s.appendExchange(in.ChatID, text, model.ConversationTurn{Role: model.RoleAssistant, Content: answer})
	return Reply{Text: answer, Source: "llm"}, nil
}

func (s *DialogueService) completeWithLLM(ctx context.Context, conv []model.ConversationTurn, text, pageContext string) (string, error) {
	system, err := tmpl.RenderSupportPrompt(tmpl.SupportPromptData{
		Knowledge: s.knowledge.Document(),
		Page:      pageContext,
	})
	if err != nil {
		return "", err
	}

	history := conv
	if len(history) > llmHistoryTurns {
		history = history[len(history)-llmHistoryTurns:]
	}
	return s.llm.ChatCompletion(ctx, system, history, text)
}

// handleMenuText interprets a reply while a menu is showing: a typed number,
// a page name, "back"/"menu", or anything else (which clears the state and
// re-enters the normal chain with the page as context).
func (s *DialogueService) handleMenuText(ctx context.Context, in model.InboundMessage, menu model.MenuState, conv []model.ConversationTurn, text string) (Reply, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	if lower == "back" || lower == "menu" {
		s.menus.Set(in.ChatID, model.MenuState{Step: model.MenuAwaitingPageSelection})
		return Reply{Text: pageMenuText(), Card: buildPageMenuCard(), Source: "menu"}, nil
	}

	switch menu.Step {
	case model.MenuAwaitingPageSelection, model.MenuTextPageSelection:
		if page, ok := menuPageSelection(lower); ok {
			return s.showFAQMenu(in.ChatID, page), nil
		}

	case model.MenuAwaitingFAQSelection, model.MenuTextFAQMode:
		faqs := pageFAQs[menu.SelectedPage]
		if n, err := strconv.Atoi(lower); err == nil && n >= 1 && n <= len(faqs) {
			s.menus.Delete(in.ChatID)
			return s.answerFAQ(in.ChatID, menu.SelectedPage, faqs[n-1], text), nil
		}
	}

	// Not a selection: treat as a free-form question with page context.
	s.menus.Delete(in.ChatID)
	return s.respondIdle(ctx, in, conv, text, menu.SelectedPage)
}

// showFAQMenu transitions the chat to FAQ selection for a page.
func (s *DialogueService) showFAQMenu(chatID, page string) Reply {
	s.menus.Set(chatID, model.MenuState{Step: model.MenuAwaitingFAQSelection, SelectedPage: page})
	return Reply{
		Text:   faqMenuText(page),
		Card:   buildFAQMenuCard(page),
		Source: "menu",
	}
}

func (s *DialogueService) answerFAQ(chatID, page, question, userText string) Reply {
	answer, ok := s.knowledge.Lookup(question, significantWords(page+" "+question))
	if !ok {
		answer = s.knowledge.FallbackForPage(page)
	}
	s.appendExchange(chatID, userText, model.ConversationTurn{Role: model.RoleAssistant, Content: answer})
	return Reply{Text: answer, Source: "menu_faq"}
}

// HandleCardAction handles a button click from an interactive card.
func (s *DialogueService) HandleCardAction(ctx context.Context, chatID, senderID string, value model.CardActionValue) (Reply, error) {
	switch value.Action {
	case "select_page":
		if _, ok := pageFAQs[value.Page]; !ok {
			return Reply{}, fmt.Errorf("unknown page %q", value.Page)
		}
		return s.showFAQMenu(chatID, value.Page), nil

	case "select_faq":
		s.menus.Delete(chatID)
		page := value.Page
		question := value.FAQ
		if question == "" {
			return Reply{}, fmt.Errorf("card action missing faq value")
		}
		return s.answerFAQ(chatID, page, question, question), nil

	case "create_ticket":
		conv, _ := s.contexts.Get(chatID)
		category := value.Category
		if category == "" {
			category = CategorizeIssue("", conv)
		}
		prompt := s.tickets.Begin(chatID, senderID, category, lastUserMessage(conv))
		s.contexts.Update(chatID, func(turns []model.ConversationTurn, _ bool) []model.ConversationTurn {
			return trimTurns(append(turns, model.ConversationTurn{Role: model.RoleAssistant, Content: prompt}))
		})
		return Reply{Text: prompt, Source: "ticket_flow"}, nil

	default:
		return Reply{}, nil
	}
}

// appendExchange records both sides of the exchange, trimmed to the cap.
func (s *DialogueService) appendExchange(chatID, userText string, assistant model.ConversationTurn) {
	s.contexts.Update(chatID, func(turns []model.ConversationTurn, _ bool) []model.ConversationTurn {
		turns = append(turns, model.ConversationTurn{Role: model.RoleUser, Content: userText}, assistant)
		return trimTurns(turns)
	})
}

func trimTurns(turns []model.ConversationTurn) []model.ConversationTurn {
	if len(turns) > maxContextTurns {
		turns = turns[len(turns)-maxContextTurns:]
	}
	return turns
}

func faqShownFor(conv []model.ConversationTurn, category string) bool {
	for _, turn := range conv {
		if turn.FAQCategory == category {
			return true
		}
	}
	return false
}

func lastUserMessage(conv []model.ConversationTurn) string {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == model.RoleUser {
			return conv[i].Content
		}
	}
	return ""
}

// menuPageSelection resolves a typed selection: a 1-based number into
// MenuPages, or a page name.
func menuPageSelection(input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(MenuPages) {
			return MenuPages[n-1], true
		}
		return "", false
	}
	for _, page := range MenuPages {
		if input == page {
			return page, true
		}
	}
	return "", false
}
