package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/pmn-helpdesk/backend/internal/client"
	"github.com/pmn-helpdesk/backend/internal/config"
	"github.com/pmn-helpdesk/backend/internal/db"
	"github.com/pmn-helpdesk/backend/internal/handler"
	"github.com/pmn-helpdesk/backend/internal/model"
	"github.com/pmn-helpdesk/backend/internal/service"
	"github.com/pmn-helpdesk/backend/internal/state"
)

func main() {
	// .env가 없어도 환경변수만으로 기동 가능
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("[Main] Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	database := &db.Postgres{Pool: pool, TicketPrefix: cfg.Ticket.NumberPrefix}
	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("[Main] Failed to ensure schema: %v", err)
	}

	larkClient := client.NewLarkClient(cfg.Lark)
	if !larkClient.IsConfigured() {
		log.Printf("[Main] Lark credentials not configured, outbound messages will fail")
	}

	llmClient, err := client.NewLLMClient(cfg.LLM)
	if err != nil {
		log.Fatalf("[Main] Failed to init LLM client: %v", err)
	}

	authService, err := service.NewAuthService(database, cfg.Auth)
	if err != nil {
		log.Fatalf("[Main] Failed to init auth service: %v", err)
	}
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminLoginID, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("[Main] Failed to seed admin user: %v", err)
	}

	knowledgeService := service.NewKnowledgeService(database, cfg.Knowledge.FilePath)
	if err := knowledgeService.Reload(ctx); err != nil {
		log.Fatalf("[Main] Failed to load knowledge document: %v", err)
	}

	// 채팅별 상태 저장소: 대화 컨텍스트 10분, 메뉴 상태 5분, 티켓 수집 30분
	contexts := state.NewStore[[]model.ConversationTurn](10 * time.Minute)
	menus := state.NewStore[model.MenuState](5 * time.Minute)
	ticketStates := state.NewStore[model.TicketCollectionState](30 * time.Minute)
	dedupe := state.NewDedupe()
	responseCache := service.NewResponseCache(24 * time.Hour)

	ticketService := service.NewTicketService(database, larkClient, larkClient, ticketStates, cfg.Lark.SupportChannelID)
	dialogueService := service.NewDialogueService(llmClient, knowledgeService, responseCache, ticketService, contexts, menus)
	resolutionService := service.NewResolutionService(database, larkClient, llmClient, knowledgeService)
	processor := service.NewEventProcessor(resolutionService, dialogueService, larkClient)
	chatService := service.NewChatService(dialogueService)

	startSweeps(contexts, menus, ticketStates, responseCache, knowledgeService)

	webhookHandler := handler.NewWebhookHandler(processor, dedupe)
	chatHandler := handler.NewChatHandler(chatService)
	ticketHandler := handler.NewTicketHandler(database)
	knowledgeHandler := handler.NewKnowledgeHandler(database, knowledgeService)
	authHandler := handler.NewAuthHandler(authService)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(strings.Split(cfg.Server.AllowedOrigins, ",")))

	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.POST("/webhook/events", webhookHandler.HandleEvent)

	api := router.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/chat", chatHandler.Chat)

	protected := api.Group("")
	protected.Use(handler.AuthMiddleware(authService))
	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/tickets", ticketHandler.ListTickets)
	protected.GET("/tickets/:number", ticketHandler.GetTicket)
	protected.PATCH("/tickets/:number/resolve", ticketHandler.ResolveTicket)
	protected.GET("/knowledge", knowledgeHandler.ListEntries)
	protected.POST("/knowledge", knowledgeHandler.CreateEntry)
	protected.DELETE("/knowledge/:id", knowledgeHandler.DeactivateEntry)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("[Main] Server stopped: %v", err)
	}
}

// startSweeps - 주기 청소 작업 등록
func startSweeps(contexts *state.Store[[]model.ConversationTurn], menus *state.Store[model.MenuState], tickets *state.Store[model.TicketCollectionState], cache *service.ResponseCache, knowledge *service.KnowledgeService) {
	c := cron.New()

	c.AddFunc("@every 5m", func() {
		removed := contexts.Sweep() + menus.Sweep() + tickets.Sweep()
		if removed > 0 {
			log.Printf("[Sweep] Removed %d expired chat states", removed)
		}
	})

	c.AddFunc("@every 24h", func() {
		if removed := cache.Sweep(); removed > 0 {
			log.Printf("[Sweep] Removed %d expired cache entries", removed)
		}
	})

	// DB에 다른 경로로 들어온 지식 항목도 주기적으로 반영
	c.AddFunc("@every 30m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := knowledge.Reload(ctx); err != nil {
			log.Printf("[Sweep] Knowledge reload failed: %v", err)
		}
	})

	c.Start()
}
