package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmn-helpdesk/backend/internal/config"
	"github.com/pmn-helpdesk/backend/internal/model"
	"google.golang.org/genai"
)

type LLMClient struct {
	client *genai.Client
	model  string
}

func NewLLMClient(cfg config.LLMConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &LLMClient{client: client, model: cfg.Model}, nil
}

// ChatCompletion - 시스템 프롬프트 + 최근 대화 + 사용자 메시지로 답변 생성
func (c *LLMClient) ChatCompletion(ctx context.Context, systemPrompt string, history []model.ConversationTurn, userMessage string) (string, error) {
	var contents []*genai.Content
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty completion result")
	}
	return text, nil
}

// DistillQA - 티켓 설명과 해결 답변에서 지식 항목용 Q&A 쌍을 추출
//
// 모델이 JSON 외의 텍스트를 돌려줘도 요청 전체가 실패하지 않도록
// 코드펜스 제거 후 파싱하고, 파싱 실패 시 원문을 answer로 쓴다.
func (c *LLMClient) DistillQA(ctx context.Context, prompt, fallbackCategory, solutionText, issueTitle string) (*model.DistilledQA, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return nil, err
	}

	qa := parseDistillResponse(resp.Text())
	if qa.Question == "" {
		qa.Question = issueTitle
	}
	if qa.Answer == "" {
		qa.Answer = solutionText
	}
	if qa.Category == "" {
		qa.Category = fallbackCategory
	}
	if qa.Question == "" || qa.Answer == "" {
		return nil, fmt.Errorf("distilled QA is incomplete")
	}
	return &qa, nil
}

func parseDistillResponse(text string) model.DistilledQA {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// JSON 객체 바깥에 설명 문장이 붙는 경우가 있어 중괄호 범위만 잘라낸다
	if start := strings.Index(cleaned, "{"); start >= 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}

	var qa model.DistilledQA
	if err := json.Unmarshal([]byte(cleaned), &qa); err != nil {
		return model.DistilledQA{}
	}
	qa.Question = strings.TrimSpace(qa.Question)
	qa.Answer = strings.TrimSpace(qa.Answer)
	qa.Category = strings.TrimSpace(qa.Category)
	return qa
}
