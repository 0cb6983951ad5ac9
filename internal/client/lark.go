// 외부 Lark Open API와 통신하는 클라이언트 정의
//
// 환경변수:
//   - LARK_APP_ID / LARK_APP_SECRET: 봇 앱 자격증명
//   - LARK_BASE_URL: API 베이스 (default: https://open.larksuite.com)
//   - SUPPORT_CHANNEL_ID: 티켓 알림을 보낼 지원팀 채널 (oc_...)
//
// tenant_access_token은 만료 시각과 함께 캐싱한다. 만료 1분 전부터는
// 새로 발급받아 교체한다 (토큰 수명은 보통 2시간).

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pmn-helpdesk/backend/internal/config"
)

// LarkClient(플랫폼 메시지 전송/조회) 구조체 정의
type LarkClient struct {
	appID      string
	appSecret  string
	baseURL    string
	channelID  string
	httpClient *http.Client

	tokenMu     sync.Mutex
	tenantToken string
	tokenExpiry time.Time
}

type tenantTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

type sendMessageRequest struct {
	ReceiveID string `json:"receive_id"`
	MsgType   string `json:"msg_type"`
	Content   string `json:"content"`
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type sentMessageData struct {
	MessageID string `json:"message_id"`
}

// FetchedMessage - 스레드 부모 판별에 쓰이는 원본 메시지 조회 결과
type FetchedMessage struct {
	MessageID string
	RootID    string
	ParentID  string
	ChatID    string
	Content   string
	SenderID  string
}

// UserInfo - 사용자 프로필 조회 결과
type UserInfo struct {
	Name string
}

// LarkClient 객체 생성
func NewLarkClient(cfg config.LarkConfig) *LarkClient {
	return &LarkClient{
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		baseURL:   cfg.BaseURL,
		channelID: cfg.SupportChannelID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// 앱 자격증명이 모두 설정되어 있는지 체크
func (c *LarkClient) IsConfigured() bool {
	return c.appID != "" && c.appSecret != ""
}

func (c *LarkClient) SupportChannelID() string {
	return c.channelID
}

// SendText - 텍스트 메시지 전송, message_id 반환
func (c *LarkClient) SendText(ctx context.Context, chatID, text string) (string, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal text content: %w", err)
	}
	return c.sendMessage(ctx, chatID, "text", string(content))
}

// SendCard - 인터랙티브 카드 전송, message_id 반환
func (c *LarkClient) SendCard(ctx context.Context, chatID string, card map[string]any) (string, error) {
	content, err := json.Marshal(card)
	if err != nil {
		return "", fmt.Errorf("failed to marshal card content: %w", err)
	}
	return c.sendMessage(ctx, chatID, "interactive", string(content))
}

func (c *LarkClient) sendMessage(ctx context.Context, chatID, msgType, content string) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("lark app credentials not configured")
	}

	payload, err := json.Marshal(sendMessageRequest{
		ReceiveID: chatID,
		MsgType:   msgType,
		Content:   content,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := c.baseURL + "/open-apis/im/v1/messages?receive_id_type=chat_id"
	data, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}

	var sent sentMessageData
	if err := json.Unmarshal(data, &sent); err != nil {
		return "", fmt.Errorf("failed to parse send response: %w", err)
	}
	return sent.MessageID, nil
}

// GetMessage - message_id로 원본 메시지 조회 (스레드 부모 역추적용)
func (c *LarkClient) GetMessage(ctx context.Context, messageID string) (*FetchedMessage, error) {
	endpoint := c.baseURL + "/open-apis/im/v1/messages/" + url.PathEscape(messageID)
	data, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []struct {
			MessageID string `json:"message_id"`
			RootID    string `json:"root_id"`
			ParentID  string `json:"parent_id"`
			ChatID    string `json:"chat_id"`
			Body      struct {
				Content string `json:"content"`
			} `json:"body"`
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse message response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("message not found: %s", messageID)
	}

	item := resp.Items[0]
	return &FetchedMessage{
		MessageID: item.MessageID,
		RootID:    item.RootID,
		ParentID:  item.ParentID,
		ChatID:    item.ChatID,
		Content:   item.Body.Content,
		SenderID:  item.Sender.ID,
	}, nil
}

// GetUserInfo - open_id로 프로필 조회. 실패 시 nil 반환 (호출부가 이름 없이 진행)
func (c *LarkClient) GetUserInfo(ctx context.Context, openID string) (*UserInfo, error) {
	endpoint := c.baseURL + "/open-apis/contact/v3/users/" + url.PathEscape(openID) + "?user_id_type=open_id"
	data, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	return &UserInfo{Name: resp.User.Name}, nil
}

// Lark API 호출 공통 처리 (토큰 부착, 응답 code 확인)
func (c *LarkClient) do(ctx context.Context, method, endpoint string, payload []byte) (json.RawMessage, error) {
	token, err := c.getTenantToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewBuffer(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call lark API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if api.Code != 0 {
		return nil, fmt.Errorf("lark API error (code=%d): %s", api.Code, api.Msg)
	}
	return api.Data, nil
}

func (c *LarkClient) getTenantToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.tenantToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.tenantToken, nil
	}

	payload, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch tenant token: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tokenResp tenantTokenResponse
	if err := json.Unmarshal(raw, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.Code != 0 {
		return "", fmt.Errorf("lark token error (code=%d): %s", tokenResp.Code, tokenResp.Msg)
	}

	c.tenantToken = tokenResp.TenantAccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.Expire) * time.Second)
	return c.tenantToken, nil
}
