package model

import "encoding/json"

// EventEnvelope - 플랫폼 웹훅 이벤트를 모양으로 판별하기 위한 공용 구조체
//
// 하나의 엔드포인트로 네 가지 모양이 들어온다:
//   - URL 검증 챌린지: {"type":"url_verification","challenge":"..."}
//   - v2 이벤트: {"schema":"2.0","header":{...},"event":{...}}
//   - v2 카드 액션: header.event_type == "card.action.trigger"
//   - 레거시 카드 콜백: {"open_message_id":"...","open_chat_id":"...","action":{...}}
type EventEnvelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Token     string          `json:"token"`
	Schema    string          `json:"schema"`
	Header    *EventHeader    `json:"header"`
	Event     json.RawMessage `json:"event"`

	// 레거시 카드 콜백 필드
	OpenMessageID string      `json:"open_message_id"`
	OpenChatID    string      `json:"open_chat_id"`
	UserID        string      `json:"user_id"`
	Action        *CardAction `json:"action"`
}

type EventHeader struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	TenantKey  string `json:"tenant_key"`
}

// MessageReceiveEvent - im.message.receive_v1 이벤트 본문
type MessageReceiveEvent struct {
	Sender  EventSender  `json:"sender"`
	Message EventMessage `json:"message"`
}

type EventSender struct {
	SenderID   SenderID `json:"sender_id"`
	SenderType string   `json:"sender_type"`
}

type SenderID struct {
	OpenID  string `json:"open_id"`
	UserID  string `json:"user_id"`
	UnionID string `json:"union_id"`
}

type EventMessage struct {
	MessageID   string           `json:"message_id"`
	RootID      string           `json:"root_id"`
	ParentID    string           `json:"parent_id"`
	ChatID      string           `json:"chat_id"`
	ChatType    string           `json:"chat_type"`
	MessageType string           `json:"message_type"`
	Content     string           `json:"content"`
	Mentions    []MessageMention `json:"mentions"`
}

type MessageMention struct {
	Key  string   `json:"key"`
	ID   SenderID `json:"id"`
	Name string   `json:"name"`
}

// CardActionEvent - v2 card.action.trigger 이벤트 본문
type CardActionEvent struct {
	Operator struct {
		OpenID string `json:"open_id"`
		UserID string `json:"user_id"`
	} `json:"operator"`
	Context struct {
		OpenMessageID string `json:"open_message_id"`
		OpenChatID    string `json:"open_chat_id"`
	} `json:"context"`
	Action CardAction `json:"action"`
}

// CardAction - 버튼 클릭 값. Value는 {"action":"select_page","page":"dashboard"} 형태
type CardAction struct {
	Tag    string          `json:"tag"`
	Value  json.RawMessage `json:"value"`
	Option string          `json:"option"`
}

// CardActionValue - action.value 파싱 결과
type CardActionValue struct {
	Action   string `json:"action"`
	Page     string `json:"page"`
	FAQ      string `json:"faq"`
	Category string `json:"category"`
}

// InboundMessage - 모양 판별이 끝난 뒤 파이프라인에 넘기는 정규화된 메시지
type InboundMessage struct {
	EventID   string
	ChatID    string
	SenderID  string
	MessageID string
	ParentID  string
	RootID    string
	Text      string
	RawEvent  string
}

type ChallengeResponse struct {
	Challenge string `json:"challenge"`
}

type EventAckResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
