package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pmn-helpdesk/backend/internal/model"
)

var ErrTicketNotFound = errors.New("ticket not found")

const ticketColumns = `
	id, ticket_number, user_id, chat_id, user_name, issue_category,
	issue_title, issue_description, steps_attempted, browser_info, device_info,
	urgency_level, status, conversation_context, created_at, resolved_at, resolution_notes`

// InsertTicket - 티켓을 저장하고 할당된 티켓 번호를 반환
//
// 티켓 번호는 영속 계층이 할당한다: PREFIX-YYYYMMDD-NNNN 형태로
// 당일 생성 건수 기반의 일별 시퀀스를 사용한다.
func (db *Postgres) InsertTicket(ctx context.Context, t model.Ticket) (string, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	var countToday int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE created_at >= $1`, dayStart,
	).Scan(&countToday)
	if err != nil {
		return "", fmt.Errorf("failed to count tickets: %w", err)
	}

	prefix := db.TicketPrefix
	if prefix == "" {
		prefix = "PMN"
	}
	ticketNumber := fmt.Sprintf("%s-%s-%04d", prefix, time.Now().UTC().Format("20060102"), countToday+1)

	query := `
		INSERT INTO tickets (
			ticket_number, user_id, chat_id, user_name, issue_category,
			issue_title, issue_description, steps_attempted, browser_info,
			device_info, urgency_level, status, conversation_context
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = db.Pool.Exec(ctx, query,
		ticketNumber,
		t.UserID,
		t.ChatID,
		t.UserName,
		t.IssueCategory,
		t.IssueTitle,
		t.IssueDescription,
		t.StepsAttempted,
		t.BrowserInfo,
		t.DeviceInfo,
		t.UrgencyLevel,
		model.TicketStatusOpen,
		t.ConversationContext,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert ticket: %w", err)
	}

	return ticketNumber, nil
}

func (db *Postgres) GetTicketByNumber(ctx context.Context, ticketNumber string) (*model.Ticket, error) {
	query := `SELECT` + ticketColumns + ` FROM tickets WHERE ticket_number = $1`

	t, err := scanTicket(db.Pool.QueryRow(ctx, query, ticketNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetRecentOpenTicket - 해당 채팅에서 since 이후에 열린 가장 최근 open 티켓
func (db *Postgres) GetRecentOpenTicket(ctx context.Context, chatID string, since time.Time) (*model.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE chat_id = $1 AND status = 'open' AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1`

	t, err := scanTicket(db.Pool.QueryRow(ctx, query, chatID, since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

func (db *Postgres) ListTickets(ctx context.Context, status, chatID string) ([]model.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR chat_id = $2)
		ORDER BY created_at DESC
		LIMIT 200`

	rows, err := db.Pool.Query(ctx, query, status, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}

	if list == nil {
		list = []model.Ticket{}
	}
	return list, rows.Err()
}

func (db *Postgres) ResolveTicket(ctx context.Context, ticketNumber, notes string) error {
	query := `
		UPDATE tickets
		SET status = 'resolved', resolved_at = NOW(), resolution_notes = $1
		WHERE ticket_number = $2 AND status = 'open'`

	tag, err := db.Pool.Exec(ctx, query, notes, ticketNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID,
		&t.TicketNumber,
		&t.UserID,
		&t.ChatID,
		&t.UserName,
		&t.IssueCategory,
		&t.IssueTitle,
		&t.IssueDescription,
		&t.StepsAttempted,
		&t.BrowserInfo,
		&t.DeviceInfo,
		&t.UrgencyLevel,
		&t.Status,
		&t.ConversationContext,
		&t.CreatedAt,
		&t.ResolvedAt,
		&t.ResolutionNotes,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
