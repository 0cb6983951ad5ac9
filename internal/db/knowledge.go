package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/pmn-helpdesk/backend/internal/model"
)

var ErrKnowledgeEntryNotFound = errors.New("knowledge entry not found")

func (db *Postgres) InsertKnowledgeEntry(ctx context.Context, e model.KnowledgeEntry) (int64, error) {
	query := `
		INSERT INTO knowledge_entries (question, answer, category, ticket_source, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`

	var id int64
	err := db.Pool.QueryRow(ctx, query, e.Question, e.Answer, e.Category, e.TicketSource).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert knowledge entry: %w", err)
	}
	return id, nil
}

// GetActiveKnowledgeEntries - is_active=TRUE 항목만 생성순으로 반환
// (지식 문서에 병합되는 것은 활성 항목뿐이다)
func (db *Postgres) GetActiveKnowledgeEntries(ctx context.Context) ([]model.KnowledgeEntry, error) {
	query := `
		SELECT id, question, answer, category, ticket_source, created_at, is_active
		FROM knowledge_entries
		WHERE is_active = TRUE
		ORDER BY created_at ASC`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.KnowledgeEntry
	for rows.Next() {
		var e model.KnowledgeEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &e.TicketSource, &e.CreatedAt, &e.IsActive); err != nil {
			return nil, err
		}
		list = append(list, e)
	}

	if list == nil {
		list = []model.KnowledgeEntry{}
	}
	return list, rows.Err()
}

// DeactivateKnowledgeEntry - 소프트 삭제 (행은 남기고 병합 대상에서만 제외)
func (db *Postgres) DeactivateKnowledgeEntry(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE knowledge_entries SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrKnowledgeEntryNotFound
	}
	return nil
}
