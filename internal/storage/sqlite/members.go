package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/streamsplit/internal/models"
)

// ListMembers retrieves all members in creation order.
func (s *SQLiteStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM members ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.CreatedAt = fromMillis(createdAt)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// InsertMember persists a new member.
func (s *SQLiteStore) InsertMember(ctx context.Context, name string) (models.Member, error) {
	m := models.Member{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: fromMillis(toMillis(s.now())),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members (id, name, created_at) VALUES (?, ?, ?)",
		m.ID, m.Name, toMillis(m.CreatedAt),
	)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to insert member: %w", err)
	}

	return m, nil
}

// DeleteMember removes a member by ID. Service participant lists are left to the caller.
func (s *SQLiteStore) DeleteMember(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete member", id, "DELETE FROM members WHERE id = ?", id)
}
