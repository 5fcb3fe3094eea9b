package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/streamsplit/internal/models"
)

// serviceRow mirrors the services table. member_ids is a JSON array of member IDs.
type serviceRow struct {
	ID        string
	Name      string
	Cost      float64
	MemberIDs string
	CreatedAt int64
}

func (r serviceRow) toModel() (models.Service, error) {
	ids := []string{}
	if r.MemberIDs != "" {
		if err := json.Unmarshal([]byte(r.MemberIDs), &ids); err != nil {
			return models.Service{}, fmt.Errorf("failed to decode member_ids of service %s: %w", r.ID, err)
		}
	}
	if ids == nil {
		ids = []string{}
	}
	return models.Service{
		ID:        r.ID,
		Name:      r.Name,
		Cost:      r.Cost,
		MemberIDs: ids,
		CreatedAt: fromMillis(r.CreatedAt),
	}, nil
}

func encodeMemberIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode member_ids: %w", err)
	}
	return string(b), nil
}

// ListServices retrieves all services in creation order.
func (s *SQLiteStore) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, cost, member_ids, created_at FROM services ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []models.Service{}
	for rows.Next() {
		var r serviceRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Cost, &r.MemberIDs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		svc, err := r.toModel()
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}

	return services, nil
}

// InsertService persists a new service with an empty participant list.
func (s *SQLiteStore) InsertService(ctx context.Context, name string, cost float64) (models.Service, error) {
	svc := models.Service{
		ID:        uuid.New().String(),
		Name:      name,
		Cost:      cost,
		MemberIDs: []string{},
		CreatedAt: fromMillis(toMillis(s.now())),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO services (id, name, cost, member_ids, created_at) VALUES (?, ?, ?, '[]', ?)",
		svc.ID, svc.Name, svc.Cost, toMillis(svc.CreatedAt),
	)
	if err != nil {
		return models.Service{}, fmt.Errorf("failed to insert service: %w", err)
	}

	return svc, nil
}

// DeleteService removes a service by ID.
func (s *SQLiteStore) DeleteService(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete service", id, "DELETE FROM services WHERE id = ?", id)
}

// UpdateServiceMembers replaces the participant list of a service.
func (s *SQLiteStore) UpdateServiceMembers(ctx context.Context, id string, memberIDs []string) error {
	encoded, err := encodeMemberIDs(memberIDs)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "update service members", id,
		"UPDATE services SET member_ids = ? WHERE id = ?", encoded, id,
	)
}
