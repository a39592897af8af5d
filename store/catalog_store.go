// api/store/catalog_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"smartflow/api/models"
)

// CatalogStore looks up the selectable flows for a project. The catalog
// lives in Postgres next to the dashboard user accounts.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ListFlows returns every flow registered under a project, ordered by
// display name. Used to populate the dashboard selector.
func (s *CatalogStore) ListFlows(ctx context.Context, projectID string) ([]models.Flow, error) {
	query := `
		SELECT name, display_name
		FROM flows
		WHERE project_id = $1
		ORDER BY display_name;
	`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows for project %q: %w", projectID, err)
	}
	defer rows.Close()

	var flows []models.Flow
	for rows.Next() {
		var f models.Flow
		if err := rows.Scan(&f.Name, &f.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan flow row: %w", err)
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing flows: %w", err)
	}

	return flows, nil
}
