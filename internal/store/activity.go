package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// LogActivity appends one audit-feed entry. Callers treat this as
// fire-and-forget: a failure here must never fail the operation it records.
func LogActivity(ctx context.Context, db *sql.DB, e model.ActivityEntry) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO activity_log (actor_id, action_type, entity_type, entity_id, entity_name, description, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ActorID, e.ActionType, e.EntityType, e.EntityID, e.EntityName, e.Description, e.Metadata,
	)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// ListActivity returns audit entries visible to the caller, newest first.
// Visibility follows the caller's scope over the acting user and that user's
// department.
func ListActivity(ctx context.Context, db *sql.DB, caller scope.Caller, target scope.Target, limit int) ([]model.ActivityEntry, error) {
	s, err := scope.Resolve(caller, target)
	if err != nil {
		return nil, err
	}
	cond, args := s.Predicate("al.actor_id", "u.department_id")

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT al.id, al.actor_id, al.action_type, al.entity_type, al.entity_id,
	                 al.entity_name, al.description, al.metadata, al.created_at, u.name
	          FROM activity_log al
	          JOIN users u ON u.id = al.actor_id
	          WHERE ` + cond + `
	          ORDER BY al.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var entityType, entityName, description, metadata sql.NullString
		var entityID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActionType, &entityType, &entityID,
			&entityName, &description, &metadata, &e.CreatedAt, &e.ActorName); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.EntityType = entityType.String
		e.EntityID = entityID.Int64
		e.EntityName = entityName.String
		e.Description = description.String
		e.Metadata = metadata.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
