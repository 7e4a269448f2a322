package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/scope"
)

// DashboardStats is a scope-filtered snapshot of the numbers the role
// dashboards render. Pure projection; no invariants live here.
type DashboardStats struct {
	RequestsByStatus map[string]int `json:"requests_by_status"`
	OpenIssues       int            `json:"open_issues"`
	AssetsByStatus   map[string]int `json:"assets_by_status"`
	LowStock         int            `json:"low_stock"`
}

// lowStockThreshold is the on-hand quantity at or below which an item counts
// as low stock on the dashboard.
const lowStockThreshold = 5

// GetDashboardStats computes the caller-visible dashboard counters.
func GetDashboardStats(ctx context.Context, db *sql.DB, caller scope.Caller) (*DashboardStats, error) {
	s, err := scope.Resolve(caller, scope.Target{})
	if err != nil {
		return nil, err
	}
	cond, args := s.Predicate("r.requested_by", "r.department_id")

	stats := &DashboardStats{
		RequestsByStatus: map[string]int{},
		AssetsByStatus:   map[string]int{},
	}

	rows, err := db.QueryContext(ctx,
		`SELECT r.status, COUNT(*) FROM requests r WHERE `+cond+` GROUP BY r.status`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting requests: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning request count: %w", err)
		}
		stats.RequestsByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Issues without a matching return are considered open.
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issues iss
		 WHERE NOT EXISTS (SELECT 1 FROM returns ret WHERE ret.issue_id = iss.id)`,
	).Scan(&stats.OpenIssues)
	if err != nil {
		return nil, fmt.Errorf("counting open issues: %w", err)
	}

	assetRows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM assets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting assets: %w", err)
	}
	defer assetRows.Close()
	for assetRows.Next() {
		var status string
		var n int
		if err := assetRows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning asset count: %w", err)
		}
		stats.AssetsByStatus[status] = n
	}
	if err := assetRows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item_locations WHERE on_hand_qty <= ?`, lowStockThreshold,
	).Scan(&stats.LowStock)
	if err != nil {
		return nil, fmt.Errorf("counting low stock: %w", err)
	}

	return stats, nil
}
