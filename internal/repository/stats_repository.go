package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serviceflow/helpdesk-service/internal/domain"
)

// TrendPoint is one bucket of the resolution-time trend.
type TrendPoint struct {
	Label      string  `json:"label"`
	AvgMinutes float64 `json:"avg_minutes"`
	Resolved   int     `json:"resolved"`
}

// TechPerformance aggregates assignment outcomes per technician.
type TechPerformance struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Resolved int    `json:"resolved"`
	Total    int    `json:"total"`
}

// StatsRepository computes read-only projections over tickets and users.
// All methods intersect with the caller's resolved company scope.
type StatsRepository interface {
	CountByStatus(ctx context.Context, scope CompanyScope) (map[domain.TicketStatus]int, error)
	CountByPriority(ctx context.Context, scope CompanyScope) (map[domain.TicketPriority]int, error)
	ResolutionTrend(ctx context.Context, scope CompanyScope, since time.Time, bucket string) ([]TrendPoint, error)
	TechPerformance(ctx context.Context, scope CompanyScope, since time.Time) ([]TechPerformance, error)
	// SLACounts returns closed-ticket totals and how many were resolved
	// within the target duration of their creation.
	SLACounts(ctx context.Context, scope CompanyScope, target time.Duration) (closed int, withinTarget int, err error)
	CountUrgentUnassigned(ctx context.Context, scope CompanyScope) (int, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository instantiates repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func scopeClause(scope CompanyScope, column string, args *[]any) string {
	if scope.All {
		return "TRUE"
	}
	*args = append(*args, scope.CompanyID)
	return fmt.Sprintf("%s=$%d", column, len(*args))
}

func (r *statsRepository) CountByStatus(ctx context.Context, scope CompanyScope) (map[domain.TicketStatus]int, error) {
	args := []any{}
	query := `SELECT status, COUNT(*) FROM tickets WHERE ` + scopeClause(scope, "company_id", &args) + ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

func (r *statsRepository) CountByPriority(ctx context.Context, scope CompanyScope) (map[domain.TicketPriority]int, error) {
	args := []any{}
	query := `SELECT priority, COUNT(*) FROM tickets WHERE ` + scopeClause(scope, "company_id", &args) + ` GROUP BY priority`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.TicketPriority]int)
	for rows.Next() {
		var priority domain.TicketPriority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		result[priority] = count
	}
	return result, rows.Err()
}

var bucketLabelFormat = map[string]string{
	"day":   "DD/MM",
	"week":  `IYYY"-W"IW`,
	"month": "Mon YYYY",
}

func (r *statsRepository) ResolutionTrend(ctx context.Context, scope CompanyScope, since time.Time, bucket string) ([]TrendPoint, error) {
	format, ok := bucketLabelFormat[bucket]
	if !ok {
		format = bucketLabelFormat["day"]
		bucket = "day"
	}

	args := []any{}
	clause := scopeClause(scope, "company_id", &args)
	args = append(args, since, bucket, format)
	sinceIdx := len(args) - 2
	bucketIdx := len(args) - 1
	formatIdx := len(args)

	query := fmt.Sprintf(`
        SELECT to_char(date_trunc($%[2]d, resolved_at), $%[3]d) AS label,
               AVG(time_spent_minutes)::float8,
               COUNT(*)
        FROM tickets
        WHERE %[4]s
          AND status='closed' AND resolved_at IS NOT NULL AND resolved_at >= $%[1]d
        GROUP BY date_trunc($%[2]d, resolved_at)
        ORDER BY date_trunc($%[2]d, resolved_at) ASC`,
		sinceIdx, bucketIdx, formatIdx, clause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TrendPoint{}
	for rows.Next() {
		var point TrendPoint
		if err := rows.Scan(&point.Label, &point.AvgMinutes, &point.Resolved); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

func (r *statsRepository) TechPerformance(ctx context.Context, scope CompanyScope, since time.Time) ([]TechPerformance, error) {
	args := []any{}
	userClause := scopeClause(scope, "u.company_id", &args)
	args = append(args, since)
	sinceIdx := len(args)

	query := fmt.Sprintf(`
        SELECT u.id, COALESCE(NULLIF(u.full_name,''), u.email),
               COUNT(t.id) FILTER (WHERE t.status='closed' AND t.resolved_at >= $%[1]d),
               COUNT(t.id)
        FROM users u
        LEFT JOIN tickets t ON t.assignee_id = u.id AND t.created_at >= $%[1]d
        WHERE %[2]s AND u.role='tech'
        GROUP BY u.id, u.full_name, u.email
        ORDER BY u.email ASC`,
		sinceIdx, userClause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TechPerformance{}
	for rows.Next() {
		var perf TechPerformance
		if err := rows.Scan(&perf.UserID, &perf.Name, &perf.Resolved, &perf.Total); err != nil {
			return nil, err
		}
		result = append(result, perf)
	}
	return result, rows.Err()
}

func (r *statsRepository) SLACounts(ctx context.Context, scope CompanyScope, target time.Duration) (int, int, error) {
	args := []any{}
	clause := scopeClause(scope, "company_id", &args)
	args = append(args, target.Seconds())

	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE EXTRACT(EPOCH FROM (resolved_at - created_at)) <= $%d)
        FROM tickets
        WHERE %s AND status='closed' AND resolved_at IS NOT NULL`,
		len(args), clause)

	var closed, within int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&closed, &within); err != nil {
		return 0, 0, err
	}
	return closed, within, nil
}

func (r *statsRepository) CountUrgentUnassigned(ctx context.Context, scope CompanyScope) (int, error) {
	args := []any{}
	query := `
        SELECT COUNT(*) FROM tickets
        WHERE ` + scopeClause(scope, "company_id", &args) + `
          AND priority='urgent' AND assignee_id IS NULL AND status != 'closed'`

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
