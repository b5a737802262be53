package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/config"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/persistence"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// StatsService computes read-only dashboard projections. Results may be
// cached in Redis with a short TTL; the cache is advisory and any Redis
// failure falls through to a fresh computation.
type StatsService struct {
	stats  repository.StatsRepository
	users  repository.UserRepository
	guard  *access.Guard
	cache  *persistence.Redis
	logger *zap.Logger
	sla    config.SLAConfig
	ttl    time.Duration
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	StatsRepo repository.StatsRepository
	UserRepo  repository.UserRepository
	Guard     *access.Guard
	Cache     *persistence.Redis
	Logger    *zap.Logger
	SLA       config.SLAConfig
	CacheTTL  time.Duration
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	return &StatsService{
		stats:  deps.StatsRepo,
		users:  deps.UserRepo,
		guard:  deps.Guard,
		cache:  deps.Cache,
		logger: deps.Logger,
		sla:    deps.SLA,
		ttl:    deps.CacheTTL,
	}
}

// KPIs are the headline dashboard numbers.
type KPIs struct {
	Total      int     `json:"total"`
	Open       int     `json:"open"`
	InProgress int     `json:"in_progress"`
	Closed     int     `json:"closed"`
	SLA        float64 `json:"sla"`
}

// TechPerfItem extends raw per-technician counts with the resolved ratio.
type TechPerfItem struct {
	repository.TechPerformance
	Percent int `json:"percent"`
}

// Overview is the dashboard payload.
type Overview struct {
	KPIs            KPIs                          `json:"kpis"`
	ByStatus        map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority      map[domain.TicketPriority]int `json:"by_priority"`
	ResolutionTrend []repository.TrendPoint       `json:"resolution_trend"`
	TechPerformance []TechPerfItem                `json:"tech_performance"`
}

// TicketStats is the period-scoped stats payload.
type TicketStats struct {
	Period           string                  `json:"period"`
	Since            time.Time               `json:"since"`
	Techs            []TechPerfItem          `json:"techs"`
	ResolutionTrend  []repository.TrendPoint `json:"resolution_trend"`
	SLA              float64                 `json:"sla"`
	UrgentUnassigned int                     `json:"urgent_unassigned"`
	PendingApprovals int                     `json:"pending_approvals"`
}

// periodWindow maps a requested period to its lookback and trend bucket.
func periodWindow(period string) (time.Duration, string, error) {
	switch period {
	case "", "week":
		return 7 * 24 * time.Hour, "day", nil
	case "month":
		return 30 * 24 * time.Hour, "week", nil
	case "year":
		return 365 * 24 * time.Hour, "month", nil
	}
	return 0, "", apperrors.NewValidationError("period must be week, month or year", map[string]any{"period": period})
}

// GetOverview computes the dashboard overview for the caller's scope.
func (s *StatsService) GetOverview(ctx context.Context, scope access.Scope) (*Overview, error) {
	cacheKey := fmt.Sprintf("stats:overview:%s", scopeKey(scope))
	var cached Overview
	if s.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	repoScope := toCompanyScope(scope)

	byStatus, err := s.stats.CountByStatus(ctx, repoScope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byPriority, err := s.stats.CountByPriority(ctx, repoScope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	trend, err := s.stats.ResolutionTrend(ctx, repoScope, time.Now().Add(-28*24*time.Hour), "week")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	perf, err := s.stats.TechPerformance(ctx, repoScope, time.Now().Add(-28*24*time.Hour))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sla, err := s.slaFraction(ctx, repoScope)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}
	overview := &Overview{
		KPIs: KPIs{
			Total:      total,
			Open:       byStatus[domain.TicketStatusOpen],
			InProgress: byStatus[domain.TicketStatusInProgress],
			Closed:     byStatus[domain.TicketStatusClosed],
			SLA:        sla,
		},
		ByStatus:        byStatus,
		ByPriority:      byPriority,
		ResolutionTrend: trend,
		TechPerformance: withPercent(perf),
	}
	s.writeCache(ctx, cacheKey, overview)
	return overview, nil
}

// GetTicketStats computes period stats; staff only.
func (s *StatsService) GetTicketStats(ctx context.Context, caller *domain.User, scope access.Scope, period string) (*TicketStats, error) {
	if !s.guard.CanViewStats(caller) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	lookback, bucket, err := periodWindow(period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "week"
	}

	cacheKey := fmt.Sprintf("stats:tickets:%s:%s", period, scopeKey(scope))
	var cached TicketStats
	if s.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	repoScope := toCompanyScope(scope)
	since := time.Now().Add(-lookback)

	perf, err := s.stats.TechPerformance(ctx, repoScope, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	trend, err := s.stats.ResolutionTrend(ctx, repoScope, since, bucket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sla, err := s.slaFraction(ctx, repoScope)
	if err != nil {
		return nil, err
	}
	urgent, err := s.stats.CountUrgentUnassigned(ctx, repoScope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	pending, err := s.users.CountInactive(ctx, repoScope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &TicketStats{
		Period:           period,
		Since:            since,
		Techs:            withPercent(perf),
		ResolutionTrend:  trend,
		SLA:              sla,
		UrgentUnassigned: urgent,
		PendingApprovals: pending,
	}
	s.writeCache(ctx, cacheKey, stats)
	return stats, nil
}

func (s *StatsService) slaFraction(ctx context.Context, scope repository.CompanyScope) (float64, error) {
	closed, within, err := s.stats.SLACounts(ctx, scope, s.sla.Target())
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if closed == 0 {
		return 0, nil
	}
	return float64(within) / float64(closed), nil
}

// withPercent computes round(100*resolved/total), 0 when total is 0.
func withPercent(perf []repository.TechPerformance) []TechPerfItem {
	items := make([]TechPerfItem, 0, len(perf))
	for _, p := range perf {
		percent := 0
		if p.Total > 0 {
			percent = int(math.Round(100 * float64(p.Resolved) / float64(p.Total)))
		}
		items = append(items, TechPerfItem{TechPerformance: p, Percent: percent})
	}
	return items
}

func scopeKey(scope access.Scope) string {
	if scope.AllCompanies {
		return "all"
	}
	return scope.CompanyID
}

func (s *StatsService) readCache(ctx context.Context, key string, out any) bool {
	if s.ttl <= 0 {
		return false
	}
	raw, err := s.cache.GetBytes(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *StatsService) writeCache(ctx context.Context, key string, value any) {
	if s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.SetBytes(ctx, key, raw, s.ttl); err != nil && s.logger != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
