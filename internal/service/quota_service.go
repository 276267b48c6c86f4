package service

import (
	"context"
	"fmt"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/infrastructure/database"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/google/uuid"
)

const capacityCacheTTL = 10 * time.Minute

var _ serviceInterfaces.QuotaService = (*QuotaService)(nil)

// QuotaService computes lecturer supervision capacity. The relational count
// is the source of truth; the redis counter is a hot-path hint refreshed on
// every authoritative read.
type QuotaService struct {
	quotaRepo      interfaces.QuotaRepository
	assignmentRepo interfaces.AssignmentRepository
	periodRepo     interfaces.PeriodRepository
	capacityCache  interfaces.CapacityCache
}

func NewQuotaService(
	quotaRepo interfaces.QuotaRepository,
	assignmentRepo interfaces.AssignmentRepository,
	periodRepo interfaces.PeriodRepository,
	capacityCache interfaces.CapacityCache,
) *QuotaService {
	return &QuotaService{
		quotaRepo:      quotaRepo,
		assignmentRepo: assignmentRepo,
		periodRepo:     periodRepo,
		capacityCache:  capacityCache,
	}
}

// EffectiveMax is the custom per-period quota when one exists, else the
// period default.
func (s *QuotaService) EffectiveMax(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	custom, err := s.quotaRepo.GetCustom(ctx, lecturerID, periodID)
	if err != nil {
		return 0, fmt.Errorf("failed to load custom quota: %w", err)
	}
	if custom != nil {
		return custom.MaxStudents, nil
	}
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return 0, fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return 0, domain.ErrNotFound
	}
	return period.DefaultQuota, nil
}

// AvailableCapacity = effective max minus active supervision count, floored
// at zero. Outside a transaction the cached counter answers first and a miss
// falls back to the relational count. Inside a transaction the cache is
// skipped entirely: acceptance paths hold the lecturer row lock and must see
// the authoritative count, never a stale counter.
func (s *QuotaService) AvailableCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	if s.capacityCache != nil && !database.InTransaction(ctx) {
		if cached, err := s.capacityCache.GetCapacity(ctx, lecturerID, periodID); err == nil && cached >= 0 {
			return cached, nil
		}
	}

	max, err := s.EffectiveMax(ctx, lecturerID, periodID)
	if err != nil {
		return 0, err
	}
	count, err := s.assignmentRepo.CountActive(ctx, lecturerID, periodID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active supervisions: %w", err)
	}
	capacity := max - count
	if capacity < 0 {
		capacity = 0
	}
	// Never publish a counter from inside an uncommitted transaction; the
	// post-commit hint keeps the cache current on the accept path.
	if !database.InTransaction(ctx) {
		s.refreshCache(ctx, lecturerID, periodID, capacity)
	}
	return capacity, nil
}

func (s *QuotaService) SetCustomQuota(ctx context.Context, lecturerID, periodID uuid.UUID, maxStudents int) error {
	if maxStudents < 0 {
		return domain.NewValidationError("max students must not be negative, got %d", maxStudents)
	}
	quota := &domain.LecturerPeriodQuota{
		LecturerID:  lecturerID,
		PeriodID:    periodID,
		MaxStudents: maxStudents,
	}
	if err := s.quotaRepo.Upsert(ctx, quota); err != nil {
		return fmt.Errorf("failed to set custom quota: %w", err)
	}
	s.invalidateCache(ctx, lecturerID, periodID)
	logger.Info("Set custom quota %d for lecturer %s in period %s", maxStudents, lecturerID, periodID)
	return nil
}

func (s *QuotaService) refreshCache(ctx context.Context, lecturerID, periodID uuid.UUID, capacity int) {
	if s.capacityCache == nil {
		return
	}
	if err := s.capacityCache.SetCapacity(ctx, lecturerID, periodID, capacity, capacityCacheTTL); err != nil {
		logger.Warn("Failed to refresh capacity cache for lecturer %s: %v", lecturerID, err)
	}
}

func (s *QuotaService) invalidateCache(ctx context.Context, lecturerID, periodID uuid.UUID) {
	if s.capacityCache == nil {
		return
	}
	if err := s.capacityCache.InvalidateCapacity(ctx, lecturerID, periodID); err != nil {
		logger.Warn("Failed to invalidate capacity cache for lecturer %s: %v", lecturerID, err)
	}
}
