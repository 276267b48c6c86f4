package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/google/uuid"
)

// BreakSlot marks the non-bookable break window inside a generated slot
// sequence.
const BreakSlot = "Break"

var _ serviceInterfaces.AvailabilityService = (*AvailabilityService)(nil)

type AvailabilityService struct {
	availabilityRepo interfaces.AvailabilityRepository
	scheduleRepo     interfaces.ScheduleRepository
	presentationRepo interfaces.PresentationRepository
}

func NewAvailabilityService(
	availabilityRepo interfaces.AvailabilityRepository,
	scheduleRepo interfaces.ScheduleRepository,
	presentationRepo interfaces.PresentationRepository,
) *AvailabilityService {
	return &AvailabilityService{
		availabilityRepo: availabilityRepo,
		scheduleRepo:     scheduleRepo,
		presentationRepo: presentationRepo,
	}
}

// parseMinutes converts a zero-padded "HH:MM" string to minutes since
// midnight. Malformed values yield -1.
func parseMinutes(hm string) int {
	parts := strings.SplitN(hm, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return -1
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return -1
	}
	return h*60 + m
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateTimeSlots produces the fixed-width "HH:MM-HH:MM" labels between the
// type's daily window, replacing the break window with a single BreakSlot
// marker. Pure function of the period configuration.
func (s *AvailabilityService) GenerateTimeSlots(period *domain.Period, t domain.ScheduleType) []string {
	dayStart, dayEnd, slotMinutes := period.DayWindow(t)
	start := parseMinutes(dayStart)
	end := parseMinutes(dayEnd)
	breakStart := parseMinutes(period.BreakStart)
	breakEnd := parseMinutes(period.BreakEnd)
	if start < 0 || end < 0 || slotMinutes <= 0 {
		return nil
	}

	var slots []string
	cur := start
	for cur+slotMinutes <= end {
		// A slot overlapping the break at all is blocked, including one that
		// starts before BreakStart and runs into it.
		if breakStart >= 0 && breakEnd > breakStart && cur < breakEnd && cur+slotMinutes > breakStart {
			slots = append(slots, BreakSlot)
			cur = breakEnd
			continue
		}
		slots = append(slots, fmt.Sprintf("%s-%s", formatMinutes(cur), formatMinutes(cur+slotMinutes)))
		cur += slotMinutes
	}
	return slots
}

// ScheduleDates enumerates the schedule's calendar dates inclusive of both
// ends, skipping Sundays.
func (s *AvailabilityService) ScheduleDates(schedule *domain.PeriodSchedule) []time.Time {
	var dates []time.Time
	for d := schedule.StartDate; !d.After(schedule.EndDate); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func slotKey(date time.Time, slot string) string {
	return fmt.Sprintf("%s_%s", date.Format(dateLayout), slot)
}

// LoadAvailability returns the lecturer's full grid for a schedule keyed
// "{date}_{timeSlot}". Cells with no stored row default to available.
func (s *AvailabilityService) LoadAvailability(ctx context.Context, lecturerID, scheduleID uuid.UUID, t domain.ScheduleType) (map[string]bool, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return nil, domain.ErrNotFound
	}

	grid := make(map[string]bool)
	for _, date := range s.ScheduleDates(schedule) {
		for _, slot := range s.GenerateTimeSlots(&schedule.Period, t) {
			if slot == BreakSlot {
				continue
			}
			grid[slotKey(date, slot)] = true
		}
	}

	rows, err := s.availabilityRepo.ListByCell(ctx, lecturerID, scheduleID, t)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability rows: %w", err)
	}
	for _, row := range rows {
		grid[slotKey(row.Date, row.TimeSlot)] = row.IsAvailable
	}
	return grid, nil
}

// SaveAvailability upserts the submitted cells. Only the owning lecturer may
// mutate their grid, and locked keys (slots where a presentation already
// assigns the lecturer as examiner) are skipped silently: the lock state is
// server-derived truth, so a stale client submission is a no-op, not an
// error.
func (s *AvailabilityService) SaveAvailability(ctx context.Context, actorID uuid.UUID, req *serviceInterfaces.SaveAvailabilityRequest) error {
	if actorID != req.LecturerID {
		return domain.ErrForbidden
	}
	schedule, err := s.scheduleRepo.GetByID(ctx, req.ScheduleID)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule == nil {
		return domain.ErrNotFound
	}

	locked, err := s.LockedSlots(ctx, req.LecturerID, req.ScheduleID)
	if err != nil {
		return err
	}

	skipped := 0
	for key, available := range req.Slots {
		if locked[key] {
			skipped++
			continue
		}
		datePart, slot, found := strings.Cut(key, "_")
		if !found {
			return domain.NewValidationError("malformed slot key %q", key)
		}
		date, err := parseDate(datePart)
		if err != nil {
			return err
		}
		row := &domain.LecturerAvailability{
			LecturerID:       req.LecturerID,
			PeriodScheduleID: req.ScheduleID,
			Type:             req.Type,
			Date:             date,
			TimeSlot:         slot,
			IsAvailable:      available,
		}
		if err := s.availabilityRepo.Upsert(ctx, row); err != nil {
			return fmt.Errorf("failed to save availability cell %s: %w", key, err)
		}
	}
	if skipped > 0 {
		logger.Info("Skipped %d locked availability cell(s) for lecturer %s", skipped, req.LecturerID)
	}
	return nil
}

// LockedSlots derives the non-togglable "{date}_{start-end}" keys from the
// lecturer's examiner assignments within the schedule.
func (s *AvailabilityService) LockedSlots(ctx context.Context, lecturerID, scheduleID uuid.UUID) (map[string]bool, error) {
	presentations, err := s.presentationRepo.ListExaminerAssignments(ctx, lecturerID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load examiner assignments: %w", err)
	}
	locked := make(map[string]bool, len(presentations))
	for _, p := range presentations {
		key := fmt.Sprintf("%s_%s-%s", p.PresentationDate.Format(dateLayout), p.StartTime, p.EndTime)
		locked[key] = true
	}
	return locked, nil
}
