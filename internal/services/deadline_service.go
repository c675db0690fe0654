// internal/services/deadline_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"lexflow/internal/models"
	"lexflow/internal/repositories"
)

// statutePeriods maps case type -> jurisdiction -> limitation period in
// years. Each case type carries a "default" entry; unrecognized case
// types fall back to the global default below.
var statutePeriods = map[string]map[string]int{
	"personal_injury": {
		"CA": 2, "NY": 3, "TX": 2, "FL": 4, "default": 2,
	},
	"medical_malpractice": {
		"CA": 3, "NY": 2, "TX": 2, "default": 2,
	},
	"contract": {
		"CA": 4, "NY": 6, "TX": 4, "default": 4,
	},
	"property_damage": {
		"CA": 3, "NY": 3, "default": 3,
	},
	"fraud": {
		"CA": 3, "default": 3,
	},
	"workers_comp": {
		"CA": 1, "default": 1,
	},
}

const defaultStatuteYears = 2

// statuteReminderOffsets are the reminder windows, in days before the
// statute deadline.
var statuteReminderOffsets = []int{180, 90, 60, 30, 14, 7}

// upcomingWindows are the day-counts at which deadline reminders fire.
var upcomingWindows = []int{30, 14, 7, 3, 1}

const criticalHorizon = 7 * 24 * time.Hour

// DeadlineService derives deadline dates and reminder cascades from case
// facts and dispatches the multi-window reminders.
type DeadlineService interface {
	CalculateStatuteDeadline(ctx context.Context, caseID int64, incidentDate time.Time, jurisdiction, caseType string) (*models.Deadline, error)
	CreateCourtDateDeadlines(ctx context.Context, caseID int64, courtDate time.Time, courtType string) ([]*models.Deadline, error)
	CheckUpcomingDeadlines(ctx context.Context, now time.Time) (int, error)
	CheckOverdueDeadlines(ctx context.Context, now time.Time) (int, error)
	GetCriticalDeadlines(ctx context.Context, now time.Time) ([]models.Deadline, error)
	GetByCase(ctx context.Context, caseID int64) ([]models.Deadline, error)
	CompleteDeadline(ctx context.Context, id int64) error
}

type deadlineService struct {
	deadlines repositories.DeadlineRepository
	cases     repositories.CaseRepository
	notifier  NotificationService
}

func NewDeadlineService(
	deadlines repositories.DeadlineRepository,
	cases repositories.CaseRepository,
	notifier NotificationService,
) DeadlineService {
	return &deadlineService{deadlines: deadlines, cases: cases, notifier: notifier}
}

// StatutePeriodYears resolves the limitation period for a case type and
// jurisdiction.
func StatutePeriodYears(caseType, jurisdiction string) int {
	byJurisdiction, ok := statutePeriods[caseType]
	if !ok {
		return defaultStatuteYears
	}
	if years, ok := byJurisdiction[jurisdiction]; ok {
		return years
	}
	if years, ok := byJurisdiction["default"]; ok {
		return years
	}
	return defaultStatuteYears
}

func remindersBefore(deadline time.Time, offsetsDays []int) models.ReminderList {
	out := make(models.ReminderList, 0, len(offsetsDays))
	for _, d := range offsetsDays {
		out = append(out, models.Reminder{At: deadline.AddDate(0, 0, -d)})
	}
	return out
}

func (s *deadlineService) CalculateStatuteDeadline(ctx context.Context, caseID int64, incidentDate time.Time, jurisdiction, caseType string) (*models.Deadline, error) {
	if incidentDate.IsZero() {
		return nil, fmt.Errorf("%w: incident date is required", ErrValidation)
	}
	kase, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case %d: %w", caseID, err)
	}
	if kase == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrCaseNotFound, caseID)
	}

	years := StatutePeriodYears(caseType, jurisdiction)
	date := incidentDate.AddDate(years, 0, 0)

	now := time.Now()
	d := &models.Deadline{
		CaseID:      caseID,
		Title:       "Statute of limitations",
		Description: fmt.Sprintf("%d-year limitation period (%s, %s) from incident on %s.", years, caseType, jurisdiction, incidentDate.Format("2006-01-02")),
		Type:        models.DeadlineStatute,
		Date:        date,
		Reminders:   remindersBefore(date, statuteReminderOffsets),
		Priority:    models.DeadlinePriorityCritical,
		Status:      models.DeadlineUpcoming,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.deadlines.Store(ctx, d); err != nil {
		return nil, fmt.Errorf("store statute deadline: %w", err)
	}
	log.Printf("[deadline][statute][ok] case=%d years=%d date=%s", caseID, years, date.Format("2006-01-02"))
	return d, nil
}

// CreateCourtDateDeadlines generates the court-date cascade: discovery
// cutoff, expert disclosure, pretrial motions and the court date itself.
// The four are persisted in one batch; none land if one fails.
func (s *deadlineService) CreateCourtDateDeadlines(ctx context.Context, caseID int64, courtDate time.Time, courtType string) ([]*models.Deadline, error) {
	if courtDate.IsZero() {
		return nil, fmt.Errorf("%w: court date is required", ErrValidation)
	}
	kase, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case %d: %w", caseID, err)
	}
	if kase == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrCaseNotFound, caseID)
	}

	now := time.Now()
	build := func(title string, dtype models.DeadlineType, date time.Time, reminderOffsets []int, priority models.DeadlinePriority) *models.Deadline {
		return &models.Deadline{
			CaseID:      caseID,
			Title:       title,
			Description: fmt.Sprintf("%s ahead of %s hearing on %s.", title, courtType, courtDate.Format("2006-01-02")),
			Type:        dtype,
			Date:        date,
			Reminders:   remindersBefore(date, reminderOffsets),
			Priority:    priority,
			Status:      models.DeadlineUpcoming,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	batch := []*models.Deadline{
		build("Expert witness disclosure", models.DeadlineExpertDisclosure, courtDate.AddDate(0, 0, -60), []int{21, 14, 7}, models.DeadlinePriorityHigh),
		build("Discovery cutoff", models.DeadlineDiscovery, courtDate.AddDate(0, 0, -30), []int{14, 7, 3}, models.DeadlinePriorityHigh),
		build("Pretrial motions", models.DeadlineMotions, courtDate.AddDate(0, 0, -14), []int{7, 3, 1}, models.DeadlinePriorityHigh),
		build("Court date", models.DeadlineCourtDate, courtDate, []int{7, 3, 1}, models.DeadlinePriorityCritical),
	}
	if err := s.deadlines.InsertMany(ctx, batch); err != nil {
		return nil, fmt.Errorf("store court date cascade: %w", err)
	}
	log.Printf("[deadline][court][ok] case=%d court=%s deadlines=%d", caseID, courtDate.Format("2006-01-02"), len(batch))
	return batch, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CheckUpcomingDeadlines dispatches the fixed-window reminders. A reminder
// fires when an unsent reminder date falls on the same calendar day as
// now+window; the stored entry is flagged sent so it fires once.
func (s *deadlineService) CheckUpcomingDeadlines(ctx context.Context, now time.Time) (int, error) {
	sent := 0
	for _, window := range upcomingWindows {
		target := now.AddDate(0, 0, window)
		due, err := s.deadlines.ListDueOn(ctx, target)
		if err != nil {
			return sent, fmt.Errorf("list deadlines due in %d days: %w", window, err)
		}
		for i := range due {
			d := &due[i]
			idx := -1
			for j := range d.Reminders {
				if !d.Reminders[j].Sent && sameDay(d.Reminders[j].At, now) {
					idx = j
					break
				}
			}
			if idx < 0 {
				continue
			}
			label := fmt.Sprintf("%d-day", window)
			for _, uid := range d.AssigneeIDs {
				s.notifier.Send(ctx, Notification{
					Type:        "deadline_reminder",
					RecipientID: uid,
					Subject:     fmt.Sprintf("%s reminder: %s", label, d.Title),
					Body:        fmt.Sprintf("Deadline %q on case #%d falls on %s.", d.Title, d.CaseID, d.Date.Format("2006-01-02")),
					Metadata:    map[string]string{"deadline_id": fmt.Sprint(d.ID), "window": label},
				})
			}
			d.Reminders[idx].Sent = true
			if err := s.deadlines.UpdateReminders(ctx, d.ID, d.Reminders); err != nil {
				log.Printf("[deadline][upcoming][err] mark reminder sent deadline=%d: %v", d.ID, err)
				continue
			}
			sent++
		}
	}
	log.Printf("[deadline][upcoming][ok] reminders=%d", sent)
	return sent, nil
}

// CheckOverdueDeadlines alerts on missed deadlines. Status is not changed
// here; moving a deadline to completed or cancelled is an explicit action.
func (s *deadlineService) CheckOverdueDeadlines(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.deadlines.ListOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue deadlines: %w", err)
	}
	for i := range overdue {
		d := &overdue[i]
		for _, uid := range d.AssigneeIDs {
			s.notifier.Send(ctx, Notification{
				Type:        "deadline_overdue",
				RecipientID: uid,
				Subject:     "Deadline missed: " + d.Title,
				Body:        fmt.Sprintf("Deadline %q on case #%d passed on %s.", d.Title, d.CaseID, d.Date.Format("2006-01-02")),
				Metadata:    map[string]string{"deadline_id": fmt.Sprint(d.ID)},
			})
		}
	}
	log.Printf("[deadline][overdue][ok] alerts=%d", len(overdue))
	return len(overdue), nil
}

func (s *deadlineService) GetCriticalDeadlines(ctx context.Context, now time.Time) ([]models.Deadline, error) {
	return s.deadlines.ListCritical(ctx, now, criticalHorizon)
}

func (s *deadlineService) GetByCase(ctx context.Context, caseID int64) ([]models.Deadline, error) {
	return s.deadlines.FindByCase(ctx, caseID)
}

func (s *deadlineService) CompleteDeadline(ctx context.Context, id int64) error {
	d, err := s.deadlines.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDeadlineNotFound
	}
	return s.deadlines.UpdateStatus(ctx, id, models.DeadlineCompleted)
}
