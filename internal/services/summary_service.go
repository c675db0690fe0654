// internal/services/summary_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lexflow/internal/repositories"
)

// SummaryService builds the daily digest: critical deadlines on the 7-day
// horizon plus currently overdue tasks, sent to every active attorney and
// admin.
type SummaryService interface {
	SendDailySummary(ctx context.Context, now time.Time) (int, error)
}

type summaryService struct {
	deadlines DeadlineService
	tasks     repositories.TaskRepository
	users     repositories.UserRepository
	notifier  NotificationService
}

func NewSummaryService(
	deadlines DeadlineService,
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	notifier NotificationService,
) SummaryService {
	return &summaryService{deadlines: deadlines, tasks: tasks, users: users, notifier: notifier}
}

func (s *summaryService) SendDailySummary(ctx context.Context, now time.Time) (int, error) {
	critical, err := s.deadlines.GetCriticalDeadlines(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("collect critical deadlines: %w", err)
	}
	overdue, err := s.tasks.ListOverdue(ctx, now, 0)
	if err != nil {
		return 0, fmt.Errorf("collect overdue tasks: %w", err)
	}
	if len(critical) == 0 && len(overdue) == 0 {
		log.Printf("[summary][skip] nothing to report")
		return 0, nil
	}

	var b strings.Builder
	if len(critical) > 0 {
		fmt.Fprintf(&b, "Critical deadlines (next 7 days):\n")
		for _, d := range critical {
			fmt.Fprintf(&b, "  - %s (case #%d) on %s\n", d.Title, d.CaseID, d.Date.Format("2006-01-02"))
		}
	}
	if len(overdue) > 0 {
		fmt.Fprintf(&b, "Overdue tasks:\n")
		for _, t := range overdue {
			fmt.Fprintf(&b, "  - %s (case #%d), was due %s\n", t.Title, t.CaseID, t.DueDate.Format("2006-01-02"))
		}
	}

	recipients, err := s.users.ListActiveByRoles(ctx, "attorney", "admin")
	if err != nil {
		return 0, fmt.Errorf("resolve summary recipients: %w", err)
	}
	for _, u := range recipients {
		s.notifier.Send(ctx, Notification{
			Type:        "daily_summary",
			RecipientID: u.ID,
			Subject:     fmt.Sprintf("Daily docket summary for %s", now.Format("Jan 2")),
			Body:        b.String(),
		})
	}
	log.Printf("[summary][ok] deadlines=%d tasks=%d recipients=%d", len(critical), len(overdue), len(recipients))
	return len(recipients), nil
}
