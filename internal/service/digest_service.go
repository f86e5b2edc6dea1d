package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"daylog/internal/daylog"
	"daylog/internal/model"
	"daylog/internal/schedule"
)

// DigestService builds human-readable daily summaries for
// notifications and the /digest command.
type DigestService struct {
	taskSvc      *TaskService
	recurringSvc *RecurringTaskService
	loc          *time.Location
}

func NewDigestService(taskSvc *TaskService, recurringSvc *RecurringTaskService, loc *time.Location) *DigestService {
	return &DigestService{taskSvc: taskSvc, recurringSvc: recurringSvc, loc: loc}
}

// DailyDigest renders the user's day: open tasks, work completed
// today, and recurring templates due today, each with time totals.
func (s *DigestService) DailyDigest(ctx context.Context, user model.User, now time.Time) (string, error) {
	log, err := s.taskSvc.DayLogFor(ctx, &user, now)
	if err != nil {
		return "", err
	}
	templates, err := s.recurringSvc.List(ctx, &user)
	if err != nil {
		return "", err
	}

	day := now.In(s.loc)
	var builder strings.Builder
	builder.WriteString("📋 <b>Daily log</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", day.Format("Mon, Jan 2 2006")))

	builder.WriteString(fmt.Sprintf("🔥 <b>To do</b> · %s\n", daylog.FormatMinutes(log.TodoMinutes)))
	if len(log.Todo) == 0 {
		builder.WriteString("— nothing open, enjoy the quiet\n")
	} else {
		for _, task := range log.Todo {
			builder.WriteString(formatDigestTask(task))
		}
	}

	builder.WriteString(fmt.Sprintf("\n✅ <b>Done today</b> · %s\n", daylog.FormatMinutes(log.CompletedMinutes)))
	if len(log.Completed) == 0 {
		builder.WriteString("— nothing completed yet\n")
	} else {
		for _, task := range log.Completed {
			builder.WriteString(formatDigestTask(task))
		}
	}

	var due []model.RecurringTaskRow
	for _, tpl := range templates {
		if schedule.DueOn(schedule.Frequency(tpl.Frequency), tpl.WeekDay, tpl.MonthDay, day) {
			due = append(due, tpl)
		}
	}
	builder.WriteString("\n♻️ <b>Recurring due today</b>\n")
	if len(due) == 0 {
		builder.WriteString("— no templates fire today\n")
	} else {
		for _, tpl := range due {
			builder.WriteString(formatDigestTemplate(tpl))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatDigestTask(task model.Task) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(task.Content))))
	if label := tagLabel(task.ClientTag, task.ProjectTag); label != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(label)))
	}
	if task.Time != nil && strings.TrimSpace(*task.Time) != "" {
		sb.WriteString(fmt.Sprintf(" · %s", daylog.FormatMinutes(daylog.ParseMinutes(*task.Time))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatDigestTemplate(tpl model.RecurringTaskRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(tpl.Title))))
	if tpl.ClientName != nil && *tpl.ClientName != "" {
		label := *tpl.ClientName
		if tpl.ClientEmoji != nil {
			label = *tpl.ClientEmoji + " " + label
		}
		if tpl.ProjectName != nil && *tpl.ProjectName != "" {
			label += " · " + *tpl.ProjectName
		}
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(label)))
	}
	sb.WriteString(fmt.Sprintf(" — %s", schedule.Display(schedule.Frequency(tpl.Frequency), tpl.WeekDay, tpl.MonthDay)))
	sb.WriteByte('\n')
	return sb.String()
}

// tagLabel renders "emoji name · project" from joined tag rows.
func tagLabel(clientTag *model.ClientTagRow, projectTag *model.ProjectTagRow) string {
	var parts []string
	if clientTag != nil {
		name := strings.TrimSpace(clientTag.Name)
		if clientTag.Emoji != "" {
			name = clientTag.Emoji + " " + name
		}
		if name != "" {
			parts = append(parts, name)
		}
	}
	if projectTag != nil && strings.TrimSpace(projectTag.Name) != "" {
		parts = append(parts, strings.TrimSpace(projectTag.Name))
	}
	return strings.Join(parts, " · ")
}
