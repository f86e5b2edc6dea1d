package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"daylog/internal/daylog"
	"daylog/internal/model"
	"daylog/internal/schedule"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// formatTaskLine renders one numbered task row with its duration and
// joined tag info.
func formatTaskLine(index int, task model.Task) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. %s", index, escape(strings.TrimSpace(task.Content))))
	if label := taskTagLabel(task); label != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(label)))
	}
	if task.Time != nil && strings.TrimSpace(*task.Time) != "" {
		sb.WriteString(fmt.Sprintf(" · ⏱ %s", daylog.FormatMinutes(daylog.ParseMinutes(*task.Time))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func taskTagLabel(task model.Task) string {
	var parts []string
	if task.ClientTag != nil {
		name := strings.TrimSpace(task.ClientTag.Name)
		if task.ClientTag.Emoji != "" {
			name = task.ClientTag.Emoji + " " + name
		}
		if name != "" {
			parts = append(parts, name)
		}
	}
	if task.ProjectTag != nil && strings.TrimSpace(task.ProjectTag.Name) != "" {
		parts = append(parts, strings.TrimSpace(task.ProjectTag.Name))
	}
	return strings.Join(parts, " · ")
}

func formatHistory(groups []daylog.DayGroup, limit int) string {
	var sb strings.Builder
	sb.WriteString("🗂 <b>History</b>\n\n")
	if len(groups) == 0 {
		sb.WriteString("No completed work yet.")
		return sb.String()
	}
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	for _, group := range groups {
		sb.WriteString(fmt.Sprintf("<b>%s</b> · %s\n", group.Day.Format("Mon, Jan 2 2006"), daylog.FormatMinutes(group.Minutes)))
		for _, task := range group.Tasks {
			sb.WriteString("• ")
			sb.WriteString(escape(strings.TrimSpace(task.Content)))
			if label := taskTagLabel(task); label != "" {
				sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(label)))
			}
			if task.Time != nil && strings.TrimSpace(*task.Time) != "" {
				sb.WriteString(fmt.Sprintf(" · %s", daylog.FormatMinutes(daylog.ParseMinutes(*task.Time))))
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

func formatRecurringList(rows []model.RecurringTaskRow) string {
	var sb strings.Builder
	sb.WriteString("♻️ <b>Recurring tasks</b>\n\n")
	if len(rows) == 0 {
		sb.WriteString("No recurring tasks yet. Create one with /newrecurring.")
		return sb.String()
	}
	for i, row := range rows {
		sb.WriteString(fmt.Sprintf("%d. %s — %s", i+1, escape(strings.TrimSpace(row.Title)),
			schedule.Display(schedule.Frequency(row.Frequency), row.WeekDay, row.MonthDay)))
		if row.ClientName != nil && *row.ClientName != "" {
			label := *row.ClientName
			if row.ClientEmoji != nil {
				label = *row.ClientEmoji + " " + label
			}
			if row.ProjectName != nil && *row.ProjectName != "" {
				label += " · " + *row.ProjectName
			}
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(label)))
		}
		if row.Time != nil && strings.TrimSpace(*row.Time) != "" {
			sb.WriteString(fmt.Sprintf(" · ⏱ %s", daylog.FormatMinutes(daylog.ParseMinutes(*row.Time))))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

func formatClients(clients []model.Client) string {
	var sb strings.Builder
	sb.WriteString("🏢 <b>Clients</b>\n\n")
	if len(clients) == 0 {
		sb.WriteString("No clients yet. Create one with /newclient.")
		return sb.String()
	}
	for _, client := range clients {
		sb.WriteString(fmt.Sprintf("%s <b>%s</b>", client.Emoji, escape(client.Name)))
		if tags := client.TagList(); len(tags) > 0 {
			sb.WriteString(fmt.Sprintf(" · %s", escape(strings.Join(tags, ", "))))
		}
		sb.WriteByte('\n')
		for _, project := range client.Projects {
			sb.WriteString(fmt.Sprintf("   └ %s", escape(project.Name)))
			if project.Description != nil && strings.TrimSpace(*project.Description) != "" {
				sb.WriteString(fmt.Sprintf(" — %s", escape(strings.TrimSpace(*project.Description))))
			}
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}

func formatTeam(members []model.TeamMember) string {
	var sb strings.Builder
	sb.WriteString("👥 <b>Team</b>\n\n")
	if len(members) == 0 {
		sb.WriteString("No team members yet. Add one with /invite username role.")
		return sb.String()
	}
	for _, member := range members {
		name := "(unknown)"
		username := ""
		if member.Member != nil {
			name = member.Member.Name
			username = member.Member.Username
		}
		sb.WriteString(fmt.Sprintf("• <b>%s</b>", escape(name)))
		if username != "" {
			sb.WriteString(fmt.Sprintf(" @%s", escape(username)))
		}
		sb.WriteString(fmt.Sprintf(" — %s\n", escape(member.Role)))
	}
	return strings.TrimSpace(sb.String())
}

func formatDay(day time.Time) string {
	return day.Format("Mon, Jan 2 2006")
}
