package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"daylog/internal/model"
	"daylog/internal/schedule"
	"daylog/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota

	// recurring task flow
	stageRecurTitle
	stageRecurTime
	stageRecurFrequency
	stageRecurWeekDay
	stageRecurMonthDay
	stageRecurClient
	stageRecurProject

	// client flow
	stageClientName
	stageClientEmoji
	stageClientColor
	stageClientTags
)

type conversationState struct {
	stage conversationStage

	recurring service.RecurringTaskInput
	// client picked during the recurring flow, kept for the project step
	pickedClient *model.Client

	clientName  string
	clientEmoji string
	clientColor string
	clientTags  []string
}

func (b *Bot) startRecurringConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageRecurTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "♻️ New recurring task.\n<b>Step 1:</b> what's the title?", cancelKeyboard())
}

func (b *Bot) startClientConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageClientName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🏢 New client.\n<b>Step 1:</b> what's the client's name?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageRecurTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title can't be empty. What's the title?", cancelKeyboard())
		}
		state.recurring.Title = text
		state.stage = stageRecurTime
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏱ How long does it usually take? (30m, 1.5h, or Skip)", skipKeyboard())
	case stageRecurTime:
		if !isSkipInput(text) {
			if !trailingDuration.MatchString(text) {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Durations look like <code>30m</code> or <code>1.5h</code>. Try again or Skip.", skipKeyboard())
			}
			state.recurring.Time = &text
		}
		state.stage = stageRecurFrequency
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 How often does it repeat?", frequencyKeyboard())
	case stageRecurFrequency:
		freq, ok := schedule.ParseFrequency(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Daily, Weekly or Monthly.", frequencyKeyboard())
		}
		state.recurring.Frequency = freq
		switch freq {
		case schedule.Weekly:
			state.stage = stageRecurWeekDay
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which weekday?", weekdayKeyboard())
		case schedule.Monthly:
			state.stage = stageRecurMonthDay
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which day of the month? (1–31)", tgbotapi.NewRemoveKeyboard(true))
		default:
			return b.askRecurringClient(ctx, msg, state)
		}
	case stageRecurWeekDay:
		day, ok := parseWeekday(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick a weekday from the keyboard.", weekdayKeyboard())
		}
		state.recurring.WeekDay = &day
		return b.askRecurringClient(ctx, msg, state)
	case stageRecurMonthDay:
		day, err := strconv.Atoi(text)
		if err != nil || day < 1 || day > 31 {
			return b.sendText(msg.Chat.ID, "The day must be a number from 1 to 31.")
		}
		state.recurring.MonthDay = &day
		return b.askRecurringClient(ctx, msg, state)
	case stageRecurClient:
		if isSkipInput(text) {
			return b.finishRecurringCreation(ctx, msg, state)
		}
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		client, _, err := b.matchClientProject(ctx, user, text, "")
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, escape(err.Error()), skipKeyboard())
		}
		state.recurring.ClientID = &client.ID
		state.pickedClient = client
		if len(client.Projects) == 0 {
			return b.finishRecurringCreation(ctx, msg, state)
		}
		names := make([]string, 0, len(client.Projects))
		for _, project := range client.Projects {
			names = append(names, project.Name)
		}
		state.stage = stageRecurProject
		return b.sendWithReplyMarkup(msg.Chat.ID, "📁 Pick a project (or Skip).", namesKeyboard(names))
	case stageRecurProject:
		if !isSkipInput(text) && state.pickedClient != nil {
			for i := range state.pickedClient.Projects {
				if strings.EqualFold(state.pickedClient.Projects[i].Name, text) {
					state.recurring.ProjectID = &state.pickedClient.Projects[i].ID
					break
				}
			}
			if state.recurring.ProjectID == nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "That project isn't on the list. Pick one or Skip.", skipKeyboard())
			}
		}
		return b.finishRecurringCreation(ctx, msg, state)

	case stageClientName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name can't be empty. What's the client's name?", cancelKeyboard())
		}
		state.clientName = text
		state.stage = stageClientEmoji
		return b.sendWithReplyMarkup(msg.Chat.ID, "Pick an emoji for the client (or Skip).", skipKeyboard())
	case stageClientEmoji:
		if !isSkipInput(text) {
			state.clientEmoji = text
		}
		state.stage = stageClientColor
		return b.sendWithReplyMarkup(msg.Chat.ID, "A hex color like <code>#2563eb</code> (or Skip).", skipKeyboard())
	case stageClientColor:
		if !isSkipInput(text) {
			if !strings.HasPrefix(text, "#") || (len(text) != 4 && len(text) != 7) {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Colors look like <code>#2563eb</code>. Try again or Skip.", skipKeyboard())
			}
			state.clientColor = text
		}
		state.stage = stageClientTags
		return b.sendWithReplyMarkup(msg.Chat.ID, "Comma-separated tags, e.g. <code>design, retainer</code> (or Skip).", skipKeyboard())
	case stageClientTags:
		if !isSkipInput(text) {
			for _, tag := range strings.Split(text, ",") {
				if trimmed := strings.TrimSpace(tag); trimmed != "" {
					state.clientTags = append(state.clientTags, trimmed)
				}
			}
		}
		return b.finishClientCreation(ctx, msg, state)

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Let's start over. Try /newrecurring or /newclient.")
	}
}

func (b *Bot) askRecurringClient(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	clients, err := b.clientSvc.List(ctx, user)
	if err != nil || len(clients) == 0 {
		return b.finishRecurringCreation(ctx, msg, state)
	}
	names := make([]string, 0, len(clients))
	for _, client := range clients {
		names = append(names, client.Name)
	}
	state.stage = stageRecurClient
	return b.sendWithReplyMarkup(msg.Chat.ID, "🏢 Tag a client? (pick one or Skip)", namesKeyboard(names))
}

func (b *Bot) finishRecurringCreation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	defer b.clearConversation(msg.From.ID)

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.recurringSvc.Create(ctx, user, state.recurring)
	if err != nil {
		return b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("Couldn't save the recurring task: %s", escape(err.Error())))
	}

	logrus.WithFields(logrus.Fields{"task": task.ID, "user": user.ID, "frequency": task.Frequency}).Info("recurring task created")

	var sb strings.Builder
	sb.WriteString("♻️ <b>Recurring task saved</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	sb.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", schedule.Display(schedule.Frequency(task.Frequency), task.WeekDay, task.MonthDay)))
	if task.Time != nil {
		sb.WriteString(fmt.Sprintf("• <b>Duration:</b> %s\n", escape(*task.Time)))
	}
	if state.pickedClient != nil {
		sb.WriteString(fmt.Sprintf("• <b>Client:</b> %s %s\n", state.pickedClient.Emoji, escape(state.pickedClient.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) finishClientCreation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	defer b.clearConversation(msg.From.ID)

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	client, err := b.clientSvc.Create(ctx, user, state.clientName, state.clientEmoji, state.clientColor, state.clientTags)
	if err != nil {
		return b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("Couldn't save the client: %s", escape(err.Error())))
	}

	logrus.WithFields(logrus.Fields{"client": client.ID, "user": user.ID}).Info("client created")
	return b.sendText(msg.Chat.ID, fmt.Sprintf("%s <b>%s</b> added. Create projects with /newproject %s / Project name.",
		client.Emoji, escape(client.Name), escape(client.Name)))
}

func parseWeekday(text string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for i := 0; i <= 6; i++ {
		if lower == strings.ToLower(schedule.WeekdayName(i)) {
			return i, true
		}
	}
	if day, err := strconv.Atoi(lower); err == nil && day >= 0 && day <= 6 {
		return day, true
	}
	return 0, false
}
