package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"daylog/internal/daylog"
	"daylog/internal/model"
	"daylog/internal/repository"
	"daylog/internal/service"
)

const (
	cbCompletePrefix   = "done:"
	cbUncompletePrefix = "undo:"
	cbDeletePrefix     = "del:"
	cbRecurDelPrefix   = "rdel:"
	cbClientDelPrefix  = "cdel:"
)

type confirmationAction int

const (
	actionDeleteTask confirmationAction = iota
	actionDeleteRecurring
	actionDeleteClient
)

type confirmationRequest struct {
	id     string
	action confirmationAction
}

// listing remembers the positions of the last rendered day log so
// numeric commands like /done 2 can resolve a task.
type listing struct {
	day       time.Time
	todo      []string
	completed []string
}

// Bot aggregates the Telegram API with the services behind it.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	taskSvc       *service.TaskService
	recurringSvc  *service.RecurringTaskService
	clientSvc     *service.ClientService
	teamSvc       *service.TeamService
	digestSvc     *service.DigestService
	loc           *time.Location
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	listings      map[int64]*listing
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, taskSvc *service.TaskService, recurringSvc *service.RecurringTaskService, clientSvc *service.ClientService, teamSvc *service.TeamService, digestSvc *service.DigestService, loc *time.Location) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logrus.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		taskSvc:       taskSvc,
		recurringSvc:  recurringSvc,
		clientSvc:     clientSvc,
		teamSvc:       teamSvc,
		digestSvc:     digestSvc,
		loc:           loc,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		listings:      make(map[int64]*listing),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	logrus.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				logrus.WithError(err).Error("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				logrus.WithError(err).Error("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled. Ready when you are.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		logrus.WithFields(logrus.Fields{"user": msg.From.ID, "command": msg.Command()}).Info("command")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't catch that. Try /add to log a task, or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "log":
		return b.handleLog(ctx, msg)
	case "add":
		return b.handleAdd(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "undo":
		return b.handleUndo(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "time":
		return b.handleTime(ctx, msg)
	case "tag":
		return b.handleTag(ctx, msg)
	case "untag":
		return b.handleUntag(ctx, msg)
	case "history":
		return b.handleHistory(ctx, msg)
	case "digest":
		return b.handleDigest(ctx, msg)
	case "recurring":
		return b.handleRecurring(ctx, msg)
	case "newrecurring":
		return b.startRecurringConversation(ctx, msg)
	case "clients":
		return b.handleClients(ctx, msg)
	case "newclient":
		return b.startClientConversation(ctx, msg)
	case "newproject":
		return b.handleNewProject(ctx, msg)
	case "team":
		return b.handleTeam(ctx, msg)
	case "invite":
		return b.handleInvite(ctx, msg)
	case "role":
		return b.handleRole(ctx, msg)
	case "remove":
		return b.handleRemove(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi %s!\n<b>I keep your daily activity log:</b> tasks, time, clients and recurring work.\n\nCommands:\n"+
			"• /add &lt;text&gt; — log a task (append a duration like 30m or 1.5h)\n"+
			"• /log [YYYY-MM-DD] — today's log with time totals\n"+
			"• /done &lt;n&gt; — complete a task from the list\n"+
			"• /history — completed work by day\n"+
			"• /recurring — recurring task templates\n"+
			"• /clients — clients and projects\n"+
			"• /help — everything else",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /add &lt;text&gt; [30m|1.5h] — log a task\n" +
		"• /log [YYYY-MM-DD] — the day's log\n" +
		"• /done &lt;n&gt; · /undo &lt;n&gt; · /delete &lt;n&gt; — work a listed task\n" +
		"• /time &lt;n&gt; &lt;30m|1.5h&gt; — set a task's duration\n" +
		"• /tag &lt;n&gt; &lt;client&gt;[ / &lt;project&gt;] · /untag &lt;n&gt; — tag a task\n" +
		"• /history — completed work grouped by day\n" +
		"• /digest — today's summary on demand\n" +
		"• /recurring · /newrecurring — recurring templates\n" +
		"• /clients · /newclient · /newproject &lt;client&gt; / &lt;name&gt;\n" +
		"• /team · /invite &lt;username&gt; &lt;role&gt; · /role · /remove\n" +
		"• /cancel — abort the current input"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLog(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	day := time.Now().In(b.loc)
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		parsed, err := time.ParseInLocation("2006-01-02", args, b.loc)
		if err != nil {
			return b.sendText(msg.Chat.ID, "I can't read that date. Use /log 2024-01-15 or plain /log for today.")
		}
		day = parsed
	}

	return b.sendDayLog(ctx, msg.Chat.ID, user, day)
}

var trailingDuration = regexp.MustCompile(`^\d+(\.\d+)?(h|m)$`)

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Tell me what to log: /add write release notes 30m")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	content := args
	var duration *string
	fields := strings.Fields(args)
	if len(fields) > 1 && trailingDuration.MatchString(fields[len(fields)-1]) {
		d := fields[len(fields)-1]
		duration = &d
		content = strings.TrimSpace(strings.TrimSuffix(args, d))
	}

	task, err := b.taskSvc.Create(ctx, user, content)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't save that: %s", escape(err.Error())))
	}
	if duration != nil {
		if _, err := b.taskSvc.Update(ctx, user, task.ID, service.TaskUpdate{Time: &duration}); err != nil {
			logrus.WithError(err).Warn("set duration after add")
		}
	}

	logrus.WithFields(logrus.Fields{"task": task.ID, "user": user.ID}).Info("task created")
	return b.sendDayLog(ctx, msg.Chat.ID, user, time.Now().In(b.loc))
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	user, taskID, err := b.resolveListedTask(ctx, msg, bucketTodo)
	if err != nil || taskID == "" {
		return err
	}
	task, err := b.taskSvc.Complete(ctx, user, taskID, time.Now())
	if err != nil {
		return b.taskError(msg.Chat.ID, err)
	}
	logrus.WithFields(logrus.Fields{"task": task.ID, "user": user.ID}).Info("task completed")
	if err := b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("✅ Done: %s", escape(shortTitle(task.Content, 60)))); err != nil {
		return err
	}
	return b.sendDayLog(ctx, msg.Chat.ID, user, b.listedDay(msg.From.ID))
}

func (b *Bot) handleUndo(ctx context.Context, msg *tgbotapi.Message) error {
	user, taskID, err := b.resolveListedTask(ctx, msg, bucketCompleted)
	if err != nil || taskID == "" {
		return err
	}
	task, err := b.taskSvc.Uncomplete(ctx, user, taskID)
	if err != nil {
		return b.taskError(msg.Chat.ID, err)
	}
	if err := b.sendTextWithRemove(msg.Chat.ID, fmt.Sprintf("↩️ Back to todo: %s", escape(shortTitle(task.Content, 60)))); err != nil {
		return err
	}
	return b.sendDayLog(ctx, msg.Chat.ID, user, b.listedDay(msg.From.ID))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	user, taskID, err := b.resolveListedTask(ctx, msg, bucketAny)
	if err != nil || taskID == "" {
		return err
	}
	task, err := b.taskSvc.Get(ctx, user, taskID)
	if err != nil {
		return b.taskError(msg.Chat.ID, err)
	}
	b.setConfirmation(msg.From.ID, confirmationRequest{id: task.ID, action: actionDeleteTask})
	text := fmt.Sprintf("Delete \"%s\"?", escape(shortTitle(task.Content, 60)))
	return b.sendWithReplyMarkup(msg.Chat.ID, text, confirmKeyboard())
}

func (b *Bot) handleTime(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /time 2 45m")
	}
	if !trailingDuration.MatchString(fields[1]) {
		return b.sendText(msg.Chat.ID, "Durations look like 30m or 1.5h.")
	}

	user, taskID, err := b.resolveIndexedTask(ctx, msg, fields[0], bucketAny)
	if err != nil || taskID == "" {
		return err
	}
	duration := &fields[1]
	if _, err := b.taskSvc.Update(ctx, user, taskID, service.TaskUpdate{Time: &duration}); err != nil {
		return b.taskError(msg.Chat.ID, err)
	}
	return b.sendDayLog(ctx, msg.Chat.ID, user, b.listedDay(msg.From.ID))
}

func (b *Bot) handleTag(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	fields := strings.SplitN(args, " ", 2)
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /tag 2 Acme / Website")
	}

	user, taskID, err := b.resolveIndexedTask(ctx, msg, fields[0], bucketAny)
	if err != nil || taskID == "" {
		return err
	}

	clientName, projectName := splitTagSpec(fields[1])
	client, project, err := b.matchClientProject(ctx, user, clientName, projectName)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	upd := service.TaskUpdate{}
	clientID := &client.ID
	upd.ClientTagID = &clientID
	if project != nil {
		projectID := &project.ID
		upd.ProjectTagID = &projectID
	}
	if _, err := b.taskSvc.Update(ctx, user, taskID, upd); err != nil {
		return b.taskError(msg.Chat.ID, err)
	}
	return b.sendDayLog(ctx, msg.Chat.ID, user, b.listedDay(msg.From.ID))
}

func (b *Bot) handleUntag(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Usage: /untag 2")
	}
	user, taskID, err := b.resolveIndexedTask(ctx, msg, args, bucketAny)
	if err != nil || taskID == "" {
		return err
	}
	var cleared *string
	if _, err := b.taskSvc.Update(ctx, user, taskID, service.TaskUpdate{ClientTagID: &cleared}); err != nil {
		return b.taskError(msg.Chat.ID, err)
	}
	return b.sendDayLog(ctx, msg.Chat.ID, user, b.listedDay(msg.From.ID))
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	today := time.Now().In(b.loc)
	groups, err := b.taskSvc.History(ctx, user, &today)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load history: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatHistory(groups, 10))
}

func (b *Bot) handleDigest(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.digestSvc.DailyDigest(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't build the digest: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleRecurring(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	rows, err := b.recurringSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load recurring tasks: %s", escape(err.Error())))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		buttons = append(buttons, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %s", shortTitle(row.Title, 24)),
				cbRecurDelPrefix+row.ID,
			),
		})
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, formatRecurringList(rows))
	out.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	return b.send(out)
}

func (b *Bot) handleClients(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	clients, err := b.clientSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load clients: %s", escape(err.Error())))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, client := range clients {
		buttons = append(buttons, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 %s", shortTitle(client.Name, 24)),
				cbClientDelPrefix+client.ID,
			),
		})
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, formatClients(clients))
	out.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	return b.send(out)
}

// handleNewProject creates a project from "/newproject Client / Name — description".
func (b *Bot) handleNewProject(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	clientName, rest := splitTagSpec(args)
	if clientName == "" || rest == "" {
		return b.sendText(msg.Chat.ID, "Usage: /newproject Acme / Website redesign")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	client, _, err := b.matchClientProject(ctx, user, clientName, "")
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	name := rest
	var description *string
	if before, after, found := strings.Cut(rest, "—"); found {
		name = strings.TrimSpace(before)
		d := strings.TrimSpace(after)
		if d != "" {
			description = &d
		}
	}

	project, err := b.clientSvc.AddProject(ctx, user, client.ID, name, description)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't create the project: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📁 Project <b>%s</b> added under %s %s.", escape(project.Name), client.Emoji, escape(client.Name)))
}

func (b *Bot) handleTeam(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	members, err := b.teamSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't load the team: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatTeam(members))
}

func (b *Bot) handleInvite(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /invite username member (roles: admin, member, viewer)")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	username := strings.TrimPrefix(fields[0], "@")
	member, err := b.teamSvc.AddByUsername(ctx, user, username, fields[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👥 @%s joined the team as %s.", escape(username), escape(member.Role)))
}

func (b *Bot) handleRole(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /role username viewer")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	member, err := b.userRepo.FindByUsername(ctx, strings.TrimPrefix(fields[0], "@"))
	if err != nil {
		return b.sendText(msg.Chat.ID, "I don't know that user.")
	}
	if err := b.teamSvc.UpdateRole(ctx, user, member.ID, fields[1]); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "That user is not on your team.")
		}
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👥 @%s is now %s.", escape(fields[0]), escape(fields[1])))
}

func (b *Bot) handleRemove(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Usage: /remove username")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	member, err := b.userRepo.FindByUsername(ctx, strings.TrimPrefix(args, "@"))
	if err != nil {
		return b.sendText(msg.Chat.ID, "I don't know that user.")
	}
	if err := b.teamSvc.Remove(ctx, user, member.ID); err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("👥 @%s removed from the team.", escape(args)))
}

// sendDayLog renders both buckets of the selected day with totals and
// remembers the listing for numeric commands.
func (b *Bot) sendDayLog(ctx context.Context, chatID int64, user *model.User, day time.Time) error {
	log, err := b.taskSvc.DayLogFor(ctx, user, day)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't load the log: %s", escape(err.Error())))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>%s</b>\n\n", formatDay(day.In(b.loc))))

	sb.WriteString(fmt.Sprintf("🔥 <b>To do</b> · %s\n", daylog.FormatMinutes(log.TodoMinutes)))
	if len(log.Todo) == 0 {
		sb.WriteString("— nothing open\n")
	}
	var buttons [][]tgbotapi.InlineKeyboardButton
	state := &listing{day: day}
	for i, task := range log.Todo {
		sb.WriteString(formatTaskLine(i+1, task))
		state.todo = append(state.todo, task.ID)
		buttons = append(buttons, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %d · %s", i+1, shortTitle(task.Content, 20)), cbCompletePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		})
	}

	sb.WriteString(fmt.Sprintf("\n✅ <b>Done</b> · %s\n", daylog.FormatMinutes(log.CompletedMinutes)))
	if len(log.Completed) == 0 {
		sb.WriteString("— nothing completed on this day\n")
	}
	for i, task := range log.Completed {
		sb.WriteString(formatTaskLine(i+1, task))
		state.completed = append(state.completed, task.ID)
		buttons = append(buttons, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("↩️ %d · %s", i+1, shortTitle(task.Content, 20)), cbUncompletePrefix+task.ID),
		})
	}

	b.setListing(user.TelegramID, state)

	out := tgbotapi.NewMessage(chatID, strings.TrimSpace(sb.String()))
	out.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	return b.send(out)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logrus.WithError(err).Warn("callback ack")
	}

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID := strings.TrimPrefix(data, cbCompletePrefix)
		task, err := b.taskSvc.Complete(ctx, user, taskID, time.Now())
		if err != nil {
			return b.taskError(chatID, err)
		}
		logrus.WithFields(logrus.Fields{"task": task.ID, "user": user.ID}).Info("task completed")
		return b.sendDayLog(ctx, chatID, user, b.listedDay(cb.From.ID))
	case strings.HasPrefix(data, cbUncompletePrefix):
		taskID := strings.TrimPrefix(data, cbUncompletePrefix)
		if _, err := b.taskSvc.Uncomplete(ctx, user, taskID); err != nil {
			return b.taskError(chatID, err)
		}
		return b.sendDayLog(ctx, chatID, user, b.listedDay(cb.From.ID))
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID := strings.TrimPrefix(data, cbDeletePrefix)
		task, err := b.taskSvc.Get(ctx, user, taskID)
		if err != nil {
			return b.taskError(chatID, err)
		}
		b.setConfirmation(cb.From.ID, confirmationRequest{id: task.ID, action: actionDeleteTask})
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete \"%s\"?", escape(shortTitle(task.Content, 60))), confirmKeyboard())
	case strings.HasPrefix(data, cbRecurDelPrefix):
		taskID := strings.TrimPrefix(data, cbRecurDelPrefix)
		tpl, err := b.recurringSvc.Get(ctx, user, taskID)
		if err != nil {
			return b.taskError(chatID, err)
		}
		b.setConfirmation(cb.From.ID, confirmationRequest{id: tpl.ID, action: actionDeleteRecurring})
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete the recurring task \"%s\"?", escape(shortTitle(tpl.Title, 60))), confirmKeyboard())
	case strings.HasPrefix(data, cbClientDelPrefix):
		clientID := strings.TrimPrefix(data, cbClientDelPrefix)
		client, err := b.clientSvc.Get(ctx, user, clientID)
		if err != nil {
			return b.taskError(chatID, err)
		}
		b.setConfirmation(cb.From.ID, confirmationRequest{id: client.ID, action: actionDeleteClient})
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete the client \"%s\"? Tasks keep their history.", escape(shortTitle(client.Name, 60))), confirmKeyboard())
	default:
		return nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		if req.action == actionDeleteRecurring {
			if err := b.recurringSvc.Delete(ctx, user, req.id); err != nil {
				return b.taskError(msg.Chat.ID, err)
			}
			return b.sendText(msg.Chat.ID, "🗑 Recurring task deleted.")
		}
		if req.action == actionDeleteClient {
			if err := b.clientSvc.Delete(ctx, user, req.id); err != nil {
				return b.taskError(msg.Chat.ID, err)
			}
			logrus.WithFields(logrus.Fields{"client": req.id, "user": user.ID}).Info("client deleted")
			return b.sendText(msg.Chat.ID, "🗑 Client deleted.")
		}
		if err := b.taskSvc.Delete(ctx, user, req.id); err != nil {
			return b.taskError(msg.Chat.ID, err)
		}
		logrus.WithFields(logrus.Fields{"task": req.id, "user": user.ID}).Info("task deleted")
		if err := b.sendTextWithRemove(msg.Chat.ID, "🗑 Task deleted."); err != nil {
			return err
		}
		return b.sendDayLog(ctx, msg.Chat.ID, user, b.listedDay(msg.From.ID))
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Nothing deleted.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please confirm or cancel the deletion.", confirmKeyboard())
	}
}

// SendDailyDigests sends a summary to every known user.
func (b *Bot) SendDailyDigests(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.digestSvc.DailyDigest(ctx, user, now)
		if err != nil {
			logrus.WithError(err).WithField("user", user.ID).Error("build digest")
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			logrus.WithError(err).WithField("user", user.ID).Error("send digest")
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelAdd:
		return true, b.sendText(msg.Chat.ID, "Send the task as /add write release notes 30m")
	case menuLabelLog:
		return true, b.handleLog(ctx, msg)
	case menuLabelHistory:
		return true, b.handleHistory(ctx, msg)
	case menuLabelRecurring:
		return true, b.handleRecurring(ctx, msg)
	case menuLabelClients:
		return true, b.handleClients(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

type bucket int

const (
	bucketTodo bucket = iota
	bucketCompleted
	bucketAny
)

// resolveListedTask turns the numeric argument of a command into a
// task ID from the last rendered listing.
func (b *Bot) resolveListedTask(ctx context.Context, msg *tgbotapi.Message, which bucket) (*model.User, string, error) {
	return b.resolveIndexedTask(ctx, msg, strings.TrimSpace(msg.CommandArguments()), which)
}

func (b *Bot) resolveIndexedTask(ctx context.Context, msg *tgbotapi.Message, raw string, which bucket) (*model.User, string, error) {
	if raw == "" {
		return nil, "", b.sendText(msg.Chat.ID, "Give me the task's number from the list, e.g. /done 2. Run /log to see it.")
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 1 {
		return nil, "", b.sendText(msg.Chat.ID, "Task numbers are positive integers from the /log list.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return nil, "", err
	}

	state := b.getListing(msg.From.ID)
	if state == nil {
		return nil, "", b.sendText(msg.Chat.ID, "Run /log first so I know which numbers mean what.")
	}

	var ids []string
	switch which {
	case bucketTodo:
		ids = state.todo
	case bucketCompleted:
		ids = state.completed
	case bucketAny:
		ids = append(append([]string{}, state.todo...), state.completed...)
	}
	if index > len(ids) {
		return nil, "", b.sendText(msg.Chat.ID, "No task with that number in the last list.")
	}
	return user, ids[index-1], nil
}

func (b *Bot) taskError(chatID int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.sendText(chatID, "Task not found. It may have been deleted already.")
	}
	return b.sendText(chatID, fmt.Sprintf("Something went wrong: %s", escape(err.Error())))
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, name, from.UserName)
}

// splitTagSpec parses "client / project"; the project part is
// optional.
func splitTagSpec(raw string) (client, project string) {
	parts := strings.SplitN(raw, "/", 2)
	client = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		project = strings.TrimSpace(parts[1])
	}
	return client, project
}

// matchClientProject finds the user's client (and optionally one of
// its projects) by case-insensitive name match.
func (b *Bot) matchClientProject(ctx context.Context, user *model.User, clientName, projectName string) (*model.Client, *model.Project, error) {
	clients, err := b.clientSvc.List(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	var client *model.Client
	for i := range clients {
		if strings.EqualFold(clients[i].Name, clientName) {
			client = &clients[i]
			break
		}
	}
	if client == nil {
		return nil, nil, fmt.Errorf("no client named %q; see /clients", clientName)
	}
	if projectName == "" {
		return client, nil, nil
	}
	for i := range client.Projects {
		if strings.EqualFold(client.Projects[i].Name, projectName) {
			return client, &client.Projects[i], nil
		}
	}
	return nil, nil, fmt.Errorf("client %q has no project named %q", client.Name, projectName)
}

func (b *Bot) listedDay(userID int64) time.Time {
	if state := b.getListing(userID); state != nil {
		return state.day
	}
	return time.Now().In(b.loc)
}

func (b *Bot) setListing(userID int64, state *listing) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listings[userID] = state
}

func (b *Bot) getListing(userID int64) *listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listings[userID]
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel input"
}
