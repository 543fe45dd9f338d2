package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/stoneyard/shipment-bot/internal/form"
	"github.com/stoneyard/shipment-bot/internal/metrics"
	"github.com/stoneyard/shipment-bot/internal/report"
	"github.com/stoneyard/shipment-bot/internal/session"
)

// rangeDays is the span of the range report offered in the menu.
const rangeDays = 30

// Sender delivers outgoing messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Deps are the collaborators of a Bot.
type Deps struct {
	Machine  *form.Machine
	Sessions session.Store
	Reporter *report.Reporter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type Bot struct {
	api      Sender
	machine  *form.Machine
	sessions session.Store
	reporter *report.Reporter
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func New(api Sender, deps Deps) *Bot {
	return &Bot{
		api:      api,
		machine:  deps.Machine,
		sessions: deps.Sessions,
		reporter: deps.Reporter,
		metrics:  deps.Metrics,
		logger:   deps.Logger.Named("bot"),
		now:      time.Now,
	}
}

// Poll long-polls Telegram until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	return b.Serve(ctx, updates)
}

// Serve handles updates one at a time until the channel closes or ctx is
// cancelled. Sequential handling keeps each conversation's events ordered.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one Telegram update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		b.metrics.UpdateReceived("command")
		b.handleCommand(ctx, msg)
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case MenuShipment:
		b.metrics.UpdateReceived("menu")
		b.fire(ctx, msg, form.Event{Trigger: form.TriggerStart})
		return
	case MenuYesterday:
		b.metrics.UpdateReceived("menu")
		b.handleDaily(ctx, msg.Chat.ID, 1)
		return
	case MenuDayBefore:
		b.metrics.UpdateReceived("menu")
		b.handleDaily(ctx, msg.Chat.ID, 2)
		return
	case MenuLast30Days:
		b.metrics.UpdateReceived("menu")
		b.handleRange(ctx, msg.Chat.ID, rangeDays)
		return
	}

	ev := eventFromMessage(msg)
	b.metrics.UpdateReceived(string(ev.Trigger))
	b.fire(ctx, msg, ev)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, greetingText, mainMenu())

	case "help":
		b.sendMessage(msg.Chat.ID, helpText, nil)

	case "cancel":
		b.fire(ctx, msg, form.Event{Trigger: form.TriggerCancel})

	case "shipment":
		b.fire(ctx, msg, form.Event{Trigger: form.TriggerStart})

	default:
		b.sendMessage(msg.Chat.ID, "Неизвестная команда. /help — список команд.", nil)
	}
}

func (b *Bot) fire(ctx context.Context, msg *tgbotapi.Message, ev form.Event) {
	id := conversationID(msg)
	ev.Operator = operatorName(msg.From)

	conv, err := b.sessions.Load(ctx, id)
	if err != nil {
		b.logger.Error("failed to load conversation", zap.String("conversation", id), zap.Error(err))
		b.sendMessage(msg.Chat.ID, unavailableText, nil)
		return
	}

	reply := b.machine.Fire(ctx, conv, ev)
	b.observe(reply)

	if conv.Step == form.StepIdle {
		err = b.sessions.Delete(ctx, id)
	} else {
		err = b.sessions.Save(ctx, conv)
	}
	if err != nil {
		b.logger.Error("failed to store conversation", zap.String("conversation", id), zap.Error(err))
	}

	text, markup := renderReply(reply)
	b.sendMessage(msg.Chat.ID, text, markup)
}

func (b *Bot) observe(r form.Reply) {
	switch r.Kind {
	case form.ReplyInvalid:
		b.metrics.ValidationFailed(string(r.Step))
		b.logger.Debug("input rejected", zap.String("step", string(r.Step)), zap.String("reason", r.Reason))
	case form.ReplyCommitted:
		b.metrics.ShipmentCommitted()
	case form.ReplyCommitFailed:
		b.metrics.CommitFailed()
	}
}

func (b *Bot) handleDaily(ctx context.Context, chatID int64, daysAgo int) {
	day := b.reporter.DaysAgo(b.now(), daysAgo)
	sum := b.reporter.Daily(ctx, day)

	outcome := "ok"
	switch {
	case sum.Unavailable:
		outcome = "unavailable"
	case sum.Empty():
		outcome = "empty"
	}
	b.metrics.ReportGenerated("daily", outcome)

	b.sendMessage(chatID, FormatSummary(sum), nil)
}

func (b *Bot) handleRange(ctx context.Context, chatID int64, days int) {
	now := b.now()
	res := b.reporter.Range(ctx, b.reporter.DaysAgo(now, days), now)

	outcome := "ok"
	switch {
	case res.Unavailable:
		outcome = "unavailable"
	case len(res.Rows) == 0:
		outcome = "empty"
	}
	b.metrics.ReportGenerated("range", outcome)

	b.sendMessage(chatID, FormatRange(res), nil)
}

func (b *Bot) sendMessage(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// conversationID keys a conversation by chat and user.
func conversationID(msg *tgbotapi.Message) string {
	return fmt.Sprintf("%d:%d", msg.Chat.ID, msg.From.ID)
}

func operatorName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func eventFromMessage(msg *tgbotapi.Message) form.Event {
	if len(msg.Photo) > 0 {
		return form.Event{Trigger: form.TriggerPhoto, PhotoRef: largestPhoto(msg.Photo)}
	}

	text := strings.TrimSpace(msg.Text)
	switch text {
	case ButtonProceed:
		return form.Event{Trigger: form.TriggerProceed}
	case ButtonConfirm:
		return form.Event{Trigger: form.TriggerCommit}
	case ButtonCancel:
		return form.Event{Trigger: form.TriggerCancel}
	}
	return form.Event{Trigger: form.TriggerText, Text: msg.Text}
}

// largestPhoto picks the highest-resolution size of a photo.
func largestPhoto(sizes []tgbotapi.PhotoSize) string {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best.FileID
}
