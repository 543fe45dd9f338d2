package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stoneyard/shipment-bot/internal/form"
	"github.com/stoneyard/shipment-bot/internal/models"
	"github.com/stoneyard/shipment-bot/internal/report"
)

// Menu entries.
const (
	MenuShipment   = "🚚 Отгрузка"
	MenuYesterday  = "📊 Отчет: Вчера"
	MenuDayBefore  = "🗓️ Отчет: Позавчера"
	MenuLast30Days = "📅 Отчет: 30 дней"
)

// Form buttons.
const (
	ButtonProceed = "➡️ Далее"
	ButtonConfirm = "✅ Подтвердить"
	ButtonCancel  = "❌ Отмена"
)

const (
	greetingText = "👋 Салом! Бот для учета отгрузок камня.\n\n" +
		"Меню:\n" +
		"• " + MenuShipment + " — новая отгрузка\n" +
		"• " + MenuYesterday + "\n" +
		"• " + MenuDayBefore + "\n" +
		"• " + MenuLast30Days

	helpText = "/start — меню\n" +
		"/shipment — новая отгрузка\n" +
		"/cancel — отменить заполнение\n" +
		"/help — помощь"

	unavailableText = "Сервис временно недоступен, попробуйте позже."
)

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuShipment)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(MenuYesterday),
			tgbotapi.NewKeyboardButton(MenuDayBefore),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(MenuLast30Days)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func formKeyboard(buttons ...string) tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewKeyboardButton(b))
	}
	kb := tgbotapi.NewReplyKeyboard(row)
	kb.ResizeKeyboard = true
	return kb
}

func keyboardFor(step form.Step) tgbotapi.ReplyKeyboardMarkup {
	switch step {
	case form.StepIdle:
		return mainMenu()
	case form.StepPhotos:
		return formKeyboard(ButtonProceed, ButtonCancel)
	case form.StepConfirm:
		return formKeyboard(ButtonConfirm, ButtonCancel)
	}
	return formKeyboard(ButtonCancel)
}

// stepNumber is the 1-based position of a form step, idle excluded.
func stepNumber(step form.Step) int {
	for i, s := range form.Steps {
		if s == step {
			return i
		}
	}
	return 0
}

func renderReply(r form.Reply) (string, interface{}) {
	var text string
	switch r.Kind {
	case form.ReplyPrompt:
		text = fmt.Sprintf("Шаг %d/%d. %s:\n%s", stepNumber(r.Step), len(form.Steps)-2, r.Label, r.Hint)
	case form.ReplyInvalid:
		text = fmt.Sprintf("⚠️ %s: %s.\n%s", r.Label, r.Reason, r.Hint)
	case form.ReplyPhotoAdded:
		text = fmt.Sprintf("📷 Фото %d/%d принято. Отправьте ещё или нажмите «%s».", r.Photos, models.MaxPhotos, ButtonProceed)
	case form.ReplyPhotoLimit:
		text = fmt.Sprintf("Достигнут лимит: %d фото. Нажмите «%s».", models.MaxPhotos, ButtonProceed)
	case form.ReplyNeedPhotos:
		text = fmt.Sprintf("Нужно минимум %d фото, сейчас %d. Отправьте фото.", r.MinPhotos, r.Photos)
	case form.ReplyConfirm:
		text = renderDraft(r.Draft)
	case form.ReplyCommitted:
		text = "✅ Отгрузка сохранена."
		if r.Record != nil {
			text += "\nНомер: " + r.Record.OrderID
		}
	case form.ReplyCommitFailed:
		text = "❌ Не удалось сохранить отгрузку. Пожалуйста, заполните форму заново: " + MenuShipment
	case form.ReplyCancelled:
		text = "Заполнение отменено."
	case form.ReplyUnexpected:
		if r.Step == form.StepIdle {
			text = "Выберите действие в меню."
		} else {
			text = fmt.Sprintf("Сейчас ожидается: %s.\n%s", r.Label, r.Hint)
		}
	}
	return text, keyboardFor(r.Step)
}

func renderDraft(s models.Shipment) string {
	var sb strings.Builder
	sb.WriteString("Проверьте отгрузку:\n\n")
	sb.WriteString(fmt.Sprintf("🪨 Тип/размер: %s\n", s.StoneTypeSize))
	sb.WriteString(fmt.Sprintf("📐 Количество: %s\n", s.Quantity))
	sb.WriteString(fmt.Sprintf("📦 Поддонов: %d\n", s.Pallets()))
	sb.WriteString(fmt.Sprintf("📍 Адрес: %s\n", s.Destination))
	sb.WriteString(fmt.Sprintf("📞 Водитель: %s\n", s.DriverPhone))
	sb.WriteString(fmt.Sprintf("📷 Фото: %d\n", len(s.PhotoRefs)))
	sb.WriteString(fmt.Sprintf("💵 Доставка: %s\n", s.DeliveryPrice))
	sb.WriteString(fmt.Sprintf("👷 Загрузил: %s\n\n", s.LoaderName))
	sb.WriteString(fmt.Sprintf("%s или %s?", ButtonConfirm, ButtonCancel))
	return sb.String()
}

// FormatSummary renders a daily report.
func FormatSummary(s report.Summary) string {
	if s.Unavailable {
		return "⚠️ Хранилище недоступно, отчет не сформирован."
	}
	if s.Empty() {
		return fmt.Sprintf("За %s записей нет.", s.Date)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 Отчет за %s\n\n", s.Date))
	sb.WriteString(fmt.Sprintf("Заказов: %d\n", s.OrderCount))
	sb.WriteString(fmt.Sprintf("Поддонов: %d\n", s.PalletTotal))
	sb.WriteString(fmt.Sprintf("Количество: %s\n", formatQuantity(s.QuantityTotal)))
	if len(s.Loaders) > 0 {
		sb.WriteString(fmt.Sprintf("Грузчики: %s\n", strings.Join(s.Loaders, ", ")))
	}
	sb.WriteString("\n")
	for _, row := range s.Preview {
		sb.WriteString(previewLine(row))
		sb.WriteString("\n")
	}
	if s.Omitted > 0 {
		sb.WriteString(fmt.Sprintf("…и ещё %d\n", s.Omitted))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatRange renders a range report, listing at most PreviewLimit rows.
func FormatRange(res report.RangeResult) string {
	if res.Unavailable {
		return "⚠️ Хранилище недоступно, отчет не сформирован."
	}
	from := res.Start.Format(models.DateLayout)
	to := res.End.Format(models.DateLayout)
	if len(res.Rows) == 0 {
		return fmt.Sprintf("С %s по %s записей нет.", from, to)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 Отгрузки с %s по %s: %d\n\n", from, to, len(res.Rows)))
	for i, row := range res.Rows {
		if i == report.PreviewLimit {
			sb.WriteString(fmt.Sprintf("…и ещё %d\n", len(res.Rows)-report.PreviewLimit))
			break
		}
		sb.WriteString(row.Date + " ")
		sb.WriteString(previewLine(row))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// previewLine renders time, type, quantity, pallets and destination.
func previewLine(row models.ReportRow) string {
	clock := row.CreatedAt
	if len(clock) >= 16 {
		clock = clock[11:16]
	}
	return fmt.Sprintf("%s • %s • %s • %s под. • %s",
		clock, row.StoneTypeSize, row.Quantity, row.PalletCount, row.Destination)
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
