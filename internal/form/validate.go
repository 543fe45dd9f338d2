package form

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/stoneyard/shipment-bot/internal/translator"
)

var (
	palletPattern = regexp.MustCompile(`^\d{1,4}$`)
	phonePattern  = regexp.MustCompile(`^\+?\d{9,15}$`)
)

// ValidationError reports input rejected by a step's rule.
type ValidationError struct {
	Step   Step
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Step, e.Reason)
}

// Rule is the input contract of one text step.
type Rule struct {
	Step  Step
	Label string
	Hint  string
	check func(raw string) (string, string)
}

// Validate checks raw input and returns the value to store.
func (r Rule) Validate(raw string) (string, error) {
	if r.check == nil {
		return "", &ValidationError{Step: r.Step, Reason: "этот шаг не принимает текст"}
	}
	value, reason := r.check(raw)
	if reason != "" {
		return "", &ValidationError{Step: r.Step, Reason: reason}
	}
	return value, nil
}

var rules = map[Step]Rule{
	StepStoneType: {
		Step:  StepStoneType,
		Label: "Тип и размер камня",
		Hint:  "Например: Габбро 60x30x2",
		check: minLengthTranslit,
	},
	StepQuantity: {
		Step:  StepQuantity,
		Label: "Количество (м² или погонные метры)",
		Hint:  "Например: 23.5 м²",
		check: nonEmpty,
	},
	StepPallets: {
		Step:  StepPallets,
		Label: "Количество поддонов",
		Hint:  "Только целое число, до 4 цифр. Например: 12",
		check: palletCount,
	},
	StepDestination: {
		Step:  StepDestination,
		Label: "Адрес доставки",
		Hint:  "Город или адрес, не короче 3 символов",
		check: minLengthTranslit,
	},
	StepPhone: {
		Step:  StepPhone,
		Label: "Телефон водителя",
		Hint:  "Например: +998901234567",
		check: driverPhone,
	},
	StepPhotos: {
		Step:  StepPhotos,
		Label: "Фото груза",
		Hint:  "Отправьте фото и нажмите «Далее»",
	},
	StepPrice: {
		Step:  StepPrice,
		Label: "Стоимость доставки",
		Hint:  "Например: 2500000",
		check: nonEmpty,
	},
	StepLoader: {
		Step:  StepLoader,
		Label: "Кто загрузил",
		Hint:  "Имя грузчика",
		check: nonEmptyTranslit,
	},
	StepConfirm: {
		Step:  StepConfirm,
		Label: "Подтверждение",
		Hint:  "Подтвердите или отмените отгрузку",
	},
}

// RuleFor returns the rule of a step. Photos and confirm carry only a label
// and hint; their input is not text.
func RuleFor(step Step) (Rule, bool) {
	r, ok := rules[step]
	return r, ok
}

func minLengthTranslit(raw string) (string, string) {
	value := strings.TrimSpace(raw)
	if utf8.RuneCountInString(value) <= 2 {
		return "", "слишком коротко, нужно больше 2 символов"
	}
	return strings.TrimSpace(translator.ToCyrillic(value)), ""
}

func nonEmpty(raw string) (string, string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", "значение не может быть пустым"
	}
	return value, ""
}

func nonEmptyTranslit(raw string) (string, string) {
	value, reason := nonEmpty(raw)
	if reason != "" {
		return "", reason
	}
	return strings.TrimSpace(translator.ToCyrillic(value)), ""
}

func palletCount(raw string) (string, string) {
	value := strings.TrimSpace(raw)
	if !palletPattern.MatchString(value) {
		return "", "нужно целое число от 0 до 9999"
	}
	return value, ""
}

func driverPhone(raw string) (string, string) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !phonePattern.MatchString(value) {
		return "", "неверный формат номера"
	}
	return value, ""
}
