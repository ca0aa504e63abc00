package models

import (
	"fmt"

	"github.com/example/vitrina/internal/i18n"
)

// PaymentStatus is the processor-reported state of an order's payment.
type PaymentStatus int

const (
	PaymentCreated        PaymentStatus = 0
	PaymentPreAuthorizing PaymentStatus = 1
	PaymentDebited        PaymentStatus = 2
	PaymentClosing        PaymentStatus = 3
	PaymentPaid           PaymentStatus = 4
	PaymentHeld           PaymentStatus = 5
	PaymentHoldRequested  PaymentStatus = 6
	PaymentPaused         PaymentStatus = 20
	PaymentCancelQueued   PaymentStatus = 21
	PaymentClosureQueued  PaymentStatus = 30
	PaymentCancelled      PaymentStatus = 50
)

var paymentStatusLabels = map[PaymentStatus]i18n.Text{
	PaymentCreated:        {"en": "created, awaiting confirmation", "ru": "Чек создан. Ожидание подтверждения оплаты."},
	PaymentPreAuthorizing: {"en": "pre-authorization in progress", "ru": "Первая стадия проверок. Создание транзакции в биллинге поставщика."},
	PaymentDebited:        {"en": "funds debited", "ru": "Списание денег с карты."},
	PaymentClosing:        {"en": "closing provider-side transaction", "ru": "Закрытие транзакции в биллинге поставщика."},
	PaymentPaid:           {"en": "paid", "ru": "Чек оплачен."},
	PaymentHeld:           {"en": "funds held", "ru": "Чек заблокирован."},
	PaymentHoldRequested:  {"en": "hold command received", "ru": "Получена команда на блокировку чека."},
	PaymentPaused:         {"en": "paused for manual intervention", "ru": "Чек стоит на паузе для ручного вмешательства."},
	PaymentCancelQueued:   {"en": "queued for cancellation", "ru": "Чек в очереди на отмену."},
	PaymentClosureQueued:  {"en": "queued for provider-side transaction closure", "ru": "Чек в очереди на закрытие транзакции в биллинге поставщика."},
	PaymentCancelled:      {"en": "cancelled", "ru": "Чек отменен."},
}

// Valid reports whether s is a code the processor defines.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatusLabels[s]
	return ok
}

// IsPaid reports terminal success.
func (s PaymentStatus) IsPaid() bool {
	return s == PaymentPaid
}

// IsTerminal reports whether the processor will not move the receipt further.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentCancelled
}

// Label returns a human-readable description in locale.
func (s PaymentStatus) Label(locale string) string {
	text, ok := paymentStatusLabels[s]
	if !ok {
		return fmt.Sprintf("unknown status %d", int(s))
	}
	return text.Get(locale, "en")
}
