package models

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription - текущий push-токен устройства пользователя.
// На одного пользователя хранится не больше одного токена.
type PushSubscription struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Token     string    `db:"token" json:"expoPushToken"`
	UpdatedAt time.Time `db:"updated_at" json:"lastUpdated"`
}

// PushMessage - одно сообщение для одного токена.
type PushMessage struct {
	To    string            `json:"to"`
	Sound string            `json:"sound,omitempty"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// TicketStatus - статус приема сообщения шлюзом.
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "pending"
	TicketStatusOK      TicketStatus = "ok"
	TicketStatusError   TicketStatus = "error"
)

// Коды ошибок тикета, общие для всех шлюзов.
const (
	// TicketErrDeviceNotRegistered - токен больше не действует, подписку можно удалить.
	TicketErrDeviceNotRegistered = "DeviceNotRegistered"
	// TicketErrBatchFailed проставляется всем сообщениям батча, который шлюз не принял целиком.
	TicketErrBatchFailed = "BatchFailed"
)

// DeliveryTicket - ответ шлюза на одно сообщение батча.
// Status ok означает только "принято к отправке", а не "доставлено".
type DeliveryTicket struct {
	ID     string       `json:"id,omitempty"`
	Token  string       `json:"token"`
	Status TicketStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// DispatchReport - итог одного цикла рассылки.
// Sent+Skipped+Failed всегда равно числу подписок.
type DispatchReport struct {
	EventID uuid.UUID        `json:"eventId"`
	Sent    int              `json:"sent"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
	Batches int              `json:"batches"`
	Tickets []DeliveryTicket `json:"tickets,omitempty"`
}

// Total returns the number of subscriptions the report accounts for.
func (r DispatchReport) Total() int {
	return r.Sent + r.Skipped + r.Failed
}

// ReceiptStatus - итог доставки по квитанции шлюза (заполняется при сверке).
type ReceiptStatus string

const (
	ReceiptStatusPending   ReceiptStatus = "pending"
	ReceiptStatusDelivered ReceiptStatus = "delivered"
	ReceiptStatusFailed    ReceiptStatus = "failed"
)

// TrackedTicket хранит тикет вместе с контекстом, нужным для последующей сверки квитанций.
type TrackedTicket struct {
	ID            string        `json:"id"`
	Token         string        `json:"token"`
	EventID       uuid.UUID     `json:"eventId"`
	SentAt        time.Time     `json:"sentAt"`
	Status        TicketStatus  `json:"status"`
	Error         string        `json:"error,omitempty"`
	ReceiptStatus ReceiptStatus `json:"receiptStatus"`
	ReceiptError  string        `json:"receiptError,omitempty"`
}

// Receipt - финальный результат доставки, полученный от шлюза по ID тикета.
type Receipt struct {
	TicketID string
	Status   ReceiptStatus
	Error    string
}
