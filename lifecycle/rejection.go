// Package lifecycle содержит чистые машины состояний для сущностей:
// членства, приглашения, предложения участия, сессии и уведомления.
// Функции не делают записей и не бросают ошибок ради управления потоком:
// отказ перехода возвращается как *Rejection с видом и причиной, а сервисы
// уже на своей границе переводят его в типизированные ошибки.
package lifecycle

import "fmt"

type RejectionKind string

const (
	KindInvalidTransition RejectionKind = "invalid_transition"
	KindAlreadyResolved   RejectionKind = "already_resolved"
	KindGuardFailed       RejectionKind = "guard_failed"
)

type Rejection struct {
	Kind   RejectionKind
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

func reject(kind RejectionKind, format string, args ...interface{}) *Rejection {
	return &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
