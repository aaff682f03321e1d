package lifecycle

import "time"

// CloseSession вычисляет время закрытия сессии. Повторное закрытие —
// идемпотентный no-op: исходное время завершения сохраняется, записи не нужны.
func CloseSession(endedAt *time.Time, now time.Time) (closedAt time.Time, changed bool) {
	if endedAt != nil {
		return *endedAt, false
	}
	return now, true
}
