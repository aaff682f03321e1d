package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor удовлетворяется и *sql.DB, и *sql.Tx. Методы записи принимают
// его параметром, чтобы оркестратор мог выполнить несколько записей в одной
// транзакции; nil означает «выполнить на пуле соединений репозитория».
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}
