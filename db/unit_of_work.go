package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// UnitOfWork владеет одной транзакцией. Все записи, выполненные через Tx(),
// не видны другим единицам работы, пока Commit не завершится успешно.
// Жизненный цикл: open → committed | rolled back. Повторный Commit — no-op.
type UnitOfWork struct {
	tx   *sql.Tx
	done bool
}

// Begin открывает транзакцию против переданного пула соединений.
// Одна единица работы — один логический вызывающий; экземпляр не
// предназначен для использования из нескольких горутин.
func Begin(ctx context.Context, db *sql.DB) (*UnitOfWork, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Tx возвращает транзакцию для передачи в репозитории как SQLExecutor.
func (u *UnitOfWork) Tx() *sql.Tx {
	return u.tx
}

// Commit фиксирует все накопленные записи. Валиден только из открытого
// состояния: после commit или rollback вызов ничего не делает.
func (u *UnitOfWork) Commit() error {
	if u.done {
		return nil
	}
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.done = true
	return nil
}

// Close откатывает транзакцию, если Commit не был вызван. Ошибки отката
// только логируются: teardown не должен маскировать исходную ошибку.
// Предназначен для defer сразу после Begin.
func (u *UnitOfWork) Close() {
	if u.done {
		return
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("unit of work rollback failed", slog.Any("error", err))
	}
}
