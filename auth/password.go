package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PasswordIterations — фиксированное число итераций PBKDF2.
	PasswordIterations = 100_000
	passwordSaltLength = 16 // 128 бит
	passwordKeyLength  = 32 // 256 бит, SHA-256
)

// HashPassword формирует запись вида "<iterations>$<salt b64>$<key b64>".
// Пустой пароль допустим на этом уровне: отклонять его должны вызывающие.
func HashPassword(password string) (string, error) {
	salt := make([]byte, passwordSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate password salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, PasswordIterations, passwordKeyLength, sha256.New)

	record := fmt.Sprintf("%d$%s$%s",
		PasswordIterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return record, nil
}

// CheckPasswordHash перепроверяет пароль против сохранённой записи.
// Любая битая запись (не три поля, нечисловые итерации, невалидный base64)
// даёт false, а не ошибку. Сравнение ключей — за константное время.
func CheckPasswordHash(password, record string) bool {
	parts := strings.Split(record, "$")
	if len(parts) != 3 {
		return false
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}

	storedKey, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(storedKey) == 0 {
		return false
	}

	derived := pbkdf2.Key([]byte(password), salt, iterations, len(storedKey), sha256.New)

	return subtle.ConstantTimeCompare(derived, storedKey) == 1
}
