package repository

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/peer_tutoring/internal/repository/base"
)

var (
	// ErrDuplicate нарушение уникальности (email, telegram chat, пара student/tutor)
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceMissing ссылка на несуществующий аккаунт или тред
	ErrReferenceMissing = errors.New("referenced record does not exist")
)

// classify переводит ошибки postgres в ошибки репозитория
func classify(op string, err error) error {
	switch {
	case base.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case base.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, ErrReferenceMissing)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// likePattern экранирует спецсимволы LIKE и оборачивает в %...%
func likePattern(s string) string {
	var out []rune
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return "%" + string(out) + "%"
}
