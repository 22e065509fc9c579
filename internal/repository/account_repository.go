package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository/base"
	"github.com/google/uuid"
)

const accountColumns = `id, name, email, password_hash, image, role, institution, major, bio,
		hourly_rate, subjects, rating, total_reviews, telegram_chat_id, created_at, updated_at`

type AccountRepository struct {
	*base.Repository
}

func NewAccountRepository(db base.DB) *AccountRepository {
	return &AccountRepository{Repository: base.NewRepository(db)}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	var role string
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Image,
		&role,
		&a.Institution,
		&a.Major,
		&a.Bio,
		&a.HourlyRate,
		&a.Subjects,
		&a.Rating,
		&a.TotalReviews,
		&a.TelegramChatID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	return &a, nil
}

// Create создаёт новый аккаунт
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (name, email, password_hash, institution, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		account.Name,
		strings.ToLower(account.Email),
		account.PasswordHash,
		account.Institution,
		string(account.Role),
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return classify("create account", err)
	}

	return nil
}

// GetByID получает аккаунт по ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}

	return account, nil
}

// GetByEmail получает аккаунт по email (без учёта регистра)
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	return account, nil
}

// GetByTelegramChatID получает аккаунт, привязанный к чату Telegram
func (r *AccountRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_chat_id = $1`

	account, err := scanAccount(r.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by telegram chat: %w", err)
	}

	return account, nil
}

// UpdateProfile частично обновляет профиль, nil-поля не трогаются
func (r *AccountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET name = COALESCE($1, name),
			institution = COALESCE($2, institution),
			major = COALESCE($3, major),
			bio = COALESCE($4, bio),
			hourly_rate = COALESCE($5, hourly_rate),
			subjects = COALESCE($6, subjects),
			telegram_chat_id = COALESCE($7, telegram_chat_id),
			updated_at = now()
		WHERE id = $8
		RETURNING ` + accountColumns

	account, err := scanAccount(r.QueryRow(
		ctx, query,
		upd.Name,
		upd.Institution,
		upd.Major,
		upd.Bio,
		upd.HourlyRate,
		upd.Subjects,
		upd.TelegramChatID,
		id,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, classify("update profile", err)
	}

	return account, nil
}

// PromoteToTutor делает пользователя тьютором
func (r *AccountRepository) PromoteToTutor(ctx context.Context, id uuid.UUID, app model.TutorApplication) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET role = $1, major = $2, subjects = $3, hourly_rate = $4, updated_at = now()
		WHERE id = $5
		RETURNING ` + accountColumns

	account, err := scanAccount(r.QueryRow(
		ctx, query,
		string(model.RoleTutor),
		app.Major,
		strings.Join(app.Subjects, ","),
		app.HourlyRate,
		id,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("promote to tutor: %w", err)
	}

	return account, nil
}

// SearchTutors ищет тьюторов по имени, специальности и предметам.
// Если viewer задан, он исключается из выдачи и подтягивается статус его связи.
func (r *AccountRepository) SearchTutors(ctx context.Context, viewer *uuid.UUID, search string, limit int) ([]*model.TutorListing, error) {
	query := `
		SELECT a.id, a.name, a.image, a.institution, a.major, a.bio,
			a.hourly_rate, a.subjects, a.rating, a.total_reviews, c.status
		FROM accounts a
		LEFT JOIN connections c ON c.tutor_id = a.id AND c.student_id = $1
		WHERE a.role IN ('TUTOR', 'BOTH')
			AND ($1::uuid IS NULL OR a.id <> $1)
			AND ($2 = '' OR a.name ILIKE $3 OR a.major ILIKE $3 OR a.subjects ILIKE $3)
		ORDER BY a.rating DESC, a.name ASC
		LIMIT $4
	`

	search = strings.TrimSpace(search)
	rows, err := r.Query(ctx, query, viewer, search, likePattern(search), limit)
	if err != nil {
		return nil, fmt.Errorf("search tutors: %w", err)
	}
	defer rows.Close()

	tutors := make([]*model.TutorListing, 0)
	for rows.Next() {
		var t model.TutorListing
		var status *string
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Image,
			&t.Institution,
			&t.Major,
			&t.Bio,
			&t.HourlyRate,
			&t.Subjects,
			&t.Rating,
			&t.TotalReviews,
			&status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tutor: %w", err)
		}
		if status != nil {
			s := model.ConnectionStatus(*status)
			t.ConnectionStatus = &s
		}
		tutors = append(tutors, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tutors: %w", err)
	}

	return tutors, nil
}
