package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	dashboardUpcomingLimit = 5
	tutorListingLimit      = 20
)

// TokenIssuer выпускает токен доступа для аккаунта
type TokenIssuer interface {
	Issue(account *model.Account) (string, error)
}

type RegisterInput struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Institution string `json:"institution" validate:"required,min=2"`
	Password    string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	Name           *string  `json:"name" validate:"omitnil,min=2"`
	Institution    *string  `json:"institution"`
	Major          *string  `json:"major"`
	Bio            *string  `json:"bio"`
	HourlyRate     *float64 `json:"hourlyRate" validate:"omitnil,gte=0"`
	Subjects       *string  `json:"subjects"`
	TelegramChatID *int64   `json:"telegramChatId"`
}

type ApplyTutorInput struct {
	Major      string   `json:"major" validate:"required,min=2"`
	Subjects   []string `json:"subjects" validate:"required,min=1,dive,required"`
	HourlyRate float64  `json:"hourlyRate" validate:"gte=0"`
}

type AccountService struct {
	accounts    AccountStore
	bookings    BookingStore
	connections ConnectionStore
	tokens      TokenIssuer
	logger      *zap.Logger
	now         Clock
}

func NewAccountService(
	accounts AccountStore,
	bookings BookingStore,
	connections ConnectionStore,
	tokens TokenIssuer,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts:    accounts,
		bookings:    bookings,
		connections: connections,
		tokens:      tokens,
		logger:      logger,
		now:         time.Now,
	}
}

// Register регистрирует студента
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Institution = strings.TrimSpace(in.Institution)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, failure(s.logger, "hash password", err)
	}

	account := &model.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Institution:  in.Institution,
		Role:         model.RoleStudent,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("User with this email already exists")
		}
		return nil, failure(s.logger, "create account", err)
	}

	s.logger.Info("Account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("email", account.Email),
	)

	return account, nil
}

// Login проверяет пароль и выпускает токен
func (s *AccountService) Login(ctx context.Context, in LoginInput) (string, *model.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return "", nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", nil, failure(s.logger, "get account by email", err)
	}
	if account == nil {
		return "", nil, &Error{Kind: KindUnauthorized, Message: "Invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, &Error{Kind: KindUnauthorized, Message: "Invalid credentials"}
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return "", nil, failure(s.logger, "issue token", err)
	}

	return token, account, nil
}

// Dashboard профиль с разделами по роли
func (s *AccountService) Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, failure(s.logger, "get account", err)
	}
	if account == nil {
		return nil, notFound("User not found")
	}

	dashboard := &model.Dashboard{Account: account}
	from := s.now()

	switch account.Role {
	case model.RoleStudent:
		err = s.fillStudentSection(ctx, dashboard, from)
	case model.RoleTutor:
		err = s.fillTutorSection(ctx, dashboard, from)
	case model.RoleBoth:
		if err = s.fillStudentSection(ctx, dashboard, from); err == nil {
			err = s.fillTutorSection(ctx, dashboard, from)
		}
	default:
		err = fmt.Errorf("unknown role %q", account.Role)
	}
	if err != nil {
		return nil, failure(s.logger, "build dashboard", err, zap.String("account_id", actor.ID.String()))
	}

	return dashboard, nil
}

func (s *AccountService) fillStudentSection(ctx context.Context, d *model.Dashboard, from time.Time) error {
	upcoming, err := s.bookings.ListUpcomingAsStudent(ctx, d.ID, from, dashboardUpcomingLimit)
	if err != nil {
		return err
	}
	if upcoming == nil {
		upcoming = []*model.Booking{}
	}
	d.UpcomingAsStudent = upcoming
	return nil
}

func (s *AccountService) fillTutorSection(ctx context.Context, d *model.Dashboard, from time.Time) error {
	upcoming, err := s.bookings.ListUpcomingAsTutor(ctx, d.ID, from, dashboardUpcomingLimit)
	if err != nil {
		return err
	}
	pending, err := s.connections.CountPendingByTutor(ctx, d.ID)
	if err != nil {
		return err
	}
	if upcoming == nil {
		upcoming = []*model.Booking{}
	}
	d.UpcomingAsTutor = upcoming
	d.PendingRequests = &pending
	return nil
}

// UpdateProfile частично обновляет профиль
func (s *AccountService) UpdateProfile(ctx context.Context, actor model.Actor, in UpdateProfileInput) (*model.Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	account, err := s.accounts.UpdateProfile(ctx, actor.ID, model.ProfileUpdate{
		Name:           in.Name,
		Institution:    in.Institution,
		Major:          in.Major,
		Bio:            in.Bio,
		HourlyRate:     in.HourlyRate,
		Subjects:       in.Subjects,
		TelegramChatID: in.TelegramChatID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("Telegram chat is already linked to another account")
		}
		return nil, failure(s.logger, "update profile", err)
	}
	if account == nil {
		return nil, notFound("User not found")
	}

	s.logger.Info("Profile updated", zap.String("account_id", actor.ID.String()))
	return account, nil
}

// ApplyAsTutor переводит аккаунт в роль тьютора
func (s *AccountService) ApplyAsTutor(ctx context.Context, actor model.Actor, in ApplyTutorInput) (*model.Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	in.Major = strings.TrimSpace(in.Major)
	subjects := make([]string, 0, len(in.Subjects))
	for _, subj := range in.Subjects {
		if subj = strings.TrimSpace(subj); subj != "" {
			subjects = append(subjects, subj)
		}
	}
	in.Subjects = subjects
	if err := validateInput(in); err != nil {
		return nil, err
	}

	account, err := s.accounts.PromoteToTutor(ctx, actor.ID, model.TutorApplication{
		Major:      in.Major,
		Subjects:   in.Subjects,
		HourlyRate: in.HourlyRate,
	})
	if err != nil {
		return nil, failure(s.logger, "promote to tutor", err)
	}
	if account == nil {
		return nil, notFound("User not found")
	}

	s.logger.Info("Account became tutor",
		zap.String("account_id", actor.ID.String()),
		zap.Strings("subjects", in.Subjects),
	)
	return account, nil
}

// ListTutors каталог тьюторов; работает и без авторизации
func (s *AccountService) ListTutors(ctx context.Context, actor model.Actor, search string) ([]*model.TutorListing, error) {
	var viewer *uuid.UUID
	if actor.Authenticated() {
		id := actor.ID
		viewer = &id
	}

	tutors, err := s.accounts.SearchTutors(ctx, viewer, search, tutorListingLimit)
	if err != nil {
		return nil, failure(s.logger, "search tutors", err)
	}
	return tutors, nil
}
