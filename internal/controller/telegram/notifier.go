package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender часть *bot.Bot для исходящих сообщений
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// AccountLookup получает аккаунт получателя уведомления
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

// Notifier доставляет события участникам, привязавшим Telegram-чат
type Notifier struct {
	sender   Sender
	accounts AccountLookup
	loc      *time.Location
	logger   *zap.Logger
}

func NewNotifier(sender Sender, accounts AccountLookup, loc *time.Location, logger *zap.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{sender: sender, accounts: accounts, loc: loc, logger: logger}
}

func (n *Notifier) pair(ctx context.Context, recipientID, otherID uuid.UUID) (recipient, other *model.Account, err error) {
	recipient, err = n.accounts.GetByID(ctx, recipientID)
	if err != nil {
		return nil, nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil || recipient.TelegramChatID == nil {
		return nil, nil, nil
	}
	other, err = n.accounts.GetByID(ctx, otherID)
	if err != nil {
		return nil, nil, fmt.Errorf("get counterpart: %w", err)
	}
	return recipient, other, nil
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// ConnectionRequested уведомляет тьютора о новой заявке
func (n *Notifier) ConnectionRequested(ctx context.Context, c *model.Connection) error {
	tutor, student, err := n.pair(ctx, c.TutorID, c.StudentID)
	if err != nil || tutor == nil {
		return err
	}
	return n.send(ctx, *tutor.TelegramChatID, connectionRequestedText(student))
}

// ConnectionDecided уведомляет студента о решении тьютора
func (n *Notifier) ConnectionDecided(ctx context.Context, c *model.Connection) error {
	student, tutor, err := n.pair(ctx, c.StudentID, c.TutorID)
	if err != nil || student == nil {
		return err
	}
	return n.send(ctx, *student.TelegramChatID, connectionDecidedText(tutor, c))
}

// BookingsCreated запрос студента уходит тьютору, назначенные тьютором занятия уходят студентам
func (n *Notifier) BookingsCreated(ctx context.Context, bookings []*model.Booking) error {
	var errs []error
	for _, b := range bookings {
		recipientID, otherID := b.StudentID, b.TutorID
		if b.Status == model.BookingStatusPending {
			recipientID, otherID = b.TutorID, b.StudentID
		}

		recipient, other, err := n.pair(ctx, recipientID, otherID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if recipient == nil {
			continue
		}
		if err := n.send(ctx, *recipient.TelegramChatID, bookingCreatedText(b, other, n.loc)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BookingStatusChanged уведомляет обоих участников
func (n *Notifier) BookingStatusChanged(ctx context.Context, b *model.Booking) error {
	var errs []error
	for _, ids := range [][2]uuid.UUID{{b.StudentID, b.TutorID}, {b.TutorID, b.StudentID}} {
		recipient, other, err := n.pair(ctx, ids[0], ids[1])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if recipient == nil {
			continue
		}
		if err := n.send(ctx, *recipient.TelegramChatID, bookingStatusText(b, other, n.loc)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		n.logger.Warn("Booking status notification incomplete",
			zap.String("booking_id", b.ID.String()),
			zap.Int("failed", len(errs)),
		)
	}
	return errors.Join(errs...)
}
