package telegram

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ChatAccounts находит аккаунт по привязанному чату
type ChatAccounts interface {
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error)
}

// WeekImager рисует недельное расписание участника
type WeekImager interface {
	WeekImage(ctx context.Context, actor model.Actor, weekOf time.Time) ([]byte, error)
}

type BotController struct {
	bot      *bot.Bot
	accounts ChatAccounts
	bookings WeekImager
	logger   *zap.Logger
	now      func() time.Time
}

func NewBotController(botInstance *bot.Bot, accounts ChatAccounts, bookings WeekImager, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		accounts: accounts,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterHandlers регистрирует команды бота
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.wrap(c.handleStart))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.wrap(c.handleHelp))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.wrap(c.handleWeek))

	return c.setCommands(ctx)
}

func (c *BotController) wrap(fn func(ctx context.Context, s Sender, msg *models.Message)) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		fn(ctx, b, update.Message)
	}
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Link this chat to your account"},
		{Command: "week", Description: "🗓 This week's sessions"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает long polling до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

func (c *BotController) reply(ctx context.Context, s Sender, chatID int64, text string) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		c.logger.Warn("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func linkInstructions(chatID int64) string {
	return fmt.Sprintf(
		"To receive notifications here, set <code>telegramChatId</code> to <code>%d</code> "+
			"in your profile (PATCH /api/users/me).",
		chatID,
	)
}

func (c *BotController) handleStart(ctx context.Context, s Sender, msg *models.Message) {
	chatID := msg.Chat.ID

	account, err := c.accounts.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		c.logger.Error("Failed to find account by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, s, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	if account != nil {
		c.reply(ctx, s, chatID, fmt.Sprintf(
			"👋 Hi, %s!\n\nThis chat is linked to your account. Use /week to see your sessions.",
			nameOf(account),
		))
		return
	}

	c.reply(ctx, s, chatID, "👋 Welcome to Peer Tutoring!\n\n"+linkInstructions(chatID))
}

func (c *BotController) handleHelp(ctx context.Context, s Sender, msg *models.Message) {
	c.reply(ctx, s, msg.Chat.ID, "📚 Commands:\n\n"+
		"/start - Link this chat to your account\n"+
		"/week - This week's sessions as a picture\n"+
		"/help - Show this help")
}

// requireAccount находит аккаунт чата; при ошибке сам отвечает пользователю
func (c *BotController) requireAccount(ctx context.Context, s Sender, chatID int64) (*model.Account, bool) {
	account, err := c.accounts.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		c.logger.Error("Failed to find account by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, s, chatID, "❌ Something went wrong. Please try again later.")
		return nil, false
	}
	if account == nil {
		c.reply(ctx, s, chatID, "🔗 This chat is not linked yet.\n\n"+linkInstructions(chatID))
		return nil, false
	}
	return account, true
}

func (c *BotController) handleWeek(ctx context.Context, s Sender, msg *models.Message) {
	chatID := msg.Chat.ID

	account, ok := c.requireAccount(ctx, s, chatID)
	if !ok {
		return
	}

	actor := model.Actor{ID: account.ID, Role: account.Role}
	img, err := c.bookings.WeekImage(ctx, actor, c.now())
	if err != nil {
		c.logger.Error("Failed to render week", zap.String("account_id", account.ID.String()), zap.Error(err))
		c.reply(ctx, s, chatID, "❌ Could not build your schedule.")
		return
	}

	_, err = s.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(img)},
		Caption:   "🗓 <b>Your week</b>",
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		c.logger.Warn("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
