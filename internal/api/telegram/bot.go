package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "vitiligo-tracker/internal/application"
	"vitiligo-tracker/internal/domain/entity"
	"vitiligo-tracker/internal/infrastructure/vision"
)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	sessions *app.SessionService
	logger   *zap.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, sessions *app.SessionService, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:      api,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	switch user.State {
	case entity.StateAwaitingBeforePhoto, entity.StateAwaitingAfterPhoto:
		b.handlePhoto(ctx, msg, user)
	case entity.StateAwaitingAge:
		b.handleAge(ctx, msg)
	case entity.StateAwaitingWeeks:
		b.handleWeeks(ctx, msg)
	case entity.StateProcessing:
		b.sendMessage(msg.Chat.ID, msgBusy)
	default:
		b.sendMessage(msg.Chat.ID, msgUseTrack)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.cancel(ctx, msg)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "track":
		if user.State == entity.StateProcessing {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		if _, err := b.sessions.Begin(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			b.logger.Error("begin tracking", zap.Error(err))
			return
		}
		b.sendMessage(msg.Chat.ID, msgAwaitingBefore)

	case "history":
		summary, err := b.sessions.History(ctx, msg.From.ID)
		if err != nil {
			b.logger.Error("load history", zap.Error(err))
			b.sendMessage(msg.Chat.ID, msgProcessingError)
			return
		}
		b.sendMessage(msg.Chat.ID, FormatHistory(summary))

	case "cancel":
		b.cancel(ctx, msg)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

func (b *Bot) cancel(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.sessions.Cancel(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		b.logger.Error("cancel tracking", zap.Error(err))
	}
}

// handlePhoto принимает снимок «до» или «после»
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	fileID := photoFileID(msg)
	if fileID == "" {
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
		return
	}

	imageData, err := b.downloadFile(fileID)
	if err != nil {
		b.logger.Error("download photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	if user.State == entity.StateAwaitingBeforePhoto {
		_, err = b.sessions.AcceptBeforePhoto(ctx, msg.From.ID, msg.Chat.ID, imageData)
		if err == nil {
			b.sendMessage(msg.Chat.ID, msgAwaitingAfter)
		}
	} else {
		_, err = b.sessions.AcceptAfterPhoto(ctx, msg.From.ID, msg.Chat.ID, imageData)
		if err == nil {
			b.sendMessage(msg.Chat.ID, msgAwaitingAge)
		}
	}
	if err != nil {
		b.logger.Error("accept photo", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
	}
}

func (b *Bot) handleAge(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.sessions.AcceptAge(ctx, msg.From.ID, msg.Chat.ID, msg.Text); err != nil {
		b.sendMessage(msg.Chat.ID, FormatError(err))
		return
	}
	b.sendMessage(msg.Chat.ID, msgAwaitingWeeks)
}

func (b *Bot) handleWeeks(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := app.ParseWeeks(msg.Text); err != nil {
		b.sendMessage(msg.Chat.ID, FormatError(err))
		return
	}
	b.sendMessage(msg.Chat.ID, msgProcessing)

	out, err := b.sessions.AcceptWeeks(ctx, msg.From.ID, msg.Chat.ID, msg.Text)
	if out == nil {
		b.logger.Warn("tracking failed", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		b.sendMessage(msg.Chat.ID, FormatError(err))
		return
	}
	if err != nil {
		b.logger.Error("save history", zap.String("run_id", out.RunID), zap.Error(err))
	}

	b.sendMessage(msg.Chat.ID, FormatOutcome(out))
	b.sendOverlay(msg.Chat.ID, "before.jpg", "До лечения", out.Before.Overlay)
	b.sendOverlay(msg.Chat.ID, "after.jpg", "После лечения", out.After.Overlay)
}

// photoFileID берёт фото максимального разрешения или изображение, отправленное файлом
func photoFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID
	}
	return ""
}

func (b *Bot) sendOverlay(chatID int64, name, caption string, overlay *entity.RasterImage) {
	if overlay == nil {
		return
	}
	data, err := vision.EncodeJPEG(overlay)
	if err != nil {
		b.logger.Error("encode overlay", zap.Error(err))
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("send overlay", zap.Error(err))
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
