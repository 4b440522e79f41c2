package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chatauth/internal/services"
)

// Listener — входящая половина Telegram-интеграции: long-poll апдейтов.
// Команда /code выдаёт код привязки, нажатия кнопок уходят в гейтвей.
// С исходящей половиной (NotificationService) не связан — композиция
// происходит в app, цикла между отправкой и приёмом нет.
type Listener struct {
	Bot     *tgbotapi.BotAPI
	Codes   *services.CodeService
	Gateway *services.ConfirmationService
}

func NewListener(bot *tgbotapi.BotAPI, codes *services.CodeService, gateway *services.ConfirmationService) *Listener {
	return &Listener{Bot: bot, Codes: codes, Gateway: gateway}
}

func (l *Listener) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := l.Bot.GetUpdatesChan(u)

	log.Printf("[bot] listening as @%s", l.Bot.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			l.Bot.StopReceivingUpdates()
			log.Printf("[bot] stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			l.handleUpdate(ctx, update)
		}
	}
}

func (l *Listener) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		l.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		l.handleCommand(ctx, update.Message)
	}
}

func (l *Listener) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "code":
		l.handleCodeCommand(ctx, msg)
	case "start":
		l.reply(msg.Chat.ID, "Отправьте /code, чтобы получить код привязки устройства.")
	}
}

func (l *Listener) handleCodeCommand(ctx context.Context, msg *tgbotapi.Message) {
	code, isNew, err := l.Codes.GetOrCreateCode(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, services.ErrCodeSpaceExhausted) {
			// операционная авария, дальше работать нельзя
			log.Fatalf("[bot][code][fatal] %v", err)
		}
		log.Printf("[bot][code][err] user_id=%d: %v", msg.From.ID, err)
		l.reply(msg.Chat.ID, "Не удалось выдать код, попробуйте позже.")
		return
	}

	text := fmt.Sprintf("Ваш код привязки: <b>%s</b>\nДействует до %s.",
		code.Code, code.ExpiresAt.Local().Format("15:04:05"))
	if !isNew {
		text += "\n(прежний код ещё действует)"
	}
	l.reply(msg.Chat.ID, text)
	log.Printf("[bot][code] user_id=%d is_new=%v", msg.From.ID, isNew)
}

func (l *Listener) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	in := &services.Interaction{
		ID:     cb.ID,
		Data:   cb.Data,
		UserID: cb.From.ID,
	}
	if cb.Message != nil {
		in.ChatID = cb.Message.Chat.ID
		in.MessageID = cb.Message.MessageID
	}
	if err := l.Gateway.HandleInteraction(ctx, in); err != nil {
		log.Printf("[bot][callback][err] user_id=%d: %v", cb.From.ID, err)
	}
}

func (l *Listener) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := l.Bot.Send(msg); err != nil {
		log.Printf("[bot][reply][err] chat_id=%d: %v", chatID, err)
	}
}
