package services

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackConfirmPrefix = "confirm_"
	callbackRevokePrefix  = "revoke_"
)

// NotificationService — исходящая половина Telegram-интеграции: отправка и
// редактирование сообщений. Для личного чата chat_id совпадает с user_id.
type NotificationService struct {
	Bot *tgbotapi.BotAPI
}

func NewNotificationService(bot *tgbotapi.BotAPI) *NotificationService {
	return &NotificationService{Bot: bot}
}

func (n *NotificationService) SendPrompt(ctx context.Context, userID int64, correlationID, clientContext string) error {
	text := "Кто-то запрашивает доступ с новым устройством."
	if clientContext != "" {
		text = fmt.Sprintf("Кто-то запрашивает доступ: %s", clientContext)
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", callbackConfirmPrefix+correlationID),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Отозвать", callbackRevokePrefix+correlationID),
		),
	)
	if _, err := n.Bot.Send(msg); err != nil {
		log.Printf("[tg][prompt][err] user_id=%d correlation_id=%s: %v", userID, correlationID, err)
		return fmt.Errorf("send prompt: %w", err)
	}
	log.Printf("[tg][prompt] user_id=%d correlation_id=%s", userID, correlationID)
	return nil
}

// EditConfirmed — убирает кнопки и фиксирует подтверждение.
func (n *NotificationService) EditConfirmed(ctx context.Context, chatID int64, messageID int) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, "Доступ подтверждён ✅")
	if _, err := n.Bot.Send(edit); err != nil {
		log.Printf("[tg][edit][err] chat_id=%d message_id=%d: %v", chatID, messageID, err)
		return fmt.Errorf("edit confirmed: %w", err)
	}
	return nil
}

// EditRevoking — промежуточное состояние, пока внешняя сторона обрабатывает отзыв.
func (n *NotificationService) EditRevoking(ctx context.Context, chatID int64, messageID int) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, "Отзываем доступ…")
	if _, err := n.Bot.Send(edit); err != nil {
		log.Printf("[tg][edit][err] chat_id=%d message_id=%d: %v", chatID, messageID, err)
		return fmt.Errorf("edit revoking: %w", err)
	}
	return nil
}

func (n *NotificationService) SendRevokedNotice(ctx context.Context, userID int64) error {
	msg := tgbotapi.NewMessage(userID, "Доступ отозван 🚫")
	if _, err := n.Bot.Send(msg); err != nil {
		log.Printf("[tg][notice][err] user_id=%d: %v", userID, err)
		return fmt.Errorf("send revoked notice: %w", err)
	}
	return nil
}

// AnswerInteraction — короткий ответ на callback query (всплывашка у пользователя).
func (n *NotificationService) AnswerInteraction(ctx context.Context, interactionID, text string) error {
	if _, err := n.Bot.Request(tgbotapi.NewCallback(interactionID, text)); err != nil {
		log.Printf("[tg][answer][err] interaction_id=%s: %v", interactionID, err)
		return fmt.Errorf("answer interaction: %w", err)
	}
	return nil
}
