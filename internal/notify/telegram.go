package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TelegramNotifier отправляет администраторам уведомления о событиях продукта.
// При пустом токене создается выключенный нотификатор: все вызовы — no-op.
// Ошибки отправки логируются и никогда не возвращаются вызывающему коду.
type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
	logger      *zap.Logger
}

// NewTelegramNotifier создает нотификатор. Возвращает выключенный экземпляр,
// если токен не задан или инициализация бота не удалась.
func NewTelegramNotifier(botToken string, adminChatID int64, logger *zap.Logger) *TelegramNotifier {
	n := &TelegramNotifier{
		adminChatID: adminChatID,
		logger:      logger,
	}

	if botToken == "" {
		logger.Info("Telegram-уведомления отключены: токен не задан")
		return n
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		logger.Error("ошибка инициализации Telegram бота, уведомления отключены", zap.Error(err))
		return n
	}

	n.bot = bot
	logger.Info("Telegram-уведомления включены", zap.Int64("admin_chat_id", adminChatID))
	return n
}

// ConversionTracked уведомляет о новой оплаченной конверсии
func (n *TelegramNotifier) ConversionTracked(referralCode, referredUserID, plan string, commission decimal.Decimal) {
	text := fmt.Sprintf("💰 Новая конверсия\nКод: %s\nПользователь: %s\nПлан: %s\nКомиссия: %s",
		referralCode, referredUserID, plan, commission.StringFixed(2))
	n.send(text)
}

// LeadCaptured уведомляет о новом лиде
func (n *TelegramNotifier) LeadCaptured(email, name, source string) {
	text := fmt.Sprintf("📨 Новый лид\nEmail: %s\nИмя: %s\nИсточник: %s", email, name, source)
	n.send(text)
}

// send отправляет сообщение администраторам, гася любые ошибки
func (n *TelegramNotifier) send(text string) {
	if n.bot == nil {
		return
	}

	msg := tgbotapi.NewMessage(n.adminChatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("ошибка отправки Telegram-уведомления", zap.Error(err))
	}
}
