package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier posts transaction notices to the admin chat.
type TelegramNotifier struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	logg        *logger.Logger
}

func NewTelegramNotifier(botToken, adminChatID string, logg *logger.Logger) *TelegramNotifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &TelegramNotifier{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPI,
		client:      &http.Client{Timeout: 5 * time.Second},
		logg:        logg,
	}
}

// Enabled reports whether both the bot token and admin chat are configured.
func (s *TelegramNotifier) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML-formatted message to chatID.
func (s *TelegramNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.logg.Debug(ctx, "telegram bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *TelegramNotifier) sendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		s.logg.Debug(ctx, "telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, strings.TrimSpace(text))
}

// TransactionCreated announces a new order.
func (s *TelegramNotifier) TransactionCreated(ctx context.Context, tx models.Transaction) error {
	user := tx.UserInfo.Data()
	ship := tx.ShippingInfo.Data()

	var items strings.Builder
	for i, item := range tx.Items.Data() {
		fmt.Fprintf(&items, "%d. <b>%s</b>\n   %d x %s\n",
			i+1, html.EscapeString(item.Title), item.Quantity, html.EscapeString(item.Price))
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER!</b>
<b>📋 Transaction:</b> %s
<b>👤 Customer:</b> %s
<b>📞 Phone:</b> %s
<b>📦 Items:</b>
%s
<b>💰 Total:</b> %s
<b>💳 Payment:</b> %s
<b>📍 Status:</b> ⏳ Waiting for verification
━━━━━━━━━━━━━━━━━━`,
		tx.TransactionID,
		html.EscapeString(user.DisplayName),
		html.EscapeString(ship.Phone),
		items.String(),
		FormatPrice(tx.TotalAmount),
		strings.ToUpper(string(tx.Payment.Method)),
	)
	return s.sendToAdmin(ctx, message)
}

// PaymentAccepted announces that an admin verified the payment proof.
func (s *TelegramNotifier) PaymentAccepted(ctx context.Context, tx models.Transaction) error {
	message := fmt.Sprintf(`<b>✅ PAYMENT ACCEPTED!</b>
<b>📋 Transaction:</b> %s
<b>💰 Amount:</b> %s
<b>💳 Method:</b> %s
━━━━━━━━━━━━━━━━━━
<i>Sunik Boba</i>`,
		tx.TransactionID,
		FormatPrice(tx.TotalAmount),
		strings.ToUpper(string(tx.Payment.Method)),
	)
	return s.sendToAdmin(ctx, message)
}
