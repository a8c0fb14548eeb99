package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/models"
)

const divider = "━━━━━━━━━━━━━━━━━━━━━━━━"

// WhatsApp builds wa.me hand-off links so a buyer can send their order to
// the shop.
type WhatsApp struct {
	number   string
	trackURL string
	loc      *time.Location
}

func NewWhatsApp(number, trackURL string) *WhatsApp {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return &WhatsApp{number: normalizeNumber(number), trackURL: trackURL, loc: loc}
}

// normalizeNumber keeps digits only, so "+62 813-9863" becomes "628139863".
func normalizeNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Link returns https://wa.me/<number>?text=<summary>.
func (w *WhatsApp) Link(tx models.Transaction) (string, error) {
	if w.number == "" {
		return "", apperrors.New(apperrors.CodeDependency, "whatsapp number is not configured")
	}
	text := strings.ReplaceAll(url.QueryEscape(w.Summary(tx)), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", w.number, text), nil
}

// Summary is the plain-text order message sent over WhatsApp.
func (w *WhatsApp) Summary(tx models.Transaction) string {
	user := tx.UserInfo.Data()
	ship := tx.ShippingInfo.Data()

	var b strings.Builder
	section := func(title string) {
		fmt.Fprintf(&b, "\n%s\n%s\n", title, divider)
	}

	fmt.Fprintf(&b, "🛍️ *NEW ORDER RECEIVED* 🛍️\n%s\n", divider)

	section("📦 *Order Information*")
	fmt.Fprintf(&b, "• ID: `%s`\n", tx.TransactionID)
	fmt.Fprintf(&b, "• Date: %s\n", tx.OrderDate.In(w.loc).Format("02/01/2006 15.04.05"))
	fmt.Fprintf(&b, "• Status: %s\n", strings.ToUpper(string(tx.Status)))

	section("👤 *Customer Details*")
	fmt.Fprintf(&b, "• Name: %s\n", user.DisplayName)
	fmt.Fprintf(&b, "• Email: %s\n", user.Email)

	section("📍 *Shipping Address*")
	fmt.Fprintf(&b, "%s\n%s\n%s\n", ship.FirstName, ship.StreetName, ship.Landmark)
	fmt.Fprintf(&b, "%s, %s %s\n", ship.City, ship.Province, ship.PostalCode)
	fmt.Fprintf(&b, "📱 Phone: %s\n", ship.Phone)

	section("🛒 *Order Items*")
	for _, item := range tx.Items.Data() {
		fmt.Fprintf(&b, "• %s\n  └ %dx - %s\n", item.Title, item.Quantity, item.Price)
	}

	section("💰 *Payment Summary*")
	fmt.Fprintf(&b, "• Method: %s\n", strings.ToUpper(string(tx.Payment.Method)))
	fmt.Fprintf(&b, "• Status: %s\n", strings.ToUpper(string(tx.Payment.Status)))
	fmt.Fprintf(&b, "• Total: %s\n", FormatPrice(tx.TotalAmount))

	section("📝 *Additional Notes*")
	note := strings.TrimSpace(tx.Message)
	if note == "" {
		note = "No additional notes"
	}
	b.WriteString(note + "\n")

	if w.trackURL != "" {
		section("📱 *Track Your Order*")
		fmt.Fprintf(&b, "To track your order status, please visit:\n%s\n", w.trackURL)
		fmt.Fprintf(&b, "Enter your Transaction ID: `%s`\n", tx.TransactionID)
	}

	fmt.Fprintf(&b, "\n%s\nThank you for your order! 🎉", divider)
	return b.String()
}
