package email

import (
	"fmt"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"go.uber.org/zap"
)

// LogSender is the placeholder mail transport: instead of delivering a
// message it writes it to the log, so flows can be exercised without a mail
// provider.
type LogSender struct {
	Logger *zap.Logger
}

// Send "delivers" a single message.
func (s *LogSender) Send(to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("email: empty recipient for %q", subject)
	}
	s.Logger.Info("email (placeholder)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// SendWelcome greets a newly registered shopper.
func (s *LogSender) SendWelcome(u *models.User) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Happy shopping!", u.FullName)
	return s.Send(u.Email, "Welcome to the store", body)
}

// SendOrderConfirmation summarizes a placed order.
func (s *LogSender) SendOrderConfirmation(o *models.Order) error {
	return s.Send(o.Email, "Order "+shortID(o.ID)+" confirmed", OrderSummary(o))
}

// OrderSummary renders the plain-text body of an order confirmation.
func OrderSummary(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order, %s!\n\n", o.ShippingAddress.FullName)
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "%d x %s", l.Quantity, l.Name)
		if len(l.SelectedVariants) > 0 {
			opts := make([]string, 0, len(l.SelectedVariants))
			for _, axis := range models.Axes {
				if name, ok := l.SelectedVariants[axis]; ok {
					opts = append(opts, name)
				}
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(opts, ", "))
		}
		fmt.Fprintf(&b, "  $%.2f\n", l.UnitPrice*float64(l.Quantity))
	}
	fmt.Fprintf(&b, "\nSubtotal: $%.2f\nTax: $%.2f\nShipping: $%.2f\nTotal: $%.2f\n",
		o.Totals.Subtotal, o.Totals.Tax, o.Totals.Shipping, o.Totals.Total)
	fmt.Fprintf(&b, "\nShipping to: %s, %s, %s %s\n",
		o.ShippingAddress.AddressLine1, o.ShippingAddress.City, o.ShippingAddress.State, o.ShippingAddress.ZIP)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
