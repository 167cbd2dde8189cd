package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/google/uuid"
)

// ErrPaymentDeclined is returned when the gateway refuses a charge.
var ErrPaymentDeclined = errors.New("payment declined")

// PaymentGateway charges a card.
type PaymentGateway interface {
	Charge(ctx context.Context, card PaymentForm, amount float64) (models.PaymentSummary, error)
}

// SimulatedGateway approves every charge except cards ending in 0002.
// No money moves.
type SimulatedGateway struct{}

func (SimulatedGateway) Charge(ctx context.Context, card PaymentForm, amount float64) (models.PaymentSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentSummary{}, err
	}
	number := digitsOnly(card.CardNumber)
	if strings.HasSuffix(number, "0002") {
		return models.PaymentSummary{}, ErrPaymentDeclined
	}

	last4 := number
	if len(number) > 4 {
		last4 = number[len(number)-4:]
	}
	return models.PaymentSummary{
		Network:       string(CardNetwork(number)),
		Last4:         last4,
		TransactionID: "SIM-" + uuid.NewString(),
		Amount:        amount,
	}, nil
}
