package models

import "time"

const OrderStatusConfirmed = "confirmed"

// Order is a placed order. Guest orders have no UserID.
type Order struct {
	ID              string          `json:"id"`
	UserID          *int64          `json:"userId,omitempty"`
	Email           string          `json:"email"`
	Status          string          `json:"status"`
	Lines           []CartLine      `json:"items"`
	Totals          CartTotals      `json:"totals"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Payment         PaymentSummary  `json:"payment"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ShippingAddress is the delivery destination captured at checkout.
type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZIP          string `json:"zip"`
	Phone        string `json:"phone"`
}

// PaymentSummary is the non-sensitive record of a simulated charge.
type PaymentSummary struct {
	Network       string  `json:"network"`
	Last4         string  `json:"last4"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}
