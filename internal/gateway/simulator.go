// Package gateway simulates the bank's payment gateway. It stands in
// for the production integration: same call shapes, artificial latency,
// probabilistic outcomes. Failures are terminal per attempt; nothing is
// retried here.
package gateway

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidCard means the card number failed the Luhn check. No charge
// is attempted for such input.
var ErrInvalidCard = errors.New("gateway: invalid card number")

// ChargeRequest carries the data a real gateway would receive. Card
// fields never leave this process.
type ChargeRequest struct {
	Amount     float64
	CardNumber string
	ExpiryDate string
	CVV        string
	HolderName string
	Email      string
}

// Result is the gateway's answer to a charge or cancellation attempt.
type Result struct {
	Approved      bool
	TransactionID string
	Message       string
}

// Simulator draws charge outcomes at the configured success rates after
// a fixed delay. Rates of 0 or 1 make it deterministic, which the tests
// rely on.
type Simulator struct {
	Delay             time.Duration
	ChargeSuccessRate float64
	CancelSuccessRate float64
}

// NewSimulator returns a simulator with production-like defaults:
// one-second latency, 90% charge success, 95% cancel success.
func NewSimulator() *Simulator {
	return &Simulator{
		Delay:             time.Second,
		ChargeSuccessRate: 0.9,
		CancelSuccessRate: 0.95,
	}
}

// Charge validates the card with the Luhn checksum and, when it passes,
// simulates the bank call. Luhn failure returns ErrInvalidCard before
// any latency is incurred.
func (s *Simulator) Charge(req ChargeRequest) (Result, error) {
	if !ValidCardNumber(req.CardNumber) {
		return Result{}, ErrInvalidCard
	}

	time.Sleep(s.Delay)

	if rand.Float64() >= s.ChargeSuccessRate {
		log.Info().Float64("amount", req.Amount).Msg("simulated gateway declined charge")
		return Result{
			Message: "The payment was declined by the bank. Please check your card details.",
		}, nil
	}

	txID := "tr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	log.Info().Str("transaction_id", txID).Float64("amount", req.Amount).Msg("simulated gateway approved charge")

	return Result{
		Approved:      true,
		TransactionID: txID,
		Message:       "Payment completed successfully",
	}, nil
}

// CancelSubscription simulates cancelling a recurring donation with the
// gateway.
func (s *Simulator) CancelSubscription(transactionID string) Result {
	time.Sleep(s.Delay / 2)

	if rand.Float64() >= s.CancelSuccessRate {
		log.Info().Str("transaction_id", transactionID).Msg("simulated gateway rejected cancellation")
		return Result{
			Message: "The cancellation could not be processed. Please try again later.",
		}
	}

	return Result{
		Approved: true,
		Message:  "Subscription cancelled successfully",
	}
}

// ValidCardNumber strips non-digits and applies the Luhn checksum.
// Lengths outside 13-19 digits are rejected outright.
func ValidCardNumber(cardNumber string) bool {
	var digits []int
	for _, r := range cardNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}

	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	return sum%10 == 0
}
