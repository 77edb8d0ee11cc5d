package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"heritage-platform/internal/models"
)

const paymentColumns = `id, donation_type, amount, is_corporate, institution_name,
	name, email, donate_for_someone, recipient_name, recipient_surname,
	deduction_day, status, transaction_id, cancelled_at, created_at`

// PaymentFilter narrows ListPayments. Zero values mean "no filter".
type PaymentFilter struct {
	Status       string
	DonationType string
}

// CreatePayment records a successfully charged donation with status
// 'active'. It is only called after the gateway approved the charge.
func (s *Store) CreatePayment(ctx context.Context, p models.Payment) (models.Payment, error) {
	var created models.Payment
	query := `INSERT INTO payments
	            (donation_type, amount, is_corporate, institution_name, name, email,
	             donate_for_someone, recipient_name, recipient_surname, deduction_day,
	             status, transaction_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING ` + paymentColumns

	err := s.db.GetContext(ctx, &created, query,
		p.DonationType, p.Amount, p.IsCorporate, p.InstitutionName, p.Name, p.Email,
		p.DonateForSomeone, p.RecipientName, p.RecipientSurname, p.DeductionDay,
		models.PaymentActive, p.TransactionID,
	)
	if err != nil {
		return models.Payment{}, fmt.Errorf("creating payment: %w", err)
	}

	return created, nil
}

func (s *Store) GetPayment(ctx context.Context, id int64) (models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	err := s.db.GetContext(ctx, &payment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, ErrNotFound
		}
		return models.Payment{}, fmt.Errorf("getting payment %d: %w", id, err)
	}

	return payment, nil
}

// ListPayments returns donations newest first, optionally filtered by
// status and donation type.
func (s *Store) ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	builder := sq.Select(paymentColumns).
		From("payments").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.DonationType != "" {
		builder = builder.Where(sq.Eq{"donation_type": filter.DonationType})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building payments query: %w", err)
	}

	payments := []models.Payment{}
	if err := s.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	return payments, nil
}

// CancelPayment moves an active payment to 'cancelled' and stamps the
// cancellation time. Only rows still in 'active' match, so a concurrent
// double-cancel can succeed at most once.
func (s *Store) CancelPayment(ctx context.Context, id int64, at time.Time) (models.Payment, error) {
	var payment models.Payment
	query := `UPDATE payments
	          SET status = $1, cancelled_at = $2
	          WHERE id = $3 AND status = $4
	          RETURNING ` + paymentColumns

	err := s.db.GetContext(ctx, &payment, query, models.PaymentCancelled, at, id, models.PaymentActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, ErrNotFound
		}
		return models.Payment{}, fmt.Errorf("cancelling payment %d: %w", id, err)
	}

	return payment, nil
}
