package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"heritage-platform/internal/gateway"
	"heritage-platform/internal/middleware"
	"heritage-platform/internal/models"
	"heritage-platform/internal/store"
	"heritage-platform/internal/validate"
	ws "heritage-platform/internal/websocket"
)

// PaymentHandler serves donation submission, the admin listing and
// recurring-donation cancellation. Charges go through the simulated
// gateway; a declined attempt is terminal and the donor has to resubmit.
type PaymentHandler struct {
	Store   *store.Store
	Gateway *gateway.Simulator
	Hub     *ws.Hub
}

func NewPaymentHandler(s *store.Store, gw *gateway.Simulator, hub *ws.Hub) *PaymentHandler {
	return &PaymentHandler{Store: s, Gateway: gw, Hub: hub}
}

// Submit processes a donation: validate, charge, persist. Validation
// failures and Luhn rejections never reach the gateway; gateway declines
// never reach the database.
func (h *PaymentHandler) Submit(c *gin.Context) {
	var input validate.PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validate.Payment(input); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": errs[0].Message,
			"errors":  errs,
		})
		return
	}

	result, err := h.Gateway.Charge(gateway.ChargeRequest{
		Amount:     input.Amount,
		CardNumber: input.CardNumber,
		ExpiryDate: input.ExpiryDate,
		CVV:        input.CVV,
		HolderName: input.Name + " " + input.Surname,
		Email:      input.Email,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidCard) {
			fail(c, http.StatusBadRequest, "Invalid card number")
			return
		}
		log.Error().Err(err).Msg("gateway charge failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}
	if !result.Approved {
		fail(c, http.StatusBadRequest, result.Message)
		return
	}

	payment := models.Payment{
		DonationType:     input.DonationType,
		Amount:           input.Amount,
		IsCorporate:      input.IsCorporate,
		Name:             strings.TrimSpace(input.Name) + " " + strings.TrimSpace(input.Surname),
		Email:            input.Email,
		DonateForSomeone: input.DonateForSomeone,
		TransactionID:    result.TransactionID,
	}
	if input.IsCorporate {
		payment.InstitutionName = input.InstitutionName
	}
	if input.DonateForSomeone {
		payment.RecipientName = input.RecipientName
		payment.RecipientSurname = input.RecipientSurname
	}
	if input.DonationType == models.DonationMonthly {
		payment.DeductionDay = input.DeductionDay
	}

	created, err := h.Store.CreatePayment(c.Request.Context(), payment)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", result.TransactionID).Msg("persisting payment failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	if h.Hub != nil {
		h.Hub.Notify(ws.DonationAlert{
			DonorName:     created.Name,
			Amount:        created.Amount,
			DonationType:  created.DonationType,
			TransactionID: created.TransactionID,
			CreatedAt:     created.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Your donation was completed successfully",
		"transactionId": created.TransactionID,
	})
}

// List returns donations, optionally filtered by ?status= and
// ?donationType=. Admin only.
func (h *PaymentHandler) List(c *gin.Context) {
	filter := store.PaymentFilter{
		Status:       c.Query("status"),
		DonationType: c.Query("donationType"),
	}

	payments, err := h.Store.ListPayments(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("listing payments failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payments": payments})
}

// Get returns a single donation record. Admin only.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid payment id")
		return
	}

	payment, err := h.Store.GetPayment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "Donation record not found")
			return
		}
		log.Error().Err(err).Int64("payment_id", id).Msg("getting payment failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payment": payment})
}

// Cancel stops a monthly recurring donation. Allowed for the donor
// (matched by email) or an admin/superuser.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Please sign in")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid payment id")
		return
	}

	payment, err := h.Store.GetPayment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "Donation record not found")
			return
		}
		log.Error().Err(err).Int64("payment_id", id).Msg("getting payment failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	isAdmin := user.Role.AtLeast(models.RoleAdmin)
	isOwner := payment.Email == user.Email
	if !isAdmin && !isOwner {
		fail(c, http.StatusForbidden, "You do not have permission to perform this action")
		return
	}

	if payment.DonationType != models.DonationMonthly {
		fail(c, http.StatusBadRequest, "Only monthly recurring donations can be cancelled")
		return
	}
	if payment.Status != models.PaymentActive {
		fail(c, http.StatusBadRequest, "Only active donations can be cancelled")
		return
	}

	if result := h.Gateway.CancelSubscription(payment.TransactionID); !result.Approved {
		fail(c, http.StatusBadRequest, result.Message)
		return
	}

	if _, err := h.Store.CancelPayment(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with another cancel; the payment is no longer
			// active either way.
			fail(c, http.StatusBadRequest, "Only active donations can be cancelled")
			return
		}
		log.Error().Err(err).Int64("payment_id", id).Msg("cancelling payment failed")
		fail(c, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Your recurring donation has been cancelled",
	})
}
