package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/onojaonoja2/ekonex/internal/services/auth"
	paymentsvc "github.com/onojaonoja2/ekonex/internal/services/payments"
	"github.com/onojaonoja2/ekonex/internal/transport/http/dto"
	httperrors "github.com/onojaonoja2/ekonex/internal/transport/http/errors"
)

const (
	signatureHeader = "X-Paystack-Signature"
	maxWebhookBody  = 1 << 20
)

type PaymentHandler struct {
	payments *paymentsvc.Service
	logger   *zap.Logger
}

func NewPaymentHandler(payments *paymentsvc.Service, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{payments: payments, logger: logger}
}

func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	var req dto.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.payments.StartCheckout(r.Context(), identity.UserID, req.CourseID)
	if err != nil {
		handlePaymentError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutResponse{
		AuthorizationURL: result.AuthorizationURL,
		Reference:        result.Reference,
		Amount:           result.Amount,
	})
}

// Webhook is the provider-to-server settlement entry point. The raw body
// is read before any parsing because the signature covers the exact bytes.
// Once the signature checks out the response is always 200, a retry of a
// malformed event would never succeed anyway.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "unreadable request body")
		return
	}

	if !h.payments.ValidateWebhookSignature(rawBody, r.Header.Get(signatureHeader)) {
		h.logger.Warn("webhook signature rejected", zap.String("remote", r.RemoteAddr))
		writeUnauthorized(w, "INVALID_SIGNATURE", "webhook signature mismatch")
		return
	}

	if err := h.payments.HandleWebhookEvent(r.Context(), rawBody); err != nil {
		h.logger.Error("webhook processing failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to process webhook")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{OK: true})
}

// Callback is the browser-redirect settlement entry point. It races the
// webhook for the same reference and both converge on one enrollment.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}

	result, err := h.payments.CompleteCheckout(r.Context(), identity.UserID, reference)
	if err != nil {
		handlePaymentError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SettleResponse{
		Reference: result.Reference,
		Status:    result.Status,
		CourseID:  result.CourseID,
		Enrolled:  result.Enrolled,
	})
}

func (h *PaymentHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	purchase, err := h.payments.FindPurchase(r.Context(), identity.UserID, r.URL.Query().Get("reference"))
	if err != nil {
		handlePaymentError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseResponse{
		Reference: purchase.Reference,
		CourseID:  purchase.CourseID,
		Amount:    purchase.Amount,
		Status:    purchase.Status,
	})
}

func handlePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymentsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, paymentsvc.ErrCourseNotFound):
		writeNotFound(w, "COURSE_NOT_FOUND", "course not found")
	case errors.Is(err, paymentsvc.ErrPurchaseNotFound):
		writeNotFound(w, "PURCHASE_NOT_FOUND", "purchase not found")
	case errors.Is(err, paymentsvc.ErrVerification):
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "VERIFICATION_FAILED",
			Message: "payment verification failed",
		})
	case errors.Is(err, paymentsvc.ErrFreeCourse):
		writeBadRequest(w, "FREE_COURSE", "free courses do not require checkout")
	case errors.Is(err, paymentsvc.ErrAlreadyEnrolled):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "ALREADY_ENROLLED",
			Message: "already enrolled in this course",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
