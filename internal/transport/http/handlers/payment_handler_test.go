package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	"github.com/onojaonoja2/ekonex/internal/infra/paystack"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
	paymentsvc "github.com/onojaonoja2/ekonex/internal/services/payments"
)

const goodSignature = "good-sig"

type webhookPurchaseStub struct {
	rec       pgrepo.PurchaseRecord
	markCalls int
}

func (s *webhookPurchaseStub) CreatePending(_ context.Context, _, _ int64, _ string, _ int64) (pgrepo.PurchaseRecord, error) {
	return pgrepo.PurchaseRecord{}, nil
}

func (s *webhookPurchaseStub) FindByReference(_ context.Context, reference string) (pgrepo.PurchaseRecord, error) {
	if reference != s.rec.Reference {
		return pgrepo.PurchaseRecord{}, pgrepo.ErrPurchaseNotFound
	}
	return s.rec, nil
}

func (s *webhookPurchaseStub) MarkSuccess(_ context.Context, reference string, ownerUserID int64) (pgrepo.PurchaseRecord, bool, error) {
	s.markCalls++
	if reference != s.rec.Reference || (ownerUserID > 0 && ownerUserID != s.rec.UserID) {
		return pgrepo.PurchaseRecord{}, false, pgrepo.ErrPurchaseNotFound
	}
	if s.rec.Status == string(enums.PurchaseStatusSuccess) {
		return s.rec, false, nil
	}
	s.rec.Status = string(enums.PurchaseStatusSuccess)
	return s.rec, true, nil
}

type webhookCourseStub struct{}

func (webhookCourseStub) FindByID(_ context.Context, _ int64) (pgrepo.CourseRecord, error) {
	return pgrepo.CourseRecord{}, pgrepo.ErrCourseNotFound
}

type webhookUserStub struct{}

func (webhookUserStub) FindByID(_ context.Context, _ int64) (pgrepo.UserRecord, error) {
	return pgrepo.UserRecord{}, pgrepo.ErrUserNotFound
}

type webhookGatewayStub struct{}

func (webhookGatewayStub) Initialize(_ context.Context, _, _ string, _ float64, _ string, _ map[string]any) (paystack.InitializeResult, error) {
	return paystack.InitializeResult{}, nil
}

func (webhookGatewayStub) Verify(_ context.Context, _ string) (paystack.VerifyResult, error) {
	return paystack.VerifyResult{}, nil
}

func (webhookGatewayStub) ValidateSignature(_ []byte, signatureHeader string) bool {
	return signatureHeader == goodSignature
}

type webhookGranterStub struct {
	grantCalls int
}

func (s *webhookGranterStub) Grant(_ context.Context, userID, courseID int64) (pgrepo.EnrollmentRecord, bool, error) {
	s.grantCalls++
	return pgrepo.EnrollmentRecord{UserID: userID, CourseID: courseID}, true, nil
}

func (s *webhookGranterStub) IsEnrolled(_ context.Context, _, _ int64) (bool, error) {
	return false, nil
}

func newWebhookFixture() (*PaymentHandler, *webhookPurchaseStub, *webhookGranterStub) {
	purchases := &webhookPurchaseStub{rec: pgrepo.PurchaseRecord{
		ID:        1,
		UserID:    1,
		CourseID:  10,
		Reference: "ref-1",
		Amount:    15000,
		Status:    string(enums.PurchaseStatusPending),
	}}
	granter := &webhookGranterStub{}
	service := paymentsvc.NewService(paymentsvc.Dependencies{
		Purchases:   purchases,
		Courses:     webhookCourseStub{},
		Users:       webhookUserStub{},
		Gateway:     webhookGatewayStub{},
		Enrollments: granter,
	})
	return NewPaymentHandler(service, zap.NewNop()), purchases, granter
}

func postWebhook(h *PaymentHandler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rr := httptest.NewRecorder()
	h.Webhook(rr, req)
	return rr
}

const settleEventBody = `{"event":"charge.success","data":{"reference":"ref-1","status":"success","metadata":{"userId":1,"courseId":10}}}`

func TestWebhookRejectsBadSignatureBeforeAnyWrite(t *testing.T) {
	h, purchases, granter := newWebhookFixture()

	for _, signature := range []string{"", "forged"} {
		rr := postWebhook(h, settleEventBody, signature)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("signature %q: expected 401, got %d", signature, rr.Code)
		}
	}

	if purchases.markCalls != 0 || granter.grantCalls != 0 {
		t.Fatalf("unsigned webhook must not reach the stores: marks=%d grants=%d",
			purchases.markCalls, granter.grantCalls)
	}
	if purchases.rec.Status != string(enums.PurchaseStatusPending) {
		t.Fatalf("purchase mutated by rejected webhook: %s", purchases.rec.Status)
	}
}

func TestWebhookSignedEventSettles(t *testing.T) {
	h, purchases, granter := newWebhookFixture()

	rr := postWebhook(h, settleEventBody, goodSignature)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if purchases.rec.Status != string(enums.PurchaseStatusSuccess) {
		t.Fatalf("purchase not settled: %s", purchases.rec.Status)
	}
	if granter.grantCalls != 1 {
		t.Fatalf("expected one grant, got %d", granter.grantCalls)
	}
}
