package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	"github.com/onojaonoja2/ekonex/internal/infra/paystack"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

const (
	eventChargeSuccess = "charge.success"
	gatewaySuccess     = "success"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrCourseNotFound   = errors.New("course not found")
	ErrAlreadyEnrolled  = errors.New("already enrolled")
	ErrFreeCourse       = errors.New("course is free")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrVerification     = errors.New("payment verification failed")
)

type PurchaseStore interface {
	CreatePending(ctx context.Context, userID, courseID int64, reference string, amount int64) (pgrepo.PurchaseRecord, error)
	FindByReference(ctx context.Context, reference string) (pgrepo.PurchaseRecord, error)
	MarkSuccess(ctx context.Context, reference string, ownerUserID int64) (pgrepo.PurchaseRecord, bool, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (pgrepo.CourseRecord, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id int64) (pgrepo.UserRecord, error)
}

type Gateway interface {
	Initialize(ctx context.Context, email, reference string, amount float64, callbackURL string, metadata map[string]any) (paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (paystack.VerifyResult, error)
	ValidateSignature(rawBody []byte, signatureHeader string) bool
}

type Granter interface {
	Grant(ctx context.Context, userID, courseID int64) (pgrepo.EnrollmentRecord, bool, error)
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, kind enums.NotificationType, message string)
}

type Service struct {
	purchases   PurchaseStore
	courses     CourseStore
	users       UserStore
	gateway     Gateway
	enrollments Granter
	notifier    Notifier
	callbackURL string
	logger      *zap.Logger
}

type Dependencies struct {
	Purchases   PurchaseStore
	Courses     CourseStore
	Users       UserStore
	Gateway     Gateway
	Enrollments Granter
	Notifier    Notifier
	CallbackURL string
	Logger      *zap.Logger
}

type CheckoutResult struct {
	AuthorizationURL string
	Reference        string
	Amount           int64
}

type SettleResult struct {
	Reference string
	Status    string
	CourseID  int64
	Enrolled  bool
}

// checkoutMetadata is what we attach to the hosted checkout session and
// what comes back on webhook events. The provider may return it as an
// object or as a double-encoded JSON string.
type checkoutMetadata struct {
	UserID   int64 `json:"userId"`
	CourseID int64 `json:"courseId"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		purchases:   deps.Purchases,
		courses:     deps.Courses,
		users:       deps.Users,
		gateway:     deps.Gateway,
		enrollments: deps.Enrollments,
		notifier:    deps.Notifier,
		callbackURL: deps.CallbackURL,
		logger:      logger,
	}
}

// StartCheckout creates a pending ledger row under a fresh reference and
// opens a hosted checkout session for it. The reference is the idempotency
// key every later settlement attempt converges on.
func (s *Service) StartCheckout(ctx context.Context, userID, courseID int64) (CheckoutResult, error) {
	if userID <= 0 || courseID <= 0 {
		return CheckoutResult{}, ErrValidation
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return CheckoutResult{}, ErrCourseNotFound
		}
		return CheckoutResult{}, fmt.Errorf("find course: %w", err)
	}
	if !course.IsPublished || course.IsPaused {
		return CheckoutResult{}, ErrCourseNotFound
	}
	if course.Price <= 0 {
		return CheckoutResult{}, ErrFreeCourse
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return CheckoutResult{}, ErrAlreadyEnrolled
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("find user: %w", err)
	}

	reference := uuid.NewString()
	purchase, err := s.purchases.CreatePending(ctx, userID, courseID, reference, course.Price)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create pending purchase: %w", err)
	}

	init, err := s.gateway.Initialize(ctx, user.Email, reference, float64(course.Price), s.callbackURL, map[string]any{
		"userId":   userID,
		"courseId": courseID,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("initialize checkout: %w", err)
	}
	if init.Reference != "" && init.Reference != reference {
		return CheckoutResult{}, fmt.Errorf("gateway echoed reference %q for %q", init.Reference, reference)
	}

	return CheckoutResult{
		AuthorizationURL: init.AuthorizationURL,
		Reference:        purchase.Reference,
		Amount:           purchase.Amount,
	}, nil
}

// HandleWebhookEvent processes a provider webhook whose signature has
// already passed ValidateSignature at the transport layer. Malformed or
// unknown events are logged and skipped so the provider stops retrying,
// only infrastructure failures surface as errors.
func (s *Service) HandleWebhookEvent(ctx context.Context, rawBody []byte) error {
	var event struct {
		Event string `json:"event"`
		Data  struct {
			Reference string          `json:"reference"`
			Status    string          `json:"status"`
			Metadata  json.RawMessage `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &event); err != nil {
		s.logger.Warn("webhook payload is not valid json", zap.Error(err))
		return nil
	}

	if event.Event != eventChargeSuccess {
		s.logger.Info("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}

	reference := strings.TrimSpace(event.Data.Reference)
	if reference == "" {
		s.logger.Warn("charge.success event without reference")
		return nil
	}

	meta, err := decodeMetadata(event.Data.Metadata)
	if err != nil {
		s.logger.Warn("charge.success metadata unreadable, skipping settlement",
			zap.String("reference", reference), zap.Error(err))
		return nil
	}
	if meta.UserID <= 0 || meta.CourseID <= 0 {
		s.logger.Warn("charge.success metadata incomplete, skipping settlement",
			zap.String("reference", reference))
		return nil
	}

	// Settle owner-scoped so metadata that names the wrong user cannot
	// flip someone else's ledger row.
	result, err := s.settle(ctx, reference, meta.UserID)
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			s.logger.Warn("webhook for unknown purchase", zap.String("reference", reference))
			return nil
		}
		return err
	}

	s.logger.Info("webhook settled purchase",
		zap.String("reference", result.Reference),
		zap.Int64("course_id", result.CourseID),
		zap.Bool("enrolled", result.Enrolled))

	return nil
}

// CompleteCheckout is the browser-redirect settlement path. The redirect
// carries only a reference, so the transaction state is re-read from the
// provider before anything is marked paid. Safe to call any number of
// times for the same reference.
func (s *Service) CompleteCheckout(ctx context.Context, userID int64, reference string) (SettleResult, error) {
	reference = strings.TrimSpace(reference)
	if userID <= 0 || reference == "" {
		return SettleResult{}, ErrValidation
	}

	purchase, err := s.purchases.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return SettleResult{}, ErrPurchaseNotFound
		}
		return SettleResult{}, fmt.Errorf("find purchase: %w", err)
	}
	if purchase.UserID != userID {
		return SettleResult{}, ErrPurchaseNotFound
	}

	// The webhook usually wins the race. If it already settled the
	// ledger we only repair a possibly missing enrollment.
	if purchase.Status == string(enums.PurchaseStatusSuccess) {
		return s.ensureEnrolled(ctx, purchase)
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return SettleResult{}, fmt.Errorf("verify transaction: %w", err)
	}
	if verification.Status != gatewaySuccess {
		// The purchase stays pending, a later webhook or redirect can
		// still settle it once the charge goes through.
		return SettleResult{}, ErrVerification
	}

	return s.settle(ctx, reference, userID)
}

// settle flips the ledger row to success and grants the enrollment. Both
// steps are idempotent, so the webhook and redirect paths can both run it
// for the same reference and converge on one enrollment.
func (s *Service) settle(ctx context.Context, reference string, ownerUserID int64) (SettleResult, error) {
	purchase, changed, err := s.purchases.MarkSuccess(ctx, reference, ownerUserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return SettleResult{}, ErrPurchaseNotFound
		}
		return SettleResult{}, fmt.Errorf("mark purchase success: %w", err)
	}

	_, created, err := s.enrollments.Grant(ctx, purchase.UserID, purchase.CourseID)
	if err != nil {
		return SettleResult{}, fmt.Errorf("grant enrollment: %w", err)
	}

	if changed && s.notifier != nil {
		s.notifier.Notify(ctx, purchase.UserID, enums.NotificationSuccess,
			fmt.Sprintf("Your payment for course %d was confirmed.", purchase.CourseID))
	}
	if created {
		s.logger.Info("enrollment granted",
			zap.Int64("user_id", purchase.UserID),
			zap.Int64("course_id", purchase.CourseID),
			zap.String("reference", purchase.Reference))
	}

	return SettleResult{
		Reference: purchase.Reference,
		Status:    purchase.Status,
		CourseID:  purchase.CourseID,
		Enrolled:  true,
	}, nil
}

func (s *Service) ensureEnrolled(ctx context.Context, purchase pgrepo.PurchaseRecord) (SettleResult, error) {
	if _, _, err := s.enrollments.Grant(ctx, purchase.UserID, purchase.CourseID); err != nil {
		return SettleResult{}, fmt.Errorf("repair enrollment: %w", err)
	}

	return SettleResult{
		Reference: purchase.Reference,
		Status:    purchase.Status,
		CourseID:  purchase.CourseID,
		Enrolled:  true,
	}, nil
}

// decodeMetadata accepts the metadata either as a JSON object or as a
// JSON string holding an encoded object, which is how the provider echoes
// back what Initialize sent.
func decodeMetadata(raw json.RawMessage) (checkoutMetadata, error) {
	var meta checkoutMetadata
	if len(raw) == 0 {
		return meta, fmt.Errorf("metadata is empty")
	}

	if err := json.Unmarshal(raw, &meta); err == nil {
		return meta, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return meta, fmt.Errorf("metadata is neither object nor string")
	}
	if err := json.Unmarshal([]byte(encoded), &meta); err != nil {
		return meta, fmt.Errorf("decode metadata string: %w", err)
	}

	return meta, nil
}

// ValidateWebhookSignature is exposed for the transport layer, which must
// reject unsigned requests before the body is interpreted at all.
func (s *Service) ValidateWebhookSignature(rawBody []byte, signatureHeader string) bool {
	return s.gateway.ValidateSignature(rawBody, signatureHeader)
}

func (s *Service) FindPurchase(ctx context.Context, userID int64, reference string) (pgrepo.PurchaseRecord, error) {
	reference = strings.TrimSpace(reference)
	if userID <= 0 || reference == "" {
		return pgrepo.PurchaseRecord{}, ErrValidation
	}

	purchase, err := s.purchases.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return pgrepo.PurchaseRecord{}, ErrPurchaseNotFound
		}
		return pgrepo.PurchaseRecord{}, fmt.Errorf("find purchase: %w", err)
	}
	if purchase.UserID != userID {
		return pgrepo.PurchaseRecord{}, ErrPurchaseNotFound
	}

	return purchase, nil
}
