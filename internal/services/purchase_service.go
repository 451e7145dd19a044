package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/chennaitransit/pass-backend/internal/database"
	"github.com/chennaitransit/pass-backend/internal/models"
	"github.com/chennaitransit/pass-backend/pkg/qrtoken"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrValidation marks purchase failures the caller caused. Handlers map it
// to a 400; everything else is a 500.
var ErrValidation = errors.New("validation failed")

// TokenEncoder renders the display token attached to a pass
type TokenEncoder interface {
	Encode(text string) (string, error)
}

// PurchaseResult is the pair of records a successful purchase produces
type PurchaseResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Pass        models.PassView     `json:"pass"`
}

// PurchaseService turns a validated purchase request into a linked
// Transaction + Pass pair.
//
// Write order is deliberate: the Transaction is persisted before the Pass so
// a failed Pass write still leaves an auditable payment record. There is no
// rollback; a Transaction orphaned by a later failure stays in place.
type PurchaseService struct {
	transactionRepo *database.TransactionRepository
	passRepo        *database.PassRepository
	pricing         *PricingService
	encoder         TokenEncoder
	logger          *logrus.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	transactionRepo *database.TransactionRepository,
	passRepo *database.PassRepository,
	pricing *PricingService,
	encoder TokenEncoder,
	logger *logrus.Logger,
) *PurchaseService {
	return &PurchaseService{
		transactionRepo: transactionRepo,
		passRepo:        passRepo,
		pricing:         pricing,
		encoder:         encoder,
		logger:          logger,
	}
}

// Purchase validates the request, recomputes the price server-side, and
// persists the Transaction and Pass. The client never dictates the amount.
func (s *PurchaseService) Purchase(userID uuid.UUID, req models.PurchaseRequest) (*PurchaseResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	startLocation := req.StartLocation
	endLocation := req.EndLocation
	if req.Mode == models.ModeAllInOne {
		startLocation = models.AllZones
		endLocation = models.AllZones
	}

	// Price is always computed here, from the route and tier. Unknown
	// stops surface as validation errors.
	amount, err := s.pricing.Price(req.Mode, req.PassType, startLocation, endLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	now := time.Now()
	validFrom := now
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}

	var validTo time.Time
	if req.ValidTill != nil {
		validTo = *req.ValidTill
	} else {
		validTo, err = s.pricing.ValidityWindow(req.PassType, validFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
	}
	if validFrom.After(validTo) {
		return nil, fmt.Errorf("%w: valid_from must not be after valid_till", ErrValidation)
	}

	method := req.Method
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	// Transaction first, so a failed pass write still leaves an audit trail
	transaction := &models.Transaction{
		ID:            uuid.New(),
		TransactionID: uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		Method:        method,
		Mode:          req.Mode,
		PassType:      req.PassType,
		Status:        models.TransactionStatusSuccess,
		CreatedAt:     now,
	}

	if err := s.transactionRepo.CreateTransaction(transaction); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	passID := uuid.New()
	summary := fmt.Sprintf(
		"PassID: %s | User: %s | Mode: %s | From: %s | To: %s | Type: %s | ValidTill: %s | Price: Rs.%d",
		passID, userID, req.Mode, startLocation, endLocation,
		req.PassType, validTo.Format("2006-01-02"), amount,
	)

	qrCode, err := s.encoder.Encode(summary)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":        userID,
			"transaction_id": transaction.TransactionID,
		}).WithError(err).Error("QR encoding failed after transaction write")
		return nil, fmt.Errorf("failed to generate pass token: %w", err)
	}

	pass := &models.Pass{
		ID:            passID,
		UserID:        userID,
		Mode:          req.Mode,
		StartLocation: startLocation,
		EndLocation:   endLocation,
		ValidFrom:     validFrom,
		ValidTo:       validTo,
		PassType:      req.PassType,
		Amount:        amount,
		QRCode:        qrCode,
		CreatedAt:     now,
	}

	if err := s.passRepo.CreatePass(pass); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":        userID,
			"transaction_id": transaction.TransactionID,
		}).WithError(err).Error("Pass write failed after transaction write")
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	// Back-link the payment to its pass
	if err := s.transactionRepo.AttachPass(transaction.ID, pass.ID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"transaction_id": transaction.TransactionID,
			"pass_id":        pass.ID,
		}).WithError(err).Error("Failed to attach pass to transaction")
		return nil, fmt.Errorf("failed to link transaction to pass: %w", err)
	}
	transaction.PassID = uuid.NullUUID{UUID: pass.ID, Valid: true}

	s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": transaction.TransactionID,
		"pass_id":        pass.ID,
		"mode":           pass.Mode,
		"pass_type":      pass.PassType,
		"amount":         amount,
	}).Info("Pass purchased")

	return &PurchaseResult{
		Transaction: transaction,
		Pass:        models.NewPassView(*pass, now),
	}, nil
}

// compile-time check that the QR generator satisfies TokenEncoder
var _ TokenEncoder = (*qrtoken.Generator)(nil)
