package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/signing"
	"github.com/go-playground/validator"
)

// Outbound field names not shared with notifications.
const (
	FieldTxnType         = "txntype"
	FieldTimezone        = "timezone"
	FieldCheckoutOption  = "checkoutoption"
	FieldPaymentMethod   = "paymentMethod"
	FieldSuccessURL      = "responseSuccessURL"
	FieldFailURL         = "responseFailURL"
	FieldNotificationURL = "transactionNotificationURL"
	FieldDonorName       = "bname"
	FieldDonorEmail      = "bmail"
)

// maxOrderIDAttempts bounds regeneration when a generated order id is
// already taken.
const maxOrderIDAttempts = 3

// TxnDateTimeLayout is the vendor timestamp layout, YYYY:MM:DD-HH:MM:SS.
const TxnDateTimeLayout = "2006:01:02-15:04:05"

// RequestProfile holds the fixed, per-deployment values of every outbound
// request.
type RequestProfile struct {
	StoreName       string
	GatewayURL      string
	Currency        string
	TxnType         string
	CheckoutOption  string
	PaymentMethod   string
	Location        *time.Location
	Limits          domain.AmountLimits
	SuccessURL      string
	FailURL         string
	NotificationURL string
}

type InitiateService struct {
	store    application.PaymentStore
	engine   *signing.Engine
	scope    signing.Scope
	profile  RequestProfile
	validate *validator.Validate
	logger   *slog.Logger

	now        func() time.Time
	newOrderID func(time.Time) string
}

type InitiateOption func(*InitiateService)

func WithClock(now func() time.Time) InitiateOption {
	return func(s *InitiateService) { s.now = now }
}

func WithOrderIDGenerator(gen func(time.Time) string) InitiateOption {
	return func(s *InitiateService) { s.newOrderID = gen }
}

func NewInitiateService(
	store application.PaymentStore,
	engine *signing.Engine,
	scope signing.Scope,
	profile RequestProfile,
	logger *slog.Logger,
	opts ...InitiateOption,
) *InitiateService {
	if profile.Location == nil {
		profile.Location = time.UTC
	}
	s := &InitiateService{
		store:      store,
		engine:     engine,
		scope:      scope,
		profile:    profile,
		validate:   validator.New(),
		logger:     logger,
		now:        time.Now,
		newOrderID: NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate validates the command, builds and signs the outbound field set
// and records a pending payment. Nothing is signed or stored when
// validation fails.
func (s *InitiateService) Initiate(ctx context.Context, cmd InitiateCommand) (*SignedRequest, error) {
	amount, donor, err := s.validateCommand(cmd)
	if err != nil {
		return nil, err
	}

	// One clock reading feeds both the order id and txndatetime.
	now := s.now().In(s.profile.Location)

	var (
		orderID   string
		fields    domain.Fields
		canonical string
		signature string
		payment   *domain.Payment
	)
	for attempt := 1; ; attempt++ {
		orderID = s.newOrderID(now)
		if !domain.ValidOrderID(orderID) {
			return nil, application.NewInternalError(domain.NewInvalidOrderIDError(orderID))
		}

		fields = s.buildFields(orderID, amount, now, donor)

		canonical, err = signing.Canonicalize(fields, s.scope)
		if err != nil {
			s.logger.Error("cannot canonicalize outbound request",
				"order_id", orderID,
				"scope", s.scope.String(),
				"error", err)
			return nil, err
		}

		signature = s.engine.Sign(canonical)
		fields[s.scope.SignatureField()] = signature

		payment, err = domain.NewPayment(orderID, cmd.GoalID, amount, s.profile.Currency, donor, now)
		if err != nil {
			return nil, err
		}

		err = s.store.Create(ctx, payment)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateOrder) && attempt < maxOrderIDAttempts {
			s.logger.Warn("order id collision, generating a new one",
				"order_id", orderID,
				"attempt", attempt)
			continue
		}

		s.logger.Error("failed to persist pending payment",
			"order_id", orderID,
			"error", err)
		return nil, application.NewStorageUnavailableError(err)
	}

	s.logger.Info("payment initiated",
		"order_id", orderID,
		"goal_id", cmd.GoalID,
		"amount", amount.String(),
		"txndatetime", fields[domain.FieldTxnDateTime],
		"signature", signing.Preview(signature))

	return &SignedRequest{
		OrderID:   orderID,
		FormURL:   s.profile.GatewayURL,
		Fields:    fields,
		Canonical: canonical,
		Payment:   payment,
	}, nil
}

func (s *InitiateService) validateCommand(cmd InitiateCommand) (domain.Amount, domain.Donor, error) {
	if strings.TrimSpace(cmd.GoalID) == "" {
		return domain.Amount{}, domain.Donor{}, domain.NewMissingRequiredFieldError("goal_id")
	}

	amount, err := domain.NewAmount(cmd.Amount)
	if err != nil {
		return domain.Amount{}, domain.Donor{}, err
	}
	if err := s.profile.Limits.Check(amount); err != nil {
		return domain.Amount{}, domain.Donor{}, err
	}

	donor := cmd.Donor
	donor.Name = strings.TrimSpace(donor.Name)
	donor.Email = strings.TrimSpace(donor.Email)
	if donor.Email != "" {
		if err := s.validate.Var(donor.Email, "email,max=254"); err != nil {
			return domain.Amount{}, domain.Donor{}, domain.NewValidationError(fmt.Sprintf("donor email %q is not valid", donor.Email))
		}
	}
	if len(donor.Name) > 100 {
		return domain.Amount{}, domain.Donor{}, domain.NewValidationError("donor name must be at most 100 characters")
	}
	if len(donor.Message) > 500 {
		return domain.Amount{}, domain.Donor{}, domain.NewValidationError("donor message must be at most 500 characters")
	}

	return amount, donor, nil
}

func (s *InitiateService) buildFields(orderID string, amount domain.Amount, now time.Time, donor domain.Donor) domain.Fields {
	p := s.profile
	fields := domain.Fields{
		domain.FieldStoreName:   p.StoreName,
		FieldTxnType:            p.TxnType,
		FieldTimezone:           p.Location.String(),
		domain.FieldTxnDateTime: now.Format(TxnDateTimeLayout),
		signing.AlgorithmField:  signing.Algorithm,
		domain.FieldChargeTotal: amount.String(),
		domain.FieldCurrency:    p.Currency,
		FieldCheckoutOption:     p.CheckoutOption,
		domain.FieldOrderID:     orderID,
		FieldSuccessURL:         expandURL(p.SuccessURL, orderID),
		FieldFailURL:            expandURL(p.FailURL, orderID),
	}
	if p.PaymentMethod != "" {
		fields[FieldPaymentMethod] = p.PaymentMethod
	}
	if p.NotificationURL != "" {
		fields[FieldNotificationURL] = expandURL(p.NotificationURL, orderID)
	}
	if !donor.Anonymous && donor.Name != "" {
		fields[FieldDonorName] = asciiFold(donor.Name)
	}
	if donor.Email != "" {
		fields[FieldDonorEmail] = donor.Email
	}
	return fields
}
