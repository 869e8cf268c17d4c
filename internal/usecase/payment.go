package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

const (
	gatewayIdemScope = "vnpay-ipn"
	// gatewaySuccessCode is the response code the gateway sends on a
	// captured payment.
	gatewaySuccessCode = "00"
)

type CreatePaymentInput struct {
	OrderID  string
	MethodID int64
	BankCode string
	ClientIP string
}

type ConfirmOutput struct {
	OrderID   string
	Completed bool // gateway reported success
	Duplicate bool // re-delivered callback, nothing mutated
}

// PaymentService creates payments (with a signed redirect URL for
// gateway-backed methods) and settles them from gateway callbacks.
type PaymentService struct {
	payments PaymentRepo
	methods  PaymentMethodRepo
	orders   OrderRepo
	gateway  PaymentGateway
	idem     IdempotencyStore
	outbox   OutboxRepo
	tx       TxManager
	log      *slog.Logger
}

func NewPaymentService(
	payments PaymentRepo,
	methods PaymentMethodRepo,
	orders OrderRepo,
	gateway PaymentGateway,
	idem IdempotencyStore,
	outbox OutboxRepo,
	tx TxManager,
	log *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		methods:  methods,
		orders:   orders,
		gateway:  gateway,
		idem:     idem,
		outbox:   outbox,
		tx:       tx,
		log:      log,
	}
}

// Create opens a PENDING payment for the order. A payment is 1:1 with
// its order; a second call returns the one already opened.
func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.payments.GetByOrderID(ctx, in.OrderID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, err
	}

	method, err := s.methods.GetByID(ctx, in.MethodID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		MethodID:  method.ID,
		Amount:    order.TotalAmount,
		Status:    domain.PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if method.Gateway {
		payURL, err := s.gateway.PayURL(PayURLRequest{
			TxnRef:    order.ID,
			Amount:    order.TotalAmount,
			OrderInfo: "Thanh toan don hang " + order.ID,
			ClientIP:  in.ClientIP,
			BankCode:  in.BankCode,
		})
		if err != nil {
			return nil, fmt.Errorf("build pay url: %w", err)
		}
		payment.PaymentURL = payURL
	}

	var existing *domain.Payment
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		// Re-check under the transaction: a concurrent Create may have
		// won the race since the check above. payments.order_id is
		// unique, so losing this check loudly beats a failed insert.
		switch p, err := s.payments.GetByOrderID(ctx, in.OrderID); {
		case err == nil:
			existing = p
			return nil
		case !errors.Is(err, domain.ErrPaymentNotFound):
			return err
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}
		return s.payments.AppendHistory(ctx, &domain.PaymentHistory{
			PaymentID: payment.ID,
			Status:    domain.PaymentPending,
			Note:      "payment created",
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return payment, nil
}

// Confirm settles a payment from the gateway's asynchronous callback.
// The signature is verified before anything else is trusted; gateways
// retry deliveries, so the transaction code doubles as an idempotency
// key and a re-delivered callback is acknowledged without mutating
// anything a second time.
func (s *PaymentService) Confirm(ctx context.Context, params map[string]string) (ConfirmOutput, error) {
	cb, err := s.gateway.VerifyCallback(params)
	if err != nil {
		s.log.Error("gateway callback rejected", "error", err)
		return ConfirmOutput{}, err
	}

	payment, err := s.payments.GetByOrderID(ctx, cb.TxnRef)
	if err != nil {
		return ConfirmOutput{}, err
	}
	order, err := s.orders.GetByID(ctx, cb.TxnRef)
	if err != nil {
		return ConfirmOutput{}, err
	}

	idemKey := cb.TransactionNo
	if idemKey == "" {
		idemKey = cb.TxnRef
	}
	if ok, err := s.idem.TryLock(ctx, gatewayIdemScope, idemKey); err != nil {
		return ConfirmOutput{}, err
	} else if !ok {
		return ConfirmOutput{OrderID: order.ID, Duplicate: true}, nil
	}
	if payment.Status != domain.PaymentPending {
		return ConfirmOutput{OrderID: order.ID, Duplicate: true}, nil
	}

	now := time.Now()
	completed := cb.ResponseCode == gatewaySuccessCode

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if !completed {
			if err := s.payments.MarkFailed(ctx, payment.ID); err != nil {
				return err
			}
			// Order status is deliberately left unchanged on failure;
			// the customer can retry payment on the pending order.
			return s.payments.AppendHistory(ctx, &domain.PaymentHistory{
				PaymentID: payment.ID,
				Status:    domain.PaymentFailed,
				Note:      "gateway response code " + cb.ResponseCode,
				CreatedAt: now,
			})
		}

		if err := s.payments.MarkCompleted(ctx, payment.ID, cb.TransactionNo); err != nil {
			return err
		}
		if err := s.payments.AppendHistory(ctx, &domain.PaymentHistory{
			PaymentID: payment.ID,
			Status:    domain.PaymentCompleted,
			Note:      "gateway confirmed transaction " + cb.TransactionNo,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(domain.OrderConfirmed) {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderConfirmed}
		}
		ok, err := s.orders.UpdateStatusIf(ctx, order.ID, order.Status, domain.OrderConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderConfirmed}
		}
		payload, err := json.Marshal(PaymentCompletedMsg{
			OrderID:         order.ID,
			PaymentID:       payment.ID,
			TransactionCode: cb.TransactionNo,
			Amount:          payment.Amount,
		})
		if err != nil {
			return err
		}
		return s.outbox.Insert(ctx, ChannelPaymentCompleted, payload)
	})
	if err != nil {
		// Nothing was settled, so the claim must not survive: the
		// gateway answers our error with a re-delivery, and that retry
		// has to be able to claim the transaction again.
		if uerr := s.idem.Unlock(ctx, gatewayIdemScope, idemKey); uerr != nil {
			s.log.Error("release callback claim failed", "key", idemKey, "error", uerr)
		}
		return ConfirmOutput{}, err
	}

	s.log.Info("payment callback settled",
		"order_id", order.ID, "payment_id", payment.ID,
		"response_code", cb.ResponseCode, "completed", completed)
	return ConfirmOutput{OrderID: order.ID, Completed: completed}, nil
}
