package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"order-service/kafka"
	"order-service/models"
	"order-service/repository"

	aws_pkg "order-service/pkg/aws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultPaymentMethod is recorded on every payment created at placement.
const defaultPaymentMethod = "PayNow"

type ProductOrder struct {
	ProductID string          `json:"productId" binding:"required"`
	Qty       int             `json:"qty" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type PlaceOrderRequest struct {
	UserID        int64           `json:"userId"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ProductsOrder []ProductOrder  `json:"productsOrder" binding:"dive"`
}

// ViewOrders is the pre-joined order + items aggregate returned per order of a user.
type ViewOrders struct {
	Order      models.Order       `json:"order"`
	OrderItems []models.OrderItem `json:"orderItemDTOList"`
}

type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderUpdate carries the fields a PATCH may change; nil means leave as is.
type OrderUpdate struct {
	UserID        *int64           `json:"userId"`
	TotalPrice    *decimal.Decimal `json:"totalPrice"`
	OrderStatus   *string          `json:"orderStatus"`
	PaymentStatus *string          `json:"paymentStatus"`
}

type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// TransitionOutcome is the typed reason a status transition succeeded or not,
// replacing the boolean that collapsed not-found and invalid-transition.
type TransitionOutcome int

const (
	TransitionOK TransitionOutcome = iota
	TransitionNotFound
	TransitionInvalid
	TransitionConflict
	TransitionFailed
)

func (o TransitionOutcome) String() string {
	switch o {
	case TransitionOK:
		return "ok"
	case TransitionNotFound:
		return "not_found"
	case TransitionInvalid:
		return "invalid_transition"
	case TransitionConflict:
		return "conflict"
	default:
		return "failed"
	}
}

type TransitionResult struct {
	Outcome TransitionOutcome
	Err     error
}

// OrderService owns the order lifecycle: placement, cancel/refund transitions
// and the read-side queries.
type OrderService interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, *ServiceError)
	CancelOrder(ctx context.Context, id uuid.UUID) TransitionResult
	RefundOrder(ctx context.Context, id uuid.UUID) TransitionResult
	CancelOrderByID(ctx context.Context, id uuid.UUID) bool
	RefundOrderByID(ctx context.Context, id uuid.UUID) bool

	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, *ServiceError)
	GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, *ServiceError)
	GetOrdersWithoutPayment(ctx context.Context) ([]models.Order, *ServiceError)
	GetUserOrders(ctx context.Context, userID int64) ([]ViewOrders, *ServiceError)
	GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, *ServiceError)

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, *ServiceError)
	UpdateOrder(ctx context.Context, order *models.Order) (*models.Order, *ServiceError)
	PartialUpdateOrder(ctx context.Context, id uuid.UUID, upd *OrderUpdate) (*models.Order, *ServiceError)
	DeleteOrder(ctx context.Context, id uuid.UUID) *ServiceError
}

type orderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	stock       StockCollaborator
	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	stock StockCollaborator,
	producer kafka.ProducerAPI,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		stock:       stock,
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// PlaceOrder creates the order, its items and its payment as one transaction.
// Placement is "place and immediately mark-paid": the order never rests in
// PENDING on this path. Stock is decremented before the write and restored if
// the write fails.
func (s *orderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, *ServiceError) {
	if req.UserID == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "A new order cannot be created as there is no userId"}
	}
	if req.TotalPrice.IsNegative() {
		return nil, &ServiceError{StatusCode: 400, Message: "Total price cannot be negative"}
	}

	lines := make([]StockLine, 0, len(req.ProductsOrder))
	for _, p := range req.ProductsOrder {
		if p.Qty <= 0 {
			return nil, &ServiceError{StatusCode: 400, Message: "Quantity must be positive"}
		}
		lines = append(lines, StockLine{ProductID: p.ProductID, Qty: p.Qty})
	}

	if len(lines) > 0 {
		if err := s.stock.ReduceStock(ctx, lines); err != nil {
			switch {
			case errors.Is(err, ErrProductNotFound):
				return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
			case errors.Is(err, ErrInsufficientStock):
				return nil, &ServiceError{StatusCode: 400, Message: "Insufficient stock"}
			default:
				s.logger.Error("stock reduction failed", zap.Error(err))
				return nil, &ServiceError{StatusCode: 500, Message: "Failed to reserve stock"}
			}
		}
	}

	now := time.Now()
	order := &models.Order{
		UserID:        req.UserID,
		TotalPrice:    req.TotalPrice,
		OrderStatus:   models.StatusPaid,
		PaymentStatus: "SUCCESS",
		CreatedAt:     now,
	}

	items := make([]models.OrderItem, 0, len(req.ProductsOrder))
	for _, p := range req.ProductsOrder {
		items = append(items, models.OrderItem{
			ProductID: p.ProductID,
			Quantity:  p.Qty,
			Price:     p.Price,
		})
	}

	payment := &models.Payment{
		PaymentMethod: defaultPaymentMethod,
		TransactionID: uuid.New().String(),
		PaymentStatus: "SUCCESS",
		PaymentDate:   now,
	}

	if err := s.orderRepo.CreateAggregate(ctx, order, items, payment); err != nil {
		s.logger.Error("order placement transaction failed",
			zap.Int64("user_id", req.UserID),
			zap.Error(err),
		)
		// compensate the stock decrement; the placement left no rows behind
		if len(lines) > 0 {
			rctx, cancel := compensationContext(ctx)
			defer cancel()
			if rerr := s.stock.Restock(rctx, lines); rerr != nil {
				s.logger.Error("compensating restock failed", zap.Error(rerr))
			}
		}
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to place order"}
	}

	order.OrderItems = items
	order.Payment = payment

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int64("user_id", order.UserID),
		zap.Int("items", len(items)),
	)
	s.publishEvent(ctx, models.EventOrderPlaced, order)

	return order, nil
}

// CancelOrder moves a pre-shipment order to CANCELLED. Orders already
// shipped, completed, cancelled or refunded are rejected.
func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID) TransitionResult {
	order, res := s.transition(ctx, id, models.CancellableStatuses, models.StatusCancelled, "")
	if res.Outcome == TransitionOK {
		s.publishEvent(ctx, models.EventOrderCancelled, order)
	}
	return res
}

// RefundOrder moves a post-fulfillment order to RETURN_REFUND, mirrors the
// outcome onto the payment record and restores stock for the order's items.
func (s *orderService) RefundOrder(ctx context.Context, id uuid.UUID) TransitionResult {
	order, res := s.transition(ctx, id, models.RefundableStatuses, models.StatusReturnRefund, "REFUNDED")
	if res.Outcome != TransitionOK {
		return res
	}

	if len(order.OrderItems) > 0 {
		lines := make([]StockLine, 0, len(order.OrderItems))
		for _, it := range order.OrderItems {
			lines = append(lines, StockLine{ProductID: it.ProductID, Qty: it.Quantity})
		}
		rctx, cancel := compensationContext(ctx)
		defer cancel()
		// best-effort: the refund stands even if restocking fails
		if err := s.stock.Restock(rctx, lines); err != nil {
			s.logger.Warn("restock after refund failed",
				zap.String("order_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.publishEvent(ctx, models.EventOrderRefunded, order)
	return res
}

// CancelOrderByID collapses every failure to false (not-found and
// non-cancellable alike); CancelOrder carries the specific reason.
func (s *orderService) CancelOrderByID(ctx context.Context, id uuid.UUID) bool {
	return s.CancelOrder(ctx, id).Outcome == TransitionOK
}

// RefundOrderByID is the boolean convenience wrapper around RefundOrder.
func (s *orderService) RefundOrderByID(ctx context.Context, id uuid.UUID) bool {
	return s.RefundOrder(ctx, id).Outcome == TransitionOK
}

// transition looks the order up, then compare-and-sets its status. The CAS is
// what serializes concurrent transitions: of two racing calls exactly one
// moves the row, the other observes zero rows affected.
func (s *orderService) transition(ctx context.Context, id uuid.UUID, allowed []models.OrderStatus, target models.OrderStatus, paymentStatus string) (*models.Order, TransitionResult) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, TransitionResult{Outcome: TransitionNotFound}
		}
		s.logger.Error("order lookup failed", zap.String("order_id", id.String()), zap.Error(err))
		return nil, TransitionResult{Outcome: TransitionFailed, Err: err}
	}

	rows, err := s.orderRepo.TransitionStatus(ctx, id, allowed, target, paymentStatus)
	if err != nil {
		s.logger.Error("status transition failed",
			zap.String("order_id", id.String()),
			zap.String("target", target.String()),
			zap.Error(err),
		)
		return order, TransitionResult{Outcome: TransitionFailed, Err: err}
	}
	if rows == 0 {
		if !order.OrderStatus.In(allowed) {
			return order, TransitionResult{Outcome: TransitionInvalid}
		}
		// status was in the allowed set when we read it but not at commit time
		return order, TransitionResult{Outcome: TransitionConflict}
	}

	order.OrderStatus = target
	if paymentStatus != "" {
		order.PaymentStatus = paymentStatus
		if order.Payment != nil {
			order.Payment.PaymentStatus = paymentStatus
		}
	}
	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("status", target.String()),
	)
	return order, TransitionResult{Outcome: TransitionOK}
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("failed to fetch order", zap.String("order_id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}
	return order, nil
}

func (s *orderService) GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, *ServiceError) {
	orders, total, err := s.orderRepo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to fetch orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

func (s *orderService) GetOrdersWithoutPayment(ctx context.Context) ([]models.Order, *ServiceError) {
	orders, err := s.orderRepo.FindWithoutPayment(ctx)
	if err != nil {
		s.logger.Error("failed to fetch orders without payment", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetUserOrders returns one aggregate per order of the user, newest first.
// A user without orders gets an empty slice, not an error.
func (s *orderService) GetUserOrders(ctx context.Context, userID int64) ([]ViewOrders, *ServiceError) {
	orders, err := s.orderRepo.FindByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch user orders", zap.Int64("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	views := make([]ViewOrders, 0, len(orders))
	for _, o := range orders {
		items := o.OrderItems
		if items == nil {
			items = []models.OrderItem{}
		}
		o.OrderItems = nil
		views = append(views, ViewOrders{Order: o, OrderItems: items})
	}
	return views, nil
}

func (s *orderService) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, *ServiceError) {
	payment, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Payment not found"}
		}
		s.logger.Error("failed to fetch payment", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch payment"}
	}
	return payment, nil
}

func (s *orderService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, *ServiceError) {
	if order.OrderStatus == "" {
		order.OrderStatus = models.StatusPending
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("failed to create order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, order *models.Order) (*models.Order, *ServiceError) {
	exists, err := s.orderRepo.ExistsByID(ctx, order.ID)
	if err != nil {
		s.logger.Error("failed to check order existence", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
	}
	if !exists {
		return nil, &ServiceError{StatusCode: 400, Message: "Entity not found"}
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.logger.Error("failed to update order", zap.String("order_id", order.ID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
	}
	return order, nil
}

func (s *orderService) PartialUpdateOrder(ctx context.Context, id uuid.UUID, upd *OrderUpdate) (*models.Order, *ServiceError) {
	exists, err := s.orderRepo.ExistsByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to check order existence", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
	}
	if !exists {
		return nil, &ServiceError{StatusCode: 400, Message: "Entity not found"}
	}

	updates := map[string]interface{}{}
	if upd.UserID != nil {
		updates["user_id"] = *upd.UserID
	}
	if upd.TotalPrice != nil {
		updates["total_price"] = *upd.TotalPrice
	}
	if upd.OrderStatus != nil {
		updates["order_status"] = *upd.OrderStatus
	}
	if upd.PaymentStatus != nil {
		updates["payment_status"] = *upd.PaymentStatus
	}
	if len(updates) > 0 {
		if err := s.orderRepo.UpdateFields(ctx, id, updates); err != nil {
			s.logger.Error("failed to patch order", zap.String("order_id", id.String()), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order"}
		}
	}
	return s.GetOrderByID(ctx, id)
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) *ServiceError {
	exists, err := s.orderRepo.ExistsByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to check order existence", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to delete order"}
	}
	if !exists {
		return &ServiceError{StatusCode: 404, Message: "Order not found"}
	}
	if err := s.orderRepo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("failed to delete order", zap.String("order_id", id.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to delete order"}
	}
	return nil
}

// publishEvent emits the lifecycle event to Kafka and, when configured, SNS.
// Both are best-effort: the transition has already committed.
func (s *orderService) publishEvent(ctx context.Context, event string, order *models.Order) {
	if order == nil {
		return
	}
	evt := models.OrderEvent{
		Event:      event,
		OrderID:    order.ID.String(),
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Timestamp:  time.Now(),
	}

	if s.producer != nil {
		if err := s.producer.SendOrderEvent(evt); err != nil {
			s.logger.Warn("kafka publish failed", zap.String("event", event), zap.Error(err))
		}
	}

	if s.snsClient != nil && s.snsTopicArn != "" {
		payload, err := json.Marshal(evt)
		if err != nil {
			s.logger.Warn("failed to marshal order event", zap.Error(err))
			return
		}
		if err := s.snsClient.Publish(ctx, s.snsTopicArn, payload); err != nil {
			s.logger.Warn("sns publish failed", zap.String("event", event), zap.Error(err))
		}
	}
}

// compensationContext detaches a restock from the request that triggered it.
// A placement aborted by a request timeout still has to restore the stock it
// decremented, so the compensating call must not inherit the dead context.
func compensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
