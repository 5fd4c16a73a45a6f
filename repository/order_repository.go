package repository

import (
	"context"

	"order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create persists a bare order (CRUD path).
	Create(ctx context.Context, order *models.Order) error
	// CreateAggregate persists the order, its items and its payment as one
	// transaction. Either all rows exist afterwards or none of them do.
	CreateAggregate(ctx context.Context, order *models.Order, items []models.OrderItem, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	// FindWithoutPayment returns orders with no payment row (audit query).
	FindWithoutPayment(ctx context.Context) ([]models.Order, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	Save(ctx context.Context, order *models.Order) error
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	// TransitionStatus performs a compare-and-set on the stored status: the
	// update applies only while the current status is in allowed. It returns
	// the number of rows moved (0 or 1). A non-empty paymentStatus is mirrored
	// onto the order and its payment row in the same transaction.
	TransitionStatus(ctx context.Context, id uuid.UUID, allowed []models.OrderStatus, target models.OrderStatus, paymentStatus string) (int64, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) CreateAggregate(ctx context.Context, order *models.Order, items []models.OrderItem, payment *models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		payment.OrderID = order.ID
		return tx.Create(payment).Error
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindWithoutPayment(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Joins("LEFT JOIN payments ON payments.order_id = orders.id").
		Where("payments.id IS NULL").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormOrderRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error
}

func (r *GormOrderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *GormOrderRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *GormOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, allowed []models.OrderStatus, target models.OrderStatus, paymentStatus string) (int64, error) {
	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"order_status": target.String()}
		if paymentStatus != "" {
			updates["payment_status"] = paymentStatus
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND order_status IN ?", id, statusNames(allowed)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		rows = res.RowsAffected
		if rows == 0 || paymentStatus == "" {
			return nil
		}
		return tx.Model(&models.Payment{}).
			Where("order_id = ?", id).
			Update("payment_status", paymentStatus).Error
	})
	return rows, err
}

func statusNames(statuses []models.OrderStatus) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}
