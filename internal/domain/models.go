package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар витрины
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit"`
	Image string          `json:"image"`
	Stock int64           `json:"stock"`
}

// CartLine позиция корзины: ссылка на товар и количество.
// Name/Unit/Image/Price фиксируются при последнем изменении позиции.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal true для completed и cancelled
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderLine снимок позиции на момент оформления заказа
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// Customer снимок покупателя в заказе
type Customer struct {
	UserID  string `json:"uid"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Order сущность заказа
type Order struct {
	ID        string          `json:"id"`
	Customer  Customer        `json:"customer"`
	Items     []OrderLine     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ComputeTotal пересчитывает сумму по позициям
func (o Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Clone глубокая копия: Items не разделяют массив с исходным заказом
func (o Order) Clone() Order {
	cp := o
	if o.Items != nil {
		cp.Items = make([]OrderLine, len(o.Items))
		copy(cp.Items, o.Items)
	}
	return cp
}

// User учётная запись покупателя или администратора
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Contact      string    `json:"contact"`
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Customer снимок покупателя для заказов пользователя
func (u User) Customer() Customer {
	return Customer{UserID: u.ID, Name: u.Name, Contact: u.Contact}
}
