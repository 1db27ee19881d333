package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/messaging"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/internal/whatsapp"
)

const testTopic = "orders"

// harness wires the services over the in-memory store and bus.
type harness struct {
	store    *repository.MemoryStore
	orders   *repository.MemoryOrders
	catalog  *catalog.Store
	sessions *session.MemoryStore
	bus      *messaging.LocalBus
	mu       sync.Mutex
	events   []domain.Event

	products *ProductService
	carts    *CartService
	checkout *CheckoutService
	orderSvc *OrderService
	accounts *AccountService
	auth     *auth.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    repository.NewMemoryStore(),
		sessions: session.NewMemoryStore(0),
		bus:      messaging.NewLocalBus(),
	}
	h.orders = repository.NewMemoryOrders(h.store)
	h.catalog = catalog.New(h.store)
	tx := repository.NewMemoryTx(h.store)

	t.Cleanup(h.bus.Subscribe(testTopic, func(_ context.Context, payload []byte) error {
		ev, err := messaging.Decode(payload)
		if err != nil {
			return err
		}
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
		return nil
	}))
	events := NewEventPublisher(h.bus, testTopic)

	builder, err := whatsapp.NewBuilder("5511999990000")
	if err != nil {
		t.Fatal(err)
	}
	h.auth = auth.NewService(repository.NewMemoryUsers(h.store), []string{"admin@shop.com"}, auth.WithBcryptCost(bcrypt.MinCost))

	h.products = NewProductService(h.store, h.catalog, events)
	h.carts = NewCartService(h.catalog, h.sessions)
	h.checkout = NewCheckoutService(h.orders, h.catalog, builder, h.auth, h.sessions, events)
	h.orderSvc = NewOrderService(h.store, h.orders, tx, h.catalog, events)
	h.accounts = NewAccountService(h.auth, h.sessions, h.checkout)
	return h
}

func (h *harness) product(t *testing.T, name, price string, stock int64) *domain.Product {
	t.Helper()
	p, err := h.products.Create(context.Background(), domain.Product{
		Name:  name,
		Unit:  "kg",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func (h *harness) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := h.auth.SignUp(context.Background(), name, "11 90000-0000", name+"@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign up %s: %v", name, err)
	}
	return u
}

func (h *harness) stock(t *testing.T, id string) int64 {
	t.Helper()
	p, err := h.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %s: %v", id, err)
	}
	return p.Stock
}

// pendingOrder stores an order directly, bypassing checkout.
func (h *harness) pendingOrder(t *testing.T, lines ...domain.OrderLine) *domain.Order {
	t.Helper()
	o := domain.Order{Customer: domain.Customer{Name: "Ana"}, Items: lines, Status: domain.OrderStatusPending}
	o.Total = o.ComputeTotal()
	if err := h.orders.Create(context.Background(), &o); err != nil {
		t.Fatal(err)
	}
	return &o
}

func line(p *domain.Product, qty int64) domain.OrderLine {
	return domain.OrderLine{ProductID: p.ID, Name: p.Name, Unit: p.Unit, Price: p.Price, Quantity: qty}
}

func (h *harness) eventTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.EventType())
	}
	return out
}

type mockOrders struct {
	mock.Mock
}

var _ repository.OrderRepository = (*mockOrders)(nil)

func (m *mockOrders) Create(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *mockOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockOrders) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]domain.Order)
	return list, args.Error(1)
}
