package service

import (
	"context"
	"sync"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/google/uuid"
)

// fakeClientRepo потокобезопасный репозиторий клиентов в памяти
type fakeClientRepo struct {
	mu        sync.Mutex
	clients   map[uuid.UUID]domain.Client
	findErr   error
	updateErr error
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uuid.UUID]domain.Client)}
}

func (r *fakeClientRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return domain.Client{}, r.findErr
	}
	client, ok := r.clients[id]
	if !ok {
		return domain.Client{}, repository.ErrNotFound
	}
	return client, nil
}

func (r *fakeClientRepo) FindByEmail(_ context.Context, email string) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return domain.Client{}, r.findErr
	}
	for _, client := range r.clients {
		if client.Email == email {
			return client, nil
		}
	}
	return domain.Client{}, repository.ErrNotFound
}

func (r *fakeClientRepo) FindByProviderCustomerID(_ context.Context, providerCustomerID string) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return domain.Client{}, r.findErr
	}
	for _, client := range r.clients {
		if client.ProviderCustomerID == providerCustomerID {
			return client, nil
		}
	}
	return domain.Client{}, repository.ErrNotFound
}

func (r *fakeClientRepo) Insert(_ context.Context, client domain.Client) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.Email == client.Email {
			return domain.Client{}, repository.ErrDuplicate
		}
	}
	r.clients[client.ID] = client
	return client, nil
}

func (r *fakeClientRepo) UpdateFields(_ context.Context, id uuid.UUID, fields repository.FieldSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	client, ok := r.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.clients[id] = mergeFields(client, fields)
	return nil
}

func (r *fakeClientRepo) get(id uuid.UUID) domain.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[id]
}

func (r *fakeClientRepo) put(client domain.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID] = client
}

// mergeFields применяет частичное обновление так же, как это делает
// SQL-реализация: только перечисленные поля
func mergeFields(client domain.Client, fields repository.FieldSet) domain.Client {
	for column, value := range fields {
		switch column {
		case "name":
			client.Name = value.(string)
		case "phone":
			client.Phone = value.(string)
		case "address":
			client.Address = value.(string)
		case "emergency_contact":
			client.EmergencyContact = value.(string)
		case "date_of_birth":
			client.DateOfBirth = value.(string)
		case "provider_customer_id":
			client.ProviderCustomerID = value.(string)
		case "provider_subscription_id":
			client.ProviderSubscriptionID = value.(string)
		case "status":
			client.Status = value.(domain.ClientStatus)
		case "subscription_status":
			client.SubscriptionStatus = value.(string)
		case "payment_failure_count":
			client.PaymentFailureCount = value.(int)
		case "suspended_reason":
			client.SuspendedReason = value.(domain.SuspendedReason)
		case "suspended_at":
			t := value.(time.Time)
			client.SuspendedAt = &t
		case "reactivated_at":
			t := value.(time.Time)
			client.ReactivatedAt = &t
		case "cancelled_at":
			t := value.(time.Time)
			client.CancelledAt = &t
		}
	}
	return client
}

// fakeAccountRepo репозиторий учетных записей в памяти
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.ClientAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]domain.ClientAccount)}
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (domain.ClientAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return domain.ClientAccount{}, repository.ErrNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) Upsert(_ context.Context, account domain.ClientAccount) (domain.ClientAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.accounts[account.Email]; ok {
		return existing, nil
	}
	r.accounts[account.Email] = account
	return account, nil
}

func (r *fakeAccountRepo) UpdateStatusByEmail(_ context.Context, email string, status domain.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[email]
	if !ok {
		return repository.ErrNotFound
	}
	account.Status = status
	r.accounts[email] = account
	return nil
}

// fakeGateway реализация платежного провайдера в памяти с записью вызовов
type fakeGateway struct {
	mu sync.Mutex

	attachErr          error
	createSubErr       error
	nextSubscriptionID string

	customersCreated []gateway.Customer
	attachedMethods  []string
	subsCreated      []gateway.CreateSubscriptionParams
	pauseCalls       []string
	resumeCalls      []string
	cancelCalls      []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{nextSubscriptionID: "sub_test_1"}
}

func (g *fakeGateway) CreateCustomer(_ context.Context, email, name, phone string, _ map[string]string) (*gateway.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	customer := gateway.Customer{ID: "cus_" + email, Email: email, Name: name, Phone: phone}
	g.customersCreated = append(g.customersCreated, customer)
	return &customer, nil
}

func (g *fakeGateway) UpdateCustomer(_ context.Context, customerID string, update gateway.CustomerUpdate) (*gateway.Customer, error) {
	return &gateway.Customer{ID: customerID, Name: update.Name, Phone: update.Phone}, nil
}

func (g *fakeGateway) AttachPaymentMethod(_ context.Context, _, paymentMethodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.attachErr != nil {
		return g.attachErr
	}
	g.attachedMethods = append(g.attachedMethods, paymentMethodID)
	return nil
}

func (g *fakeGateway) FindProduct(_ context.Context, _ string) (string, error) {
	return "prod_test", nil
}

func (g *fakeGateway) CreateProduct(_ context.Context, _ string) (string, error) {
	return "prod_test", nil
}

func (g *fakeGateway) ListRecurringPrices(_ context.Context, _ string) ([]gateway.PriceRef, error) {
	return nil, nil
}

func (g *fakeGateway) CreateRecurringPrice(_ context.Context, productID string, amountMinor int64, currency string) (*gateway.PriceRef, error) {
	return &gateway.PriceRef{ID: "price_test", ProductID: productID, AmountMinor: amountMinor, Currency: currency, Interval: "month"}, nil
}

func (g *fakeGateway) CreateSubscription(_ context.Context, params gateway.CreateSubscriptionParams) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createSubErr != nil {
		return nil, g.createSubErr
	}
	g.subsCreated = append(g.subsCreated, params)
	return &gateway.Subscription{ID: g.nextSubscriptionID, CustomerID: params.CustomerID, Status: "active"}, nil
}

func (g *fakeGateway) PauseCollection(_ context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pauseCalls = append(g.pauseCalls, subscriptionID)
	return nil
}

func (g *fakeGateway) ResumeCollection(_ context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resumeCalls = append(g.resumeCalls, subscriptionID)
	return nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelCalls = append(g.cancelCalls, subscriptionID)
	return nil
}

func (g *fakeGateway) VerifyWebhook(_ []byte, _ string) (*domain.ProviderEvent, error) {
	return nil, nil
}

// fakeBillingProducer продюсер событий биллинга с записью топиков
type fakeBillingProducer struct {
	mu        sync.Mutex
	published []string
}

func (p *fakeBillingProducer) publish(topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, topic)
	return nil
}

func (p *fakeBillingProducer) PublishClientOnboarded(_ context.Context, _ domain.Client) error {
	return p.publish("onboarded")
}

func (p *fakeBillingProducer) PublishClientSuspended(_ context.Context, _ domain.Client) error {
	return p.publish("suspended")
}

func (p *fakeBillingProducer) PublishClientReactivated(_ context.Context, _ domain.Client) error {
	return p.publish("reactivated")
}

func (p *fakeBillingProducer) PublishClientCancelled(_ context.Context, _ domain.Client) error {
	return p.publish("cancelled")
}

func (p *fakeBillingProducer) Close() error { return nil }

// fakeEmailSender отправитель писем с записью отправок
type fakeEmailSender struct {
	mu      sync.Mutex
	sendErr error
	sent    []sentEmail
}

type sentEmail struct {
	template  string
	recipient string
	token     string
}

func (s *fakeEmailSender) record(template, recipient, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, sentEmail{template: template, recipient: recipient, token: token})
	return nil
}

func (s *fakeEmailSender) SendPaymentLinkEmail(_ context.Context, recipient, token string, _ time.Time) error {
	return s.record("payment_link", recipient, token)
}

func (s *fakeEmailSender) SendPasswordSetupEmail(_ context.Context, recipient, token string, _ time.Time) error {
	return s.record("password_setup", recipient, token)
}

func (s *fakeEmailSender) SendPasswordResetEmail(_ context.Context, recipient, token string, _ time.Time) error {
	return s.record("password_reset", recipient, token)
}

// fakePriceResolver резолвер цен с записью запрошенных сумм
type fakePriceResolver struct {
	mu       sync.Mutex
	resolved []int64
}

func (r *fakePriceResolver) ResolvePrice(_ context.Context, amountMinor int64, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, amountMinor)
	return "price_test", nil
}
