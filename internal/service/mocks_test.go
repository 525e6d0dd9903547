package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
	"github.com/flicky/agri-backoffice/internal/storage"
)

func sortNewestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}

// --- orders ---

type mockOrderRepo struct {
	orders  map[string]*model.Order
	writes  int
	failGet error
}

func newMockOrderRepo(orders ...model.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[string]*model.Order)}
	for i := range orders {
		o := orders[i]
		m.orders[o.ID] = &o
	}
	return m
}

func (m *mockOrderRepo) snapshot() []model.Order {
	out := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	sortNewestFirst(out, func(o model.Order) time.Time { return o.CreatedAt })
	return out
}

func (m *mockOrderRepo) List(context.Context) ([]model.Order, error) { return m.snapshot(), nil }

func (m *mockOrderRepo) ListByStatuses(_ context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.snapshot() {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (m *mockOrderRepo) Recent(_ context.Context, limit int64) ([]model.Order, error) {
	out := m.snapshot()
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status model.OrderStatus, updatedAt time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.writes++
	o.Status = status
	o.UpdatedAt = updatedAt
	return nil
}

func (m *mockOrderRepo) Count(context.Context) (int64, error) { return int64(len(m.orders)), nil }

// --- vendors ---

type mockVendorRepo struct {
	vendors map[string]*model.Vendor
	writes  int
	// beforeDecide runs between the service's read and its conditional write.
	beforeDecide func()
}

func newMockVendorRepo(vendors ...model.Vendor) *mockVendorRepo {
	m := &mockVendorRepo{vendors: make(map[string]*model.Vendor)}
	for i := range vendors {
		v := vendors[i]
		m.vendors[v.ID] = &v
	}
	return m
}

func (m *mockVendorRepo) List(_ context.Context, status model.VendorStatus) ([]model.Vendor, error) {
	var out []model.Vendor
	for _, v := range m.vendors {
		if status == "" || v.Status == status {
			out = append(out, *v)
		}
	}
	sortNewestFirst(out, func(v model.Vendor) time.Time { return v.CreatedAt })
	return out, nil
}

func (m *mockVendorRepo) ListPending(ctx context.Context, limit int64) ([]model.Vendor, error) {
	out, _ := m.List(ctx, model.VendorStatusPending)
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockVendorRepo) GetByID(_ context.Context, id string) (*model.Vendor, error) {
	v, ok := m.vendors[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *mockVendorRepo) GetByUserID(_ context.Context, userID string) (*model.Vendor, error) {
	for _, v := range m.vendors {
		if v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockVendorRepo) Create(_ context.Context, v *model.Vendor) error {
	cp := *v
	m.vendors[v.ID] = &cp
	return nil
}

func (m *mockVendorRepo) Update(_ context.Context, id string, fields map[string]any) error {
	v, ok := m.vendors[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.writes++
	for k, val := range fields {
		switch k {
		case "status":
			v.Status = model.VendorStatus(val.(string))
		case "approvedBy":
			v.ApprovedBy = val.(string)
		case "approvedAt":
			t := val.(time.Time)
			v.ApprovedAt = &t
		case "rejectedBy":
			v.RejectedBy = val.(string)
		case "rejectedAt":
			t := val.(time.Time)
			v.RejectedAt = &t
		case "rejectionReason":
			v.RejectionReason = val.(string)
		case "updatedAt":
			v.UpdatedAt = val.(time.Time)
		}
	}
	return nil
}

func (m *mockVendorRepo) Decide(ctx context.Context, id string, fields map[string]any) error {
	if m.beforeDecide != nil {
		m.beforeDecide()
	}
	v, ok := m.vendors[id]
	if !ok || v.Status.Normalize() != model.VendorStatusPending {
		return repository.ErrNotFound
	}
	return m.Update(ctx, id, fields)
}

func (m *mockVendorRepo) Count(context.Context) (int64, error) { return int64(len(m.vendors)), nil }

// --- products ---

type mockProductRepo struct {
	products map[string]*model.Product
}

func newMockProductRepo(products ...model.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[string]*model.Product)}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

func (m *mockProductRepo) List(context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	sortNewestFirst(out, func(p model.Product) time.Time { return p.CreatedAt })
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) Count(context.Context) (int64, error) { return int64(len(m.products)), nil }

// --- users ---

type mockUserRepo struct {
	users   map[string]*model.User
	failGet error
}

func newMockUserRepo(users ...model.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*model.User)}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *mockUserRepo) List(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(_ context.Context, id string, fields map[string]any) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, val := range fields {
		switch k {
		case "name":
			u.Name = val.(string)
		case "phone":
			u.Phone = val.(string)
		case "region":
			u.Region = val.(string)
		case "agroEcologicalZone":
			u.AgroEcologicalZone = val.(string)
		case "address":
			u.Address = val.(string)
		case "role":
			u.Role = val.(string)
		case "disabled":
			u.Disabled = val.(bool)
		case "updatedAt":
			u.UpdatedAt = val.(time.Time)
		}
	}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) Count(context.Context) (int64, error) { return int64(len(m.users)), nil }

// --- subsidies ---

type mockSubsidyRepo struct {
	subsidies map[string]*model.Subsidy
}

func newMockSubsidyRepo() *mockSubsidyRepo {
	return &mockSubsidyRepo{subsidies: make(map[string]*model.Subsidy)}
}

func (m *mockSubsidyRepo) List(context.Context) ([]model.Subsidy, error) {
	out := make([]model.Subsidy, 0, len(m.subsidies))
	for _, s := range m.subsidies {
		out = append(out, *s)
	}
	sortNewestFirst(out, func(s model.Subsidy) time.Time { return s.CreatedAt })
	return out, nil
}

func (m *mockSubsidyRepo) GetByID(_ context.Context, id string) (*model.Subsidy, error) {
	s, ok := m.subsidies[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubsidyRepo) Create(_ context.Context, s *model.Subsidy) error {
	cp := *s
	m.subsidies[s.ID] = &cp
	return nil
}

func (m *mockSubsidyRepo) Update(_ context.Context, s *model.Subsidy) error {
	if _, ok := m.subsidies[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	m.subsidies[s.ID] = &cp
	return nil
}

func (m *mockSubsidyRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.subsidies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.subsidies, id)
	return nil
}

// --- training ---

type mockTrainingRepo struct {
	units map[string]*model.Training
}

func newMockTrainingRepo() *mockTrainingRepo {
	return &mockTrainingRepo{units: make(map[string]*model.Training)}
}

func (m *mockTrainingRepo) List(context.Context) ([]model.Training, error) {
	out := make([]model.Training, 0, len(m.units))
	for _, t := range m.units {
		out = append(out, *t)
	}
	sortNewestFirst(out, func(t model.Training) time.Time { return t.CreatedAt })
	return out, nil
}

func (m *mockTrainingRepo) GetByID(_ context.Context, id string) (*model.Training, error) {
	t, ok := m.units[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTrainingRepo) Create(_ context.Context, t *model.Training) error {
	cp := *t
	m.units[t.ID] = &cp
	return nil
}

func (m *mockTrainingRepo) Update(_ context.Context, t *model.Training) error {
	if _, ok := m.units[t.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *t
	m.units[t.ID] = &cp
	return nil
}

func (m *mockTrainingRepo) SetPublished(_ context.Context, id string, published bool, updatedAt time.Time) error {
	t, ok := m.units[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsPublished, t.UpdatedAt = published, updatedAt
	return nil
}

func (m *mockTrainingRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.units[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.units, id)
	return nil
}

// --- weather ---

type mockWeatherRepo struct {
	alerts    []model.WeatherAlert
	lastLimit int64
}

func (m *mockWeatherRepo) Latest(_ context.Context, limit int64) ([]model.WeatherAlert, error) {
	m.lastLimit = limit
	out := append([]model.WeatherAlert(nil), m.alerts...)
	sortNewestFirst(out, func(a model.WeatherAlert) time.Time { return a.CreatedAt })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- sessions ---

type mockSessionStore struct {
	mu       sync.Mutex
	revoked  map[string]time.Duration
	failures map[string]int64
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{revoked: make(map[string]time.Duration), failures: make(map[string]int64)}
}

func (m *mockSessionStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = ttl
	return nil
}

func (m *mockSessionStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func (m *mockSessionStore) RecordFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[email]++
	return m.failures[email], nil
}

func (m *mockSessionStore) Failures(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[email], nil
}

func (m *mockSessionStore) ClearFailures(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, email)
	return nil
}

// --- events ---

type mockPublisher struct {
	events []model.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, evt model.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, evt)
	return nil
}

// --- object storage ---

type mockStorage struct {
	objects map[string][]byte
	err     error
}

func newMockStorage() *mockStorage { return &mockStorage{objects: make(map[string][]byte)} }

func (m *mockStorage) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[objectPath] = data
	return "http://media.test/" + objectPath, nil
}

func (m *mockStorage) Open(_ context.Context, objectPath string) (*storage.Object, error) {
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{ReadCloser: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

var errStoreDown = errors.New("store unavailable")
