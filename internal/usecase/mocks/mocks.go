package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// MockAccountStore is a map-backed AccountStore with real compare-and-swap
// semantics, safe for concurrent use. Individual methods can be overridden
// through the *Func fields; overrides may call the Do* defaults.
type MockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetFunc              func(ctx context.Context, id string) (*domain.Account, error)
	CompareAndUpdateFunc func(ctx context.Context, id string, expectedVersion int64, delta decimal.Decimal) (*domain.Account, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed inserts an account directly, bypassing any override.
func (m *MockAccountStore) Seed(id string, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	m.accounts[id] = &domain.Account{
		ID:             id,
		Balance:        balance,
		InitialBalance: balance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TotalBalance sums all balances, for conservation assertions.
func (m *MockAccountStore) TotalBalance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero
	for _, acc := range m.accounts {
		total = total.Add(acc.Balance)
	}

	return total
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}

	return m.DoCreate(ctx, account)
}

func (m *MockAccountStore) DoCreate(_ context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}

	cp := *account
	m.accounts[account.ID] = &cp

	return nil
}

func (m *MockAccountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}

	return m.DoGet(ctx, id)
}

func (m *MockAccountStore) DoGet(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *acc

	return &cp, nil
}

func (m *MockAccountStore) CompareAndUpdate(ctx context.Context, id string, expectedVersion int64, delta decimal.Decimal) (*domain.Account, error) {
	if m.CompareAndUpdateFunc != nil {
		return m.CompareAndUpdateFunc(ctx, id, expectedVersion, delta)
	}

	return m.DoCompareAndUpdate(ctx, id, expectedVersion, delta)
}

func (m *MockAccountStore) DoCompareAndUpdate(_ context.Context, id string, expectedVersion int64, delta decimal.Decimal) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if acc.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}

	newBalance := acc.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, domain.ErrInsufficientFunds
	}

	acc.Balance = newBalance
	acc.Version++
	acc.UpdatedAt = time.Now().UTC()

	cp := *acc

	return &cp, nil
}

func (m *MockAccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		cp := *acc
		accounts = append(accounts, &cp)
	}

	return accounts, nil
}

// MockTransferLog is a map-backed TransferLog.
type MockTransferLog struct {
	mu      sync.Mutex
	records map[string]*domain.TransferRecord

	CreateFunc        func(ctx context.Context, record *domain.TransferRecord) error
	MarkCommittedFunc func(ctx context.Context, id string, completedAt time.Time) error
	MarkFailedFunc    func(ctx context.Context, id, reason string, completedAt time.Time) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.TransferRecord, error)
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransferRecord, error)
}

func NewMockTransferLog() *MockTransferLog {
	return &MockTransferLog{
		records: make(map[string]*domain.TransferRecord),
	}
}

func (m *MockTransferLog) Create(ctx context.Context, record *domain.TransferRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	m.records[record.ID] = &cp

	return nil
}

func (m *MockTransferLog) MarkCommitted(ctx context.Context, id string, completedAt time.Time) error {
	if m.MarkCommittedFunc != nil {
		return m.MarkCommittedFunc(ctx, id, completedAt)
	}

	return m.setStatus(id, domain.TransferCommitted, "", completedAt)
}

func (m *MockTransferLog) MarkFailed(ctx context.Context, id, reason string, completedAt time.Time) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, reason, completedAt)
	}

	return m.setStatus(id, domain.TransferFailed, reason, completedAt)
}

func (m *MockTransferLog) setStatus(id string, status domain.TransferStatus, reason string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return domain.ErrTransferNotFound
	}

	if rec.Terminal() {
		return fmt.Errorf("transfer %s already terminal", id)
	}

	rec.Status = status
	rec.FailureReason = reason
	rec.CompletedAt = &completedAt

	return nil
}

func (m *MockTransferLog) GetByID(ctx context.Context, id string) (*domain.TransferRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}

	cp := *rec

	return &cp, nil
}

func (m *MockTransferLog) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransferRecord, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var records []*domain.TransferRecord
	for _, rec := range m.records {
		if rec.SenderID == accountID || rec.ReceiverID == accountID {
			cp := *rec
			records = append(records, &cp)
		}
	}

	return records, nil
}

// Committed returns all records in terminal committed state, by kind.
func (m *MockTransferLog) Committed(kind domain.TransferKind) []*domain.TransferRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []*domain.TransferRecord
	for _, rec := range m.records {
		if rec.Kind == kind && rec.Status == domain.TransferCommitted {
			cp := *rec
			records = append(records, &cp)
		}
	}

	return records
}

// MockUserRepository is a map-backed UserRepository.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User

	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return domain.ErrUserExists
	}

	cp := *user
	m.users[user.Username] = &cp

	return nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[username]
	if !ok {
		return nil, nil
	}

	cp := *user

	return &cp, nil
}

// MockRegistrationStore applies the user and account writes of a
// registration atomically over the map-backed mocks: when the account
// insert fails, the user insert is undone.
type MockRegistrationStore struct {
	users    *MockUserRepository
	accounts *MockAccountStore

	CreateUserWithAccountFunc func(ctx context.Context, user *domain.User, account *domain.Account) error
}

func NewMockRegistrationStore(users *MockUserRepository, accounts *MockAccountStore) *MockRegistrationStore {
	return &MockRegistrationStore{users: users, accounts: accounts}
}

func (m *MockRegistrationStore) CreateUserWithAccount(ctx context.Context, user *domain.User, account *domain.Account) error {
	if m.CreateUserWithAccountFunc != nil {
		return m.CreateUserWithAccountFunc(ctx, user, account)
	}

	if err := m.users.Create(ctx, user); err != nil {
		return err
	}

	if err := m.accounts.Create(ctx, account); err != nil {
		m.users.mu.Lock()
		delete(m.users.users, user.Username)
		m.users.mu.Unlock()

		return err
	}

	return nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++

	return fmt.Sprintf("id-%d", m.counter)
}

// MockLedgerRepository computes totals live from a store and a log, so
// conservation tests observe the same state the engine mutated.
type MockLedgerRepository struct {
	store *MockAccountStore
	log   *MockTransferLog

	TotalsFunc func(ctx context.Context) (usecase.LedgerTotals, error)
}

func NewMockLedgerRepository(store *MockAccountStore, log *MockTransferLog) *MockLedgerRepository {
	return &MockLedgerRepository{store: store, log: log}
}

func (m *MockLedgerRepository) Totals(ctx context.Context) (usecase.LedgerTotals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx)
	}

	snap := usecase.LedgerTotals{
		TotalBalance:    m.store.TotalBalance(),
		TotalInitial:    decimal.Zero,
		DepositTotal:    decimal.Zero,
		WithdrawalTotal: decimal.Zero,
	}

	m.store.mu.Lock()
	for _, acc := range m.store.accounts {
		snap.TotalInitial = snap.TotalInitial.Add(acc.InitialBalance)
	}
	m.store.mu.Unlock()

	for _, rec := range m.log.Committed(domain.KindDeposit) {
		snap.DepositTotal = snap.DepositTotal.Add(rec.Amount)
	}

	for _, rec := range m.log.Committed(domain.KindWithdrawal) {
		snap.WithdrawalTotal = snap.WithdrawalTotal.Add(rec.Amount)
	}

	return snap, nil
}

// MockCache is a map-backed Cache.
type MockCache struct {
	mu     sync.Mutex
	values map[string]string

	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key, value string, ttl time.Duration) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		values: make(map[string]string),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("cache miss: %s", key)
	}

	return value, nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}

func (m *MockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)

	return nil
}
