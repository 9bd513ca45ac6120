package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/bankcore/internal/domain"
)

// UserUseCase handles user registration. Registering a user also creates the
// user's ledger account, keyed by the username; both writes go through the
// RegistrationStore so one cannot land without the other.
type UserUseCase struct {
	users     UserRepository
	registrar RegistrationStore
	idGen     IDGenerator
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(users UserRepository, registrar RegistrationStore, idGen IDGenerator) *UserUseCase {
	return &UserUseCase{
		users:     users,
		registrar: registrar,
		idGen:     idGen,
	}
}

// RegisterUserInput represents input for registering a user.
type RegisterUserInput struct {
	Username string
	Password string
}

// RegisterUser creates a user with a bcrypt-hashed password and the
// matching zero-balance account.
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := uc.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	user := &domain.User{
		ID:             uc.idGen.Generate(),
		Username:       input.Username,
		HashedPassword: string(hash),
		CreatedAt:      now,
	}

	account, err := domain.NewAccount(input.Username, decimal.Zero, now)
	if err != nil {
		return nil, err
	}

	if err := uc.registrar.CreateUserWithAccount(ctx, user, account); err != nil {
		return nil, err
	}

	// Never hand the hash back to callers.
	user.HashedPassword = ""

	return user, nil
}

// GetUser retrieves a user by username, without the password hash.
func (uc *UserUseCase) GetUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	user.HashedPassword = ""

	return user, nil
}
