package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperror"
	"storefront/auth"
	"storefront/clock"
	"storefront/models"
	"storefront/repository"
)

const minPasswordLength = 6

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *models.User
	Token string
}

type AuthService struct {
	users  repository.UserRepository
	tokens repository.TokenBlacklist
	issuer *auth.TokenManager
	clock  clock.Clock
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenBlacklist,
	issuer *auth.TokenManager, clk clock.Clock) *AuthService {
	if clk == nil {
		clk = clock.Real()
	}
	return &AuthService{users: users, tokens: tokens, issuer: issuer, clock: clk}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user account. Self-registered users always get the
// user role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// EnsureAdmin creates an admin account for email unless a user with that
// email already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err, "Server error")
	}
	return s.createUser(ctx, in, models.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, apperror.Validation("Name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err, "Server error")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	now := s.clock.Now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Validation("User already exists")
		}
		return nil, apperror.Internal(err, "Server error")
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, _, err := s.issuer.Issue(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	return &Session{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to the calling actor.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	blacklisted, err := s.tokens.Contains(ctx, token)
	if err != nil {
		return models.Actor{}, apperror.Internal(err, "Server error")
	}
	if blacklisted {
		return models.Actor{}, apperror.Unauthorized("Token has been blacklisted")
	}

	claims, err := s.issuer.Parse(token)
	if err != nil {
		return models.Actor{}, apperror.Unauthorized("Invalid or expired token")
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Actor{}, apperror.Unauthorized("Invalid or expired token")
	}

	// The role comes from the stored user so promotions, demotions and
	// deletions apply to tokens that are already issued.
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Actor{}, apperror.Unauthorized("User not found")
	}
	if err != nil {
		return models.Actor{}, apperror.Internal(err, "Server error")
	}
	return models.Actor{UserID: user.ID, Role: user.Role}, nil
}

// Logout blacklists token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return apperror.Unauthorized("Invalid token")
	}
	if err := s.tokens.Add(ctx, token, claims.ExpiresAt.Time); err != nil {
		return apperror.Internal(err, "Failed to blacklist token")
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return user, nil
}

// UpdateProfile changes name and email. Empty values keep the current ones.
func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, name, email string) (*models.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if email = normalizeEmail(email); email != "" {
		user.Email = email
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Validation("Email already in use")
		}
		return nil, storeErr(err, "User not found")
	}
	return user, nil
}

// UpdatePassword replaces the password after checking the current one and
// returns a new session.
func (s *AuthService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, current, next string) (*Session, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.Password, current) {
		return nil, apperror.Unauthorized("Current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least %d characters", minPasswordLength)
	}

	hashed, err := auth.HashPassword(next)
	if err != nil {
		return nil, apperror.Internal(err, "Server error")
	}
	user.Password = hashed
	user.UpdatedAt = s.clock.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeErr(err, "User not found")
	}
	return s.session(user)
}
