package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/ports"
	"go.uber.org/zap"
)

// AuthService handles authentication business logic
type AuthService struct {
	credentials ports.CredentialStore
	hasher      ports.PasswordHasher
	tokenizer   ports.Tokenizer
	eventPub    ports.EventPublisher
	log         *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service
func NewAuthService(
	credentials ports.CredentialStore,
	hasher ports.PasswordHasher,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		credentials: credentials,
		hasher:      hasher,
		tokenizer:   tokenizer,
		eventPub:    eventPub,
		log:         log.Named("auth"),
	}
}

// Authenticate checks a username/password pair and returns the user ID.
// Unknown users and wrong passwords both fail with core.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	cred, err := s.credentials.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to look up credential: %w", err)
	}

	if cred == nil {
		// Burn a comparison anyway so unknown usernames take as long as known ones
		s.hasher.Compare(s.dummy(), password)
		return "", core.ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(cred.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("unusable password verifier for user %s: %w", cred.UserID, err)
	}
	if !ok {
		return "", core.ErrInvalidCredentials
	}

	return cred.UserID, nil
}

// Login authenticates the user and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*core.Token, error) {
	userID, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenizer.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	// The token is already issued; a lost event must not fail the login
	if err := s.eventPub.PublishLogin(ctx, userID, token.ID); err != nil {
		s.log.Warn("failed to publish login event", zap.String("user_id", userID), zap.Error(err))
	}

	return token, nil
}

// Authorize resolves the identity carried by an Authorization header value.
// Every failure wraps core.ErrUnauthorized; token failures additionally wrap
// the specific token error for logging.
func (s *AuthService) Authorize(ctx context.Context, header string) (*core.Identity, error) {
	if header == "" {
		return nil, fmt.Errorf("%w: missing authorization header", core.ErrUnauthorized)
	}

	fields := strings.Fields(header)
	if len(fields) > 0 && !strings.EqualFold(fields[0], "Bearer") {
		return nil, fmt.Errorf("%w: unsupported authorization scheme %q", core.ErrUnauthorized, fields[0])
	}

	var bearer string
	if len(fields) > 1 {
		bearer = fields[1]
	}

	token, err := s.tokenizer.Verify(bearer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUnauthorized, err)
	}

	return &core.Identity{
		UserID:  token.Subject,
		TokenID: token.ID,
		Expires: token.ExpiresAt,
	}, nil
}

// User returns the credential record of userID without its verifier
func (s *AuthService) User(ctx context.Context, userID string) (*core.Credential, error) {
	cred, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if cred == nil {
		return nil, core.ErrNotFound
	}
	cred.PasswordHash = ""
	return cred, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("encore-timing-equalizer")
		if err != nil {
			s.log.Warn("failed to prepare dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
