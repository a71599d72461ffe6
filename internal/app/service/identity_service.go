package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/pkg/logger"
	"github.com/soonsulleng/guide-backend/pkg/util"
	"gorm.io/gorm"
)

// ErrUnauthenticated covers every credential that does not map to a known user.
var ErrUnauthenticated = errors.New("caller identity could not be resolved")

// TokenBlacklist is the revocation store consulted during resolution
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

// IdentityService resolves a bearer credential to the calling user
type IdentityService interface {
	ResolveCaller(ctx context.Context, credential string) (*model.User, error)
}

type identityService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	blacklist TokenBlacklist
}

// NewIdentityService builds the resolver. blacklist may be nil when revocation is disabled.
func NewIdentityService(userRepo repository.UserRepository, jwtSecret string, blacklist TokenBlacklist) IdentityService {
	return &identityService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		blacklist: blacklist,
	}
}

// ResolveCaller verifies the token, then looks the user up by the email it carries
func (s *identityService) ResolveCaller(ctx context.Context, credential string) (*model.User, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := util.ValidateAccessToken(credential, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsTokenBlacklisted(ctx, credential)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
		}
	}

	user, err := s.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("Token names unknown user", map[string]interface{}{
				"email": claims.Email,
			})
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("look up caller: %w", err)
	}

	return user, nil
}
