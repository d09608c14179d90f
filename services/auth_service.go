// services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"aura-api/models"
	"aura-api/web3"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	TokenTTL = 7 * 24 * time.Hour
	NonceTTL = 5 * time.Minute
)

// Claims is the session JWT payload.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthService struct {
	DB     *gorm.DB
	secret []byte

	nonces  *cache.Cache
	nonceMu sync.Mutex
	limiter *KeyedLimiter
	now     func() time.Time
}

func NewAuthService(db *gorm.DB, secret string) *AuthService {
	return &AuthService{
		DB:      db,
		secret:  []byte(secret),
		nonces:  cache.New(NonceTTL, 10*time.Minute),
		limiter: NewKeyedLimiter(rate.Every(6*time.Second), 5), // ~10 attempts/min per wallet
		now:     time.Now,
	}
}

// IssueToken signs an HS256 session token for userID.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "aura-api",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a session token and returns its user id.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrUnauthorized
	}
	return claims.UserID, nil
}

// NewNonce creates a one-time nonce for address and returns the message to sign.
func (s *AuthService) NewNonce(address string) (nonce, message string, err error) {
	addr, err := web3.NormalizeAddress(address)
	if err != nil {
		return "", "", invalid("address", "must be a 0x address")
	}
	nonce = strings.ReplaceAll(uuid.NewString(), "-", "")
	s.nonces.Set(addr, nonce, cache.DefaultExpiration)
	return nonce, web3.LoginMessage(nonce), nil
}

// consumeNonce returns the outstanding nonce for addr and forgets it.
func (s *AuthService) consumeNonce(addr string) (string, bool) {
	s.nonceMu.Lock()
	defer s.nonceMu.Unlock()
	v, ok := s.nonces.Get(addr)
	if !ok {
		return "", false
	}
	s.nonces.Delete(addr)
	return v.(string), true
}

// verifyWalletProof checks the signature over the outstanding nonce message.
func (s *AuthService) verifyWalletProof(address, signature string) (string, error) {
	addr, err := web3.NormalizeAddress(address)
	if err != nil {
		return "", invalid("address", "must be a 0x address")
	}
	if !s.limiter.Allow(addr) {
		return "", ErrRateLimited
	}
	nonce, ok := s.consumeNonce(addr)
	if !ok {
		return "", fmt.Errorf("%w: nonce missing or expired", ErrUnauthorized)
	}
	ok, err = web3.VerifySignature(addr, web3.LoginMessage(nonce), signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: signature does not match address", ErrUnauthorized)
	}
	return addr, nil
}

// LoginWithWallet signs in (or signs up) the owner of address.
func (s *AuthService) LoginWithWallet(ctx context.Context, address, signature string) (*models.User, string, error) {
	addr, err := s.verifyWalletProof(address, signature)
	if err != nil {
		return nil, "", err
	}

	db := s.DB.WithContext(ctx)
	var user models.User
	err = db.Where("wallet_address = ?", addr).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := s.createWalletUser(db, addr)
		if err != nil {
			return nil, "", err
		}
		user = *created
	case err != nil:
		return nil, "", err
	}

	if user.IsBanned {
		return nil, "", ErrBanned
	}
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// createWalletUser signs up addr. A taken username gets a random suffix and
// a concurrent signup of the same wallet is returned as is.
func (s *AuthService) createWalletUser(db *gorm.DB, addr string) (*models.User, error) {
	base := "aura_" + addr[2:10]
	username, err := s.availableUsername(db, base)
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < 3; attempt++ {
		wallet := addr
		user := models.User{
			ID:            uuid.NewString(),
			Username:      username,
			WalletAddress: &wallet,
		}
		err = db.Create(&user).Error
		if err == nil {
			log.WithField("wallet", addr).Println("🆕 [AUTH] New wallet user")
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create wallet user: %w", err)
		}

		var existing models.User
		lerr := db.Where("wallet_address = ?", addr).First(&existing).Error
		if lerr == nil {
			return &existing, nil
		}
		if !errors.Is(lerr, gorm.ErrRecordNotFound) {
			return nil, lerr
		}
		username = withSuffix(base)
	}
	return nil, fmt.Errorf("create wallet user: %w", err)
}

// LinkWallet attaches a verified wallet to an existing account.
func (s *AuthService) LinkWallet(ctx context.Context, userID, address, signature string) (*models.User, error) {
	addr, err := s.verifyWalletProof(address, signature)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var owner models.User
	err = db.Where("wallet_address = ?", addr).First(&owner).Error
	if err == nil && owner.ID != userID {
		return nil, fmt.Errorf("%w: wallet linked to another account", ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	res := db.Model(&models.User{}).Where("id = ?", userID).Update("wallet_address", addr)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.CurrentUser(ctx, userID)
}

// LoginWithTwitter signs in by Twitter identity. When linkUserID is set the
// identity is attached to that account instead.
func (s *AuthService) LoginWithTwitter(ctx context.Context, profile *TwitterProfile, linkUserID string) (*models.User, string, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	err := db.Where("twitter_id = ?", profile.ID).First(&user).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	switch {
	case linkUserID != "":
		if found && user.ID != linkUserID {
			return nil, "", fmt.Errorf("%w: twitter account linked to another user", ErrConflict)
		}
		if err := db.Model(&models.User{}).Where("id = ?", linkUserID).
			Updates(map[string]interface{}{"twitter_id": profile.ID, "twitter_handle": profile.Username}).Error; err != nil {
			return nil, "", err
		}
		if err := db.First(&user, "id = ?", linkUserID).Error; err != nil {
			return nil, "", err
		}
	case found:
		if user.TwitterHandle != profile.Username {
			if err := db.Model(&user).Update("twitter_handle", profile.Username).Error; err != nil {
				log.Printf("⚠️ [AUTH] Failed to refresh twitter handle for %s: %v", user.ID, err)
			}
		}
	default:
		username, err := s.availableUsername(db, profile.Username)
		if err != nil {
			return nil, "", err
		}
		tid := profile.ID
		user = models.User{
			ID:            uuid.NewString(),
			Username:      username,
			DisplayName:   profile.Name,
			AvatarURL:     profile.ProfileImageURL,
			TwitterID:     &tid,
			TwitterHandle: profile.Username,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, "", fmt.Errorf("create twitter user: %w", err)
		}
		log.WithField("twitter", profile.Username).Println("🆕 [AUTH] New twitter user")
	}

	if user.IsBanned {
		return nil, "", ErrBanned
	}
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) availableUsername(db *gorm.DB, handle string) (string, error) {
	base := handle
	if !usernamePattern.MatchString(base) {
		base = "aura_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	var count int64
	if err := db.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", base).Count(&count).Error; err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if count == 0 {
		return base, nil
	}
	return withSuffix(base), nil
}

func withSuffix(base string) string {
	if len(base) > 19 {
		base = base[:19]
	}
	return base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}

// CurrentUser loads a user by id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
