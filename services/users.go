// services/users.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"

	"aura-api/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const MaxAvatarBytes = 5 * 1024 * 1024

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore puts public objects and returns their URL.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type UserService struct {
	DB        *gorm.DB
	Moderator *Moderator
	Badges    *BadgeService
	Store     ObjectStore
}

func NewUserService(db *gorm.DB, moderator *Moderator, badges *BadgeService, store ObjectStore) *UserService {
	return &UserService{DB: db, Moderator: moderator, Badges: badges, Store: store}
}

// ProfileUpdate carries the optional fields of PATCH /users/me.
type ProfileUpdate struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=24"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=50"`
	Bio         *string `json:"bio" validate:"omitempty,max=280"`
}

// Get loads a user row.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Profile is the public view of a user with aura level and badges.
func (s *UserService) Profile(ctx context.Context, id string) (*models.PublicUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := ToPublic(user)
	if s.Badges != nil {
		badges, err := s.Badges.ForUser(ctx, id)
		if err != nil {
			return nil, err
		}
		pub.Badges = badges
	}
	return pub, nil
}

// ToPublic strips private fields.
func ToPublic(u *models.User) *models.PublicUser {
	return &models.PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		Bio:           u.Bio,
		AvatarURL:     u.AvatarURL,
		TwitterHandle: u.TwitterHandle,
		AuraPoints:    u.AuraPoints,
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
		Level:         LevelForStreak(models.DefaultAuraLevels, u.CurrentStreak),
		CreatedAt:     u.CreatedAt,
	}
}

// UpdateProfile applies the provided fields after format, moderation and
// uniqueness checks.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	updates := map[string]interface{}{}
	db := s.DB.WithContext(ctx)

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if !usernamePattern.MatchString(name) {
			return nil, invalid("username", "3-24 characters of letters, digits or underscore")
		}
		if err := s.Moderator.Check("username", name); err != nil {
			return nil, err
		}
		var taken int64
		if err := db.Model(&models.User{}).
			Where("LOWER(username) = LOWER(?) AND id <> ?", name, userID).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, fmt.Errorf("%w: username already taken", ErrConflict)
		}
		updates["username"] = name
	}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if err := s.Moderator.Check("display_name", name); err != nil {
			return nil, err
		}
		updates["display_name"] = name
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if err := s.Moderator.Check("bio", bio); err != nil {
			return nil, err
		}
		updates["bio"] = bio
	}

	if len(updates) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Get(ctx, userID)
}

// UploadAvatar validates an image upload, stores it and saves its URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, fh *multipart.FileHeader) (*models.User, error) {
	if s.Store == nil {
		return nil, ErrUnavailable
	}
	if fh.Size > MaxAvatarBytes {
		return nil, invalid("avatar", "must be at most 5MB")
	}
	contentType := fh.Header.Get("Content-Type")
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, invalid("avatar", "must be a png, jpeg, gif or webp image")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	url, err := s.Store.Upload(ctx, key, contentType, io.LimitReader(f, MaxAvatarBytes+1))
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("avatar_url", url).Error; err != nil {
		return nil, err
	}
	log.Printf("🖼️ [USERS] Avatar updated for %s → %s", userID, url)
	return s.Get(ctx, userID)
}

// Search matches username or display name, case-insensitive.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.PublicUser, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var users []models.User
	db := s.DB.WithContext(ctx).Model(&models.User{}).Where("is_banned = ?", false)
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		term := "%" + escapeLike(q) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", term, term)
	}
	if err := db.Order("aura_points DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}

	res := make([]models.PublicUser, len(users))
	for i := range users {
		res[i] = *ToPublic(&users[i])
	}
	return res, nil
}

// SetBanned toggles the ban flag (admin).
func (s *UserService) SetBanned(ctx context.Context, userID string, banned bool) (*models.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_banned", banned)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	log.WithFields(log.Fields{"user_id": userID, "banned": banned}).Println("🔨 [ADMIN] Ban flag changed")
	return s.Get(ctx, userID)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
