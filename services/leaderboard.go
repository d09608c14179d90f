package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"aura-api/models"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// LeaderboardTTL is how long a computed board is served from memory.
const LeaderboardTTL = 60 * time.Second

var boardColumns = map[string]string{
	"aura":   colAura,
	"steeze": colSteeze,
	"streak": "current_streak",
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url"`
	Score         int64  `json:"score"`
	CurrentStreak int    `json:"-"`
	Level         string `json:"aura_level"`
}

// Standing is a single user's position on a board.
type Standing struct {
	Board      string  `json:"board"`
	Rank       int64   `json:"rank"`
	Score      int64   `json:"score"`
	TotalUsers int64   `json:"total_users"`
	TopPercent float64 `json:"top_percent"`
}

type LeaderboardService struct {
	DB    *gorm.DB
	cache *cache.Cache
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db, cache: cache.New(LeaderboardTTL, 5*time.Minute)}
}

func boardColumn(board string) (string, error) {
	if board == "" {
		board = "aura"
	}
	col, ok := boardColumns[board]
	if !ok {
		return "", invalid("board", "must be one of aura, steeze, streak")
	}
	return col, nil
}

// Top returns the best users on a board. Equal scores share a rank.
func (s *LeaderboardService) Top(ctx context.Context, board string, limit int) ([]LeaderboardEntry, error) {
	col, err := boardColumn(board)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	key := fmt.Sprintf("%s:%d", col, limit)
	if cached, found := s.cache.Get(key); found {
		return cached.([]LeaderboardEntry), nil
	}

	var rows []LeaderboardEntry
	if err := s.DB.WithContext(ctx).Model(&models.User{}).
		Select("id AS user_id, username, display_name, avatar_url, current_streak, "+col+" AS score").
		Where("is_banned = ?", false).
		Order(col + " DESC").Order("created_at ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	AssignRanks(rows)
	for i := range rows {
		rows[i].Level = LevelForStreak(models.DefaultAuraLevels, rows[i].CurrentStreak).Name
	}

	s.cache.Set(key, rows, cache.DefaultExpiration)
	return rows, nil
}

// AssignRanks applies competition ranking (1, 1, 3) to rows sorted by score.
func AssignRanks(rows []LeaderboardEntry) {
	for i := range rows {
		if i > 0 && rows[i].Score == rows[i-1].Score {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}
}

// StandingOf returns the rank of userID on a board.
func (s *LeaderboardService) StandingOf(ctx context.Context, userID, board string) (*Standing, error) {
	col, err := boardColumn(board)
	if err != nil {
		return nil, err
	}
	if board == "" {
		board = "aura"
	}
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	score := map[string]int64{
		colAura:          user.AuraPoints,
		colSteeze:        user.SteezeBalance,
		"current_streak": int64(user.CurrentStreak),
	}[col]

	var above, total int64
	if err := db.Model(&models.User{}).
		Where("is_banned = ? AND "+col+" > ?", false, score).
		Count(&above).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("is_banned = ?", false).Count(&total).Error; err != nil {
		return nil, err
	}
	return NewStanding(board, above+1, score, total), nil
}

// NewStanding fills in the top-percent figure.
func NewStanding(board string, rank, score, total int64) *Standing {
	st := &Standing{Board: board, Rank: rank, Score: score, TotalUsers: total}
	if total > 0 {
		st.TopPercent = math.Ceil(float64(rank)/float64(total)*10000) / 100
	}
	return st
}

// Invalidate drops cached boards.
func (s *LeaderboardService) Invalidate() {
	s.cache.Flush()
}
