// services/lesson_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aura-api/metrics"
	"aura-api/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PassPercent is the minimum score needed for a lesson to count.
const PassPercent = 60

// LessonFailedError carries the score of a failed attempt.
type LessonFailedError struct {
	Score int
	Total int
}

func (e *LessonFailedError) Error() string {
	return fmt.Sprintf("scored %d/%d, need %d%% to pass", e.Score, e.Total, PassPercent)
}

func (e *LessonFailedError) Is(target error) bool { return target == ErrLessonFailed }

// LessonView hides answer indexes.
type LessonView struct {
	ID         string         `json:"id"`
	Slug       string         `json:"slug"`
	Topic      string         `json:"topic"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	LessonDate string         `json:"lesson_date"`
	Source     string         `json:"source"`
	Questions  []QuestionView `json:"questions"`
	Completed  bool           `json:"completed"`
}

type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// LessonResult is returned on a passed lesson.
type LessonResult struct {
	Score         int     `json:"score"`
	Total         int     `json:"total"`
	AuraAwarded   int64   `json:"aura_awarded"`
	Multiplier    float64 `json:"multiplier"`
	Streak        int     `json:"streak"`
	LongestStreak int     `json:"longest_streak"`
	Level         string  `json:"aura_level"`
	AuraPoints    int64   `json:"aura_points"`
}

type LessonService struct {
	DB        *gorm.DB
	Generator LessonGenerator // nil → fallback bank
	Badges    *BadgeService
	Now       func() time.Time
}

func NewLessonService(db *gorm.DB, generator LessonGenerator, badges *BadgeService) *LessonService {
	return &LessonService{DB: db, Generator: generator, Badges: badges, Now: time.Now}
}

// ToView converts a stored lesson for the client.
func ToView(l *models.Lesson, completed bool) LessonView {
	qs := make([]QuestionView, len(l.Questions))
	for i, q := range l.Questions {
		qs[i] = QuestionView{Prompt: q.Prompt, Options: q.Options}
	}
	return LessonView{
		ID:         l.ID,
		Slug:       l.Slug,
		Topic:      l.Topic,
		Title:      l.Title,
		Content:    l.Content,
		LessonDate: l.LessonDate.Format("2006-01-02"),
		Source:     l.Source,
		Questions:  qs,
		Completed:  completed,
	}
}

// Today returns the user's lesson for the current UTC day, generating it on
// first access.
func (s *LessonService) Today(ctx context.Context, userID string) (*LessonView, error) {
	today := UTCDate(s.Now())
	db := s.DB.WithContext(ctx)

	var lesson models.Lesson
	err := db.Where("user_id = ? AND lesson_date = ?", userID, today).First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		generated, source := s.generate(ctx, userID, today)
		lesson = models.Lesson{
			ID:         uuid.NewString(),
			UserID:     userID,
			LessonDate: today,
			Slug:       slug.Make(generated.Title) + "-" + today.Format("20060102"),
			Topic:      TopicFor(userID, today),
			Title:      generated.Title,
			Content:    generated.Content,
			Questions:  generated.Questions,
			Source:     source,
		}
		// a concurrent request may have generated it first
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lesson).Error; err != nil {
			return nil, fmt.Errorf("store lesson: %w", err)
		}
		err = db.Where("user_id = ? AND lesson_date = ?", userID, today).First(&lesson).Error
	}
	if err != nil {
		return nil, err
	}

	var done int64
	if err := db.Model(&models.UserLesson{}).Where("lesson_id = ?", lesson.ID).Count(&done).Error; err != nil {
		return nil, err
	}
	view := ToView(&lesson, done > 0)
	return &view, nil
}

func (s *LessonService) generate(ctx context.Context, userID string, day time.Time) (GeneratedLesson, string) {
	topic := TopicFor(userID, day)
	if s.Generator != nil {
		gctx, cancel := context.WithTimeout(ctx, 45*time.Second)
		defer cancel()
		l, err := s.Generator.Generate(gctx, topic)
		if err == nil {
			return *l, models.LessonSourceLLM
		}
		log.Printf("⚠️ [LESSON] LLM generation failed for %q, using fallback: %v", topic, err)
	}
	return fallbackLesson(topic), models.LessonSourceFallback
}

// Grade counts correct answers. The answer count must match the question count.
func Grade(questions []models.Question, answers []int) (int, error) {
	if len(answers) != len(questions) {
		return 0, invalid("answers", fmt.Sprintf("expected %d answers, got %d", len(questions), len(answers)))
	}
	score := 0
	for i, q := range questions {
		if answers[i] == q.Answer {
			score++
		}
	}
	return score, nil
}

// Passed reports whether score/total reaches PassPercent.
func Passed(score, total int) bool {
	return total > 0 && score*100 >= PassPercent*total
}

// Complete grades today's lesson and, on a pass, advances the streak and
// awards aura. Only one lesson counts per UTC day.
func (s *LessonService) Complete(ctx context.Context, userID, lessonID string, answers []int) (*LessonResult, error) {
	if _, err := uuid.Parse(lessonID); err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	now := s.Now()
	today := UTCDate(now)
	var result LessonResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Where("id = ? AND user_id = ?", lessonID, userID).First(&lesson).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !UTCDate(lesson.LessonDate).Equal(today) {
			return invalid("id", "lesson is not today's lesson")
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		streak, err := AdvanceStreak(user.CurrentStreak, user.LastLessonDate, today)
		if err != nil {
			return err
		}

		score, err := Grade(lesson.Questions, answers)
		if err != nil {
			return err
		}
		if !Passed(score, len(lesson.Questions)) {
			return &LessonFailedError{Score: score, Total: len(lesson.Questions)}
		}

		level := LevelForStreak(models.DefaultAuraLevels, streak)
		aura := ApplyMultiplier(LessonBaseAura, level.Multiplier)
		longest := user.LongestStreak
		if streak > longest {
			longest = streak
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumns(map[string]interface{}{
			"aura_points":       gorm.Expr("aura_points + ?", aura),
			"current_streak":    streak,
			"longest_streak":    longest,
			"last_lesson_date":  today,
			"lessons_completed": gorm.Expr("lessons_completed + 1"),
		}).Error; err != nil {
			return err
		}

		completion := models.UserLesson{
			ID:          uuid.NewString(),
			UserID:      userID,
			LessonID:    lesson.ID,
			Score:       score,
			Total:       len(lesson.Questions),
			AuraAwarded: aura,
			Multiplier:  level.Multiplier,
			Streak:      streak,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}

		result = LessonResult{
			Score:         score,
			Total:         len(lesson.Questions),
			AuraAwarded:   aura,
			Multiplier:    level.Multiplier,
			Streak:        streak,
			LongestStreak: longest,
			Level:         level.Name,
			AuraPoints:    user.AuraPoints + aura,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LessonsCompleted.Inc()
	log.WithFields(log.Fields{"user_id": userID, "aura": result.AuraAwarded, "streak": result.Streak}).
		Println("📚 [LESSON] Completed")

	if s.Badges != nil {
		if err := s.Badges.AutoAwardBadges(ctx, userID); err != nil {
			log.Printf("⚠️ [LESSON] Badge check failed for %s: %v", userID, err)
		}
	}
	return &result, nil
}

// History pages through a user's completed lessons, newest first.
func (s *LessonService) History(ctx context.Context, userID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	db := s.DB.WithContext(ctx)
	var total int64
	if err := db.Model(&models.UserLesson{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.UserLesson
	if err := db.Preload("Lesson").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&items).Error; err != nil {
		return nil, err
	}
	// answers stay server side
	for i := range items {
		if items[i].Lesson != nil {
			items[i].Lesson.Questions = nil
		}
	}

	return map[string]interface{}{
		"page":  page,
		"size":  size,
		"total": total,
		"items": items,
	}, nil
}
