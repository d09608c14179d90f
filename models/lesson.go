package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	LessonSourceLLM      = "llm"
	LessonSourceFallback = "fallback"
)

// Question is one multiple-choice quiz item of a lesson.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// Questions is stored as jsonb.
type Questions []Question

func (q Questions) Value() (driver.Value, error) {
	return json.Marshal(q)
}

func (q *Questions) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*q = nil
		return nil
	default:
		return errors.New("questions: unsupported scan type")
	}
	return json.Unmarshal(data, q)
}

// Lesson is generated once per user per UTC day.
type Lesson struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_user_date" json:"user_id"`
	LessonDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_lesson_user_date" json:"lesson_date"`
	Slug       string    `gorm:"index;not null" json:"slug"`
	Topic      string    `gorm:"not null" json:"topic"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Questions  Questions `gorm:"type:jsonb" json:"questions"`
	Source     string    `gorm:"type:varchar(16);default:'llm'" json:"source"`

	Timestamps
}

// UserLesson is the completion record of a lesson.
type UserLesson struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID      string    `gorm:"type:uuid;index;not null" json:"user_id"`
	LessonID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"lesson_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	AuraAwarded int64     `json:"aura_awarded"`
	Multiplier  float64   `json:"multiplier"`
	Streak      int       `json:"streak"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`

	Lesson *Lesson `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
}
