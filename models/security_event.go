package models

import "time"

// SecurityEvent is a request blocked by the security middleware.
type SecurityEvent struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	IP        string    `gorm:"type:varchar(64);index" json:"ip"`
	Method    string    `gorm:"type:varchar(8)" json:"method"`
	Path      string    `json:"path"`
	Rule      string    `gorm:"type:varchar(32);index" json:"rule"`
	Excerpt   string    `gorm:"type:text" json:"excerpt"`
	UserID    string    `gorm:"type:varchar(64)" json:"user_id,omitempty"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
