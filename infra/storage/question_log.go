package storage

import (
	"fmt"
	"time"

	"github.com/ALABELEWE/nigeria-tax-ussd/infra/database"
)

// QuestionLog is the audit record for one fulfillment attempt, written once
// when the async pipeline finishes. Never updated afterwards.
type QuestionLog struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement;not null"`
	SessionID      string    `json:"session_id" gorm:"index;size:100"`
	PhoneNumber    string    `json:"phone_number" gorm:"index;size:20;not null"`
	Question       string    `json:"question" gorm:"type:text;not null"`
	Answer         string    `json:"answer" gorm:"type:text"`
	Language       string    `json:"language" gorm:"size:5;not null"`
	SmsDelivered   bool      `json:"sms_delivered" gorm:"not null"`
	ResponseTimeMs int       `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp" gorm:"index;not null"`
}

func (QuestionLog) TableName() string {
	return "question_logs"
}

type QuestionLogRepository struct {
	db *database.Postgres
}

func NewQuestionLogRepository(db *database.Postgres) *QuestionLogRepository {
	return &QuestionLogRepository{db: db}
}

// Migrate creates the question_logs table if missing.
func (r *QuestionLogRepository) Migrate() error {
	if err := r.db.AutoMigrate(&QuestionLog{}); err != nil {
		return fmt.Errorf("failed to migrate question_logs: %w", err)
	}
	return nil
}

func (r *QuestionLogRepository) Save(entry *QuestionLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save question log: %w", err)
	}
	return nil
}

// CountToday returns how many questions were logged since local midnight.
func (r *QuestionLogRepository) CountToday() (int64, error) {
	var count int64
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := r.db.Model(&QuestionLog{}).
		Where("timestamp >= ?", midnight).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count today's questions: %w", err)
	}
	return count, nil
}

func (r *QuestionLogRepository) RecentByPhone(phoneNumber string, limit int) ([]*QuestionLog, error) {
	var logs []*QuestionLog
	if err := r.db.Where("phone_number = ?", phoneNumber).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get question logs: %w", err)
	}
	return logs, nil
}
