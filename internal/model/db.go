package model

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Purchase is one ticket sale. PaymentStatus only ever moves forward:
// pending -> completed | failed, failed -> completed.
type Purchase struct {
	ID               string        `gorm:"primaryKey;size:36;not null" json:"id"`
	Name             string        `gorm:"size:255;not null" json:"name"`
	Email            string        `gorm:"size:255;index;not null" json:"email"`
	Token            string        `gorm:"size:64;uniqueIndex;not null" json:"token"`
	PaymentStatus    PaymentStatus `gorm:"size:16;index;not null;default:pending" json:"payment_status"`
	PaymentReference *string       `gorm:"size:128;index" json:"payment_reference"`
	CreatedAt        time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// TokenUsage tracks redemption of a purchase token. Used is true exactly when
// FirstAccessedAt is set.
type TokenUsage struct {
	ID              string     `gorm:"primaryKey;size:36;not null" json:"id"`
	Token           string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	Used            bool       `gorm:"not null;default:false;index" json:"used"`
	FirstAccessedAt *time.Time `json:"first_accessed_at"`
	LastAccessedAt  *time.Time `json:"last_accessed_at"`
	IPAddress       *string    `gorm:"size:64" json:"ip_address"`
	UserAgent       *string    `gorm:"size:512" json:"user_agent"`
	DeviceID        *string    `gorm:"size:36" json:"-"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}

func (TokenUsage) TableName() string {
	return "token_usage"
}

// StreamSettings is a single row (ID 1) holding the live flag and playback URL.
type StreamSettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IsLive    bool      `gorm:"not null;default:false" json:"is_live"`
	StreamURL *string   `gorm:"size:1024" json:"stream_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

const StreamSettingsID = 1

// WebhookEvent records a payment event that has been applied.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	PurchaseID  string `gorm:"size:36;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
