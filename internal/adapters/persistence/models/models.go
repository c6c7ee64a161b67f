package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Identity
// ============================================================

// User represents users table
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'reader'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog
// ============================================================

// Campus represents campuses table
type Campus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Campus) TableName() string {
	return "campuses"
}

// LocationType groups meters of a campus. MeterNumbers holds the member
// meter numbers joined by commas.
type LocationType struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null;index:idx_location_campus_name" json:"name"`
	CampusID     uint   `gorm:"not null;index:idx_location_campus_name" json:"campus_id"`
	MeterNumbers string `gorm:"type:text" json:"meter_numbers"`
}

func (LocationType) TableName() string {
	return "location_types"
}

// Members returns the member meter numbers
func (l *LocationType) Members() []string {
	if strings.TrimSpace(l.MeterNumbers) == "" {
		return nil
	}

	var members []string
	for _, n := range strings.Split(l.MeterNumbers, ",") {
		if n = strings.TrimSpace(n); n != "" {
			members = append(members, n)
		}
	}
	return members
}

// AddMember appends a meter number unless it is already listed
func (l *LocationType) AddMember(meterNumber string) {
	members := l.Members()
	for _, m := range members {
		if m == meterNumber {
			return
		}
	}
	l.MeterNumbers = strings.Join(append(members, meterNumber), ",")
}

// RemoveMember drops a meter number and reports whether any members remain
func (l *LocationType) RemoveMember(meterNumber string) bool {
	var kept []string
	for _, m := range l.Members() {
		if m != meterNumber {
			kept = append(kept, m)
		}
	}
	l.MeterNumbers = strings.Join(kept, ",")
	return len(kept) > 0
}

// ============================================================
// Ledger
// ============================================================

// Meter represents meters table. The reading columns are the projection of
// the meter's reading history tail.
type Meter struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	MeterNumber        string              `gorm:"uniqueIndex;size:50;not null" json:"meter_number"`
	CampusID           uint                `gorm:"not null;index" json:"campus_id"`
	Location           string              `gorm:"size:100" json:"location"`
	MeterType          string              `gorm:"size:20" json:"meter_type"`
	Brand              string              `gorm:"size:50" json:"brand"`
	DisplayUnit        string              `gorm:"size:20" json:"display_unit"`
	CTValue            string              `gorm:"column:ct_value;size:50" json:"ct_value"`
	WiringMethod       string              `gorm:"size:50" json:"wiring_method"`
	LastReading        decimal.NullDecimal `gorm:"type:decimal(15,3)" json:"last_reading"`
	LastReadingTime    *time.Time          `gorm:"precision:6" json:"last_reading_time"`
	CurrentReading     decimal.NullDecimal `gorm:"type:decimal(15,3)" json:"current_reading"`
	CurrentReadingTime *time.Time          `gorm:"precision:6" json:"current_reading_time"`
	Difference         decimal.NullDecimal `gorm:"type:decimal(15,3)" json:"difference"`
	PhotoURL           string              `gorm:"size:500" json:"photo_url"`
	CreatedAt          time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (Meter) TableName() string {
	return "meters"
}

// ReadingHistory represents meter_readings_history table. MeterID holds the
// meter number, not the meter's primary key.
type ReadingHistory struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	MeterID      string          `gorm:"size:50;not null;index:idx_history_meter_time" json:"meter_id"`
	ReadingValue decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"reading_value"`
	ReadingTime  time.Time       `gorm:"precision:6;not null;index:idx_history_meter_time" json:"reading_time"`
	PhotoURL     string          `gorm:"size:500" json:"photo_url"`
	Difference   decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"difference"`
	MeterType    string          `gorm:"size:20" json:"meter_type"`
}

func (ReadingHistory) TableName() string {
	return "meter_readings_history"
}

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Campus{},
		&LocationType{},
		&Meter{},
		&ReadingHistory{},
	)
}
