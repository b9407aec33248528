// Package model defines the database models.
package model

import (
	"time"

	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

// Athlete represents a Strava athlete in the database.
type Athlete struct {
	gorm.Model
	StravaAthleteID int64 `gorm:"uniqueIndex"`
	Username        string
	Forename        string
	Surname         string
	Bio             string
	City            string
	State           string
	Country         string
	Sex             string
	Weight          float64
	Profile         string
	ProfileMedium   string
	Public          bool
	StravaAuthToken pgtype.JSONB `gorm:"type:jsonb;default:'{}'"`
}

// Activity represents a stored Strava activity. Country and Address are
// nullable: nil until the start coordinate has been reverse geocoded.
type Activity struct {
	ID              int64 `gorm:"primaryKey"`
	AthleteID       int64 `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ActivityTime    time.Time
	Timezone        string
	Type            string
	Name            string
	Distance        float64
	MovingTime      int64
	AverageSpeed    float64
	ElevationGain   *float64
	Country         *string
	Address         *string
	SummaryPolyline *string
	Polyline        *string
}
