// Package store implements the gorm-backed repository for athletes,
// activities and persisted geocodes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/activitymap/activitymap/internal/geocode"
	"github.com/activitymap/activitymap/internal/model"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Activities returns the athlete's stored activities that carry a summary
// polyline, plus the start time of the most recent one (zero when none).
func (s *Store) Activities(ctx context.Context, athleteID int64) ([]model.Activity, time.Time, error) {
	var activities []model.Activity
	err := s.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("activity_time").
		Find(&activities).Error
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading activities for athlete %d: %w", athleteID, err)
	}

	var mostRecent time.Time
	withPolyline := activities[:0]
	for _, a := range activities {
		if a.ActivityTime.After(mostRecent) {
			mostRecent = a.ActivityTime
		}
		if a.SummaryPolyline == nil || *a.SummaryPolyline == "" {
			continue
		}
		withPolyline = append(withPolyline, a)
	}

	return withPolyline, mostRecent, nil
}

// UpsertActivities inserts new activities and refreshes existing rows by id.
// Existing geocode columns are left untouched.
func (s *Store) UpsertActivities(ctx context.Context, activities []model.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "athlete_id", "activity_time", "timezone", "type",
			"name", "distance", "moving_time", "average_speed",
			"elevation_gain", "summary_polyline",
		}),
	}).Create(&activities).Error
	if err != nil {
		return fmt.Errorf("upserting %d activities: %w", len(activities), err)
	}
	return nil
}

// UpdatePolyline stores the full-resolution polyline for one activity.
func (s *Store) UpdatePolyline(ctx context.Context, activityID int64, polyline string) error {
	err := s.db.WithContext(ctx).Model(&model.Activity{}).
		Where("id = ?", activityID).
		Update("polyline", polyline).Error
	if err != nil {
		return fmt.Errorf("updating polyline for activity %d: %w", activityID, err)
	}
	return nil
}

// Locations returns the persisted {country, address} pairs for the given
// activity ids. Rows missing either component are omitted.
func (s *Store) Locations(ctx context.Context, ids []int64) (map[int64]geocode.Geocode, error) {
	if len(ids) == 0 {
		return map[int64]geocode.Geocode{}, nil
	}

	var rows []model.Activity
	err := s.db.WithContext(ctx).
		Select("id", "country", "address").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading locations: %w", err)
	}

	locations := make(map[int64]geocode.Geocode, len(rows))
	for _, row := range rows {
		if row.Country == nil || row.Address == nil {
			continue
		}
		locations[row.ID] = geocode.Geocode{Country: *row.Country, Address: *row.Address}
	}
	return locations, nil
}

// SaveLocation persists a resolved geocode against an activity.
func (s *Store) SaveLocation(ctx context.Context, activityID int64, g geocode.Geocode) error {
	err := s.db.WithContext(ctx).Model(&model.Activity{}).
		Where("id = ?", activityID).
		Updates(map[string]any{"country": g.Country, "address": g.Address}).Error
	if err != nil {
		return fmt.Errorf("saving location for activity %d: %w", activityID, err)
	}
	return nil
}

// Athlete returns the stored athlete by Strava id, or nil when unknown.
func (s *Store) Athlete(ctx context.Context, stravaAthleteID int64) (*model.Athlete, error) {
	var athlete model.Athlete
	err := s.db.WithContext(ctx).
		Where("strava_athlete_id = ?", stravaAthleteID).
		First(&athlete).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading athlete %d: %w", stravaAthleteID, err)
	}
	return &athlete, nil
}

// UpsertAthlete inserts or refreshes an athlete keyed by Strava id. The
// public flag and stored auth token are preserved on update.
func (s *Store) UpsertAthlete(ctx context.Context, athlete *model.Athlete) error {
	if athlete.StravaAuthToken.Status == pgtype.Undefined {
		athlete.StravaAuthToken = pgtype.JSONB{Bytes: []byte("{}"), Status: pgtype.Present}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "strava_athlete_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "username", "forename", "surname", "bio", "city",
			"state", "country", "sex", "weight", "profile", "profile_medium",
		}),
	}).Create(athlete).Error
	if err != nil {
		return fmt.Errorf("upserting athlete %d: %w", athlete.StravaAthleteID, err)
	}
	return nil
}

// SaveAuthToken stores the athlete's current OAuth token.
func (s *Store) SaveAuthToken(ctx context.Context, stravaAthleteID int64, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshaling auth token: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&model.Athlete{}).
		Where("strava_athlete_id = ?", stravaAthleteID).
		Update("strava_auth_token", pgtype.JSONB{Bytes: raw, Status: pgtype.Present}).Error
	if err != nil {
		return fmt.Errorf("saving auth token for athlete %d: %w", stravaAthleteID, err)
	}
	return nil
}

// SetPublicity flips whether the athlete's map is publicly visible.
func (s *Store) SetPublicity(ctx context.Context, stravaAthleteID int64, public bool) error {
	err := s.db.WithContext(ctx).Model(&model.Athlete{}).
		Where("strava_athlete_id = ?", stravaAthleteID).
		Update("public", public).Error
	if err != nil {
		return fmt.Errorf("setting publicity for athlete %d: %w", stravaAthleteID, err)
	}
	return nil
}

// CountActivities reports how many activities are stored for an athlete.
func (s *Store) CountActivities(ctx context.Context, stravaAthleteID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Activity{}).
		Where("athlete_id = ?", stravaAthleteID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting activities for athlete %d: %w", stravaAthleteID, err)
	}
	return count, nil
}

// AllAthletes lists every stored athlete, most recently updated first.
func (s *Store) AllAthletes(ctx context.Context) ([]model.Athlete, error) {
	var athletes []model.Athlete
	err := s.db.WithContext(ctx).Order("updated_at desc").Find(&athletes).Error
	if err != nil {
		return nil, fmt.Errorf("listing athletes: %w", err)
	}
	return athletes, nil
}
