// Package models contains shared data models used across the PlantIQ codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Environment is the latest telemetry reading for a plant.
// Field order is significant: it fixes the serialized form used in cache keys.
type Environment struct {
	Temperature  float64  `json:"temperature"`
	Humidity     float64  `json:"humidity"`
	Light        float64  `json:"light"`
	SoilMoisture *float64 `json:"soilMoisture,omitempty"`
	Rainfall     *float64 `json:"rainfall,omitempty"`
}

// PlantData is the immutable snapshot sent with every analysis request.
type PlantData struct {
	Name           string      `json:"name"           validate:"required,max=200"`
	Species        string      `json:"species"        validate:"max=200"`
	IsOutdoor      bool        `json:"isOutdoor"`
	Environment    Environment `json:"environment"`
	HealthScore    int         `json:"healthScore"    validate:"min=0,max=100"`
	LastWatered    *string     `json:"lastWatered,omitempty"`
	LastFertilized *string     `json:"lastFertilized,omitempty"`
}

// WeatherForecast is one day of forecast used by growth predictions and daily insights.
type WeatherForecast struct {
	Date          string  `json:"date"`
	TempHigh      float64 `json:"tempHigh"`
	TempLow       float64 `json:"tempLow"`
	Humidity      float64 `json:"humidity"`
	Precipitation float64 `json:"precipitation"`
	Condition     string  `json:"condition"`
}

const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Plant is a plant registered by a user. Every plant belongs to exactly one user.
type Plant struct {
	ID             uuid.UUID  `db:"id"              json:"id"`
	UserID         uuid.UUID  `db:"user_id"         json:"user_id"`
	Name           string     `db:"name"            json:"name"`
	Species        *string    `db:"species"         json:"species,omitempty"`
	ImageURL       *string    `db:"image_url"       json:"image_url,omitempty"`
	HealthScore    int        `db:"health_score"    json:"health_score"`
	Trend          string     `db:"trend"           json:"trend"`
	IsOutdoor      bool       `db:"is_outdoor"      json:"is_outdoor"`
	Temperature    float64    `db:"temperature"     json:"temperature"`
	Humidity       float64    `db:"humidity"        json:"humidity"`
	Light          float64    `db:"light"           json:"light"`
	SoilMoisture   float64    `db:"soil_moisture"   json:"soil_moisture"`
	LastWatered    *time.Time `db:"last_watered"    json:"last_watered,omitempty"`
	LastFertilized *time.Time `db:"last_fertilized" json:"last_fertilized,omitempty"`
	Notes          *string    `db:"notes"           json:"notes,omitempty"`
	AICareTips     *string    `db:"ai_care_tips"    json:"ai_care_tips,omitempty"`
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      json:"updated_at"`
}

// Snapshot converts a stored plant into the analysis input.
func (p *Plant) Snapshot() PlantData {
	soil := p.SoilMoisture
	data := PlantData{
		Name:      p.Name,
		IsOutdoor: p.IsOutdoor,
		Environment: Environment{
			Temperature:  p.Temperature,
			Humidity:     p.Humidity,
			Light:        p.Light,
			SoilMoisture: &soil,
		},
		HealthScore: p.HealthScore,
	}
	if p.Species != nil {
		data.Species = *p.Species
	}
	if p.LastWatered != nil {
		s := p.LastWatered.UTC().Format(time.RFC3339)
		data.LastWatered = &s
	}
	if p.LastFertilized != nil {
		s := p.LastFertilized.UTC().Format(time.RFC3339)
		data.LastFertilized = &s
	}
	return data
}
