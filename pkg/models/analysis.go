package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AnalysisKind selects the prompt template and the response shape of an analysis.
type AnalysisKind string

const (
	KindGrowthPrediction   AnalysisKind = "growth-prediction"
	KindCareRecommendation AnalysisKind = "care-recommendation"
	KindHealthAnalysis     AnalysisKind = "health-analysis"
	KindDailyInsight       AnalysisKind = "daily-insight"
)

// AnalysisKinds lists every supported kind.
var AnalysisKinds = []AnalysisKind{
	KindGrowthPrediction,
	KindCareRecommendation,
	KindHealthAnalysis,
	KindDailyInsight,
}

// Valid reports whether k is one of the supported kinds.
func (k AnalysisKind) Valid() bool {
	for _, known := range AnalysisKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseAnalysisKind converts a wire value into an AnalysisKind.
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	k := AnalysisKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown analysis type %q", s)
	}
	return k, nil
}

// AnalysisRequest is the body of the plant analysis endpoint.
type AnalysisRequest struct {
	Type            AnalysisKind      `json:"type"                      validate:"required,analysiskind"`
	PlantData       PlantData         `json:"plantData"`
	WeatherForecast []WeatherForecast `json:"weatherForecast,omitempty" validate:"max=16"`
}

// AnalysisResponse is the success body of the plant analysis endpoint.
// Result is opaque: its shape depends on Type.
type AnalysisResponse struct {
	Type      AnalysisKind    `json:"type"`
	Result    json.RawMessage `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

// UnparseableResult is returned in place of a result when the model reply is not JSON.
type UnparseableResult struct {
	Raw         string `json:"raw"`
	Unparseable bool   `json:"unparseable"`
}

type GrowthPrediction struct {
	GrowthRate       float64           `json:"growthRate"`
	HealthTrajectory string            `json:"healthTrajectory"`
	Predictions      []GrowthDay       `json:"predictions"`
	RiskPeriods      []RiskPeriod      `json:"riskPeriods"`
	KeyFactors       []GrowthKeyFactor `json:"keyFactors"`
	Summary          string            `json:"summary"`
}

type GrowthDay struct {
	Day           int     `json:"day"`
	GrowthPercent float64 `json:"growthPercent"`
	HealthScore   float64 `json:"healthScore"`
	RiskLevel     string  `json:"riskLevel"`
}

type RiskPeriod struct {
	StartDay int    `json:"startDay"`
	EndDay   int    `json:"endDay"`
	Reason   string `json:"reason"`
}

type GrowthKeyFactor struct {
	Factor      string `json:"factor"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// CareRecommendation is a single actionable care item.
type CareRecommendation struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	Timing      string `json:"timing"`
}

type CareRecommendations struct {
	Recommendations   []CareRecommendation `json:"recommendations"`
	OverallAssessment string               `json:"overallAssessment"`
}

type HealthAnalysis struct {
	HealthScore           float64               `json:"healthScore"`
	Status                string                `json:"status"`
	StressFactors         []StressFactor        `json:"stressFactors"`
	EnvironmentalAnalysis EnvironmentalAnalysis `json:"environmentalAnalysis"`
	ImmediateActions      []string              `json:"immediateActions"`
	LongTermCare          []string              `json:"longTermCare"`
}

type StressFactor struct {
	Factor      string `json:"factor"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type FactorStatus struct {
	Status         string `json:"status"`
	Recommendation string `json:"recommendation"`
}

type EnvironmentalAnalysis struct {
	Temperature  FactorStatus `json:"temperature"`
	Humidity     FactorStatus `json:"humidity"`
	Light        FactorStatus `json:"light"`
	SoilMoisture FactorStatus `json:"soilMoisture"`
}

type DailyInsight struct {
	Insight    string   `json:"insight"`
	Impact     string   `json:"impact"`
	BasedOn    []string `json:"basedOn"`
	Confidence float64  `json:"confidence"`
}
