package analysis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Ishwarya142/plantiq/pkg/models"
)

// Decode unmarshals an analysis result into T. It returns nil for a nil, null
// or unparseable result and for a result that does not match T.
func Decode[T any](raw json.RawMessage) *T {
	if isEmpty(raw) || isUnparseable(raw) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("analysis result does not match expected shape", "error", err)
		return nil
	}
	return &v
}

func (c *Client) GrowthPrediction(ctx context.Context, plant models.PlantData, forecast []models.WeatherForecast) *models.GrowthPrediction {
	return Decode[models.GrowthPrediction](c.Analyze(ctx, models.KindGrowthPrediction, plant, forecast))
}

func (c *Client) CareRecommendations(ctx context.Context, plant models.PlantData) *models.CareRecommendations {
	return Decode[models.CareRecommendations](c.Analyze(ctx, models.KindCareRecommendation, plant, nil))
}

func (c *Client) HealthAnalysis(ctx context.Context, plant models.PlantData) *models.HealthAnalysis {
	return Decode[models.HealthAnalysis](c.Analyze(ctx, models.KindHealthAnalysis, plant, nil))
}

func (c *Client) DailyInsight(ctx context.Context, plant models.PlantData, forecast []models.WeatherForecast) *models.DailyInsight {
	return Decode[models.DailyInsight](c.Analyze(ctx, models.KindDailyInsight, plant, forecast))
}
