package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Ishwarya142/plantiq/pkg/models"
)

// SystemPrompt is the fixed system instruction sent with every plant analysis.
const SystemPrompt = `You are PlantIQ, an expert AI botanist and plant care specialist. You analyze environmental conditions and provide accurate, actionable plant care advice.

Your analysis considers:
- Temperature (optimal range varies by species, generally 18-24°C for most houseplants)
- Humidity (40-60% ideal for most plants)
- Light intensity (measured in percentage, 60-80% for most plants)
- Soil moisture (40-60% optimal)
- Rainfall patterns (for outdoor plants)
- Weather forecasts for growth predictions

Always provide specific, actionable recommendations with reasoning. Be warm and encouraging like a friendly plant expert.`

// IdentifySystemPrompt is the system instruction for image identification.
const IdentifySystemPrompt = `You are PlantIQ, an expert botanist AI that can identify plants from images with high accuracy.

When given a plant image, analyze it thoroughly and provide:
1. The common name of the plant
2. The scientific/species name
3. A confidence score (0-100)
4. Basic care requirements
5. A brief description

Always respond in valid JSON format with this structure:
{
  "identified": true/false,
  "name": "Common Name",
  "species": "Scientific Name",
  "confidence": 85,
  "description": "Brief description of the plant",
  "careInfo": {
    "light": "bright indirect",
    "water": "weekly",
    "humidity": "moderate",
    "temperature": "18-24°C"
  },
  "healthTips": ["tip1", "tip2", "tip3"],
  "suggestedHealthScore": 75
}`

// IdentifyUserPrompt accompanies the image in an identification request.
const IdentifyUserPrompt = "Please identify this plant and provide detailed care information. If you cannot identify a plant in the image, set identified to false and provide a helpful message."

// Builder renders the user prompt for each analysis kind.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// Build returns the user prompt for kind. The forecast is only used by
// growth predictions and daily insights.
func (b Builder) Build(kind models.AnalysisKind, p models.PlantData, forecast []models.WeatherForecast) (string, error) {
	switch kind {
	case models.KindGrowthPrediction:
		return b.growthPrediction(p, forecast), nil
	case models.KindCareRecommendation:
		return b.careRecommendation(p), nil
	case models.KindHealthAnalysis:
		return b.healthAnalysis(p), nil
	case models.KindDailyInsight:
		return b.dailyInsight(p, forecast), nil
	default:
		return "", fmt.Errorf("unknown analysis type %q", kind)
	}
}

func (b Builder) growthPrediction(p models.PlantData, forecast []models.WeatherForecast) string {
	var sb strings.Builder
	sb.WriteString("Analyze growth prediction for this plant:\n")
	b.writeHeader(&sb, p, "Current Health Score")
	sb.WriteString("Environment:\n")
	b.writeEnvironment(&sb, p.Environment, "Unknown")
	if p.IsOutdoor && p.Environment.Rainfall != nil && *p.Environment.Rainfall != 0 {
		fmt.Fprintf(&sb, "- Recent Rainfall: %smm\n", num(*p.Environment.Rainfall))
	}
	sb.WriteString("\n")
	if len(forecast) > 0 {
		sb.WriteString("Weather Forecast (next 7 days):\n")
		for i, d := range forecast {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%s: %s, High: %s°C, Low: %s°C, Humidity: %s%%, Precipitation: %smm",
				d.Date, d.Condition, num(d.TempHigh), num(d.TempLow), num(d.Humidity), num(d.Precipitation))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`
Provide a 14-day growth prediction with:
1. Expected growth rate (percentage)
2. Predicted health trajectory
3. Risk periods to watch
4. Key factors affecting growth

Respond in JSON format:
{
  "growthRate": number (percentage),
  "healthTrajectory": "improving" | "stable" | "declining",
  "predictions": [{"day": number, "growthPercent": number, "healthScore": number, "riskLevel": "low" | "medium" | "high"}],
  "riskPeriods": [{"startDay": number, "endDay": number, "reason": string}],
  "keyFactors": [{"factor": string, "impact": "positive" | "negative", "description": string}],
  "summary": string
}`)
	return sb.String()
}

func (b Builder) careRecommendation(p models.PlantData) string {
	var sb strings.Builder
	sb.WriteString("Generate personalized care recommendations for:\n")
	b.writeHeader(&sb, p, "Health Score")
	sb.WriteString("Environment:\n")
	b.writeEnvironment(&sb, p.Environment, "Unknown")
	if p.LastWatered != nil && *p.LastWatered != "" {
		fmt.Fprintf(&sb, "- Last Watered: %s\n", *p.LastWatered)
	}
	if p.LastFertilized != nil && *p.LastFertilized != "" {
		fmt.Fprintf(&sb, "- Last Fertilized: %s\n", *p.LastFertilized)
	}
	sb.WriteString(`
Provide specific care recommendations in JSON format:
{
  "recommendations": [
    {
      "type": "watering" | "light" | "temperature" | "humidity" | "fertilizer" | "pruning",
      "priority": "high" | "medium" | "low",
      "title": string,
      "description": string,
      "reason": string,
      "timing": string
    }
  ],
  "overallAssessment": string
}`)
	return sb.String()
}

func (b Builder) healthAnalysis(p models.PlantData) string {
	env := p.Environment
	var sb strings.Builder
	sb.WriteString("Perform detailed health analysis for:\n")
	b.writeHeader(&sb, p, "Current Health Score")
	sb.WriteString("Environment:\n")
	fmt.Fprintf(&sb, "- Temperature: %s°C (%s)\n", num(env.Temperature), TemperatureLabel(env.Temperature))
	fmt.Fprintf(&sb, "- Humidity: %s%% (%s)\n", num(env.Humidity), HumidityLabel(env.Humidity))
	fmt.Fprintf(&sb, "- Light: %s%% (%s)\n", num(env.Light), LightLabel(env.Light))
	fmt.Fprintf(&sb, "- Soil Moisture: %s%%\n", soilMoisture(env.SoilMoisture, "Unknown"))
	sb.WriteString(`
Analyze and respond in JSON format:
{
  "healthScore": number,
  "status": "Healthy" | "Moderate Stress" | "Needs Attention" | "Critical",
  "stressFactors": [{"factor": string, "severity": "mild" | "moderate" | "severe", "description": string}],
  "environmentalAnalysis": {
    "temperature": {"status": "optimal" | "warning" | "critical", "recommendation": string},
    "humidity": {"status": "optimal" | "warning" | "critical", "recommendation": string},
    "light": {"status": "optimal" | "warning" | "critical", "recommendation": string},
    "soilMoisture": {"status": "optimal" | "warning" | "critical", "recommendation": string}
  },
  "immediateActions": [string],
  "longTermCare": [string]
}`)
	return sb.String()
}

func (b Builder) dailyInsight(p models.PlantData, forecast []models.WeatherForecast) string {
	var sb strings.Builder
	sb.WriteString("Generate a helpful daily insight for:\n")
	b.writeHeader(&sb, p, "Health Score")
	sb.WriteString("Current Conditions:\n")
	b.writeEnvironment(&sb, p.Environment, "50")
	sb.WriteString("\n")
	if len(forecast) > 0 {
		fmt.Fprintf(&sb, "Today's Weather: %s, High: %s°C\n", forecast[0].Condition, num(forecast[0].TempHigh))
	}
	sb.WriteString(`
Provide ONE specific, actionable insight that would help this plant thrive. Focus on what the user can do TODAY.

Respond in JSON format:
{
  "insight": string (the main insight, 1-2 sentences, specific and actionable),
  "impact": string (expected benefit, e.g., "improve growth by 15%"),
  "basedOn": [string] (factors this insight is based on),
  "confidence": number (0-100)
}`)
	return sb.String()
}

func (b Builder) writeHeader(sb *strings.Builder, p models.PlantData, scoreLabel string) {
	fmt.Fprintf(sb, "Plant: %s (%s)\n", p.Name, p.Species)
	fmt.Fprintf(sb, "Location: %s\n", Location(p.IsOutdoor))
	fmt.Fprintf(sb, "%s: %d/100\n", scoreLabel, p.HealthScore)
}

func (b Builder) writeEnvironment(sb *strings.Builder, env models.Environment, moistureDefault string) {
	fmt.Fprintf(sb, "- Temperature: %s°C\n", num(env.Temperature))
	fmt.Fprintf(sb, "- Humidity: %s%%\n", num(env.Humidity))
	fmt.Fprintf(sb, "- Light: %s%%\n", num(env.Light))
	fmt.Fprintf(sb, "- Soil Moisture: %s%%\n", soilMoisture(env.SoilMoisture, moistureDefault))
}

// Location renders the indoor/outdoor flag.
func Location(outdoor bool) string {
	if outdoor {
		return "Outdoor"
	}
	return "Indoor"
}

// TemperatureLabel classifies a temperature in °C.
func TemperatureLabel(c float64) string {
	switch {
	case c < 15:
		return "Cold stress risk"
	case c > 30:
		return "Heat stress risk"
	default:
		return "Normal"
	}
}

// HumidityLabel classifies a relative humidity percentage.
func HumidityLabel(h float64) string {
	switch {
	case h < 30:
		return "Too dry"
	case h > 70:
		return "Too humid"
	default:
		return "Normal"
	}
}

// LightLabel classifies a light intensity percentage.
func LightLabel(l float64) string {
	switch {
	case l < 40:
		return "Low light"
	case l > 80:
		return "High light"
	default:
		return "Normal"
	}
}

// soilMoisture renders the optional moisture reading. A zero reading is
// treated as missing.
func soilMoisture(v *float64, fallback string) string {
	if v == nil || *v == 0 {
		return fallback
	}
	return num(*v)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
