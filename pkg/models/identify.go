package models

import (
	"encoding/json"
	"time"
)

// IdentifyRequest is the body of the plant identification endpoint.
// ImageBase64 is usually a data URL ("data:image/jpeg;base64,...").
type IdentifyRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// IdentifyResponse is the success body of the plant identification endpoint.
type IdentifyResponse struct {
	Result    json.RawMessage `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

type CareInfo struct {
	Light       string `json:"light"`
	Water       string `json:"water"`
	Humidity    string `json:"humidity"`
	Temperature string `json:"temperature"`
}

// PlantIdentification is what the model returns for a photo. When the reply
// cannot be parsed, Identified is false and Error and Raw are set instead.
type PlantIdentification struct {
	Identified           bool      `json:"identified"`
	Name                 string    `json:"name,omitempty"`
	Species              string    `json:"species,omitempty"`
	Confidence           float64   `json:"confidence,omitempty"`
	Description          string    `json:"description,omitempty"`
	CareInfo             *CareInfo `json:"careInfo,omitempty"`
	HealthTips           []string  `json:"healthTips,omitempty"`
	SuggestedHealthScore int       `json:"suggestedHealthScore,omitempty"`
	Error                string    `json:"error,omitempty"`
	Raw                  string    `json:"raw,omitempty"`
}
