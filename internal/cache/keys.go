package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Ishwarya142/plantiq/pkg/models"
)

// AnalysisKey derives the analysis cache key from the kind, the plant name,
// the health score and the serialized environment. Species, location and
// care dates are not part of the key.
func AnalysisKey(kind models.AnalysisKind, plant models.PlantData) string {
	env, _ := json.Marshal(plant.Environment)
	h := sha256.New()
	h.Write([]byte(plant.Name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(plant.HealthScore)))
	h.Write([]byte{0})
	h.Write(env)
	return fmt.Sprintf("analysis:%s:%x", kind, h.Sum(nil))
}

func IdentifyKey(imageHash string) string {
	return fmt.Sprintf("identify:%s", imageHash)
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}
