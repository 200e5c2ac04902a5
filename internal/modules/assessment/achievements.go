package assessment

import (
	"fmt"

	"github.com/shamsacademy/academy-backend/internal/domain/credentials"
)

const (
	HighPerformanceScore = 90
	HighPerformanceValue = 10.00
)

// AchievementSpec is an achievement to be recorded for a passing final attempt.
type AchievementSpec struct {
	Type        string
	Title       string
	Description string
	Value       *float64
}

// AchievementsFor lists what a passing final attempt earns: always a
// completion certificate, plus a discount at HighPerformanceScore or above.
func AchievementsFor(courseTitle string, score int) []AchievementSpec {
	out := []AchievementSpec{{
		Type:        credentials.AchievementCertificate,
		Title:       fmt.Sprintf("Certificate for %s", courseTitle),
		Description: fmt.Sprintf("Successfully completed %s with grade %d%%", courseTitle, score),
	}}
	if score >= HighPerformanceScore {
		v := HighPerformanceValue
		out = append(out, AchievementSpec{
			Type:        credentials.AchievementDiscount,
			Title:       "High Performance Discount",
			Description: "Earned 10% discount on next course for achieving 90% or higher",
			Value:       &v,
		})
	}
	return out
}
