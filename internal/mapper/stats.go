package mapper

import "github.com/ppiankov/certmap/internal/model"

// Statistics summarizes a batch of mapping results
func Statistics(results []model.QuestionMappingResult) model.MappingStats {
	stats := model.MappingStats{TotalQuestions: len(results)}

	for _, r := range results {
		switch r.Confidence {
		case model.ConfidenceHigh:
			stats.HighConfidence++
		case model.ConfidenceMedium:
			stats.MediumConfidence++
		case model.ConfidenceLow:
			stats.LowConfidence++
		}

		if len(r.Mappings) == 0 {
			stats.Unmapped++
		}

		// Each mapped provision counts independently
		for _, pm := range r.Mappings {
			if pm.Kind.IsMandatory() {
				stats.MandatoryMappings++
			} else {
				stats.RecommendedMappings++
			}
		}
	}

	if stats.TotalQuestions > 0 {
		stats.SuccessRate = float64(stats.TotalQuestions-stats.Unmapped) / float64(stats.TotalQuestions)
	}
	return stats
}
