package services

import (
	"time"

	"listing-counter/config"
	"listing-counter/models"
)

// Combine builds the record for one (region, category) pair from the two
// results just obtained for it. Failed results contribute 0; the total is
// fixed here and never recomputed.
func Combine(date time.Time, region config.Region, category config.Category, finn, hjem models.CountResult) models.Record {
	f := normaliseCount(finn)
	h := normaliseCount(hjem)
	return models.Record{
		Date:     models.DateOf(date),
		City:     region.Name,
		Category: category.Name,
		Finn:     f,
		Hjem:     h,
		Total:    f + h,
	}
}

func normaliseCount(r models.CountResult) int {
	if !r.OK() || r.Count < 0 {
		return 0
	}
	return r.Count
}
