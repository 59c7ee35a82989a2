// Package stats derives the dashboard figures shown on the event and
// discovery management screens. Every function is pure and works on an
// immutable snapshot.
package stats

import (
	"time"

	"marketplace/pkg/model"
)

// DefaultCategory is reported when no item carries a tag.
const DefaultCategory = "Nature"

const activeStatus = "active"

// Item is the subset of a catalog entry the figures are computed from.
type Item struct {
	Date         time.Time
	Status       string
	Rating       float64
	Participants int
	Capacity     int
	Tags         []string
}

// Summary is the plain result of Summarize.
type Summary struct {
	Total           int     `json:"total"`
	UpcomingCount   int     `json:"upcoming_count"`
	AvgRating       float64 `json:"avg_rating"`
	ConversionRate  float64 `json:"conversion_rate"`
	PopularCategory string  `json:"popular_category"`
}

func FromCatalog(items []*model.CatalogItem) []Item {
	out := make([]Item, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		tags := make([]string, len(c.Tags))
		copy(tags, c.Tags)
		out = append(out, Item{
			Date:         c.Date,
			Status:       c.Status,
			Rating:       c.Rating,
			Participants: c.Participants,
			Capacity:     c.Capacity,
			Tags:         tags,
		})
	}
	return out
}

// UpcomingCount counts active items dated strictly after now.
func UpcomingCount(items []Item, now time.Time) int {
	n := 0
	for _, it := range items {
		if it.Status == activeStatus && it.Date.After(now) {
			n++
		}
	}
	return n
}

// AvgRating averages the rated items only; unrated (0) items are left out
// of the denominator.
func AvgRating(items []Item) float64 {
	var sum float64
	var rated int
	for _, it := range items {
		if it.Rating > 0 {
			sum += it.Rating
			rated++
		}
	}
	if rated == 0 {
		return 0
	}
	return model.RoundTo(sum/float64(rated), 1)
}

func ConversionRate(items []Item) float64 {
	var participants, capacity int
	for _, it := range items {
		participants += it.Participants
		capacity += it.Capacity
	}
	return percentage(participants, capacity)
}

// PopularCategory returns the most frequent tag. Ties go to the tag that was
// seen first.
func PopularCategory(items []Item) string {
	counts := make(map[string]int)
	var order []string
	for _, it := range items {
		for _, tag := range it.Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	best, bestCount := DefaultCategory, 0
	for _, tag := range order {
		if counts[tag] > bestCount {
			best, bestCount = tag, counts[tag]
		}
	}
	return best
}

// FillPercentage is the per-item progress bar value.
func FillPercentage(participants, capacity int) float64 {
	return percentage(participants, capacity)
}

func Summarize(items []Item, now time.Time) Summary {
	return Summary{
		Total:           len(items),
		UpcomingCount:   UpcomingCount(items, now),
		AvgRating:       AvgRating(items),
		ConversionRate:  ConversionRate(items),
		PopularCategory: PopularCategory(items),
	}
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return model.RoundTo(float64(part)/float64(whole)*100, 1)
}
