package models

import "math"

// RoundRating rounds an average rating to one decimal place. Ties go to the
// even digit, so 4.25 becomes 4.2.
func RoundRating(avg float64) float64 {
	return math.RoundToEven(avg*10) / 10
}

// AverageRating returns the mean of the non-nil ratings rounded to one
// decimal, or nil when nothing has been rated.
func AverageRating(ratings []*int) *float64 {
	sum, count := 0, 0
	for _, r := range ratings {
		if r == nil {
			continue
		}
		sum += *r
		count++
	}
	if count == 0 {
		return nil
	}
	avg := RoundRating(float64(sum) / float64(count))
	return &avg
}

// TotalWeight sums the weight of the given gear. Gear without a recorded
// weight counts as zero.
func TotalWeight(gear []Gear) int {
	total := 0
	for _, g := range gear {
		if g.WeightGrams != nil {
			total += *g.WeightGrams
		}
	}
	return total
}

// OverallRatings extracts the overall rating of each history entry.
func OverallRatings(history []PerformanceEntry) []*int {
	ratings := make([]*int, 0, len(history))
	for _, entry := range history {
		ratings = append(ratings, entry.TripGear.OverallRating)
	}
	return ratings
}
