// Package ratings aggregates approved review ratings for display.
package ratings

import (
	"math"
	"strconv"
)

// Buckets are the rating values reported in every distribution.
var Buckets = [...]int{1, 2, 3, 4, 5}

// Bucket is one bar of the rating histogram.
type Bucket struct {
	Rating  int     `json:"rating"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary is the aggregate over a property's approved reviews.
type Summary struct {
	Count int `json:"count"`
	// Average is nil when there are no ratings.
	Average      *float64    `json:"average"`
	Distribution map[int]int `json:"distribution"`
	Buckets      []Bucket    `json:"buckets"`
}

// Summarize computes the average (rounded to one decimal) and the 1..5
// distribution of ratings. Values outside 1..5 are ignored.
func Summarize(ratings []int) Summary {
	s := Summary{Distribution: make(map[int]int, len(Buckets))}
	for _, b := range Buckets {
		s.Distribution[b] = 0
	}

	sum := 0
	for _, r := range ratings {
		if _, ok := s.Distribution[r]; !ok {
			continue
		}
		s.Distribution[r]++
		s.Count++
		sum += r
	}

	if s.Count > 0 {
		avg := round1(float64(sum) / float64(s.Count))
		s.Average = &avg
	}

	s.Buckets = make([]Bucket, 0, len(Buckets))
	for i := len(Buckets) - 1; i >= 0; i-- {
		b := Buckets[i]
		bucket := Bucket{Rating: b, Count: s.Distribution[b]}
		if s.Count > 0 {
			bucket.Percent = round1(float64(bucket.Count) * 100 / float64(s.Count))
		}
		s.Buckets = append(s.Buckets, bucket)
	}
	return s
}

// HasRating reports whether at least one rating was aggregated.
func (s Summary) HasRating() bool {
	return s.Average != nil
}

// AverageLabel renders the average for display.
func (s Summary) AverageLabel() string {
	if s.Average == nil {
		return "No rating yet"
	}
	return strconv.FormatFloat(*s.Average, 'f', 1, 64)
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
