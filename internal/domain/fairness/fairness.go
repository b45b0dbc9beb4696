// Package fairness summarises how evenly slot occupancy has been spread
// across a roster.
package fairness

import (
	"math"

	"github.com/okian/pegsync/internal/domain/model"
)

// Score constants.
const (
	maxScore         = 100
	stdDevPenalty    = 20 // points lost per unit of standard deviation
	goodThreshold    = 80
	fairThreshold    = 60
	roundingHalfStep = 0.5
)

// Rating buckets a score for display.
type Rating string

// Rating values.
const (
	RatingGood Rating = "good"
	RatingFair Rating = "fair"
	RatingPoor Rating = "poor"
)

// Score returns an integer in [0, 100] for the roster's historical record
// counts: 100 - 20 * population stddev, rounded half up and floored at 0.
// An empty roster or empty history scores 100. Participants with no records
// count as zero; records for participants outside the roster are ignored.
func Score(participants []model.Participant, history []model.HistoricalAssignment) int {
	if len(history) == 0 || len(participants) == 0 {
		return maxScore
	}

	counts := make(map[string]int, len(participants))
	for _, p := range participants {
		counts[p.ID] = 0
	}
	for _, h := range history {
		if _, ok := counts[h.ParticipantID]; ok {
			counts[h.ParticipantID]++
		}
	}

	sd := stdDev(counts)
	score := math.Max(0, maxScore-sd*stdDevPenalty)
	return int(math.Floor(score + roundingHalfStep))
}

func stdDev(counts map[string]int) float64 {
	n := float64(len(counts))
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / n

	var variance float64
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	return math.Sqrt(variance / n)
}

// Rate maps a score onto a display rating.
func Rate(score int) Rating {
	switch {
	case score >= goodThreshold:
		return RatingGood
	case score >= fairThreshold:
		return RatingFair
	default:
		return RatingPoor
	}
}

// Distribution counts how often participantID occupied each slot in
// [1, slotCount]. Every slot in range is present, zero when unused.
func Distribution(participantID string, history []model.HistoricalAssignment, slotCount int) map[int]int {
	dist := make(map[int]int, max(slotCount, 0))
	for slot := 1; slot <= slotCount; slot++ {
		dist[slot] = 0
	}
	for _, h := range history {
		if h.ParticipantID != participantID {
			continue
		}
		if _, ok := dist[h.Slot]; ok {
			dist[h.Slot]++
		}
	}
	return dist
}
