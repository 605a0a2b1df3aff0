package model

import "cairo-metro-ticketing/internal/domain"

// fareTier caps a station count (inclusive of both endpoints) at a flat fare.
type fareTier struct {
	maxStations int
	amount      Money
}

var fareSchedule = []fareTier{
	{maxStations: 9, amount: 800},
	{maxStations: 16, amount: 1000},
	{maxStations: 23, amount: 1500},
}

const fareAboveSchedule Money = 2000

// Fare is the result of pricing a single-line trip.
type Fare struct {
	StationCount int
	Amount       Money
}

// CalculateFare prices a trip between two stations of the same line.
// Stations on different lines yield domain.ErrInvalidRoute.
func CalculateFare(start, end *Station) (Fare, error) {
	if start == nil || end == nil {
		return Fare{}, domain.ErrInvalidArgument
	}
	if start.LineID != end.LineID {
		return Fare{}, domain.ErrInvalidRoute
	}
	count := StationCount(start, end)
	return Fare{StationCount: count, Amount: FareForCount(count)}, nil
}

// StationCount is |order(end) - order(start)| + 1.
func StationCount(start, end *Station) int {
	d := end.Order - start.Order
	if d < 0 {
		d = -d
	}
	return d + 1
}

func FareForCount(count int) Money {
	for _, t := range fareSchedule {
		if count <= t.maxStations {
			return t.amount
		}
	}
	return fareAboveSchedule
}

// MaxZone is the highest zone touched by a trip; subscriptions must cover it.
func MaxZone(start, end *Station) int {
	if start.Zone > end.Zone {
		return start.Zone
	}
	return end.Zone
}
