package geo

import (
	"math"

	"github.com/sanmarzano/orderbot/internal/models"
)

const earthRadiusKm = 6371.0

// DistanceKm calculates the great-circle distance between two points
// using the haversine formula.
func DistanceKm(a, b models.Location) float64 {
	lat1 := toRadians(a.Lat)
	lon1 := toRadians(a.Lng)
	lat2 := toRadians(b.Lat)
	lon2 := toRadians(b.Lng)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RoundCost rounds a fee up to the next half sol.
func RoundCost(cost float64) float64 {
	return math.Ceil(cost*2) / 2
}

// DeliveryCost prices a delivery distance: per-km rate, floored at the
// minimum fee, rounded up to the next half sol.
func DeliveryCost(distanceKm, ratePerKm, minimumFee float64) float64 {
	cost := distanceKm * ratePerKm
	if cost < minimumFee {
		cost = minimumFee
	}
	return RoundCost(cost)
}
