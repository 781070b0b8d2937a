package geo

import (
	"testing"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	lima := models.Location{Lat: -12.0464, Lng: -77.0428}
	callao := models.Location{Lat: -12.0667, Lng: -77.1333}

	assert.Zero(t, DistanceKm(lima, lima))

	d := DistanceKm(lima, callao)
	assert.InDelta(t, 10.1, d, 0.5)
	assert.Equal(t, d, DistanceKm(callao, lima))
}

func TestRoundCost(t *testing.T) {
	assert.Equal(t, 3.0, RoundCost(3.0))
	assert.Equal(t, 3.5, RoundCost(3.01))
	assert.Equal(t, 3.5, RoundCost(3.5))
	assert.Equal(t, 4.0, RoundCost(3.51))
}

func TestDeliveryCost(t *testing.T) {
	// Short trips collapse to the minimum fee.
	assert.Equal(t, 3.0, DeliveryCost(0.4, 1.5, 3.0))
	// Longer trips price per km and round up to the half sol.
	assert.Equal(t, 6.0, DeliveryCost(3.9, 1.5, 3.0))
	assert.Equal(t, 7.5, DeliveryCost(5.0, 1.5, 3.0))
}
