package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/parkspot/internal/api"
)

func TestStatsNeedsNoSession(t *testing.T) {
	h := newHarness(t)

	res := h.mustRun("stats")
	assert.Contains(t, res.stdout, "1 free of 3")
	assert.Contains(t, res.stdout, "66.7%")

	res = h.mustRun("stats", "-o", "yaml")
	assert.Contains(t, res.stdout, "total_parking_lots: 2")

	res = h.mustRun("stats", "-o", "json")
	st := decodeJSON[api.PublicStats](t, res.stdout)
	assert.Equal(t, 2, st.TotalReservations)
	assert.InDelta(t, 66.7, st.UtilizationRate, 0.001)
}
