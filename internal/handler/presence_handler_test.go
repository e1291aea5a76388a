package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceQueryParameterNames(t *testing.T) {
	c, _ := newGinContext(t, http.MethodGet,
		"/presence/summary?startDate=2024-03-01&endDate=2024-03-14&department=Finance&personType=visitor", nil)

	start, end, filter, err := presenceQuery(c)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, "Finance", filter.Department)
	assert.Equal(t, "visitor", filter.PersonType)
}

func TestPresenceQueryDefaultsToZeroWindow(t *testing.T) {
	c, _ := newGinContext(t, http.MethodGet, "/presence/summary", nil)

	start, end, filter, err := presenceQuery(c)
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
	assert.Empty(t, filter.Department)
	assert.Empty(t, filter.PersonType)
}

func TestPresenceQueryRejectsMalformedDate(t *testing.T) {
	c, _ := newGinContext(t, http.MethodGet, "/presence/summary?startDate=01-03-2024", nil)

	_, _, _, err := presenceQuery(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startDate")
}
