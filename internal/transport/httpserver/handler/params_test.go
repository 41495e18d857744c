package handler

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryParamsLeavesUnsetFieldsNil(t *testing.T) {
	params, err := parseQueryParams(url.Values{})
	require.NoError(t, err)

	assert.Zero(t, params.Page)
	assert.Zero(t, params.Limit)
	assert.Nil(t, params.DateFrom)
	assert.Nil(t, params.CO2Min)
	assert.Nil(t, params.ActivityType)
}

func TestParseQueryParamsReadsEveryFilter(t *testing.T) {
	params, err := parseQueryParams(url.Values{
		"page":         {"2"},
		"limit":        {"25"},
		"sortBy":       {" activity_table.name "},
		"sortOrder":    {"desc"},
		"dateFrom":     {"2024-01-01"},
		"dateTo":       {"2024-01-31T00:00:00Z"},
		"amountMin":    {"0"},
		"amountMax":    {"12.5"},
		"co2Min":       {"1"},
		"co2Max":       {"2"},
		"activityType": {"7"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, "activity_table.name", params.SortBy)
	assert.Equal(t, "desc", params.SortOrder)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *params.DateFrom)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *params.DateTo)
	require.NotNil(t, params.AmountMin)
	assert.Zero(t, *params.AmountMin)
	assert.InDelta(t, 12.5, *params.AmountMax, 1e-9)
	assert.Equal(t, int64(7), *params.ActivityType)
}

func TestParseQueryParamsNamesTheBadParameter(t *testing.T) {
	for _, name := range []string{"page", "limit", "dateFrom", "dateTo", "amountMin", "amountMax", "co2Min", "co2Max", "activityType"} {
		_, err := parseQueryParams(url.Values{name: {"-x"}})
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), name)
	}

	for _, value := range []string{"NaN", "nan", "Inf", "-Inf", "+Infinity", "1e999"} {
		for _, name := range []string{"amountMin", "amountMax", "co2Min", "co2Max"} {
			_, err := parseQueryParams(url.Values{name: {value}})
			require.Error(t, err, name+"="+value)
			assert.Contains(t, err.Error(), name)
		}
	}
}

func TestParseCSVIDs(t *testing.T) {
	ids, err := parseCSVIDs("activity_type_ids", "3, 1,3,,2")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	_, err = parseCSVIDs("activity_type_ids", "1,a")
	assert.ErrorContains(t, err, "activity_type_ids")
}

func TestFormatCO2(t *testing.T) {
	assert.Equal(t, "0.00 kg CO2e", formatCO2(0))
	assert.Equal(t, "999.50 kg CO2e", formatCO2(999.5))
	assert.Equal(t, "2.92 t CO2e", formatCO2(2923.2))
	assert.Equal(t, "1,500.00 t CO2e", formatCO2(1_500_000))
}
