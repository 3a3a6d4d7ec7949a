package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-export/internal/excel"
	"facility-export/internal/models"
)

func facilityTable(rows ...[]models.Value) *excel.Table {
	return &excel.Table{
		Header: []string{"Id", "Facility name", "Latitude", "Longitude", "Health facility type", "Country", "Icons"},
		Rows:   rows,
	}
}

func row(name string, lat, lon models.Value, typ string) []models.Value {
	return []models.Value{
		models.Text("x"), models.Text(name), lat, lon, models.Text(typ), models.Text("AFG"), models.Text(typ + ".png"),
	}
}

func TestProject_SelectsColumnsByName(t *testing.T) {
	table := &excel.Table{
		Header: []string{"Icons", "Country", "Health facility type", "Longitude", "Latitude", "Facility name"},
		Rows: [][]models.Value{{
			models.Text("i.png"), models.Text("AFG"), models.Text("Hospitals"),
			models.Number(69.2), models.Number(34.5), models.Text("Clinic A"),
		}},
	}

	got, err := Project(table)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Facility{
		Name:         models.Text("Clinic A"),
		Latitude:     models.Number(34.5),
		Longitude:    models.Number(69.2),
		FacilityType: models.Text("Hospitals"),
		Country:      models.Text("AFG"),
		Icons:        models.Text("i.png"),
	}, got[0])
}

func TestProject_MissingColumns(t *testing.T) {
	table := &excel.Table{Header: []string{"Facility name", "Lat", "Longitude", "Country"}}

	_, err := Project(table)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Latitude")
	assert.Contains(t, err.Error(), "Health facility type")
	assert.Contains(t, err.Error(), "Icons")
	assert.NotContains(t, err.Error(), "Longitude")
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon models.Value
		strict   bool
		wantKept bool
	}{
		{name: "numeric coordinates", lat: models.Number(1), lon: models.Number(2), wantKept: true},
		{name: "null latitude", lat: models.Null(), lon: models.Number(2)},
		{name: "null longitude", lat: models.Number(1), lon: models.Null()},
		{name: "both null", lat: models.Null(), lon: models.Null()},
		{name: "text coordinate passes by default", lat: models.Text("north"), lon: models.Number(2), wantKept: true},
		{name: "text coordinate rejected when strict", lat: models.Text("north"), lon: models.Number(2), strict: true},
		{name: "numeric text accepted when strict", lat: models.Text("34,5"), lon: models.Number(2), strict: true, wantKept: true},
		{name: "out of range latitude when strict", lat: models.Number(91), lon: models.Number(2), strict: true},
		{name: "out of range longitude when strict", lat: models.Number(1), lon: models.Number(-181), strict: true},
		{name: "out of range passes by default", lat: models.Number(91), lon: models.Number(200), wantKept: true},
		{name: "boolean rejected when strict", lat: models.Bool(true), lon: models.Number(2), strict: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []models.Facility{{Name: models.Text("a"), Latitude: tt.lat, Longitude: tt.lon}}
			kept, dropped := Filter(rows, tt.strict)
			if tt.wantKept {
				assert.Len(t, kept, 1)
				assert.Equal(t, 0, dropped)
				assert.Equal(t, rows[0], kept[0])
			} else {
				assert.Empty(t, kept)
				assert.Equal(t, 1, dropped)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	var rows []models.Facility
	for _, name := range []string{"a", "b", "c", "d"} {
		rows = append(rows, models.Facility{Name: models.Text(name), Latitude: models.Number(1), Longitude: models.Number(1)})
	}
	rows[1].Latitude = models.Null()

	kept, dropped := Filter(rows, false)
	assert.Equal(t, 1, dropped)
	require.Len(t, kept, 3)
	assert.Equal(t, "a", kept[0].Name.String())
	assert.Equal(t, "c", kept[1].Name.String())
	assert.Equal(t, "d", kept[2].Name.String())
}

func TestFacilityTypes_DistinctInFirstSeenOrder(t *testing.T) {
	rows := []models.Facility{
		{FacilityType: models.Text("Hospitals")},
		{FacilityType: models.Text("Pharmacies")},
		{FacilityType: models.Null()},
		{FacilityType: models.Text("Hospitals")},
		{FacilityType: models.Text("Blood Centres")},
	}
	assert.Equal(t, []string{"Hospitals", "Pharmacies", "Blood Centres"}, FacilityTypes(rows))
	assert.Equal(t, []string{}, FacilityTypes(nil))
}

func TestFacilities_ClinicExample(t *testing.T) {
	table := facilityTable(
		row("Clinic A", models.Number(1.0), models.Number(2.0), "Clinic"),
		row("Clinic B", models.Null(), models.Number(3.0), "Clinic"),
	)

	data, summary, err := Facilities(table, false)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "Clinic A", data[0].Name.String())
	assert.Equal(t, Summary{Converted: 1, Dropped: 1, FacilityTypes: []string{"Clinic"}}, summary)
}
