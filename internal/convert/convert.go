package convert

import (
	"errors"
	"fmt"
	"strings"

	"facility-export/internal/excel"
	"facility-export/internal/models"
)

var ErrMissingColumn = errors.New("missing column")

// Summary describes the outcome of one conversion.
type Summary struct {
	Converted     int
	Dropped       int
	FacilityTypes []string
}

// Project selects the facility columns from t by header name.
func Project(t *excel.Table) ([]models.Facility, error) {
	idx := make([]int, len(models.Columns))
	var missing []string
	for i, name := range models.Columns {
		idx[i] = t.Index(name)
		if idx[i] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	out := make([]models.Facility, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, models.Facility{
			Name:         row[idx[0]],
			Latitude:     row[idx[1]],
			Longitude:    row[idx[2]],
			FacilityType: row[idx[3]],
			Country:      row[idx[4]],
			Icons:        row[idx[5]],
		})
	}
	return out, nil
}

// Filter keeps records that carry both coordinates, in their original order.
// With strict set, a coordinate must also be a number in range; numeric text
// is accepted and left as it was in the sheet.
func Filter(rows []models.Facility, strict bool) (kept []models.Facility, dropped int) {
	kept = make([]models.Facility, 0, len(rows))
	for _, r := range rows {
		if r.Latitude.IsNull() || r.Longitude.IsNull() {
			dropped++
			continue
		}
		if strict && !validCoords(r.Latitude, r.Longitude) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

func validCoords(lat, lon models.Value) bool {
	la, ok := coord(lat)
	if !ok || la < -90 || la > 90 {
		return false
	}
	lo, ok := coord(lon)
	if !ok || lo < -180 || lo > 180 {
		return false
	}
	return true
}

func coord(v models.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if s, ok := v.Raw().(string); ok {
		f, err := excel.ParseCoord(s)
		return f, err == nil
	}
	return 0, false
}

// FacilityTypes returns the distinct non-null facility types in first-seen order.
func FacilityTypes(rows []models.Facility) []string {
	seen := make(map[string]struct{})
	types := []string{}
	for _, r := range rows {
		if r.FacilityType.IsNull() {
			continue
		}
		t := r.FacilityType.String()
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	return types
}

// Facilities projects and filters t and summarizes the result.
func Facilities(t *excel.Table, strict bool) ([]models.Facility, Summary, error) {
	rows, err := Project(t)
	if err != nil {
		return nil, Summary{}, err
	}
	kept, dropped := Filter(rows, strict)
	return kept, Summary{
		Converted:     len(kept),
		Dropped:       dropped,
		FacilityTypes: FacilityTypes(kept),
	}, nil
}
