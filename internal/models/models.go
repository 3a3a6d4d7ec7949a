package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Column names expected in the source sheet. They double as the JSON keys
// of each exported record.
const (
	ColFacilityName = "Facility name"
	ColLatitude     = "Latitude"
	ColLongitude    = "Longitude"
	ColFacilityType = "Health facility type"
	ColCountry      = "Country"
	ColIcons        = "Icons"
)

// Columns lists the projected columns in output order.
var Columns = []string{
	ColFacilityName,
	ColLatitude,
	ColLongitude,
	ColFacilityType,
	ColCountry,
	ColIcons,
}

// Timestamp is written verbatim into every envelope so output is reproducible.
const Timestamp = "2025-09-30T00:00:00.000Z"

// Value is a single cell projected to a JSON-compatible type.
// The zero Value is null.
type Value struct {
	raw any // nil, float64, bool or string
}

func Null() Value            { return Value{} }
func Number(f float64) Value { return Value{raw: f} }
func Bool(b bool) Value      { return Value{raw: b} }
func Text(s string) Value    { return Value{raw: s} }
func (v Value) IsNull() bool { return v.raw == nil }
func (v Value) Raw() any     { return v.raw }

// Float returns the numeric content of v, if it is a number.
func (v Value) Float() (float64, bool) {
	f, ok := v.raw.(float64)
	return f, ok
}

func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return ""
}

// MarshalJSON leaves &, < and > unescaped. Encoders with SetEscapeHTML(false)
// keep them that way; json.Marshal re-escapes them.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.raw); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.raw, nil
}

// Facility is one row of the health facility sheet. Field order is the
// serialized key order.
type Facility struct {
	Name         Value `json:"Facility name" yaml:"Facility name"`
	Latitude     Value `json:"Latitude" yaml:"Latitude"`
	Longitude    Value `json:"Longitude" yaml:"Longitude"`
	FacilityType Value `json:"Health facility type" yaml:"Health facility type"`
	Country      Value `json:"Country" yaml:"Country"`
	Icons        Value `json:"Icons" yaml:"Icons"`
}

// Values returns the record's cells in Columns order.
func (f Facility) Values() []Value {
	return []Value{f.Name, f.Latitude, f.Longitude, f.FacilityType, f.Country, f.Icons}
}

// Envelope is the top-level document consumed by the map viewer.
type Envelope struct {
	Success   bool       `json:"success" yaml:"success"`
	Timestamp string     `json:"timestamp" yaml:"timestamp"`
	Data      []Facility `json:"data" yaml:"data"`
}

func NewEnvelope(data []Facility) Envelope {
	if data == nil {
		data = []Facility{}
	}
	return Envelope{
		Success:   true,
		Timestamp: Timestamp,
		Data:      data,
	}
}
