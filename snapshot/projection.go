package snapshot

import "encoding/json"

// SubmitMarker is the projection key used by internal submit-time fetches;
// its presence disables field filtering.
const SubmitMarker = "$submit"

// Projection selects the record fields a client-facing fetch returns.
type Projection map[string]bool

// IsSubmit reports whether p marks an internal submit-time fetch.
func (p Projection) IsSubmit() bool { return p[SubmitMarker] }

// Filters reports whether p restricts fields.
func (p Projection) Filters() bool { return len(p) > 0 && !p.IsSubmit() }

// Apply keeps only the projected keys of the "fields" object in data. Data
// without a "fields" object is returned unchanged.
func (p Projection) Apply(data json.RawMessage) (json.RawMessage, error) {
	if !p.Filters() || len(data) == 0 {
		return data, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return data, nil
	}
	raw, ok := doc["fields"]
	if !ok {
		return data, nil
	}
	var fields map[string]json.RawMessage
	err := json.Unmarshal(raw, &fields)
	if err != nil {
		return nil, err
	}
	for k := range fields {
		if !p[k] {
			delete(fields, k)
		}
	}
	if doc["fields"], err = json.Marshal(fields); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
