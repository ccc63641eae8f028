package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable choice: typical structs, maps and slices encode
// cleanly, while funcs, channels and complex numbers do not. Containers
// record the codec name in their header, so files written with JSON stay
// readable regardless of what Default points at.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured explicitly.
//
// This affects newly written containers only; existing files are
// self-describing and are opened with the codec named in their header.
var Default Codec = GoJSON{}
