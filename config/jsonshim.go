package config

import "encoding/json"

// jsonUnmarshal/jsonMarshal are indirected so Maybe[T] has a single
// seam if a future format needs different null handling; today both
// just forward to encoding/json, which goccy/go-yaml also honors via
// its JSON-compatible struct tags.
func jsonUnmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func jsonMarshal(v any) ([]byte, error)      { return json.Marshal(v) }
