package rutapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the optional wrapper the backend puts around payloads.
type envelope struct {
	Success  *bool           `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Affected *int            `json:"affected"`
}

// decoded is the common view of a bare or enveloped response.
type decoded struct {
	enveloped bool
	success   bool
	message   string
	data      json.RawMessage
	affected  *int
}

// decodeBody accepts both a bare JSON value and an envelope. An object is
// treated as an envelope only when it carries a "success" key.
func decodeBody(body []byte) (*decoded, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &decoded{success: true}, nil
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if env.Success != nil {
			return &decoded{
				enveloped: true,
				success:   *env.Success,
				message:   env.Message,
				data:      env.Data,
				affected:  env.Affected,
			}, nil
		}
	}

	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	return &decoded{success: true, data: trimmed}, nil
}

// into unmarshals the payload; an absent or null payload leaves v untouched.
func (d *decoded) into(v interface{}) error {
	if len(d.data) == 0 || string(d.data) == "null" {
		return nil
	}
	if err := json.Unmarshal(d.data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
