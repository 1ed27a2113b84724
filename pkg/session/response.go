package session

import "encoding/json"

// Response is the normalized result of a request/response exchange.
type Response struct {
	Success bool
	// Invalid marks a 55AA frame whose trailer (CRC-32 or HMAC) or
	// suffix failed to verify. The frame is still decoded on a
	// best-effort basis. A 6699 frame whose GCM tag fails yields a
	// Crypto error instead.
	Invalid bool
	// RetCode is the 55AA frame's leading return code, when the frame
	// carried one. Zero means either no return code was present or the
	// device reported success.
	RetCode uint32
	Dps     map[string]any
	Raw     map[string]any
	Error   string
}

// normalize decodes body as JSON and lifts a nested data.dps object to
// the top level when there is no top-level dps, per the response
// normalization rule.
func normalize(body []byte, invalid bool, retCode uint32) (Response, error) {
	if len(body) == 0 {
		return Response{Success: !invalid && retCode == 0, Invalid: invalid, RetCode: retCode}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Response{}, err
	}

	resp := Response{Success: !invalid && retCode == 0, Invalid: invalid, RetCode: retCode, Raw: raw}
	if dps, ok := raw["dps"].(map[string]any); ok {
		resp.Dps = dps
	} else if data, ok := raw["data"].(map[string]any); ok {
		if dps, ok := data["dps"].(map[string]any); ok {
			resp.Dps = dps
		}
	}
	return resp, nil
}
