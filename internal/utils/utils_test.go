package utils

import "testing"

func TestMakeMap(t *testing.T) {
	m := MakeMap("route_id", "1")
	if len(m) != 1 || m["route_id"] != "1" {
		t.Errorf("unexpected map %v", m)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "api_key is redacted",
			input:    "https://api-v3.mbta.com/routes?api_key=secret&filter%5Btype%5D=3",
			expected: "https://api-v3.mbta.com/routes?api_key=REDACTED&filter%5Btype%5D=3",
		},
		{
			name:     "no secrets",
			input:    "https://cdn.mbta.com/realtime/VehiclePositions.pb",
			expected: "https://cdn.mbta.com/realtime/VehiclePositions.pb",
		},
		{
			name:     "unparseable url",
			input:    "://bad url?api_key=secret",
			expected: "://bad url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactURL(tt.input); got != tt.expected {
				t.Errorf("RedactURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
