package recognition

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Credentials carries the API key sent with every request. Host overrides
// the client's default X-RapidAPI-Host value when set.
type Credentials struct {
	APIKey string
	Host   string
}

// Response is the decoded body of a recognize call.
type Response struct {
	Matches []Match `json:"matches"`
	// Track is the service's own pick when it reports one at the top level.
	Track *TrackDescriptor `json:"track,omitempty"`
}

// Match is one candidate returned by the service, in service order.
type Match struct {
	ID            FlexString      `json:"id"`
	Offset        float64         `json:"offset"`
	Channel       FlexString      `json:"channel"`
	FrequencySkew float64         `json:"frequencyskew"`
	TimeSkew      float64         `json:"timeskew"`
	Track         TrackDescriptor `json:"track"`
}

// TrackDescriptor holds the recognised track fields. Share, Images and Hub
// are provider payload kept verbatim.
type TrackDescriptor struct {
	Key      FlexString      `json:"key"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Artist   string          `json:"artist"`
	Album    string          `json:"album"`
	Share    json.RawMessage `json:"share,omitempty"`
	Images   json.RawMessage `json:"images,omitempty"`
	Hub      json.RawMessage `json:"hub,omitempty"`
}

// ArtistName returns the artist, falling back to the subtitle which the
// service uses for the performer on most payloads.
func (d TrackDescriptor) ArtistName() string {
	if artist := strings.TrimSpace(d.Artist); artist != "" {
		return artist
	}
	return strings.TrimSpace(d.Subtitle)
}

// IsZero reports whether the descriptor carries no usable metadata.
func (d TrackDescriptor) IsZero() bool {
	return strings.TrimSpace(d.Title) == "" && d.ArtistName() == "" && strings.TrimSpace(d.Album) == ""
}

// FlexString decodes identifiers the service emits either as JSON strings or
// as bare numbers.
type FlexString string

// UnmarshalJSON accepts a JSON string, number or null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }
