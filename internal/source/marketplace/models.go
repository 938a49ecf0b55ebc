package marketplace

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// apiResponse mirrors the search endpoint's envelope down to the item
// payload; everything else in the envelope is ignored.
type apiResponse struct {
	Data struct {
		Section struct {
			Payload struct {
				Items []Item `json:"items"`
			} `json:"payload"`
		} `json:"section"`
	} `json:"data"`
}

type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       *Price     `json:"price"`
	UserID      string     `json:"user_id"`
	Images      ImageSet   `json:"images"`
	Location    *Location  `json:"location"`
	PublishedAt RawInstant `json:"published_at"`
	CreatedAt   RawInstant `json:"created_at"`
}

type Price struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ImageSet flattens the upstream image payload into an ordered URL list.
// The API emits either a single object with size-keyed URL lists, a list
// of such objects, or occasionally something else entirely; anything
// unrecognized normalizes to an empty list instead of failing the item.
type ImageSet struct {
	URLs []string
}

func (s *ImageSet) UnmarshalJSON(data []byte) error {
	s.URLs = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		s.URLs = flattenImageEntry(trimmed)
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil
		}
		for _, e := range entries {
			s.URLs = append(s.URLs, flattenImageEntry(e)...)
		}
	}
	return nil
}

func flattenImageEntry(raw json.RawMessage) []string {
	var entry struct {
		URLs struct {
			Big json.RawMessage `json:"big"`
		} `json:"urls"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil
	}

	var urls []string
	if err := json.Unmarshal(entry.URLs.Big, &urls); err != nil {
		return nil
	}
	return urls
}

// RawInstant is a publication time exactly as the API sent it: an
// ISO-8601-looking string, an integer epoch of unknown precision, or
// absent. Non-integer numbers and other shapes decode as absent.
type RawInstant struct {
	Present bool
	Text    string
	Epoch   int64
	IsEpoch bool
}

func (r *RawInstant) UnmarshalJSON(data []byte) error {
	*r = RawInstant{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == 'n' {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		r.Present = true
		r.Text = s
		return nil
	}

	n, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return nil
	}
	r.Present = true
	r.Epoch = n
	r.IsEpoch = true
	return nil
}
