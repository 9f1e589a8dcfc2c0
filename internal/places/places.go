// Package places wraps the Google Places Text Search and Place Details APIs.
// Every returned place carries a Maps URL built from its place id, which is
// the only URL format that works reliably across businesses, parks and
// monuments.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

const detailFields = "name,formatted_address,formatted_phone_number,website," +
	"rating,user_ratings_total,business_status,opening_hours,types,url"

// Place is verified place data from Google.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	PhoneNumber      string   `json:"phone_number,omitempty"`
	Website          string   `json:"website,omitempty"`
	MapsURL          string   `json:"maps_url"`
	Rating           float64  `json:"rating,omitempty"`
	RatingsTotal     int      `json:"user_ratings_total,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	OpeningHours     []string `json:"opening_hours,omitempty"`
	Types            []string `json:"types,omitempty"`
}

// Client calls the Places API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey string, timeout time.Duration) *Client {
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL, client: &http.Client{Timeout: timeout}}
}

// TextSearch finds up to maxResults places matching query, resolving each hit
// through Place Details for full data.
func (c *Client) TextSearch(ctx context.Context, query string, maxResults int) ([]Place, error) {
	params := url.Values{"query": {query}, "key": {c.apiKey}}

	var raw struct {
		Status  string `json:"status"`
		Results []struct {
			PlaceID string `json:"place_id"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/textsearch/json", params, &raw); err != nil {
		return nil, err
	}
	if raw.Status != "OK" && raw.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places text search status %s", raw.Status)
	}

	var out []Place
	for _, result := range raw.Results {
		if len(out) >= maxResults {
			break
		}
		if result.PlaceID == "" {
			continue
		}
		place, err := c.PlaceDetails(ctx, result.PlaceID)
		if err != nil {
			continue
		}
		out = append(out, place)
	}
	return out, nil
}

// PlaceDetails fetches full data for a place id.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (Place, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailFields},
		"key":      {c.apiKey},
	}

	var raw struct {
		Status string `json:"status"`
		Result struct {
			Name             string   `json:"name"`
			FormattedAddress string   `json:"formatted_address"`
			PhoneNumber      string   `json:"formatted_phone_number"`
			Website          string   `json:"website"`
			Rating           float64  `json:"rating"`
			RatingsTotal     int      `json:"user_ratings_total"`
			BusinessStatus   string   `json:"business_status"`
			Types            []string `json:"types"`
			OpeningHours     struct {
				WeekdayText []string `json:"weekday_text"`
			} `json:"opening_hours"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/details/json", params, &raw); err != nil {
		return Place{}, err
	}
	if raw.Status != "OK" {
		return Place{}, fmt.Errorf("place details status %s", raw.Status)
	}

	return Place{
		PlaceID:          placeID,
		Name:             raw.Result.Name,
		FormattedAddress: raw.Result.FormattedAddress,
		PhoneNumber:      raw.Result.PhoneNumber,
		Website:          raw.Result.Website,
		MapsURL:          MapsURL(raw.Result.Name, placeID),
		Rating:           raw.Result.Rating,
		RatingsTotal:     raw.Result.RatingsTotal,
		BusinessStatus:   raw.Result.BusinessStatus,
		OpeningHours:     raw.Result.OpeningHours.WeekdayText,
		Types:            raw.Result.Types,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// MapsURL builds a Google Maps link from a place id. The API's own CID URLs
// are unreliable; the search format with query_place_id works for every place
// type.
func MapsURL(name, placeID string) string {
	if name == "" {
		return "https://www.google.com/maps/search/?api=1&query_place_id=" + url.QueryEscape(placeID)
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(name) +
		"&query_place_id=" + url.QueryEscape(placeID)
}
