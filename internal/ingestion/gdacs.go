package ingestion

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

const gdacsSource = "gdacs"

type gdacsRSS struct {
	Channel gdacsChannel `xml:"channel"`
}
type gdacsChannel struct {
	Items []gdacsItem `xml:"item"`
}
type gdacsItem struct {
	Title       string   `xml:"title" json:"title"`
	Description string   `xml:"description" json:"description"`
	Link        string   `xml:"link" json:"link"`
	PubDate     string   `xml:"pubDate" json:"pub_date"`
	Point       geoPoint `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point" json:"point"`
	EventType   string   `xml:"http://www.gdacs.org eventtype" json:"event_type"`
	AlertLevel  string   `xml:"http://www.gdacs.org alertlevel" json:"alert_level"`
	EventID     string   `xml:"http://www.gdacs.org eventid" json:"event_id"`
	Country     string   `xml:"http://www.gdacs.org country" json:"country"`
}
type geoPoint struct {
	Lat  float64 `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# lat" json:"lat"`
	Long float64 `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# long" json:"long"`
}

func (m *Manager) pollGDACS(ctx context.Context, url string) ([]*models.Flood, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data gdacsRSS
	if err := xml.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	floods := make([]*models.Flood, 0, len(data.Channel.Items))
	for _, item := range data.Channel.Items {
		// the feed mixes every hazard type
		if !strings.EqualFold(item.EventType, "FL") || item.EventID == "" {
			continue
		}

		occurred, err := time.Parse(time.RFC1123, item.PubDate)
		if err != nil {
			slog.Warn("GDACS timestamp parsing failed", "id", item.EventID, "error", err.Error())
			occurred = time.Now().UTC()
		}

		raw, _ := json.Marshal(item)
		floods = append(floods, &models.Flood{
			ExternalID:  gdacsSource + "_" + item.EventID,
			Source:      gdacsSource,
			Title:       item.Title,
			Description: item.Description,
			Location:    floodLocation(item),
			Severity:    strings.ToLower(item.AlertLevel),
			Latitude:    item.Point.Lat,
			Longitude:   item.Point.Long,
			OccurredAt:  occurred,
			Raw:         raw,
		})
	}

	return floods, nil
}

func floodLocation(item gdacsItem) string {
	if c := strings.TrimSpace(item.Country); c != "" {
		return c
	}
	// titles read "Flood alert in <place>"
	if _, place, ok := strings.Cut(item.Title, " in "); ok {
		return strings.TrimSpace(place)
	}
	return "unknown"
}
