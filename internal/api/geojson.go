package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func floodsToGeoJSON(floods []models.Flood) FeatureCollection {
	features := make([]Feature, 0, len(floods))

	for _, f := range floods {
		pt := f.Coordinates()
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{pt.Longitude, pt.Latitude},
			},
			Properties: map[string]any{
				"id":          f.ID,
				"external_id": f.ExternalID,
				"source":      f.Source,
				"title":       f.Title,
				"location":    f.Location,
				"severity":    f.Severity,
				"occurred_at": f.OccurredAt,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// floodsGeoJSON serves recorded floods for map layers.
func (h *Handler) floodsGeoJSON(c *gin.Context) {
	limit, offset := pagination(c)
	floods, err := h.floods.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "failed to fetch floods")
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, floodsToGeoJSON(floods))
}
