package notify

import (
	"fmt"
	"strings"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

func subject(a *models.Alert) string {
	return fmt.Sprintf("Flood Alert: %s (%s severity) in %s", a.AlertType, a.Severity, a.Location)
}

// render builds the fixed alert message shared by mail and SMS.
func render(a *models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flood Alert for %s\n", a.Location)
	fmt.Fprintf(&b, "Type: %s\n", a.AlertType)
	fmt.Fprintf(&b, "Severity: %s\n", a.Severity)
	fmt.Fprintf(&b, "Water levels: current %s, predicted %s\n", a.WaterLevels.Current, a.WaterLevels.Predicted)
	fmt.Fprintf(&b, "Evacuation routes: %s\n", strings.Join(a.EvacuationRoutes, ", "))
	fmt.Fprintf(&b, "Emergency contacts: %s\n", strings.Join(a.EmergencyContacts, ", "))
	fmt.Fprintf(&b, "Precautionary measures: %s\n", strings.Join(a.PrecautionaryMeasures, ", "))
	fmt.Fprintf(&b, "Weather forecast: next 24 hours %s; next 48 hours %s", a.WeatherForecast.Next24Hours, a.WeatherForecast.Next48Hours)
	return b.String()
}
