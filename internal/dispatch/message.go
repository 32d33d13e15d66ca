package dispatch

import (
	"fmt"
	"html"
	"strings"

	"fermmon/internal/analysis"
)

func render(batchName string, res analysis.Result, event analysis.Event) string {
	var b strings.Builder
	name := html.EscapeString(batchName)

	switch e := event.(type) {
	case analysis.AttenuationReached:
		b.WriteString("🍺 <b>Diacetyl rest time</b>\n\n")
		fmt.Fprintf(&b, "📊 Batch: %s\n", name)
		fmt.Fprintf(&b, "📈 Attenuation: <b>%.1f%%</b> (target: %.1f%%)\n", e.MeasuredPercent, e.ThresholdPercent)
		fmt.Fprintf(&b, "🌡️ Temperature: %.1f°C\n", res.CurrentTemperature)
		fmt.Fprintf(&b, "⚖️ Gravity: %.4f\n\n", res.CurrentGravity)
		b.WriteString("🎯 <b>Recommended action:</b>\nRaise the temperature for a 48-72h diacetyl rest.")
	case analysis.GravityStable:
		b.WriteString("✅ <b>Stable gravity detected</b>\n\n")
		fmt.Fprintf(&b, "📊 Batch: %s\n", name)
		fmt.Fprintf(&b, "⚖️ Variation (last %gh): <b>%.4f</b>\n", e.WindowHours, e.Variation)
		fmt.Fprintf(&b, "📈 Attenuation: %.1f%%\n\n", res.CurrentAttenuationPercent)
		b.WriteString("Fermentation is approaching its end. Confirm with other indicators.")
	case analysis.TemperatureDescended:
		b.WriteString("📉 <b>Temperature drop detected</b>\n\n")
		fmt.Fprintf(&b, "📊 Batch: %s\n", name)
		fmt.Fprintf(&b, "🌡️ Drop (last %gh): <b>%.1f°C</b>\n", e.WindowHours, e.Descent)
		fmt.Fprintf(&b, "📈 Attenuation: %.1f%%\n\n", res.CurrentAttenuationPercent)
		b.WriteString("The exponential phase may be over.")
	case analysis.TrendForecast:
		b.WriteString("⏰ <b>Forecast: time to final gravity</b>\n\n")
		fmt.Fprintf(&b, "📊 Batch: %s\n", name)
		fmt.Fprintf(&b, "⏰ Hours to FG: <b>%.1fh</b>\n", e.HoursToTarget)
		fmt.Fprintf(&b, "📊 Predicted FG: %.4f", e.PredictedFinalGravity)
	default:
		fmt.Fprintf(&b, "<b>%s</b>\n\n📊 Batch: %s", html.EscapeString(string(event.Kind())), name)
	}
	return b.String()
}
