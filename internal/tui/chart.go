package tui

import (
	"sort"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/validator"
)

// chartDays is how many days the hours chart covers.
const chartDays = 7

type dayHours struct {
	day   string // YYYY-MM-DD
	hours float64
}

// hoursByDay sums record hours per day and keeps the latest chartDays
// days, oldest first.
func hoursByDay(records []api.AttendanceRecord) []dayHours {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[r.Day()] += r.TotalHours
	}
	days := make([]dayHours, 0, len(sums))
	for d, h := range sums {
		days = append(days, dayHours{day: d, hours: h})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].day < days[j].day })
	if len(days) > chartDays {
		days = days[len(days)-chartDays:]
	}
	return days
}

func buildHoursChart(width, height int, days []dayHours) barchart.Model {
	chart := barchart.New(max(width, 20), height)

	style := lipgloss.NewStyle().Foreground(colorPrimary)
	bars := make([]barchart.BarData, 0, len(days))
	for _, d := range days {
		label := d.day
		if t, ok := validator.IsValidDate(d.day); ok {
			label = t.Format("Mon 02")
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "hours", Value: d.hours, Style: style}},
		})
	}

	chart.PushAll(bars)
	chart.Draw()
	return chart
}

func chartHeight(screenHeight int) int {
	if screenHeight > 36 {
		return 14
	}
	return 10
}
