package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"attendq/internal/dataset"
)

var (
	presentColor = lipgloss.Color("82")
	absentColor  = lipgloss.Color("196")
	mutedColor   = lipgloss.Color("240")
)

// rateColor buckets an attendance percentage.
func rateColor(percentage float64) lipgloss.Color {
	switch {
	case percentage >= 90:
		return lipgloss.Color("82") // Green
	case percentage >= 75:
		return lipgloss.Color("226") // Yellow
	case percentage >= 50:
		return lipgloss.Color("214") // Orange
	default:
		return lipgloss.Color("196") // Red
	}
}

// PercentageBar creates a percentage-based progress bar
func PercentageBar(label string, percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filledWidth := int(float64(width) * percentage / 100)
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	barStyle := lipgloss.NewStyle().Foreground(rateColor(percentage))
	emptyStyle := lipgloss.NewStyle().Foreground(mutedColor)

	return fmt.Sprintf("%s %s%s %.1f%%",
		label,
		barStyle.Render(filled),
		emptyStyle.Render(empty),
		percentage,
	)
}

// Sparkline creates a simple sparkline from values
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// Sparkline characters from bottom to top
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	for _, v := range values {
		var idx int
		if max == min {
			idx = len(chars) / 2
		} else {
			normalized := (v - min) / (max - min)
			idx = int(normalized * float64(len(chars)-1))
		}
		result.WriteRune(chars[idx])
	}

	return result.String()
}

// AttendanceStrip renders one cell per class date: a green block when
// present, a red one otherwise.
func AttendanceStrip(codes []string) string {
	present := lipgloss.NewStyle().Foreground(presentColor)
	absent := lipgloss.NewStyle().Foreground(absentColor)

	var b strings.Builder
	for _, c := range codes {
		if dataset.IsPresent(c) {
			b.WriteString(present.Render("■"))
		} else {
			b.WriteString(absent.Render("□"))
		}
	}
	return b.String()
}

// DailyChart renders one present-count bar per date plus a sparkline of the
// daily attendance rate.
func DailyChart(days []DaySummary, width int) string {
	if len(days) == 0 {
		return "No class days recorded"
	}

	var b strings.Builder
	rates := make([]float64, 0, len(days))
	for _, d := range days {
		total := d.Present + d.Absent
		pct := 0.0
		if total > 0 {
			pct = float64(d.Present) / float64(total) * 100
		}
		rates = append(rates, pct)
		b.WriteString(PercentageBar(d.Date, pct, width))
		b.WriteString(fmt.Sprintf("  (%d/%d)\n", d.Present, total))
	}
	b.WriteString("\nTrend: ")
	b.WriteString(Sparkline(rates))
	return b.String()
}

// InfoBox renders a bordered label/value pair.
func InfoBox(label string, value string, color lipgloss.Color) string {
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(mutedColor).
		Width(18).
		Align(lipgloss.Left)

	valueStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(12).
		Align(lipgloss.Right)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(value),
	)

	return boxStyle.Render(content)
}

// StudentCard summarizes one student: totals, rate bar and the per-date strip.
func StudentCard(s *Student, dates []string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	codes := make([]string, len(dates))
	for i, d := range dates {
		codes[i] = s.Attendance[d]
	}

	boxes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		InfoBox("Roll number", s.Roll, lipgloss.Color("33")),
		InfoBox("Days present", fmt.Sprintf("%d/%d", s.Present, s.ClassDays), rateColor(s.Rate)),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("🎓 " + s.Name))
	b.WriteString("\n")
	b.WriteString(boxes)
	b.WriteString("\n\n")
	b.WriteString(PercentageBar("Attendance", s.Rate, 30))
	b.WriteString("\n\n")
	if len(dates) > 0 {
		b.WriteString(fmt.Sprintf("%s … %s\n", dates[0], dates[len(dates)-1]))
		b.WriteString(AttendanceStrip(codes))
		b.WriteString("\n")
	}
	return b.String()
}
