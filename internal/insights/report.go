package insights

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const reportWidth = 60

// WriteText writes the human-readable insights report.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	banner := strings.Repeat("=", reportWidth)
	rule := strings.Repeat("-", reportWidth)

	b.WriteString(banner + "\n")
	b.WriteString("PIXEL PLANT - LEARNING INSIGHTS REPORT\n")
	b.WriteString(banner + "\n\n")

	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	if !r.Since.IsZero() {
		fmt.Fprintf(&b, "Since: %s\n", r.Since.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Total Events Logged: %d\n", r.TotalEvents)
	fmt.Fprintf(&b, "Reminders Sent: %d\n", r.Reminders)
	fmt.Fprintf(&b, "Learning Confidence: %.0f%%\n", r.LearningConfidence*100)
	fmt.Fprintf(&b, "Reminder Responsiveness: %.0f%%\n\n", r.Responsiveness*100)

	b.WriteString("REMINDER EFFECTIVENESS:\n" + rule + "\n")
	if len(r.Effectiveness) == 0 {
		b.WriteString("\nNo reminder outcomes recorded yet\n")
	}
	for _, e := range r.Effectiveness {
		title := capitalize(e.Category)
		if !e.Analyzed {
			fmt.Fprintf(&b, "\n%s: Insufficient data (%d samples)\n", title, e.SampleSize)
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		fmt.Fprintf(&b, "  Response Rate: %.1f%%\n", e.ResponseRate*100)
		fmt.Fprintf(&b, "  Responded: %d (%d helped)\n", e.Responded, e.Effective)
		fmt.Fprintf(&b, "  Ignored: %d\n", e.Ignored)
		if e.AvgResponseTime > 0 {
			fmt.Fprintf(&b, "  Avg Response Time: %.1fs\n", e.AvgResponseTime.Seconds())
		}
		fmt.Fprintf(&b, "  Recommendation: %s\n", e.Rating)
		if !e.SufficientData {
			fmt.Fprintf(&b, "  (based on only %d samples)\n", e.SampleSize)
		}
	}
	b.WriteString("\n")

	b.WriteString("ACTIVITY PATTERNS:\n" + rule + "\n")
	if r.Activity.SufficientData {
		fmt.Fprintf(&b, "\nTotal Records: %d\n", r.Activity.TotalRecords)
		fmt.Fprintf(&b, "Most Active Hours: %s\n", joinInts(r.Activity.MostActive))
		fmt.Fprintf(&b, "Least Active Hours: %s\n", joinInts(r.Activity.LeastActive))
	} else {
		b.WriteString("\nInsufficient data for pattern analysis\n")
	}
	if len(r.ConfidentHours) > 0 {
		fmt.Fprintf(&b, "Confident Hours: %s\n", joinInts(r.ConfidentHours))
	}
	b.WriteString("\n")

	b.WriteString("BREAK PATTERNS:\n" + rule + "\n")
	if r.Breaks.SufficientData {
		fmt.Fprintf(&b, "\nTotal Breaks: %d\n", r.Breaks.TotalBreaks)
		b.WriteString("\nBreaks by Weekday:\n")
		for d := time.Monday; ; d = (d + 1) % 7 {
			if n, ok := r.Breaks.ByWeekday[d.String()]; ok {
				fmt.Fprintf(&b, "  %s: %d\n", d, n)
			}
			if d == time.Sunday {
				break
			}
		}
		fmt.Fprintf(&b, "\nMost Breaks: %s\n", r.Breaks.BusiestDay)
	} else {
		b.WriteString("\nInsufficient data for break analysis\n")
	}
	b.WriteString("\n")

	b.WriteString("RECOMMENDATIONS:\n" + rule + "\n")
	hours := make([]string, len(r.SuggestedReminderHours))
	for i, h := range r.SuggestedReminderHours {
		hours[i] = fmt.Sprintf("%d:00", h)
	}
	fmt.Fprintf(&b, "\nOptimal Reminder Times: %s\n", strings.Join(hours, ", "))
	for _, e := range r.Effectiveness {
		if e.SufficientData && (e.Rating == RatingIneffective || e.Rating == RatingLowEffectiveness) {
			fmt.Fprintf(&b, "Consider spacing out %s reminders (%s)\n", e.Category, e.Rating)
		}
	}
	b.WriteString("\n" + banner + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
