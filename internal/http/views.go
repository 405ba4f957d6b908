package http

import (
	"math"

	"moodqueue/internal/core"
)

const (
	msgLogged      = "Logged successfully!"
	msgLogFailed   = "Failed to log - check credentials or Sheet permissions."
	msgRangeOrder  = "Start date cannot be after end date."
	msgEmptyPeriod = "No mood logged in this period. Please log your mood above."
)

type moodOption struct {
	Value    int
	Label    string
	Selected bool
}

type moodBar struct {
	Mood  core.Mood
	Label string
	Count int
	// Width is a percentage of the tallest bar.
	Width int
}

type distributionView struct {
	Start   string
	End     string
	Bars    []moodBar
	Total   int
	Error   string
	Message string
}

type noteRow struct {
	Mood  core.Mood
	Label string
	Note  string
}

type notesView struct {
	Rows []noteRow
	Any  bool
}

type indexView struct {
	Options       []moodOption
	MaxNoteLength int
	Distribution  distributionView
	Notes         notesView
}

func moodOptions() []moodOption {
	opts := make([]moodOption, 0, len(core.Moods()))
	for _, m := range core.Moods() {
		opts = append(opts, moodOption{Value: int(m), Label: m.Label(), Selected: m == 3})
	}
	return opts
}

func newDistributionView(rng DateRange, counts core.MoodCounts) distributionView {
	v := distributionView{Start: rng.Start, End: rng.End, Total: counts.Total()}
	if v.Total == 0 {
		v.Message = msgEmptyPeriod
	}
	peak := counts.Max()
	for _, m := range core.Moods() {
		n := counts[m]
		v.Bars = append(v.Bars, moodBar{Mood: m, Label: m.Label(), Count: n, Width: barWidth(n, peak)})
	}
	return v
}

// barWidth scales n against peak. Non-zero counts stay visible.
func barWidth(n, peak int) int {
	if n <= 0 || peak <= 0 {
		return 0
	}
	w := int(math.Round(float64(n) * 100 / float64(peak)))
	if w < 2 {
		w = 2
	}
	return w
}

func newNotesView(notes core.MoodNotes) notesView {
	var v notesView
	for _, m := range core.Moods() {
		note := notes[m]
		if note != "" {
			v.Any = true
		}
		v.Rows = append(v.Rows, noteRow{Mood: m, Label: m.Label(), Note: note})
	}
	return v
}
