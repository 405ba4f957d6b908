package core

// MoodCounts maps every mood in the domain to a number of records.
type MoodCounts map[Mood]int

// MoodNotes maps every mood in the domain to its most recent note.
type MoodNotes map[Mood]string

// EmptyCounts returns counts with every mood present and zero.
func EmptyCounts() MoodCounts {
	out := make(MoodCounts, len(Moods()))
	for _, m := range Moods() {
		out[m] = 0
	}
	return out
}

// EmptyNotes returns notes with every mood present and empty.
func EmptyNotes() MoodNotes {
	out := make(MoodNotes, len(Moods()))
	for _, m := range Moods() {
		out[m] = ""
	}
	return out
}

// Total sums all buckets.
func (c MoodCounts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// Max returns the largest bucket value.
func (c MoodCounts) Max() int {
	var max int
	for _, v := range c {
		if v > max {
			max = v
		}
	}
	return max
}

// CountByMood counts records whose calendar date lies in [start, end]
// (inclusive, compared as YYYY-MM-DD strings). Rows with an empty
// timestamp or an unusable mood are skipped.
func CountByMood(records []RawRecord, start, end string) MoodCounts {
	counts := EmptyCounts()
	for _, rec := range records {
		if rec.Timestamp == "" {
			continue
		}
		date := DatePart(rec.Timestamp)
		if date < start || date > end {
			continue
		}
		m, err := ParseMood(rec.Mood)
		if err != nil {
			continue
		}
		counts[m]++
	}
	return counts
}

// LatestNoteByMood picks, per mood, the note of the row with the
// lexicographically greatest timestamp. Rows with an empty note or
// timestamp never take part. On equal timestamps the row read last wins;
// read order is whatever the store returns and is not guaranteed stable.
func LatestNoteByMood(records []RawRecord) MoodNotes {
	notes := EmptyNotes()
	latest := make(map[Mood]string, len(Moods()))
	for _, rec := range records {
		if rec.Note == "" || rec.Timestamp == "" {
			continue
		}
		m, err := ParseMood(rec.Mood)
		if err != nil {
			continue
		}
		if seen, ok := latest[m]; ok && rec.Timestamp < seen {
			continue
		}
		latest[m] = rec.Timestamp
		notes[m] = rec.Note
	}
	return notes
}
