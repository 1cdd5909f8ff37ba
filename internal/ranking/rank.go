package ranking

import "sort"

// ScoreRecord is the engine's read-only view of one stored score row.
type ScoreRecord struct {
	StudentID  string
	SubjectID  string
	ClassScore float64
	ExamScore  float64
}

// SubjectStudent keys the per-subject ranking output.
type SubjectStudent struct {
	SubjectID string
	StudentID string
}

// RankEntry reports one ranked entity on one axis. SubjectID is empty on
// the overall axis; Value holds the total (per subject) or the average
// (overall) the rank was derived from.
type RankEntry struct {
	SubjectID string  `json:"subject_id,omitempty"`
	StudentID string  `json:"student_id"`
	Rank      int     `json:"rank"`
	Value     float64 `json:"value"`
}

type rated struct {
	id    string
	value float64
}

type placed struct {
	id    string
	value float64
	rank  int
}

// rank applies standard competition ("1224") ranking: entries are sorted
// descending by value, ties share a rank, and the entry after a tied
// block of size k resumes at its 1-based position, jumping by k rather
// than by 1. Tie order is the input order (stable sort).
func rank(entries []rated) []placed {
	sorted := make([]rated, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].value > sorted[j].value
	})

	out := make([]placed, len(sorted))
	currentRank := 1
	for i, entry := range sorted {
		if i > 0 && entry.value < sorted[i-1].value {
			currentRank = i + 1
		}
		out[i] = placed{id: entry.id, value: entry.value, rank: currentRank}
	}
	return out
}

// BySubject ranks every student within each subject by total score.
// Subjects are ranked independently; a student with no score row for a
// subject is simply absent from that subject's ranking. The returned
// entries are grouped by subject in first-seen order.
func BySubject(records []ScoreRecord) (map[SubjectStudent]int, []RankEntry) {
	groups := make(map[string][]rated)
	var subjectOrder []string
	for _, record := range records {
		if _, seen := groups[record.SubjectID]; !seen {
			subjectOrder = append(subjectOrder, record.SubjectID)
		}
		groups[record.SubjectID] = append(groups[record.SubjectID], rated{
			id:    record.StudentID,
			value: Total(record.ClassScore, record.ExamScore),
		})
	}

	positions := make(map[SubjectStudent]int, len(records))
	var entries []RankEntry
	for _, subjectID := range subjectOrder {
		for _, ranked := range rank(groups[subjectID]) {
			positions[SubjectStudent{SubjectID: subjectID, StudentID: ranked.id}] = ranked.rank
			entries = append(entries, RankEntry{
				SubjectID: subjectID,
				StudentID: ranked.id,
				Rank:      ranked.rank,
				Value:     ranked.value,
			})
		}
	}
	return positions, entries
}

// Overall ranks students by the mean of their subject totals. Roster
// members with no score rows participate with value 0 instead of being
// excluded; students with score rows but missing from the roster are
// still ranked (the caller decides whether that warrants a warning).
// An empty cohort yields empty results.
func Overall(records []ScoreRecord, roster []string) (map[string]int, []RankEntry) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var studentOrder []string
	for _, record := range records {
		if _, seen := counts[record.StudentID]; !seen {
			studentOrder = append(studentOrder, record.StudentID)
		}
		sums[record.StudentID] += Total(record.ClassScore, record.ExamScore)
		counts[record.StudentID]++
	}
	for _, studentID := range roster {
		if _, seen := counts[studentID]; !seen {
			studentOrder = append(studentOrder, studentID)
			counts[studentID] = 0
		}
	}

	averaged := make([]rated, 0, len(studentOrder))
	for _, studentID := range studentOrder {
		value := 0.0
		if n := counts[studentID]; n > 0 {
			value = sums[studentID] / float64(n)
		}
		averaged = append(averaged, rated{id: studentID, value: value})
	}

	positions := make(map[string]int, len(averaged))
	entries := make([]RankEntry, 0, len(averaged))
	for _, ranked := range rank(averaged) {
		positions[ranked.id] = ranked.rank
		entries = append(entries, RankEntry{
			StudentID: ranked.id,
			Rank:      ranked.rank,
			Value:     ranked.value,
		})
	}
	return positions, entries
}

// MissingFromRoster returns the IDs of scored students absent from the
// roster, in first-seen order. Used by report assembly to surface
// data-consistency warnings without failing the ranking.
func MissingFromRoster(records []ScoreRecord, roster []string) []string {
	known := make(map[string]struct{}, len(roster))
	for _, studentID := range roster {
		known[studentID] = struct{}{}
	}
	seen := make(map[string]struct{})
	var missing []string
	for _, record := range records {
		if _, ok := known[record.StudentID]; ok {
			continue
		}
		if _, dup := seen[record.StudentID]; dup {
			continue
		}
		seen[record.StudentID] = struct{}{}
		missing = append(missing, record.StudentID)
	}
	return missing
}
