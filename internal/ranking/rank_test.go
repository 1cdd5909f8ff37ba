package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(studentID, subjectID string, classScore, examScore float64) ScoreRecord {
	return ScoreRecord{StudentID: studentID, SubjectID: subjectID, ClassScore: classScore, ExamScore: examScore}
}

func TestRankTieJump(t *testing.T) {
	// tied block of size k is followed by a jump of k: [90,90,80,70,70,70]
	records := []ScoreRecord{
		record("s1", "math", 45, 45),
		record("s2", "math", 50, 40),
		record("s3", "math", 40, 40),
		record("s4", "math", 35, 35),
		record("s5", "math", 30, 40),
		record("s6", "math", 40, 30),
	}
	positions, _ := BySubject(records)

	assert.Equal(t, 1, positions[SubjectStudent{"math", "s1"}])
	assert.Equal(t, 1, positions[SubjectStudent{"math", "s2"}])
	assert.Equal(t, 3, positions[SubjectStudent{"math", "s3"}])
	assert.Equal(t, 4, positions[SubjectStudent{"math", "s4"}])
	assert.Equal(t, 4, positions[SubjectStudent{"math", "s5"}])
	assert.Equal(t, 4, positions[SubjectStudent{"math", "s6"}])
}

func TestRankIdempotent(t *testing.T) {
	records := []ScoreRecord{
		record("s1", "math", 45, 45),
		record("s2", "math", 40, 40),
		record("s3", "math", 40, 40),
	}
	first, _ := BySubject(records)
	second, _ := BySubject(records)
	assert.Equal(t, first, second)
}

func TestBySubjectGroupsIndependently(t *testing.T) {
	records := []ScoreRecord{
		record("s1", "math", 45, 45),
		record("s2", "math", 30, 30),
		record("s1", "eng", 20, 20),
		record("s2", "eng", 40, 40),
	}
	positions, entries := BySubject(records)

	assert.Equal(t, 1, positions[SubjectStudent{"math", "s1"}])
	assert.Equal(t, 2, positions[SubjectStudent{"math", "s2"}])
	assert.Equal(t, 2, positions[SubjectStudent{"eng", "s1"}])
	assert.Equal(t, 1, positions[SubjectStudent{"eng", "s2"}])
	assert.Len(t, entries, 4)
}

func TestBySubjectExcludesAbsentStudents(t *testing.T) {
	records := []ScoreRecord{
		record("s1", "math", 45, 45),
		record("s2", "math", 30, 30),
		record("s1", "eng", 40, 40),
	}
	positions, _ := BySubject(records)

	_, ranked := positions[SubjectStudent{"eng", "s2"}]
	assert.False(t, ranked, "student without an english score must not appear in english ranking")
	assert.Equal(t, 1, positions[SubjectStudent{"eng", "s1"}])
}

func TestOverallAveragesNotSums(t *testing.T) {
	// s1 averages 90 over two subjects, s2 scores 95 in a single subject;
	// averaging must let s2 lead despite the lower sum.
	records := []ScoreRecord{
		record("s1", "math", 45, 45),
		record("s1", "eng", 45, 45),
		record("s2", "math", 50, 45),
	}
	positions, entries := Overall(records, []string{"s1", "s2"})

	assert.Equal(t, 2, positions["s1"])
	assert.Equal(t, 1, positions["s2"])
	for _, entry := range entries {
		if entry.StudentID == "s1" {
			assert.InDelta(t, 90, entry.Value, 1e-9)
		}
	}
}

func TestOverallIncludesRosterMembersWithoutScores(t *testing.T) {
	records := []ScoreRecord{
		record("s1", "math", 40, 40),
	}
	positions, entries := Overall(records, []string{"s1", "s2"})

	require.Contains(t, positions, "s2")
	assert.Equal(t, 2, positions["s2"])
	for _, entry := range entries {
		if entry.StudentID == "s2" {
			assert.Equal(t, 0.0, entry.Value)
		}
	}
}

func TestEmptyCohort(t *testing.T) {
	subjectPositions, subjectEntries := BySubject(nil)
	overallPositions, overallEntries := Overall(nil, nil)

	assert.Empty(t, subjectPositions)
	assert.Empty(t, subjectEntries)
	assert.Empty(t, overallPositions)
	assert.Empty(t, overallEntries)
}

func TestSingleEntityCohort(t *testing.T) {
	records := []ScoreRecord{record("s1", "math", 25, 25)}

	subjectPositions, _ := BySubject(records)
	overallPositions, _ := Overall(records, []string{"s1"})

	assert.Equal(t, 1, subjectPositions[SubjectStudent{"math", "s1"}])
	assert.Equal(t, 1, overallPositions["s1"])
}

func TestEndToEndCohort(t *testing.T) {
	// A: Math 90, English 80; B: Math 90, English 70; C: Math 0, no English.
	records := []ScoreRecord{
		record("A", "math", 45, 45),
		record("A", "eng", 40, 40),
		record("B", "math", 50, 40),
		record("B", "eng", 35, 35),
		record("C", "math", 0, 0),
	}
	roster := []string{"A", "B", "C"}

	subjectPositions, _ := BySubject(records)
	assert.Equal(t, 1, subjectPositions[SubjectStudent{"math", "A"}])
	assert.Equal(t, 1, subjectPositions[SubjectStudent{"math", "B"}])
	assert.Equal(t, 3, subjectPositions[SubjectStudent{"math", "C"}])
	assert.Equal(t, 1, subjectPositions[SubjectStudent{"eng", "A"}])
	assert.Equal(t, 2, subjectPositions[SubjectStudent{"eng", "B"}])
	_, ranked := subjectPositions[SubjectStudent{"eng", "C"}]
	assert.False(t, ranked)

	overallPositions, overallEntries := Overall(records, roster)
	assert.Equal(t, 1, overallPositions["A"])
	assert.Equal(t, 2, overallPositions["B"])
	assert.Equal(t, 3, overallPositions["C"])

	values := make(map[string]float64, len(overallEntries))
	for _, entry := range overallEntries {
		values[entry.StudentID] = entry.Value
	}
	assert.InDelta(t, 85, values["A"], 1e-9)
	assert.InDelta(t, 80, values["B"], 1e-9)
	assert.InDelta(t, 0, values["C"], 1e-9)
}

func TestMissingFromRoster(t *testing.T) {
	records := []ScoreRecord{
		record("s1", "math", 40, 40),
		record("s9", "math", 30, 30),
		record("s9", "eng", 30, 30),
	}
	missing := MissingFromRoster(records, []string{"s1"})
	assert.Equal(t, []string{"s9"}, missing)

	assert.Empty(t, MissingFromRoster(records, []string{"s1", "s9"}))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	records := []ScoreRecord{
		record("s1", "math", 10, 10),
		record("s2", "math", 45, 45),
	}
	snapshot := make([]ScoreRecord, len(records))
	copy(snapshot, records)

	_, _ = BySubject(records)
	_, _ = Overall(records, []string{"s1", "s2"})

	assert.Equal(t, snapshot, records)
}
