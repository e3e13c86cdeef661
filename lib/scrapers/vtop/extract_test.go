package vtop

import (
	"context"
	_ "embed"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/attendance_vellore.html
var attendanceVelloreHtml []byte

//go:embed testdata/marks.html
var marksHtml []byte

//go:embed testdata/timetable.html
var timetableHtml []byte

//go:embed testdata/examschedule.html
var examScheduleHtml []byte

//go:embed testdata/cgpa.html
var cgpaHtml []byte

//go:embed testdata/grades.html
var gradesHtml []byte

//go:embed testdata/proctor.html
var proctorHtml []byte

func TestParseAttendance(t *testing.T) {
	records, err := parseAttendance(attendanceVelloreHtml, CampusVellore)
	require.NoError(t, err)
	require.Len(t, records, 3)

	theory := records[0]
	require.Equal(t, "BCSE202L - Data Structures - Theory", theory.CourseDetail)
	require.Equal(t, 40, theory.Attended)
	require.Equal(t, 45, theory.Total)
	require.False(t, theory.IsLab)
	require.Equal(t, AlertSafe, theory.AlertStatus)
	require.Equal(t, 9, theory.CanSkip)

	lab := records[1]
	require.True(t, lab.IsLab)
	require.Equal(t, AlertDanger, lab.AlertStatus)
	require.Equal(t, 10, lab.ClassesNeeded)
	require.Equal(t, "10 lab(s) should be attended", lab.AlertMessage)

	borderline := records[2]
	require.Equal(t, AlertCaution, borderline.AlertStatus)
	require.Equal(t, 0, borderline.CanSkip)
}

func TestAnnotateAttendance(t *testing.T) {
	testCases := []struct {
		name     string
		record   AttendanceRecord
		status   AlertStatus
		needed   int
		canSkip  int
	}{
		{
			name:    "comfortably above threshold",
			record:  AttendanceRecord{Attended: 90, Total: 100},
			status:  AlertSafe,
			canSkip: 21,
		},
		{
			name:   "below threshold",
			record: AttendanceRecord{Attended: 60, Total: 100},
			status: AlertDanger,
			needed: 54,
		},
		{
			name:   "below threshold lab halves classes",
			record: AttendanceRecord{Attended: 60, Total: 100, IsLab: true},
			status: AlertDanger,
			needed: 27,
		},
		{
			name:   "between 74.01 and 74.99 is caution",
			record: AttendanceRecord{Attended: 7450, Total: 10000},
			status: AlertCaution,
			canSkip: 66,
		},
		{
			name:   "zero total is safe",
			record: AttendanceRecord{Attended: 0, Total: 0},
			status: AlertSafe,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			annotateAttendance(&test.record)
			require.Equal(t, test.status, test.record.AlertStatus)
			require.Equal(t, test.needed, test.record.ClassesNeeded)
			require.Equal(t, test.canSkip, test.record.CanSkip)
		})
	}
}

func TestParseMarks(t *testing.T) {
	courses, err := parseMarks(marksHtml)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	theory := courses[0]
	require.Equal(t, "BCSE202L", theory.CourseCode)
	require.Equal(t, "ARUN KUMAR - SCOPE", theory.Faculty)
	require.Len(t, theory.Marks, 3)

	expected := Mark{
		Title:     "CAT-1",
		Max:       "50",
		Percent:   "15",
		Scored:    "40",
		Weightage: "12",
	}
	if diff := cmp.Diff(expected, theory.Marks[0]); diff != "" {
		t.Fatal(diff)
	}

	require.InDelta(t, 60, theory.Totals.WeightagePercent, 0.001)
	require.InDelta(t, 50.5, theory.Totals.WeightageEarned, 0.001)
	require.InDelta(t, 9.5, theory.Totals.LostWeightage, 0.001)

	require.NotNil(t, theory.PassingInfo)
	require.Equal(t, "Theory", theory.PassingInfo.CourseKind)
	require.Equal(t, AlertSafe, theory.PassingInfo.Status)
	require.InDelta(t, 40, theory.PassingInfo.Required, 0.001)

	lab := courses[1]
	require.NotNil(t, lab.PassingInfo)
	require.Equal(t, "Lab", lab.PassingInfo.CourseKind)
	require.Equal(t, AlertDanger, lab.PassingInfo.Status)
	require.InDelta(t, 8, lab.PassingInfo.Required, 0.001)
}

func TestParseTimetable(t *testing.T) {
	timetable, err := parseTimetable(context.Background(), timetableHtml)
	require.NoError(t, err)

	// the NIL-slot soft skill course must not survive
	require.Len(t, timetable.Courses, 2)
	require.Equal(t, "BCSE202L", timetable.Courses[0].CourseCode)
	require.Equal(t, "SJT403", timetable.Courses[0].Venue)
	require.Equal(t, "ARUN KUMAR", timetable.Courses[0].Faculty)

	// A1 meets Monday+Wednesday, TA1 Friday, L31+L32 both Monday
	monday := timetable.Schedule["Monday"]
	require.Len(t, monday, 3)
	for _, entry := range monday {
		if entry.Slot == "A1" {
			require.Equal(t, "08:00 - 09:00 AM", entry.Time)
			require.Equal(t, "BCSE202L", entry.CourseCode)
		} else {
			require.Equal(t, "02:00 - 03:50 PM", entry.Time)
			require.Equal(t, "BPHY101P", entry.CourseCode)
		}
	}

	require.Len(t, timetable.Schedule["Wednesday"], 1)
	require.Len(t, timetable.Schedule["Friday"], 1)
	require.Equal(t, "BCSE202L", timetable.Schedule["Friday"][0].CourseCode)
	require.Empty(t, timetable.Schedule["Tuesday"])
}

func TestParseExamSchedule(t *testing.T) {
	schedule, err := parseExamSchedule(examScheduleHtml)
	require.NoError(t, err)

	require.Len(t, schedule.CAT1, 1)
	require.Empty(t, schedule.CAT2)
	require.Len(t, schedule.FAT, 1)

	cat1 := schedule.CAT1[0]
	require.Equal(t, "BCSE202L", cat1.CourseCode)
	require.Equal(t, "20-09-2025", cat1.Date)
	require.Equal(t, "SJT403", cat1.Venue)
	require.Equal(t, "18", cat1.SeatNo)

	// unassigned seat details fall back to a dash
	require.Equal(t, "-", schedule.FAT[0].Venue)
	require.Equal(t, "-", schedule.FAT[0].SeatNo)
}

func TestParseCgpa(t *testing.T) {
	data, err := parseCgpa(cgpaHtml)
	require.NoError(t, err)

	expected := map[string]string{
		"CGPA":               "8.75",
		"Credits Registered": "85",
		"Credits Earned":     "82",
	}
	if diff := cmp.Diff(expected, data); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseGrades(t *testing.T) {
	result, err := parseGrades(gradesHtml)
	require.NoError(t, err)

	require.Len(t, result.Grades, 2)
	require.Equal(t, "A", result.Grades[0].Grade)
	require.Equal(t, "S", result.Grades[1].Grade)
	require.Equal(t, "GPA : 8.90", result.Gpa)
}

func TestParseProctor(t *testing.T) {
	details, err := parseProctor(proctorHtml)
	require.NoError(t, err)

	expected := map[string]string{
		"Faculty Name":        "DR. RAJESH KANNAN",
		"Faculty Designation": "Associate Professor",
		"Faculty Email":       "rajesh.kannan@vit.ac.in",
		"Cabin Number":        "SJT 310 A21",
	}
	if diff := cmp.Diff(expected, details); diff != "" {
		t.Fatal(diff)
	}
}

func TestSlotTimes(t *testing.T) {
	require.Equal(t,
		[]SlotMeeting{{"Monday", "08:00 - 09:00 AM"}, {"Wednesday", "09:00 - 10:00 AM"}},
		slotTimes["A1"])
	// even lab slots share the odd slot's meeting
	require.Equal(t, slotTimes["L31"], slotTimes["L32"])
	require.Equal(t, []SlotMeeting{{"Friday", "05:40 - 07:30 PM"}}, slotTimes["L60"])
	require.Equal(t, []SlotMeeting{{"Monday", "08:00 - 09:50 AM"}}, slotTimes["L1"])
}
