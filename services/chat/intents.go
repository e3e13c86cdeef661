package chat

import "strings"

// Intent is one kind of request the classifier can detect in a user
// message.
type Intent string

const (
	IntentCgpa         Intent = "getcgpa"
	IntentAttendance   Intent = "getattendance"
	IntentMarks        Intent = "getmarks"
	IntentAssignments  Intent = "getassignments"
	IntentTimetable    Intent = "gettimetable"
	IntentExamSchedule Intent = "getexamschedule"
	IntentGrades       Intent = "getgrades"
	IntentProctor      Intent = "getproctordetails"
	IntentGeneral      Intent = "general"
)

var knownIntents = map[Intent]struct{}{
	IntentCgpa:         {},
	IntentAttendance:   {},
	IntentMarks:        {},
	IntentAssignments:  {},
	IntentTimetable:    {},
	IntentExamSchedule: {},
	IntentGrades:       {},
	IntentProctor:      {},
	IntentGeneral:      {},
}

// ParseIntents reads the classifier's comma-separated answer, dropping
// anything it hallucinated. An empty or unusable answer degrades to
// the general intent.
func ParseIntents(response string) []Intent {
	var intents []Intent
	for _, part := range strings.Split(strings.ToLower(response), ",") {
		intent := Intent(strings.TrimSpace(part))
		if _, ok := knownIntents[intent]; ok {
			intents = append(intents, intent)
		}
	}
	if len(intents) == 0 {
		return []Intent{IntentGeneral}
	}
	return intents
}
