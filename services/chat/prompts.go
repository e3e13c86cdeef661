package chat

import (
	"fmt"
	"strings"
)

const systemInstruction = `
You are a VTOP chatbot assistant for VIT students.

You can help with:
- 📊 View CGPA and semester reports
- 📝 Check marks and identify best/worst performing subjects
- 📅 Monitor attendance and debarment risk
- 📋 Track assignment deadlines
- 📆 View exam schedules (FAT, CAT1, CAT2)
- 🕐 Check class timetable and weekly schedule
- 🎓 Check semester grades and GPA
- 👨‍🏫 Get proctor details and contact information

Answer warmly and guide them on what you can help with.
`

const classifierPromptTemplate = `
You are an advanced intent classifier for a VTOP assistant.
Analyze the user's message and return ALL intents they're asking for.

Available functions:
- getCGPA: CGPA queries, semester reports, overall performance
- getAttendance: Attendance percentage, classes attended, debarment risk
- getMarks: Marks, grades, scores, CAT/FAT marks, best/worst subjects
- getAssignments: Digital assignments, DA deadlines, urgent tasks
- getExamSchedule: Exam schedule, dates, venue
- getTimetable: Timetable, schedule, class timings, weekly schedule
- getGrades: Semester grades, GPA, course grades
- getProctorDetails: Proctor information, faculty advisor
- general: Greetings, help, unclear requests, tell user about available functions

IMPORTANT:
- If user asks for multiple things, return ALL relevant intents
- "Semester report" or "complete overview" = getCGPA,getAttendance,getMarks,getAssignments
- "Which subject has lowest/highest X" = getMarks or getAttendance (based on context)
- Subject-specific queries still return the main intent (marks/attendance)
- Return as comma-separated list

Examples:
  * "Show semester report" → getCGPA,getAttendance,getMarks,getAssignments
  * "Which subject am I worst at?" → getMarks
  * "Show attendance and marks" → getAttendance,getMarks
  * "Am I at risk of debarment?" → getAttendance
  * "Which deadline is urgent?" → getAssignments
  * "Show marks for IoT Boards" → getMarks
User's message: %q

Respond with ONLY the function names, comma-separated. No explanations.
`

// ClassifierPrompt wraps the user's message in the intent detection
// instructions.
func ClassifierPrompt(message string) string {
	return fmt.Sprintf(classifierPromptTemplate, message)
}

// formattingInstructions tells the model how to present each data
// category in its reply.
var formattingInstructions = map[Intent]string{
	IntentCgpa:         `For CGPA: Generate a friendly, encouraging response about their CGPA. Keep it conversational and positive. Include the CGPA value and maybe a motivational comment.`,
	IntentAttendance:   `For Attendance: Create a table with columns: Course | Attended/Total | Percentage | 75% Alert | Status. Use 'alertMessage' for alerts and 'alertStatus' for status emojis (🔴 danger, ⚠️ caution, ✅ safe). Add analysis of courses needing attention with specific class counts needed.`,
	IntentAssignments:  `For Assignments: Create SEPARATE tables for each course. Format: ### Course Name (Code), then table with columns: | Assignment | Due Date | Days Left |. Show "X days overdue" if past, "Due today!" if today, "X days left" if upcoming. Then summary with overdue and urgent deadlines (3-7 days).`,
	IntentMarks:        `For Marks: Create SEPARATE tables for each subject. Format: ### Course Name (Code), then table with columns: | Assessment | Scored | Maximum | Weightage | Weightage% |. Add course total after each table. Then overall analysis in very short`,
	IntentExamSchedule: `For Exam Schedule: Create separate markdown tables for each exam type (FAT, CAT1, CAT2) with columns: | Course Code | Course Title | Date | Time | Venue | Seat No |. Then add a summary section with: Exam dates timeline, Reporting times, Important reminders. Use markdown formatting (bold headers, emphasis for important dates).`,
	IntentTimetable:    `For Timetable: Create day-wise tables (Monday-Friday) with columns: Time | Course | Venue | Faculty. Add a course summary with total classes per week and observations.`,
	IntentGrades:       `For Grades: Create a table with columns: | Course Code | Course Title | Credits | Total | Grade |. Use grade emojis (🌟 S, ✅ A, 👍 B, etc.). Show GPA and grade distribution summary.`,
	IntentProctor:      `For Proctor Details: Format with emojis (👨‍🏫 name, 📧 email, 📍 cabin). Include name, designation, department, school, email, cabin.`,
}

// dataLabels names each category's block in the data context handed to
// the model.
var dataLabels = map[Intent]string{
	IntentCgpa:         "CGPA Data",
	IntentAttendance:   "Attendance Data",
	IntentAssignments:  "Assignments Data",
	IntentMarks:        "Marks Data",
	IntentExamSchedule: "Exam Schedule",
	IntentTimetable:    "Timetable Data",
	IntentGrades:       "Grades Data",
	IntentProctor:      "Proctor Details",
}

// ResponsePrompt assembles the final generation prompt: the user's
// question, the fetched data serialized as JSON per category, and the
// formatting instructions for every category present.
func ResponsePrompt(message string, intents []Intent, data map[Intent]string) string {
	var dataContext strings.Builder
	var sections []string
	for _, intent := range intents {
		json, ok := data[intent]
		if !ok {
			continue
		}
		fmt.Fprintf(&dataContext, "\n%s: %s", dataLabels[intent], json)
		sections = append(sections, formattingInstructions[intent])
	}

	return fmt.Sprintf(`The user asked: %q

You have access to multiple data sources:
%s

FORMATTING INSTRUCTIONS:
%s

IMPORTANT:
- Present ALL the data the user requested
- Organize it clearly with headers for each section
- Keep it concise but comprehensive
- Add a brief summary at the start if multiple data types
- Use proper formatting for readability`,
		message, dataContext.String(), strings.Join(sections, "\n"))
}

// GeneralPrompt handles small talk and anything the classifier could
// not pin to a data category.
func GeneralPrompt(message string) string {
	return fmt.Sprintf(`The user asked: %q

Based on our conversation, answer their question naturally.
If they're asking comparative questions like "which subject is worst" or "what needs attention",
acknowledge that you can fetch that data for them and ask if they'd like you to show it.`, message)
}

// fetchApologies are the canned replies when scraping a category fails.
var fetchApologies = map[Intent]string{
	IntentCgpa:         "Sorry, I couldn't fetch your CGPA right now. Please try again.",
	IntentAttendance:   "Sorry, I couldn't fetch your attendance data right now. Please try again.",
	IntentAssignments:  "Sorry, I couldn't fetch your assignment data right now. Please try again.",
	IntentMarks:        "Sorry, I couldn't fetch your marks right now. Please try again.",
	IntentExamSchedule: "Sorry, I couldn't fetch your exam schedule right now. Please try again.",
	IntentTimetable:    "Sorry, I couldn't fetch your timetable right now. Please try again.",
	IntentGrades:       "Sorry, I couldn't fetch your grades right now. Please try again.",
	IntentProctor:      "Sorry, I couldn't fetch your proctor details right now. Please try again.",
}

const (
	notConnectedMessage  = "I'm not connected to VTOP right now. Please refresh the page to reconnect."
	keysExhaustedMessage = "I'm having trouble with my API keys right now (All keys exhausted/blocked). Please tell the developer."
	dailyLimitMessage    = "My daily request limit has been reached (429). Please try again later."
	overloadedMessage    = "The AI model is currently overloaded with too many requests. Please try again in a moment."
	generateFailMessage  = "I'm having trouble generating a response right now. Please try again."
)
