package vtop

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"vtopassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type TimetableCourse struct {
	CourseCode    string
	CourseTitle   string
	Slot          string
	Venue         string
	Faculty       string
	FacultySchool string
}

// ScheduleEntry is one meeting on the weekly schedule, expanded from a
// course's slot codes.
type ScheduleEntry struct {
	CourseCode  string
	CourseTitle string
	Slot        string
	Time        string
	Venue       string
	Faculty     string
}

type Timetable struct {
	Courses []TimetableCourse
	// Schedule maps weekday name to that day's meetings sorted by
	// start time.
	Schedule map[string][]ScheduleEntry
}

// Timetable scrapes the registered courses and expands their slot codes
// into a day-by-day schedule.
func (c *Client) Timetable(ctx context.Context, semesterId string) (Timetable, error) {
	return cached(ctx, c, string(CategoryTimetable), func(ctx context.Context) (Timetable, error) {
		return c.fetchTimetable(ctx, semesterId)
	})
}

func (c *Client) fetchTimetable(ctx context.Context, semesterId string) (Timetable, error) {
	if semesterId == "" {
		semesterId = c.Campus.DefaultSemesterId()
	}
	body, err := c.postAuthenticated(ctx, "vtop.Timetable", "/vtop/processViewTimeTable", map[string]string{
		"semesterSubId": semesterId,
	})
	if err != nil {
		return Timetable{}, err
	}
	return parseTimetable(ctx, body)
}

func parseTimetable(ctx context.Context, body []byte) (Timetable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return Timetable{}, err
	}

	timetable := Timetable{}

	doc.Find("tbody").First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 9 || row.Find("th").Length() > 0 {
			return
		}
		if strings.Contains(cells.Eq(0).Text(), "Total Number Of Credits") {
			return
		}
		serialNo := strings.TrimSpace(cells.Eq(0).Text())
		if _, err := strconv.Atoi(serialNo); err != nil {
			return
		}

		codeTitle := strings.TrimSpace(cells.Eq(2).Find("p").First().Text())
		code, title, ok := strings.Cut(codeTitle, "-")
		if !ok {
			return
		}

		slot, venue, _ := strings.Cut(joinParagraphs(cells.Eq(7)), "-")
		faculty, school, _ := strings.Cut(joinParagraphs(cells.Eq(8)), "-")

		course := TimetableCourse{
			CourseCode:    strings.TrimSpace(code),
			CourseTitle:   strings.TrimSpace(title),
			Slot:          strings.TrimSpace(slot),
			Venue:         strings.TrimSpace(venue),
			Faculty:       strings.TrimSpace(faculty),
			FacultySchool: strings.TrimSpace(school),
		}
		if course.CourseCode == "" || course.Slot == "" ||
			course.Slot == "NIL" || course.Venue == "NIL" {
			return
		}
		timetable.Courses = append(timetable.Courses, course)
	})

	timetable.Schedule = buildSchedule(ctx, timetable.Courses)
	return timetable, nil
}

// joinParagraphs collapses a cell's <p> children into one
// space-separated line.
func joinParagraphs(cell *goquery.Selection) string {
	var parts []string
	cell.Find("p").Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, p.Text())
	})
	return htmlutil.FlattenText(strings.Join(parts, " "))
}

func buildSchedule(ctx context.Context, courses []TimetableCourse) map[string][]ScheduleEntry {
	schedule := map[string][]ScheduleEntry{}
	for _, day := range weekdays {
		schedule[day] = []ScheduleEntry{}
	}

	for _, course := range courses {
		// composite slots like "A1+TA1" meet at every component's time
		for _, slot := range strings.Split(course.Slot, "+") {
			meetings, ok := slotTimes[slot]
			if !ok {
				slog.WarnContext(ctx, "unknown timetable slot",
					"slot", slot, "course", course.CourseCode)
				continue
			}
			for _, meeting := range meetings {
				schedule[meeting.Day] = append(schedule[meeting.Day], ScheduleEntry{
					CourseCode:  course.CourseCode,
					CourseTitle: course.CourseTitle,
					Slot:        slot,
					Time:        meeting.Time,
					Venue:       course.Venue,
					Faculty:     course.Faculty,
				})
			}
		}
	}

	for _, entries := range schedule {
		sort.SliceStable(entries, func(i, j int) bool {
			return startTime(entries[i].Time) < startTime(entries[j].Time)
		})
	}
	return schedule
}

func startTime(timeRange string) string {
	start, _, _ := strings.Cut(timeRange, " - ")
	return start
}
