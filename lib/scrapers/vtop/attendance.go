package vtop

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"
	"vtopassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// minimumAttendance is the ratio VTOP debars students below. The odd
// constant mirrors how the portal rounds 74% internally.
const minimumAttendance = 0.7401

// AlertStatus grades how close a course's attendance sits to the debar
// threshold.
type AlertStatus string

const (
	AlertSafe    AlertStatus = "safe"
	AlertCaution AlertStatus = "caution"
	AlertDanger  AlertStatus = "danger"
)

type AttendanceRecord struct {
	SerialNo      string
	CourseDetail  string
	Attended      int
	Total         int
	Percentage    string
	DebarStatus   string
	IsLab         bool
	ClassesNeeded int
	CanSkip       int
	AlertStatus   AlertStatus
	AlertMessage  string
}

// attendance column layouts differ between campuses.
type attendanceLayout struct {
	courseType int
	attended   int
	total      int
	percent    int
	status     int
}

func (c Campus) attendanceLayout() attendanceLayout {
	if c == CampusChennai {
		return attendanceLayout{courseType: 3, attended: 9, total: 10, percent: 11, status: 12}
	}
	return attendanceLayout{courseType: 2, attended: 5, total: 6, percent: 7, status: 8}
}

// Attendance scrapes per-course attendance for the semester, annotating
// each row with how many classes the student must attend (or may skip)
// to stay above the debar threshold. Results are cached for cacheTTL.
func (c *Client) Attendance(ctx context.Context, semesterId string) ([]AttendanceRecord, error) {
	return cached(ctx, c, string(CategoryAttendance), func(ctx context.Context) ([]AttendanceRecord, error) {
		return c.fetchAttendance(ctx, semesterId)
	})
}

func (c *Client) fetchAttendance(ctx context.Context, semesterId string) ([]AttendanceRecord, error) {
	if semesterId == "" {
		semesterId = c.Campus.DefaultSemesterId()
	}
	body, err := c.postAuthenticated(ctx, "vtop.Attendance", "/vtop/processViewStudentAttendance", map[string]string{
		"semesterSubId": semesterId,
	})
	if err != nil {
		return nil, err
	}
	return parseAttendance(body, c.Campus)
}

func parseAttendance(body []byte, campus Campus) ([]AttendanceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	table := doc.Find("#AttendanceDetailDataTable")
	if campus == CampusChennai {
		table = doc.Find(".table-responsive table").First()
	}
	layout := campus.attendanceLayout()

	var records []AttendanceRecord
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= layout.percent {
			return
		}

		serialNo := strings.TrimSpace(cells.Eq(0).Text())
		if _, err := strconv.Atoi(serialNo); err != nil {
			return
		}

		courseType := strings.TrimSpace(cells.Eq(layout.courseType).Text())
		courseDetail := htmlutil.FlattenText(cells.Eq(2).Text())
		if campus == CampusChennai {
			courseDetail = htmlutil.FlattenText(cells.Eq(1).Text()) + " - " + courseDetail
		}

		debarStatus := "N/A"
		if cells.Length() > layout.status {
			debarStatus = strings.TrimSpace(cells.Eq(layout.status).Text())
		}

		attended, err := strconv.Atoi(strings.TrimSpace(cells.Eq(layout.attended).Text()))
		if err != nil {
			return
		}
		total, err := strconv.Atoi(strings.TrimSpace(cells.Eq(layout.total).Text()))
		if err != nil {
			return
		}
		percentage := strings.TrimSuffix(strings.TrimSpace(cells.Eq(layout.percent).Text()), "%")

		record := AttendanceRecord{
			SerialNo:     serialNo,
			CourseDetail: courseDetail,
			Attended:     attended,
			Total:        total,
			Percentage:   percentage + "%",
			DebarStatus:  debarStatus,
			IsLab: strings.Contains(strings.ToLower(courseType), "lab") ||
				strings.Contains(strings.ToLower(courseDetail), "lab"),
		}
		annotateAttendance(&record)
		records = append(records, record)
	})

	return records, nil
}

// annotateAttendance fills in the advisory fields. Labs meet in
// two-hour blocks, so their class counts halve.
func annotateAttendance(r *AttendanceRecord) {
	if r.Total == 0 {
		r.AlertStatus = AlertSafe
		return
	}
	ratio := float64(r.Attended) / float64(r.Total)

	if ratio < minimumAttendance {
		needed := int(math.Ceil(
			(minimumAttendance*float64(r.Total) - float64(r.Attended)) / (1 - minimumAttendance)))
		unit := "class(es)"
		if r.IsLab {
			needed = int(math.Ceil(float64(needed) / 2))
			unit = "lab(s)"
		}
		r.ClassesNeeded = needed
		r.AlertStatus = AlertDanger
		r.AlertMessage = strconv.Itoa(needed) + " " + unit + " should be attended"
		return
	}

	canSkip := int(math.Floor(
		(float64(r.Attended) - minimumAttendance*float64(r.Total)) / minimumAttendance))
	if r.IsLab {
		canSkip /= 2
	}
	if canSkip < 0 {
		canSkip = 0
	}
	r.CanSkip = canSkip
	unit := "class(es)"
	if r.IsLab {
		unit = "lab(s)"
	}
	r.AlertMessage = "Only " + strconv.Itoa(canSkip) + " " + unit + " can be skipped"

	if ratio <= 0.7499 {
		r.AlertStatus = AlertCaution
	} else {
		r.AlertStatus = AlertSafe
	}
}
