package vtop

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Exam struct {
	SerialNo      string
	CourseCode    string
	CourseTitle   string
	CourseType    string
	ClassId       string
	Slot          string
	Date          string
	Session       string
	ReportingTime string
	Time          string
	Venue         string
	SeatLocation  string
	SeatNo        string
}

// ExamSchedule groups scheduled exams by the three exam rounds VIT
// runs each semester.
type ExamSchedule struct {
	CAT1 []Exam
	CAT2 []Exam
	FAT  []Exam
}

// ExamSchedule scrapes the exam timetable. The page sits behind a menu
// verification step, so this issues two POSTs back to back.
func (c *Client) ExamSchedule(ctx context.Context, semesterId string) (ExamSchedule, error) {
	return cached(ctx, c, string(CategoryExamSchedule), func(ctx context.Context) (ExamSchedule, error) {
		return c.fetchExamSchedule(ctx, semesterId)
	})
}

func (c *Client) fetchExamSchedule(ctx context.Context, semesterId string) (ExamSchedule, error) {
	if semesterId == "" {
		semesterId = c.Campus.DefaultSemesterId()
	}

	_, err := c.postAuthenticated(ctx, "vtop.ExamSchedule.verify", "/vtop/examinations/StudExamSchedule", map[string]string{
		"verifyMenu": "true",
	})
	if err != nil {
		return ExamSchedule{}, err
	}

	body, err := c.postAuthenticated(ctx, "vtop.ExamSchedule", "/vtop/examinations/doSearchExamScheduleForStudent", map[string]string{
		"semesterSubId": semesterId,
	})
	if err != nil {
		return ExamSchedule{}, err
	}

	return parseExamSchedule(body)
}

func parseExamSchedule(body []byte) (ExamSchedule, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return ExamSchedule{}, err
	}

	var schedule ExamSchedule
	currentExamType := ""

	doc.Find("tbody tr.tableContent").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")

		// single-cell header rows announce the exam round the
		// following rows belong to
		if cells.Length() == 1 && cells.Eq(0).HasClass("panelHead-secondary") {
			currentExamType = strings.TrimSpace(cells.Eq(0).Text())
			return
		}
		if cells.Length() < 13 || currentExamType == "" {
			return
		}

		exam := Exam{
			SerialNo:      strings.TrimSpace(cells.Eq(0).Text()),
			CourseCode:    strings.TrimSpace(cells.Eq(1).Text()),
			CourseTitle:   strings.TrimSpace(cells.Eq(2).Text()),
			CourseType:    strings.TrimSpace(cells.Eq(3).Text()),
			ClassId:       strings.TrimSpace(cells.Eq(4).Text()),
			Slot:          strings.TrimSpace(cells.Eq(5).Text()),
			Date:          strings.TrimSpace(cells.Eq(6).Text()),
			Session:       strings.TrimSpace(cells.Eq(7).Text()),
			ReportingTime: strings.TrimSpace(cells.Eq(8).Text()),
			Time:          strings.TrimSpace(cells.Eq(9).Text()),
			Venue:         spanOrCellText(cells.Eq(10)),
			SeatLocation:  spanOrCellText(cells.Eq(11)),
			SeatNo:        spanOrCellText(cells.Eq(12)),
		}
		if exam.SerialNo == "" || exam.CourseCode == "" {
			return
		}

		switch currentExamType {
		case "CAT1":
			schedule.CAT1 = append(schedule.CAT1, exam)
		case "CAT2":
			schedule.CAT2 = append(schedule.CAT2, exam)
		case "FAT":
			schedule.FAT = append(schedule.FAT, exam)
		}
	})

	return schedule, nil
}

// seat details sit inside a span when assigned, fall back to the bare
// cell text, then to a dash
func spanOrCellText(cell *goquery.Selection) string {
	if text := strings.TrimSpace(cell.Find("span").Text()); text != "" {
		return text
	}
	if text := strings.TrimSpace(cell.Text()); text != "" {
		return text
	}
	return "-"
}
