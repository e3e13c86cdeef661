package vtop

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Grade struct {
	SerialNo       string
	CourseCode     string
	CourseTitle    string
	CourseType     string
	CreditsLecture string
	CreditsPract   string
	CreditsProject string
	CreditsTotal   string
	GradingType    string
	Total          string
	Grade          string
}

type Grades struct {
	Grades []Grade
	// Gpa carries the semester GPA line the portal appends under the
	// grade table, verbatim.
	Gpa string
}

// Grades scrapes the declared results for a semester. Like the exam
// schedule, the page needs a menu verification POST first.
func (c *Client) Grades(ctx context.Context, semesterId string) (Grades, error) {
	return cached(ctx, c, string(CategoryGrades), func(ctx context.Context) (Grades, error) {
		return c.fetchGrades(ctx, semesterId)
	})
}

func (c *Client) fetchGrades(ctx context.Context, semesterId string) (Grades, error) {
	if semesterId == "" {
		semesterId = c.Campus.DefaultSemesterId()
	}

	_, err := c.postAuthenticated(ctx, "vtop.Grades.verify", "/vtop/examinations/examGradeView/StudentGradeView", map[string]string{
		"verifyMenu": "true",
	})
	if err != nil {
		return Grades{}, err
	}

	body, err := c.postAuthenticated(ctx, "vtop.Grades", "/vtop/examinations/examGradeView/doStudentGradeView", map[string]string{
		"semesterSubId": semesterId,
	})
	if err != nil {
		return Grades{}, err
	}

	return parseGrades(body)
}

func parseGrades(body []byte) (Grades, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return Grades{}, err
	}

	// the page carries several tables, find the one whose header
	// mentions grades
	var table *goquery.Selection
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		header := t.Find("th").Text()
		if strings.Contains(header, "Course Code") || strings.Contains(header, "Grade") {
			table = t
		}
	})
	if table == nil {
		table = doc.Find("table.table-hover, table.table-bordered").First()
	}

	var result Grades
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")

		// the GPA footer spans the whole table
		if cells.Length() == 1 {
			if _, ok := cells.Eq(0).Attr("colspan"); ok {
				result.Gpa = strings.TrimSpace(cells.Eq(0).Text())
			}
			return
		}
		if cells.Length() < 11 {
			return
		}

		serialNo := strings.TrimSpace(cells.Eq(0).Text())
		if _, err := strconv.Atoi(serialNo); err != nil {
			return
		}

		grade := Grade{
			SerialNo:       serialNo,
			CourseCode:     strings.TrimSpace(cells.Eq(1).Text()),
			CourseTitle:    strings.TrimSpace(cells.Eq(2).Text()),
			CourseType:     strings.TrimSpace(cells.Eq(3).Text()),
			CreditsLecture: strings.TrimSpace(cells.Eq(4).Text()),
			CreditsPract:   strings.TrimSpace(cells.Eq(5).Text()),
			CreditsProject: strings.TrimSpace(cells.Eq(6).Text()),
			CreditsTotal:   strings.TrimSpace(cells.Eq(7).Text()),
			GradingType:    strings.TrimSpace(cells.Eq(8).Text()),
			Total:          strings.TrimSpace(cells.Eq(9).Text()),
			Grade:          strings.TrimSpace(cells.Eq(10).Text()),
		}
		if grade.CourseCode != "" {
			result.Grades = append(result.Grades, grade)
		}
	})

	return result, nil
}
