package vtop

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Mark struct {
	Title     string
	Max       string
	Percent   string
	Scored    string
	Weightage string
}

type MarkTotals struct {
	MaxMarks         float64
	WeightagePercent float64
	Scored           float64
	WeightageEarned  float64
	LostWeightage    float64
}

// PassingInfo estimates the final-exam score needed to pass, derived
// from the internal weightage once all 60% of internals are declared.
type PassingInfo struct {
	CourseKind string // "Theory", "Lab" or "STS"
	Required   float64
	Passed     bool
	Status     AlertStatus
}

type CourseMarks struct {
	SerialNo    string
	CourseCode  string
	CourseTitle string
	Faculty     string
	Slot        string
	Marks       []Mark
	Totals      MarkTotals
	PassingInfo *PassingInfo
}

// Marks scrapes per-assessment marks for every course in the semester.
func (c *Client) Marks(ctx context.Context, semesterId string) ([]CourseMarks, error) {
	return cached(ctx, c, string(CategoryMarks), func(ctx context.Context) ([]CourseMarks, error) {
		return c.fetchMarks(ctx, semesterId)
	})
}

func (c *Client) fetchMarks(ctx context.Context, semesterId string) ([]CourseMarks, error) {
	if semesterId == "" {
		semesterId = c.Campus.DefaultSemesterId()
	}
	body, err := c.postAuthenticated(ctx, "vtop.Marks", "/vtop/examinations/doStudentMarkView", map[string]string{
		"semesterSubId": semesterId,
	})
	if err != nil {
		return nil, err
	}
	return parseMarks(body)
}

func parseMarks(body []byte) ([]CourseMarks, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	var courses []CourseMarks
	rows := doc.Find("tbody tr")

	// course rows alternate with detail rows holding a nested marks
	// table, so walk by index rather than Each
	for i := 0; i < rows.Length(); i++ {
		row := rows.Eq(i)
		if !row.HasClass("tableContent") || row.Find(".customTable-level1").Length() > 0 {
			continue
		}

		cells := row.Find("td")
		course := CourseMarks{
			SerialNo:    strings.TrimSpace(cells.Eq(0).Text()),
			CourseCode:  strings.TrimSpace(cells.Eq(2).Text()),
			CourseTitle: strings.TrimSpace(cells.Eq(3).Text()),
			Faculty:     strings.TrimSpace(cells.Eq(6).Text()),
			Slot:        strings.TrimSpace(cells.Eq(7).Text()),
		}

		marksTable := rows.Eq(i + 1).Find(".customTable-level1 tbody")
		if marksTable.Length() > 0 {
			marksTable.Find("tr.tableContent-level1").Each(func(_ int, markRow *goquery.Selection) {
				outputs := markRow.Find("output")
				mark := Mark{
					Title:     strings.TrimSpace(outputs.Eq(1).Text()),
					Max:       strings.TrimSpace(outputs.Eq(2).Text()),
					Percent:   strings.TrimSpace(outputs.Eq(3).Text()),
					Scored:    strings.TrimSpace(outputs.Eq(5).Text()),
					Weightage: strings.TrimSpace(outputs.Eq(6).Text()),
				}
				course.Marks = append(course.Marks, mark)

				course.Totals.MaxMarks += parseFloatOr0(mark.Max)
				course.Totals.WeightagePercent += parseFloatOr0(mark.Percent)
				course.Totals.Scored += parseFloatOr0(mark.Scored)
				course.Totals.WeightageEarned += parseFloatOr0(mark.Weightage)
			})
			course.Totals.LostWeightage = course.Totals.WeightagePercent - course.Totals.WeightageEarned
			course.PassingInfo = computePassingInfo(course.CourseTitle, course.Totals)
			i++
		}

		courses = append(courses, course)
	}

	return courses, nil
}

// computePassingInfo applies the pass-mark rules once the full 60% of
// internal weightage is declared: theory needs 34/60 internally to pass
// with the minimum 40 in the final, labs and soft-skill courses need 50
// internal weightage outright.
func computePassingInfo(courseTitle string, totals MarkTotals) *PassingInfo {
	if totals.WeightagePercent != 60 {
		return nil
	}
	title := strings.ToLower(courseTitle)

	switch {
	case strings.Contains(title, "theory"):
		if totals.WeightageEarned >= 34 {
			return &PassingInfo{CourseKind: "Theory", Required: 40, Passed: false, Status: AlertSafe}
		}
		return &PassingInfo{
			CourseKind: "Theory",
			Required:   (34-totals.WeightageEarned)*2.5 + 40,
			Status:     AlertDanger,
		}

	case strings.Contains(title, "lab"), strings.Contains(title, "online"):
		return labPassingInfo("Lab", totals)

	case strings.Contains(title, "soft"):
		return labPassingInfo("STS", totals)
	}

	return nil
}

func labPassingInfo(kind string, totals MarkTotals) *PassingInfo {
	if totals.WeightageEarned >= 50 {
		return &PassingInfo{CourseKind: kind, Passed: true, Status: AlertSafe}
	}
	return &PassingInfo{
		CourseKind: kind,
		Required:   50 - totals.WeightageEarned,
		Status:     AlertDanger,
	}
}

func parseFloatOr0(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Describe renders the passing estimate as a sentence for prompts and
// debug output.
func (p *PassingInfo) Describe() string {
	if p == nil {
		return ""
	}
	if p.Passed {
		return fmt.Sprintf("%s: already passed", p.CourseKind)
	}
	if p.Status == AlertSafe {
		return fmt.Sprintf("%s: the minimum %.0f in the final exam is enough", p.CourseKind, p.Required)
	}
	return fmt.Sprintf("%s: needs %.2f in the final exam to pass", p.CourseKind, p.Required)
}
