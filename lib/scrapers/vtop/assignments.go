package vtop

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type Assignment struct {
	SerialNo string
	Title    string
	DueDate  string
	// DaysLeft is negative when the due date has passed; zero with an
	// unset Status means the date could not be parsed.
	DaysLeft int
	Status   string
}

type AssignmentSubject struct {
	SerialNo    string
	ClassNbr    string
	CourseCode  string
	CourseTitle string
	Assignments []Assignment
}

// Assignments scrapes the digital assignment listing: one POST for the
// subject list, then one per subject for its upload rows. Subjects
// whose detail fetch fails are returned without assignments.
func (c *Client) Assignments(ctx context.Context, semesterId string) ([]AssignmentSubject, error) {
	return cached(ctx, c, string(CategoryAssignments), func(ctx context.Context) ([]AssignmentSubject, error) {
		return c.fetchAssignments(ctx, semesterId)
	})
}

func (c *Client) fetchAssignments(ctx context.Context, semesterId string) ([]AssignmentSubject, error) {
	if semesterId == "" {
		semesterId = c.Campus.DefaultSemesterId()
	}
	body, err := c.postAuthenticated(ctx, "vtop.Assignments", "/vtop/examinations/doDigitalAssignment", map[string]string{
		"semesterSubId": semesterId,
	})
	if err != nil {
		return nil, err
	}

	subjects, err := parseAssignmentSubjects(body)
	if err != nil {
		return nil, err
	}

	for i := range subjects {
		detail, err := c.postAuthenticated(ctx, "vtop.Assignments.detail", "/vtop/examinations/processDigitalAssignment", map[string]string{
			"classId": subjects[i].ClassNbr,
		})
		if err != nil {
			slog.WarnContext(ctx, "assignment detail fetch failed",
				"course", subjects[i].CourseCode, "err", err)
			continue
		}
		subjects[i].Assignments, err = parseAssignments(detail, c.now())
		if err != nil {
			slog.WarnContext(ctx, "assignment detail parse failed",
				"course", subjects[i].CourseCode, "err", err)
		}
	}

	return subjects, nil
}

func parseAssignmentSubjects(body []byte) ([]AssignmentSubject, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	var subjects []AssignmentSubject
	doc.Find("tbody tr.tableContent").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		subject := AssignmentSubject{
			SerialNo:    strings.TrimSpace(cells.Eq(0).Text()),
			ClassNbr:    strings.TrimSpace(cells.Eq(1).Text()),
			CourseCode:  strings.TrimSpace(cells.Eq(2).Text()),
			CourseTitle: strings.TrimSpace(cells.Eq(3).Text()),
		}
		if subject.SerialNo != "" && subject.ClassNbr != "" {
			subjects = append(subjects, subject)
		}
	})
	return subjects, nil
}

func parseAssignments(body []byte, now time.Time) ([]Assignment, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	tables := doc.Find("table.customTable")
	if tables.Length() < 2 {
		return nil, nil
	}

	var assignments []Assignment
	tables.Eq(1).Find("tbody tr.tableContent").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		dueDate := strings.TrimSpace(cells.Eq(4).Find("span").Text())
		if dueDate == "" {
			dueDate = strings.TrimSpace(cells.Eq(4).Text())
		}

		assignment := Assignment{
			SerialNo: strings.TrimSpace(cells.Eq(0).Text()),
			Title:    strings.TrimSpace(cells.Eq(1).Text()),
			DueDate:  dueDate,
		}
		if assignment.SerialNo == "" || assignment.Title == "" || assignment.Title == "Title" {
			return
		}
		annotateDueDate(&assignment, now)
		assignments = append(assignments, assignment)
	})
	return assignments, nil
}

// annotateDueDate computes days remaining from the portal's
// "02-Jan-2006" date format.
func annotateDueDate(a *Assignment, now time.Time) {
	if a.DueDate == "" || a.DueDate == "-" {
		return
	}
	due, err := time.ParseInLocation("02-Jan-2006", a.DueDate, now.Location())
	if err != nil {
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(due.Sub(today).Hours() / 24)

	a.DaysLeft = days
	switch {
	case days < 0:
		a.Status = fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		a.Status = "Due today!"
	default:
		a.Status = fmt.Sprintf("%d days left", days)
	}
}
