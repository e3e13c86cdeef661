package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
	"vtopassist-backend/lib/configuration"
	"vtopassist-backend/lib/scrapers/vtop"
	"vtopassist-backend/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	Campus           string `json:"campus"`
	CaptchaSolverUrl string `json:"captcha_solver_url"`
}

var fetchSemester *string

func init() {
	fetchSemester = fetchCmd.Flags().String("semester", "", "Semester id to fetch for, defaults to the current one.")
	rootCmd.AddCommand(fetchCmd)
}

func createClient(ctx context.Context, cfg Config) *vtop.Client {
	if cfg.CaptchaSolverUrl == "" {
		serviceutil.Fatal("read config", errors.New("captcha_solver_url is not set; logins cannot work without a solver"))
	}

	client, err := vtop.NewClient(vtop.ClientOptions{
		Campus: vtop.Campus(cfg.Campus),
		Solver: vtop.NewHttpSolver(cfg.CaptchaSolverUrl),
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize vtop client", err)
	}

	loginCtx, cancel := context.WithTimeout(ctx, time.Minute*2)
	defer cancel()

	err = client.Login(loginCtx, vtop.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		serviceutil.Fatal("failed to login to vtop", err)
	}
	return client
}

func renderKeyValue(data map[string]string) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	for _, k := range keys {
		t.AppendRow(table.Row{k, data[k]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderAttendance(records []vtop.AttendanceRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Course", "Attended", "Total", "%", "Status", "Alert"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.CourseDetail,
			strconv.Itoa(r.Attended),
			strconv.Itoa(r.Total),
			r.Percentage,
			string(r.AlertStatus),
			r.AlertMessage,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderJson(value any) {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		serviceutil.Fatal("failed to serialize result", err)
	}
	fmt.Println(string(out))
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <cgpa|attendance|marks|assignments|examschedule|timetable|grades|proctor>",
	Short: "Logs in and fetches one data category.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configuration.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		ctx := cmd.Context()
		client := createClient(ctx, cfg)
		semester := *fetchSemester

		switch args[0] {
		case "cgpa":
			data, err := client.Cgpa(ctx)
			if err != nil {
				serviceutil.Fatal("failed to fetch cgpa", err)
			}
			renderKeyValue(data)
		case "attendance":
			records, err := client.Attendance(ctx, semester)
			if err != nil {
				serviceutil.Fatal("failed to fetch attendance", err)
			}
			renderAttendance(records)
		case "marks":
			marks, err := client.Marks(ctx, semester)
			if err != nil {
				serviceutil.Fatal("failed to fetch marks", err)
			}
			renderJson(marks)
		case "assignments":
			subjects, err := client.Assignments(ctx, semester)
			if err != nil {
				serviceutil.Fatal("failed to fetch assignments", err)
			}
			renderJson(subjects)
		case "examschedule":
			schedule, err := client.ExamSchedule(ctx, semester)
			if err != nil {
				serviceutil.Fatal("failed to fetch exam schedule", err)
			}
			renderJson(schedule)
		case "timetable":
			timetable, err := client.Timetable(ctx, semester)
			if err != nil {
				serviceutil.Fatal("failed to fetch timetable", err)
			}
			renderJson(timetable)
		case "grades":
			grades, err := client.Grades(ctx, semester)
			if err != nil {
				serviceutil.Fatal("failed to fetch grades", err)
			}
			renderJson(grades)
		case "proctor":
			proctor, err := client.Proctor(ctx)
			if err != nil {
				serviceutil.Fatal("failed to fetch proctor details", err)
			}
			renderKeyValue(proctor)
		default:
			fmt.Fprintf(os.Stderr, "unknown category %q\n", args[0])
			os.Exit(1)
		}
	},
}
