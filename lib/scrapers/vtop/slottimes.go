package vtop

import "fmt"

// SlotMeeting is one weekly meeting a slot implies.
type SlotMeeting struct {
	Day  string
	Time string
}

// slotTimes maps every slot code VIT uses to the meetings it stands
// for. Theory slots can meet twice a week; lab slots meet once.
var slotTimes = map[string][]SlotMeeting{
	"A1": {{"Monday", "08:00 - 09:00 AM"}, {"Wednesday", "09:00 - 10:00 AM"}},
	"B1": {{"Tuesday", "08:00 - 09:00 AM"}, {"Thursday", "09:00 - 10:00 AM"}},
	"C1": {{"Wednesday", "08:00 - 09:00 AM"}, {"Friday", "09:00 - 10:00 AM"}},
	"D1": {{"Thursday", "08:00 - 10:00 AM"}, {"Monday", "10:00 - 11:00 AM"}},
	"E1": {{"Friday", "08:00 - 10:00 AM"}, {"Tuesday", "10:00 - 11:00 AM"}},
	"F1": {{"Monday", "09:00 - 10:00 AM"}, {"Wednesday", "10:00 - 11:00 AM"}},
	"G1": {{"Tuesday", "09:00 - 10:00 AM"}, {"Thursday", "10:00 - 11:00 AM"}},
	"A2": {{"Monday", "02:00 - 03:00 PM"}, {"Wednesday", "03:00 - 04:00 PM"}},
	"B2": {{"Tuesday", "02:00 - 03:00 PM"}, {"Thursday", "03:00 - 04:00 PM"}},
	"C2": {{"Wednesday", "02:00 - 03:00 PM"}, {"Friday", "03:00 - 04:00 PM"}},
	"D2": {{"Thursday", "02:00 - 04:00 PM"}, {"Monday", "04:00 - 05:00 PM"}},
	"E2": {{"Friday", "02:00 - 04:00 PM"}, {"Tuesday", "04:00 - 05:00 PM"}},
	"F2": {{"Monday", "03:00 - 04:00 PM"}, {"Wednesday", "04:00 - 05:00 PM"}},
	"G2": {{"Tuesday", "03:00 - 04:00 PM"}, {"Thursday", "04:00 - 05:00 PM"}},

	"TA1":  {{"Friday", "10:00 - 11:00 AM"}},
	"TB1":  {{"Monday", "11:00 - 12:00 PM"}},
	"TC1":  {{"Tuesday", "11:00 - 12:00 PM"}},
	"TD1":  {{"Friday", "12:00 - 01:00 PM"}},
	"TE1":  {{"Thursday", "11:00 - 12:00 PM"}},
	"TF1":  {{"Friday", "11:00 - 12:00 PM"}},
	"TG1":  {{"Monday", "12:00 - 01:00 PM"}},
	"TAA1": {{"Tuesday", "12:00 - 01:00 PM"}},
	"TCC1": {{"Thursday", "12:00 - 01:00 PM"}},
	"TA2":  {{"Friday", "04:00 - 05:00 PM"}},
	"TB2":  {{"Monday", "05:00 - 06:00 PM"}},
	"TC2":  {{"Tuesday", "05:00 - 06:00 PM"}},
	"TD2":  {{"Wednesday", "05:00 - 06:00 PM"}},
	"TE2":  {{"Thursday", "05:00 - 06:00 PM"}},
	"TF2":  {{"Friday", "05:00 - 06:00 PM"}},
	"TG2":  {{"Monday", "06:00 - 07:00 PM"}},
	"TAA2": {{"Tuesday", "06:00 - 07:00 PM"}},
	"TBB2": {{"Wednesday", "06:00 - 07:00 PM"}},
	"TCC2": {{"Thursday", "06:00 - 07:00 PM"}},
	"TDD2": {{"Friday", "06:00 - 07:00 PM"}},
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// lab slots number L1-L60, day major, three two-hour blocks each
// morning and afternoon. The even slot of each pair shares the odd
// slot's meeting time.
func init() {
	morning := []string{"08:00 - 09:50 AM", "09:51 - 11:40 AM", "11:40 AM - 01:30 PM"}
	afternoon := []string{"02:00 - 03:50 PM", "03:51 - 05:40 PM", "05:40 - 07:30 PM"}

	for d, day := range weekdays {
		for b := 0; b < 3; b++ {
			odd := d*6 + b*2 + 1
			slotTimes[fmt.Sprintf("L%d", odd)] = []SlotMeeting{{day, morning[b]}}
			slotTimes[fmt.Sprintf("L%d", odd+1)] = []SlotMeeting{{day, morning[b]}}

			odd += 30
			slotTimes[fmt.Sprintf("L%d", odd)] = []SlotMeeting{{day, afternoon[b]}}
			slotTimes[fmt.Sprintf("L%d", odd+1)] = []SlotMeeting{{day, afternoon[b]}}
		}
	}
}
