package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// force timezone to be IST because VTOP renders every date in campus
// local time while our servers are not guaranteed to run there
func Now() time.Time {
	return time.Now().In(Location)
}
