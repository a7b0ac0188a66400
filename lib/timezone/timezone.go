package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
}

// force the timezone to Berlin because all tracked shops announce
// releases in german local time; a server in another timezone would
// otherwise shift schedule date ranges by a day
func Now() time.Time {
	return time.Now().In(Location)
}
