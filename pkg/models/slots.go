package models

var TimeSlots = []string{
	"08:00 AM",
	"09:00 AM",
	"10:30 AM",
	"12:00 PM",
	"01:30 PM",
	"03:00 PM",
	"04:30 PM",
	"06:00 PM",
	"07:30 PM",
}

func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}
