package directory

// Slot is one timetable entry.
type Slot struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Room    string `json:"room"`
}

// WeeklyTimetable returns the fixed weekly schedule shown on the dashboards.
// Static for now; a timetable editor is admin work that has not landed.
func WeeklyTimetable() map[string][]Slot {
	return map[string][]Slot{
		"Monday": {
			{Time: "09:00", Subject: "Mathematics", Room: "A101"},
			{Time: "10:00", Subject: "Physics", Room: "B201"},
			{Time: "11:00", Subject: "Chemistry", Room: "C301"},
			{Time: "12:00", Subject: "English", Room: "D401"},
			{Time: "14:00", Subject: "Computer Science", Room: "E501"},
		},
		"Tuesday": {
			{Time: "09:00", Subject: "Mathematics", Room: "A101"},
			{Time: "10:00", Subject: "Biology", Room: "F601"},
			{Time: "11:00", Subject: "History", Room: "G701"},
			{Time: "12:00", Subject: "Geography", Room: "H801"},
			{Time: "14:00", Subject: "Physical Education", Room: "Gym"},
		},
		"Wednesday": {
			{Time: "09:00", Subject: "Physics", Room: "B201"},
			{Time: "10:00", Subject: "Chemistry", Room: "C301"},
			{Time: "11:00", Subject: "Mathematics", Room: "A101"},
			{Time: "12:00", Subject: "Computer Science", Room: "E501"},
			{Time: "14:00", Subject: "English", Room: "D401"},
		},
		"Thursday": {
			{Time: "09:00", Subject: "Biology", Room: "F601"},
			{Time: "10:00", Subject: "Mathematics", Room: "A101"},
			{Time: "11:00", Subject: "Physics", Room: "B201"},
			{Time: "12:00", Subject: "History", Room: "G701"},
			{Time: "14:00", Subject: "Chemistry", Room: "C301"},
		},
		"Friday": {
			{Time: "09:00", Subject: "Computer Science", Room: "E501"},
			{Time: "10:00", Subject: "English", Room: "D401"},
			{Time: "11:00", Subject: "Geography", Room: "H801"},
			{Time: "12:00", Subject: "Mathematics", Room: "A101"},
			{Time: "14:00", Subject: "Physical Education", Room: "Gym"},
		},
	}
}
