package directory

import "time"

// Degree is the top of the academic hierarchy (B.Tech, M.Sc, ...).
type Degree struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Branch belongs to a degree (CSE under B.Tech, ...).
type Branch struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	DegreeID int64  `json:"degree_id"`
}

// Group is a class section, unique per (branch, degree, name).
type Group struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	BranchID int64  `json:"branch_id"`
	DegreeID int64  `json:"degree_id"`
}

// Subject is owned by exactly one teacher; code is unique school-wide.
type Subject struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	TeacherID int64  `json:"teacher_id"`
}

// Assignment maps a subject (taught by a teacher) onto a group. Unique per
// (group, subject).
type Assignment struct {
	ID        int64  `json:"id"`
	GroupID   int64  `json:"group_id"`
	SubjectID int64  `json:"subject_id"`
	TeacherID int64  `json:"teacher_id"`

	GroupName   string `json:"group_name,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
}

// Teacher profile.
type Teacher struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	EmployeeID string    `json:"employee_id"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

// Student profile. AttendancePercentage is the derived aggregate recomputed
// after every successful scan.
type Student struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	RollNumber           string    `json:"roll_number"`
	Interests            string    `json:"interests,omitempty"`
	BranchID             *int64    `json:"branch_id,omitempty"`
	DegreeID             *int64    `json:"degree_id,omitempty"`
	GroupID              *int64    `json:"group_id,omitempty"`
	AttendancePercentage float64   `json:"attendance_percentage"`
	CreatedAt            time.Time `json:"created_at"`
}
