package directory

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("directory: not found")

// Repository persists the academic structure in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ---------- degrees / branches / groups ----------

// CreateDegree inserts a degree and returns it with its id.
func (r *Repository) CreateDegree(ctx context.Context, name string) (Degree, error) {
	var d Degree
	d.Name = name
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO degrees (name) VALUES ($1) RETURNING id`, name).Scan(&d.ID)
	return d, err
}

// ListDegrees returns all degrees ordered by name.
func (r *Repository) ListDegrees(ctx context.Context) ([]Degree, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM degrees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Degree
	for rows.Next() {
		var d Degree
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// CreateBranch inserts a branch under a degree.
func (r *Repository) CreateBranch(ctx context.Context, name string, degreeID int64) (Branch, error) {
	b := Branch{Name: name, DegreeID: degreeID}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO branches (name, degree_id) VALUES ($1,$2) RETURNING id`, name, degreeID).Scan(&b.ID)
	return b, err
}

// BranchesByDegree feeds the dependent-dropdown API: branches of one degree,
// or all branches when degreeID is zero.
func (r *Repository) BranchesByDegree(ctx context.Context, degreeID int64) ([]Branch, error) {
	query := `SELECT id, name, degree_id FROM branches`
	args := []any{}
	if degreeID > 0 {
		query += ` WHERE degree_id = $1`
		args = append(args, degreeID)
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.DegreeID); err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// CreateGroup inserts a class group.
func (r *Repository) CreateGroup(ctx context.Context, name string, branchID, degreeID int64) (Group, error) {
	g := Group{Name: name, BranchID: branchID, DegreeID: degreeID}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO groups (name, branch_id, degree_id) VALUES ($1,$2,$3) RETURNING id`,
		name, branchID, degreeID).Scan(&g.ID)
	return g, err
}

// GroupsBy returns groups filtered by branch and/or degree for the dependent
// dropdowns.
func (r *Repository) GroupsBy(ctx context.Context, branchID, degreeID int64) ([]Group, error) {
	query := `SELECT id, name, branch_id, degree_id FROM groups`
	args := []any{}
	clause := ""
	if branchID > 0 {
		args = append(args, branchID)
		clause = ` WHERE branch_id = $1`
	}
	if degreeID > 0 {
		args = append(args, degreeID)
		if clause == "" {
			clause = ` WHERE degree_id = $1`
		} else {
			clause += ` AND degree_id = $2`
		}
	}
	rows, err := r.db.QueryContext(ctx, query+clause+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.BranchID, &g.DegreeID); err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

// ---------- subjects / assignments ----------

// CreateSubject inserts a subject owned by a teacher.
func (r *Repository) CreateSubject(ctx context.Context, name, code string, teacherID int64) (Subject, error) {
	s := Subject{Name: name, Code: code, TeacherID: teacherID}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO subjects (name, code, teacher_id) VALUES ($1,$2,$3) RETURNING id`,
		name, code, teacherID).Scan(&s.ID)
	return s, err
}

// GetSubject returns one subject.
func (r *Repository) GetSubject(ctx context.Context, id int64) (Subject, error) {
	var s Subject
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, code, teacher_id FROM subjects WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Code, &s.TeacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return Subject{}, ErrNotFound
	}
	return s, err
}

// SubjectOwner resolves a subject to its owning teacher. Satisfies the
// attendance issuance authorization lookup.
func (r *Repository) SubjectOwner(ctx context.Context, subjectID int64) (int64, error) {
	var teacherID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT teacher_id FROM subjects WHERE id = $1`, subjectID).Scan(&teacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return teacherID, err
}

// ListSubjects returns all subjects, or only one teacher's when teacherID > 0.
func (r *Repository) ListSubjects(ctx context.Context, teacherID int64) ([]Subject, error) {
	query := `SELECT id, name, code, teacher_id FROM subjects`
	args := []any{}
	if teacherID > 0 {
		query += ` WHERE teacher_id = $1`
		args = append(args, teacherID)
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY code`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.TeacherID); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// AssignSubject maps a subject to a group with its teacher.
func (r *Repository) AssignSubject(ctx context.Context, groupID, subjectID, teacherID int64) (Assignment, error) {
	a := Assignment{GroupID: groupID, SubjectID: subjectID, TeacherID: teacherID}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO group_subject_assignments (group_id, subject_id, teacher_id)
		 VALUES ($1,$2,$3) RETURNING id`, groupID, subjectID, teacherID).Scan(&a.ID)
	return a, err
}

// AssignmentsForTeacher backs the teacher's group-selection screen.
func (r *Repository) AssignmentsForTeacher(ctx context.Context, teacherID int64) ([]Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.group_id, a.subject_id, a.teacher_id, g.name, s.name
		FROM group_subject_assignments a
		JOIN groups g ON g.id = a.group_id
		JOIN subjects s ON s.id = a.subject_id
		WHERE a.teacher_id = $1
		ORDER BY g.name, s.name
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.GroupID, &a.SubjectID, &a.TeacherID, &a.GroupName, &a.SubjectName); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// GroupForSubject returns the group a teacher teaches the subject to, or
// ErrNotFound when no assignment exists.
func (r *Repository) GroupForSubject(ctx context.Context, subjectID, teacherID int64) (int64, error) {
	var groupID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT group_id FROM group_subject_assignments
		WHERE subject_id = $1 AND teacher_id = $2
		LIMIT 1
	`, subjectID, teacherID).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return groupID, err
}

// ---------- teachers / students ----------

// CreateTeacher inserts a teacher profile.
func (r *Repository) CreateTeacher(ctx context.Context, name, employeeID, department string) (Teacher, error) {
	t := Teacher{Name: name, EmployeeID: employeeID, Department: department}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO teachers (name, employee_id, department)
		VALUES ($1,$2,$3) RETURNING id, created_at
	`, name, employeeID, department).Scan(&t.ID, &t.CreatedAt)
	return t, err
}

// CreateStudent inserts a student profile.
func (r *Repository) CreateStudent(ctx context.Context, s Student) (Student, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (name, roll_number, interests, branch_id, degree_id, group_id)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at
	`, s.Name, s.RollNumber, s.Interests, s.BranchID, s.DegreeID, s.GroupID).Scan(&s.ID, &s.CreatedAt)
	return s, err
}

// GetStudent returns one student profile.
func (r *Repository) GetStudent(ctx context.Context, id int64) (Student, error) {
	var s Student
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, roll_number, interests, branch_id, degree_id, group_id, attendance_percentage, created_at
		FROM students WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.RollNumber, &s.Interests, &s.BranchID, &s.DegreeID, &s.GroupID, &s.AttendancePercentage, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return s, err
}

// StudentsInGroup lists the students of one class group.
func (r *Repository) StudentsInGroup(ctx context.Context, groupID int64) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, roll_number, interests, branch_id, degree_id, group_id, attendance_percentage, created_at
		FROM students WHERE group_id = $1
		ORDER BY roll_number
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber, &s.Interests, &s.BranchID, &s.DegreeID, &s.GroupID, &s.AttendancePercentage, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
