package main

import (
	"context"
	"database/sql"
	"flag"
	"log"

	"schoolhub/internal/config"
	"schoolhub/internal/directory"
	"schoolhub/internal/store"
)

var schema = `
CREATE TABLE IF NOT EXISTS degrees (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS branches (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	degree_id BIGINT NOT NULL REFERENCES degrees(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS groups (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	branch_id BIGINT NOT NULL REFERENCES branches(id) ON DELETE CASCADE,
	degree_id BIGINT NOT NULL REFERENCES degrees(id) ON DELETE CASCADE,
	UNIQUE (branch_id, degree_id, name)
);

CREATE TABLE IF NOT EXISTS teachers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	employee_id TEXT NOT NULL UNIQUE,
	department TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subjects (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	teacher_id BIGINT NOT NULL REFERENCES teachers(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_subject_assignments (
	id BIGSERIAL PRIMARY KEY,
	group_id BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
	teacher_id BIGINT NOT NULL REFERENCES teachers(id) ON DELETE CASCADE,
	UNIQUE (group_id, subject_id)
);

CREATE TABLE IF NOT EXISTS students (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	roll_number TEXT NOT NULL UNIQUE,
	interests TEXT NOT NULL DEFAULT '',
	branch_id BIGINT REFERENCES branches(id) ON DELETE SET NULL,
	degree_id BIGINT REFERENCES degrees(id) ON DELETE SET NULL,
	group_id BIGINT REFERENCES groups(id) ON DELETE SET NULL,
	attendance_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS qr_tokens (
	id TEXT PRIMARY KEY,
	subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
	teacher_id BIGINT NOT NULL REFERENCES teachers(id) ON DELETE CASCADE,
	issued_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS qr_tokens_lookup
	ON qr_tokens (subject_id, teacher_id, issued_at DESC);

CREATE TABLE IF NOT EXISTS attendance_records (
	student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
	day DATE NOT NULL,
	is_present BOOLEAN NOT NULL DEFAULT FALSE,
	marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (student_id, subject_id, day)
);

CREATE TABLE IF NOT EXISTS materials (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
	uploaded_by BIGINT NOT NULL REFERENCES teachers(id) ON DELETE CASCADE,
	file_url TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS announcements (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_by TEXT NOT NULL,
	target_audience TEXT NOT NULL DEFAULT 'all',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Seed creates the schema and, unless -schema-only is set, a small demo
// dataset so the portals have something to show on first run.
func main() {
	schemaOnly := flag.Bool("schema-only", false, "create tables without demo data")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if _, err := db.Client.ExecContext(ctx, schema); err != nil {
		log.Fatalf("schema create failed: %v", err)
	}
	log.Println("schema ready")

	if *schemaOnly {
		return
	}
	if err := seedDemo(ctx, db.Client); err != nil {
		log.Fatalf("demo seed failed: %v", err)
	}
	log.Println("demo data seeded")
}

func seedDemo(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM degrees`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		log.Println("demo data already present, skipping")
		return nil
	}

	dir := directory.NewRepository(db)

	btech, err := dir.CreateDegree(ctx, "B.Tech")
	if err != nil {
		return err
	}
	cse, err := dir.CreateBranch(ctx, "Computer Science", btech.ID)
	if err != nil {
		return err
	}
	ece, err := dir.CreateBranch(ctx, "Electronics", btech.ID)
	if err != nil {
		return err
	}
	groupA, err := dir.CreateGroup(ctx, "CSE-A", cse.ID, btech.ID)
	if err != nil {
		return err
	}
	if _, err := dir.CreateGroup(ctx, "ECE-A", ece.ID, btech.ID); err != nil {
		return err
	}

	anita, err := dir.CreateTeacher(ctx, "Anita Rao", "T-1001", "Computer Science")
	if err != nil {
		return err
	}
	vikram, err := dir.CreateTeacher(ctx, "Vikram Iyer", "T-1002", "Mathematics")
	if err != nil {
		return err
	}

	ds, err := dir.CreateSubject(ctx, "Data Structures", "CS201", anita.ID)
	if err != nil {
		return err
	}
	calc, err := dir.CreateSubject(ctx, "Calculus", "MA101", vikram.ID)
	if err != nil {
		return err
	}
	if _, err := dir.AssignSubject(ctx, groupA.ID, ds.ID, anita.ID); err != nil {
		return err
	}
	if _, err := dir.AssignSubject(ctx, groupA.ID, calc.ID, vikram.ID); err != nil {
		return err
	}

	rolls := []struct {
		name, roll, interests string
	}{
		{"Priya Sharma", "CSE-A-01", "algorithms, chess"},
		{"Rahul Menon", "CSE-A-02", "robotics"},
		{"Sara Khan", "CSE-A-03", "web development, design"},
	}
	for _, s := range rolls {
		if _, err := dir.CreateStudent(ctx, directory.Student{
			Name:       s.name,
			RollNumber: s.roll,
			Interests:  s.interests,
			BranchID:   &cse.ID,
			DegreeID:   &btech.ID,
			GroupID:    &groupA.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}
