package domain

import (
	"time"

	"github.com/google/uuid"
)

// Class is a group of students owned by a teacher. Students enter it
// with the join code shown by the teacher.
type Class struct {
	ID          uuid.UUID
	Name        string
	JoinCode    string
	TeacherID   uuid.UUID
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Student belongs to exactly one class and logs in with name plus a
// personal access code.
type Student struct {
	ID          uuid.UUID
	Name        string
	ClassID     uuid.UUID
	ClassName   string
	AccessCode  string
	CreatedByID uuid.UUID
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
