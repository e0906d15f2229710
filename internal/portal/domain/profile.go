package domain

import "time"

// Category is the closed set of user categories a profile may carry. The
// administrator capability is independent of category (see RoleAssignment).
type Category string

const (
	CategoryStudent        Category = "student"
	CategoryFaculty        Category = "faculty"
	CategoryStudentCouncil Category = "student_council"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStudent, CategoryFaculty, CategoryStudentCouncil:
		return true
	}
	return false
}

// Profile is the per-user public record created at sign-up. DisplayName is
// mutated by the owner; Verified only by an administrator.
type Profile struct {
	UserID      string
	DisplayName string
	Category    Category
	College     string
	Verified    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
