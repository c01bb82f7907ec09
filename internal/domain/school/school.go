// Package school holds the records shared by every module: students,
// classes and the school profile printed on documents.
package school

import "github.com/schoolerp/backend/internal/domain/shared"

// Collection names
const (
	CollectionClasses = "classes"
	CollectionUsers   = "users"
)

// RoleStudent is the users.role value selecting students.
const RoleStudent = "student"

// Student is a user document with role == student.
type Student struct {
	shared.BaseRecord
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Role       string `json:"role,omitempty"`
	ClassID    string `json:"classId,omitempty"`
	RollNo     string `json:"rollNo,omitempty"`
	ParentName string `json:"parentName,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Class is a teaching group students belong to.
type Class struct {
	shared.BaseRecord
	Name    string `json:"name" validate:"required"`
	Section string `json:"section,omitempty"`
}

// DisplayName returns "Name - Section" when a section is set.
func (c Class) DisplayName() string {
	if c.Section == "" {
		return c.Name
	}
	return c.Name + " - " + c.Section
}

// Profile is the ambient school metadata printed on every document.
type Profile struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}
