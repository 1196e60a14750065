package models

import "time"

type Menu struct {
	ID   uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"not null"`
}

func (Menu) TableName() string {
	return "menus"
}

type Course struct {
	ID     uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Name   string `json:"name" gorm:"not null"`
	MenuID uint64 `json:"menu_id" gorm:"index"`

	// Associations
	Menu *Menu `json:"menu,omitempty" gorm:"foreignKey:MenuID"`
}

func (Course) TableName() string {
	return "courses"
}

// Consultation is a prospective student's request to be contacted about a course.
type Consultation struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"index"`
	Phone     string    `json:"phone"`
	CourseID  uint64    `json:"course_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	// Associations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Consultation) TableName() string {
	return "consultations"
}

// MenuName returns the menu the consultation's course belongs to, or "".
func (c Consultation) MenuName() string {
	if c.Course == nil || c.Course.Menu == nil {
		return ""
	}
	return c.Course.Menu.Name
}

func (c Consultation) CourseName() string {
	if c.Course == nil {
		return ""
	}
	return c.Course.Name
}
