// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment grants a user access to a course and tracks their progress.
type Enrollment struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"userId"`
	CourseID         uuid.UUID `json:"courseId"`
	Progress         int       `json:"progress"`
	TotalHoursSpent  float64   `json:"totalHoursSpent"`
	CompletedLessons []FlexID  `json:"completedLessons"`
	LastAccess       time.Time `json:"lastAccess"`
	CreatedAt        time.Time `json:"createdAt"`
}

// MyCourse is an enrollment joined with its course, as shown to the student.
type MyCourse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Image            string    `json:"image"`
	Description      string    `json:"description"`
	Progress         int       `json:"progress"`
	LastAccess       time.Time `json:"lastAccess"`
	Modules          []Module  `json:"modules"`
	CompletedLessons []FlexID  `json:"completedLessons"`
}

// DashboardStats aggregates a student's enrollments.
type DashboardStats struct {
	Completed  int     `json:"completed"`
	TotalHours float64 `json:"totalHours"`
}

// LastCourse is the most recently accessed course.
type LastCourse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Image      string    `json:"image"`
	Progress   int       `json:"progress"`
	LastAccess time.Time `json:"lastAccess"`
}

// Dashboard is the student landing summary.
type Dashboard struct {
	Stats      DashboardStats `json:"stats"`
	LastCourse *LastCourse    `json:"lastCourse"`
}

// MembershipStatus is the lifecycle of a membership row.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

// ManualGrantPrefix marks memberships granted by an administrator.
const ManualGrantPrefix = "manual_admin:"

// Membership is a time-boxed all-access entitlement.
type Membership struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Status    MembershipStatus `json:"status"`
	StartDate time.Time        `json:"startDate"`
	EndDate   time.Time        `json:"endDate"`
	PaymentID string           `json:"paymentId"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ActiveAt reports whether the membership entitles its user at t.
func (m *Membership) ActiveAt(t time.Time) bool {
	return m.Status == MembershipActive && m.EndDate.After(t)
}
