// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"coursestore/internal/apperr"
	"coursestore/internal/enrollment"
	"coursestore/internal/models"
)

// Learning groups the student-facing enrollment handlers.
type Learning struct {
	enrollment *enrollment.Service
}

// NewLearning creates the enrollment handlers.
func NewLearning(svc *enrollment.Service) *Learning {
	return &Learning{enrollment: svc}
}

// MyCourses handles GET /api/my-courses.
func (h *Learning) MyCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.enrollment.MyCourses(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

// Dashboard handles GET /api/dashboard.
func (h *Learning) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.enrollment.Dashboard(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type progressInput struct {
	CourseID         string          `json:"courseId"`
	Progress         *int            `json:"progress"`
	HoursToAdd       *float64        `json:"hoursToAdd"`
	CompletedLessons []models.FlexID `json:"completedLessons"`
}

// Progress handles POST /api/progress.
func (h *Learning) Progress(w http.ResponseWriter, r *http.Request) {
	var in progressInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	courseID, err := uuid.Parse(in.CourseID)
	if err != nil {
		writeError(w, r, apperr.Invalid("courseId is required"))
		return
	}
	err = h.enrollment.RecordProgress(r.Context(), caller(r).UserID, courseID, enrollment.ProgressInput{
		Progress:         in.Progress,
		HoursToAdd:       in.HoursToAdd,
		CompletedLessons: in.CompletedLessons,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Progress saved"})
}

// Membership handles GET /api/membership. The membership is null for
// callers that never had one.
func (h *Learning) Membership(w http.ResponseWriter, r *http.Request) {
	m, err := h.enrollment.Membership(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"membership": m})
}

// GrantMembership handles POST /api/admin/users/{userId}/membership.
func (h *Learning) GrantMembership(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.enrollment.ManualGrant(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Membership granted", "membership": m})
}
