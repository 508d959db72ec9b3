package models

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Submission is a writer's delivered work for an assigned task. FileURL points
// at storage managed elsewhere.
type Submission struct {
	ID          uuid.UUID        `json:"id"`
	TaskID      uuid.UUID        `json:"task_id"`
	WriterID    uuid.UUID        `json:"writer_id"`
	FileURL     string           `json:"file_url"`
	Notes       string           `json:"notes,omitempty"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
	ReviewedAt  *time.Time       `json:"reviewed_at,omitempty"`
}

// Review resolves a PENDING submission.
func (s *Submission) Review(approved bool, at time.Time) error {
	if s.Status != SubmissionPending {
		return Statef("submission %s is already %s", s.ID, s.Status)
	}
	if approved {
		s.Status = SubmissionApproved
	} else {
		s.Status = SubmissionRejected
	}
	s.ReviewedAt = &at
	return nil
}
