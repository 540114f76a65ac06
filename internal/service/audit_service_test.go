package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/models"
)

func TestAuditRecordValidatesInput(t *testing.T) {
	svc := NewAuditService(&memoryAuditRepo{}, testLogger())

	_, err := svc.Record(context.Background(), AuditEntry{ActorID: 1, Action: models.AuditActionCreated})
	require.Error(t, err, "application id is required")

	_, err = svc.Record(context.Background(), AuditEntry{ApplicationID: 1, ActorID: 1, Action: "DELETED"})
	require.Error(t, err, "unknown actions are rejected")
}

func TestAuditRecordMasksSensitiveMetadata(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewAuditService(repo, testLogger())

	_, err := svc.Record(context.Background(), AuditEntry{
		ApplicationID: 4,
		ActorID:       2,
		Action:        models.AuditActionUpdated,
		FieldName:     stringPtr("cost"),
		Metadata: map[string]interface{}{
			"submitter_email": "someone@example.com",
			"session_token":   "abc123",
			"cost":            12000.0,
		},
	})
	require.NoError(t, err)

	entries := repo.forApplication(4)
	require.Len(t, entries, 1)
	require.Equal(t, "***", entries[0].Metadata["submitter_email"])
	require.Equal(t, "***", entries[0].Metadata["session_token"])
	require.Equal(t, 12000.0, entries[0].Metadata["cost"])
}

func TestAuditListForApplication(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewAuditService(repo, testLogger())

	for _, action := range []string{models.AuditActionCreated, models.AuditActionStatusChanged} {
		_, err := svc.Record(context.Background(), AuditEntry{ApplicationID: 9, ActorID: 1, Action: action})
		require.NoError(t, err)
	}
	_, err := svc.Record(context.Background(), AuditEntry{ApplicationID: 10, ActorID: 1, Action: models.AuditActionCreated})
	require.NoError(t, err)

	trail, err := svc.ListForApplication(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, uint(9), trail.ApplicationID)
	require.Equal(t, int64(2), trail.Total)
	require.Equal(t, models.AuditActionStatusChanged, trail.Entries[0].Action, "newest entry first")
}

func TestReplayReconstructsState(t *testing.T) {
	// Newest first, as the ledger returns them.
	entries := []models.AuditLog{
		{Action: models.AuditActionReviewNoteAdded, FieldName: stringPtr("reviewNote"), OldValue: stringPtr("None"), NewValue: stringPtr("Budget approved")},
		{Action: models.AuditActionStatusChanged, FieldName: stringPtr("status"), OldValue: stringPtr(models.StatusPending), NewValue: stringPtr(models.StatusApproved)},
		{Action: models.AuditActionUpdated, FieldName: stringPtr("riskScore"), OldValue: stringPtr("18"), NewValue: stringPtr("48")},
		{Action: models.AuditActionUpdated, FieldName: stringPtr("cost"), OldValue: stringPtr("3000"), NewValue: stringPtr("75000")},
		{Action: models.AuditActionCreated, FieldName: stringPtr("status"), NewValue: stringPtr(models.StatusPending)},
	}

	state := Replay(entries)
	require.True(t, state.Exists)
	require.Equal(t, models.StatusApproved, state.Status)
	require.NotNil(t, state.ReviewNote)
	require.Equal(t, "Budget approved", *state.ReviewNote)
	require.NotNil(t, state.RiskScore)
	require.Equal(t, 48, *state.RiskScore)
}

func TestReplayEmptyHistory(t *testing.T) {
	state := Replay(nil)
	require.False(t, state.Exists)
	require.Empty(t, state.Status)
	require.Nil(t, state.ReviewNote)
	require.Nil(t, state.RiskScore)
}

func TestReplayAgreesWithStoredRow(t *testing.T) {
	appSvc, apps, audits := newApplicationFixture(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	reviewSvc := NewReviewService(apps, audits, NewAuditService(audits, testLogger()), validate, testLogger())

	created, err := appSvc.Create(context.Background(), Actor{ID: 7}, validCreatePayload())
	require.NoError(t, err)

	note := "Looks solid"
	_, err = reviewSvc.Transition(context.Background(), created.ID, Actor{ID: 1, Role: models.RoleAdmin}, dto.ReviewRequest{Status: models.StatusApproved, Note: &note})
	require.NoError(t, err)

	stored, err := apps.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	history, err := audits.ListByApplication(context.Background(), created.ID)
	require.NoError(t, err)

	state := Replay(history)
	require.True(t, state.Exists)
	require.Equal(t, stored.Status, state.Status)
	require.NotNil(t, state.ReviewNote)
	require.Equal(t, *stored.ReviewNote, *state.ReviewNote)
}
