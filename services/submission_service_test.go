package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"

	"thesis-tracker-api/models"
)

func TestSubmissionInputValidation(t *testing.T) {
	cases := []struct {
		name  string
		input SubmissionInput
	}{
		{"unknown stage", SubmissionInput{Stage: "prospectus", Title: "A Study"}},
		{"blank title", SubmissionInput{Stage: models.StageConceptPaper, Title: "   "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Submit(nil, 1, tc.input)

			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestNewSubmissionNumberPrefixesByStage(t *testing.T) {
	number := newSubmissionNumber(models.StageOutlineDefense)
	if !strings.HasPrefix(number, "OD-") {
		t.Fatalf("expected OD- prefix, got %s", number)
	}

	other := newSubmissionNumber(models.StageOutlineDefense)
	if number == other {
		t.Fatalf("submission numbers should be unique, got %s twice", number)
	}
}

func TestFetchLatestRejectsUnknownStage(t *testing.T) {
	_, err := FetchLatest(nil, 1, "prospectus")

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFetchLatestReturnsUnsupersededVersion(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("(?s)SELECT .* FROM .submissions. WHERE .*student_id = \\? AND stage = \\?.*NOT IN"),
			args:    []driver.Value{int64(1), "outline_defense"},
			columns: []string{"submission_id", "submission_number", "student_id", "stage", "version", "status"},
			rows:    [][]driver.Value{{int64(43), "OD-2026-AAAA", int64(1), "outline_defense", int64(2), "submitted"}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	submission, err := FetchLatest(db, 1, models.StageOutlineDefense)
	if err != nil {
		t.Fatalf("FetchLatest returned error: %v", err)
	}
	if submission.SubmissionID != 43 || submission.Version != 2 {
		t.Fatalf("expected the un-superseded v2 row, got %+v", submission)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordDecisionRejectsInvalidInput(t *testing.T) {
	if _, err := RecordDecision(nil, 5, 42, models.Decision("fine"), models.VerdictPassed, ""); err == nil {
		t.Fatal("expected error for invalid final status")
	}
	if _, err := RecordDecision(nil, 5, 42, models.StatusApproved, models.Decision("ok"), ""); err == nil {
		t.Fatal("expected error for invalid verdict")
	}
}

func TestRecordDecisionRequiresCommitteeChair(t *testing.T) {
	steps := append(submissionSteps(42, "under_review", "passed"),
		slotStep(42, 7, 9, models.ReviewerAdviser))

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := RecordDecision(db, 7, 42, models.StatusApproved, models.VerdictPassed, "")

	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordDecisionDefaultsGateFromStatus(t *testing.T) {
	steps := append(submissionSteps(42, "under_review", nil),
		slotStep(42, 5, 2, models.ReviewerCommittee),
		&queryStep{
			kind: kindExec,
			// The ungated decision must also write the defaulted gate.
			pattern: regexp.MustCompile("(?s)UPDATE .submissions. SET .*review_gate_status"),
		},
		// student notification
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .notifications."),
		},
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT user_id, email FROM .users. WHERE user_id = \\?"),
			args:    []driver.Value{int64(1)},
			columns: []string{"user_id", "email"},
			rows:    [][]driver.Value{{int64(1), ""}},
		})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	submission, err := RecordDecision(db, 5, 42, models.StatusMinorRevision, models.VerdictWithRevision, "address panel comments")
	if err != nil {
		t.Fatalf("RecordDecision returned error: %v", err)
	}
	if submission.Status != models.StatusMinorRevision {
		t.Fatalf("expected status minor_revision, got %s", submission.Status)
	}
	if submission.ReviewGateStatus == nil || *submission.ReviewGateStatus != models.GateMinorRevision {
		t.Fatalf("expected gate defaulted to passed_minor_revision, got %v", submission.ReviewGateStatus)
	}
	if submission.CommitteeReviewsCompletedAt == nil {
		t.Fatal("expected committee_reviews_completed_at to be set")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthorizeViewOwnerAndAdmin(t *testing.T) {
	submission := models.Submission{SubmissionID: 42, StudentID: 1}

	if err := AuthorizeView(nil, 1, models.RoleStudent, &submission); err != nil {
		t.Fatalf("owner must always see their submission: %v", err)
	}
	if err := AuthorizeView(nil, 99, models.RoleAdmin, &submission); err != nil {
		t.Fatalf("admin must always see the submission: %v", err)
	}
}

func TestAuthorizeViewUnrelatedStudentDenied(t *testing.T) {
	gate := models.GatePassed
	submission := models.Submission{SubmissionID: 42, StudentID: 1, ReviewGateStatus: &gate}

	err := AuthorizeView(nil, 99, models.RoleStudent, &submission)

	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("an unrelated student must be denied even after gating, got %v", err)
	}
}

func TestAuthorizeViewAssignedReviewerFollowsGate(t *testing.T) {
	submission := models.Submission{
		SubmissionID: 42,
		StudentID:    1,
		ReviewSlots:  []models.ReviewSlot{{ReviewerID: 7, ReviewerRole: models.ReviewerPanel}},
	}

	err := AuthorizeView(nil, 7, models.RoleFaculty, &submission)
	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("assigned reviewer must be blocked while the gate is unset, got %v", err)
	}

	gate := models.GateMinorRevision
	submission.ReviewGateStatus = &gate
	if err := AuthorizeView(nil, 7, models.RoleFaculty, &submission); err != nil {
		t.Fatalf("assigned reviewer must see the submission once gated: %v", err)
	}
}

func TestAuthorizeViewChairSlotBypassesGate(t *testing.T) {
	submission := models.Submission{
		SubmissionID: 42,
		StudentID:    1,
		ReviewSlots:  []models.ReviewSlot{{ReviewerID: 5, ReviewerRole: models.ReviewerCommittee}},
	}

	if err := AuthorizeView(nil, 5, models.RoleFaculty, &submission); err != nil {
		t.Fatalf("committee chairperson must see the submission before gating: %v", err)
	}
}

func TestAuthorizeViewDeanBlockedBeforeGate(t *testing.T) {
	submission := models.Submission{SubmissionID: 42, StudentID: 1}

	err := AuthorizeView(nil, 4, models.RoleDean, &submission)

	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("unassigned dean must be blocked while the gate is unset, got %v", err)
	}
}

func TestAuthorizeViewScopedDean(t *testing.T) {
	gate := models.GatePassed
	submission := models.Submission{SubmissionID: 42, StudentID: 1, ReviewGateStatus: &gate}

	scopeSteps := func(matched int64) []*queryStep {
		return []*queryStep{
			{
				kind:    kindQuery,
				pattern: regexp.MustCompile("SELECT user_id, program, department, college FROM .users. WHERE user_id = \\?"),
				args:    []driver.Value{int64(4)},
				columns: []string{"user_id", "program", "department", "college"},
				rows:    [][]driver.Value{{int64(4), "MSCS", nil, nil}},
			},
			{
				kind:    kindQuery,
				pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM .users. WHERE .*users.user_id = \\?"),
				args:    []driver.Value{"MSCS", int64(1)},
				columns: []string{"count"},
				rows:    [][]driver.Value{{matched}},
			},
		}
	}

	t.Run("student in scope", func(t *testing.T) {
		db, state, cleanup := newScriptedGormDB(t, scopeSteps(1))
		defer cleanup()

		if err := AuthorizeView(db, 4, models.RoleDean, &submission); err != nil {
			t.Fatalf("scope-matched dean must see the gated submission: %v", err)
		}
		if err := state.verifyComplete(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("student out of scope", func(t *testing.T) {
		db, state, cleanup := newScriptedGormDB(t, scopeSteps(0))
		defer cleanup()

		err := AuthorizeView(db, 4, models.RoleDean, &submission)
		var authz *AuthorizationError
		if !errors.As(err, &authz) {
			t.Fatalf("out-of-scope dean must be denied, got %v", err)
		}
		if err := state.verifyComplete(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})
}

func TestRecordDecisionKeepsChairSetGate(t *testing.T) {
	steps := append(submissionSteps(42, "under_review", "redefense"),
		slotStep(42, 5, 2, models.ReviewerCommittee),
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submissions. SET"),
		},
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .notifications."),
		},
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT user_id, email FROM .users. WHERE user_id = \\?"),
			args:    []driver.Value{int64(1)},
			columns: []string{"user_id", "email"},
			rows:    [][]driver.Value{{int64(1), ""}},
		})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	// Chair override: approving despite a redefense gate. The gate set
	// earlier must survive; the tally stays visible to make the override
	// auditable.
	submission, err := RecordDecision(db, 5, 42, models.StatusApproved, models.VerdictPassed, "")
	if err != nil {
		t.Fatalf("RecordDecision returned error: %v", err)
	}
	if submission.ReviewGateStatus == nil || *submission.ReviewGateStatus != models.GateRedefense {
		t.Fatalf("existing gate must not be overwritten, got %v", submission.ReviewGateStatus)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
