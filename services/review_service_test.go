package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"thesis-tracker-api/models"
)

func TestBuildRosterDeduplicatesAndMapsRoles(t *testing.T) {
	members := []models.DefensePanelMember{
		{MemberID: 3, MemberRole: models.PanelAdviser},
		{MemberID: 5, MemberRole: models.PanelCommitteeChair},
		{MemberID: 3, MemberRole: models.PanelMember}, // adviser also listed as panelist
		{MemberID: 8, MemberRole: models.PanelMember},
		{MemberID: 0, MemberRole: models.PanelMember}, // unset member id is skipped
	}

	roster := BuildRoster(members)

	if len(roster) != 3 {
		t.Fatalf("expected 3 roster entries, got %d", len(roster))
	}
	if roster[0].ReviewerID != 3 || roster[0].ReviewerRole != models.ReviewerAdviser {
		t.Fatalf("first occurrence should win for user 3: %+v", roster[0])
	}
	if roster[1].ReviewerID != 5 || roster[1].ReviewerRole != models.ReviewerCommittee {
		t.Fatalf("unexpected chair entry: %+v", roster[1])
	}
	if roster[2].ReviewerID != 8 || roster[2].ReviewerRole != models.ReviewerPanel {
		t.Fatalf("unexpected panel entry: %+v", roster[2])
	}
}

func TestTallySlotsCountsReviewedAndPending(t *testing.T) {
	slots := []models.ReviewSlot{
		{Status: models.StatusPending},
		{Status: models.StatusApproved},
		{Status: models.StatusMinorRevision},
	}

	tally := TallySlots(slots)

	if tally.Total != 3 || tally.Reviewed != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	if tally.ByStatus[models.StatusPending] != 1 || tally.ByStatus[models.StatusApproved] != 1 {
		t.Fatalf("unexpected per-status counts: %+v", tally.ByStatus)
	}
}

func TestPostVerdictRejectsInvalidStatus(t *testing.T) {
	_, err := PostVerdict(nil, 7, 42, models.Decision("maybe"), "")

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// submissionSteps scripts the load + latest-version check that opens every
// gate/verdict/decision transaction.
func submissionSteps(submissionID int64, status string, gate driver.Value) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id = \\?"),
			args:    []driver.Value{submissionID},
			columns: []string{"submission_id", "submission_number", "student_id", "stage", "version", "status", "review_gate_status"},
			rows:    [][]driver.Value{{submissionID, "OD-2026-AAAA", int64(1), "outline_defense", int64(1), status, gate}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM .submissions. WHERE parent_submission_id = \\?"),
			args:    []driver.Value{submissionID},
			columns: []string{"count"},
			rows:    [][]driver.Value{{int64(0)}},
		},
	}
}

func slotStep(submissionID, reviewerID int64, slotID int64, role string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM .review_slots. WHERE submission_id = \\? AND reviewer_id = \\?"),
		args:    []driver.Value{submissionID, reviewerID},
		columns: []string{"slot_id", "submission_id", "reviewer_id", "reviewer_role", "status"},
		rows:    [][]driver.Value{{slotID, submissionID, reviewerID, role, "pending"}},
	}
}

func TestPostVerdictBlockedUntilGateOpens(t *testing.T) {
	steps := append(submissionSteps(42, "under_review", nil),
		slotStep(42, 7, 9, models.ReviewerPanel))

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := PostVerdict(db, 7, 42, models.StatusApproved, "")

	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError while gate is unset, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostVerdictAllowedOnceGateOpens(t *testing.T) {
	steps := append(submissionSteps(42, "under_review", "passed"),
		slotStep(42, 7, 9, models.ReviewerPanel),
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .review_slots. SET"),
		})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	slot, err := PostVerdict(db, 7, 42, models.StatusMinorRevision, "tighten chapter 2")
	if err != nil {
		t.Fatalf("PostVerdict returned error: %v", err)
	}
	if slot.Status != models.StatusMinorRevision {
		t.Fatalf("expected slot status minor_revision, got %s", slot.Status)
	}
	if slot.ReviewedAt == nil {
		t.Fatal("expected reviewed_at to be set")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostVerdictChairBypassesGate(t *testing.T) {
	steps := append(submissionSteps(42, "submitted", nil),
		slotStep(42, 5, 2, models.ReviewerCommittee),
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .review_slots. SET"),
		})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	if _, err := PostVerdict(db, 5, 42, models.StatusApproved, ""); err != nil {
		t.Fatalf("chair verdict should not require an open gate: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostVerdictNotAssigned(t *testing.T) {
	steps := append(submissionSteps(42, "under_review", "passed"),
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .review_slots. WHERE submission_id = \\? AND reviewer_id = \\?"),
			args:    []driver.Value{int64(42), int64(99)},
			columns: []string{"slot_id"},
			rows:    [][]driver.Value{},
		})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := PostVerdict(db, 99, 42, models.StatusApproved, "")
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostVerdictStaleVersion(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .submissions. WHERE submission_id = \\?"),
			args:    []driver.Value{int64(42)},
			columns: []string{"submission_id", "student_id", "stage", "version", "status"},
			rows:    [][]driver.Value{{int64(42), int64(1), "outline_defense", int64(1), "minor_revision"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM .submissions. WHERE parent_submission_id = \\?"),
			args:    []driver.Value{int64(42)},
			columns: []string{"count"},
			rows:    [][]driver.Value{{int64(1)}}, // a revision supersedes v1
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := PostVerdict(db, 7, 42, models.StatusApproved, "")
	if !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetGateRequiresCommitteeChair(t *testing.T) {
	steps := append(submissionSteps(42, "submitted", nil),
		slotStep(42, 7, 9, models.ReviewerAdviser))

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	_, err := SetGate(db, 7, 42, models.GatePassed)

	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError for non-chair, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetGateMovesSubmissionUnderReviewAndNotifiesPanel(t *testing.T) {
	steps := append(submissionSteps(42, "submitted", nil),
		slotStep(42, 5, 2, models.ReviewerCommittee),
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submissions. SET"),
		},
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .review_slots. WHERE submission_id = \\? AND reviewer_role <> \\?"),
			args:    []driver.Value{int64(42), models.ReviewerCommittee},
			columns: []string{"slot_id", "submission_id", "reviewer_id", "reviewer_role", "status"},
			rows:    [][]driver.Value{{int64(9), int64(42), int64(7), models.ReviewerPanel, "pending"}},
		},
		// best-effort notification for reviewer 7
		&queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .notifications."),
		},
		&queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT user_id, email FROM .users. WHERE user_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"user_id", "email"},
			rows:    [][]driver.Value{{int64(7), ""}},
		})

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	submission, err := SetGate(db, 5, 42, models.GateMinorRevision)
	if err != nil {
		t.Fatalf("SetGate returned error: %v", err)
	}
	if submission.Status != models.StatusUnderReview {
		t.Fatalf("expected status under_review after gating, got %s", submission.Status)
	}
	if submission.ReviewGateStatus == nil || *submission.ReviewGateStatus != models.GateMinorRevision {
		t.Fatalf("expected gate passed_minor_revision, got %v", submission.ReviewGateStatus)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetGateRejectsInvalidValue(t *testing.T) {
	_, err := SetGate(nil, 5, 42, models.Decision("open"))

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
