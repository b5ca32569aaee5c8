package models

import "time"

// Panel member roles as administered by the program office. These are the
// roster-side vocabulary; ReviewRoleForPanelRole maps them onto review
// slot roles at snapshot time.
const (
	PanelAdviser        = "adviser"
	PanelCommitteeChair = "committee_chair"
	PanelMember         = "panel_member"
)

// DefensePanelMember is one row of a student's current defense panel
// roster. The roster is mutable; submissions copy it into review slots and
// are unaffected by later edits.
type DefensePanelMember struct {
	PanelID    int        `gorm:"primaryKey;column:panel_id" json:"panel_id"`
	StudentID  int        `gorm:"column:student_id" json:"student_id"`
	MemberID   int        `gorm:"column:member_id" json:"member_id"`
	MemberRole string     `gorm:"column:member_role" json:"member_role"`
	AssignedAt time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	CreateAt   time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Member *User `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (DefensePanelMember) TableName() string {
	return "defense_panels"
}

// ReviewRoleForPanelRole maps a roster role to the review role carried by
// the snapshot slot. Unknown roles fall back to panel.
func ReviewRoleForPanelRole(panelRole string) string {
	switch panelRole {
	case PanelAdviser:
		return ReviewerAdviser
	case PanelCommitteeChair:
		return ReviewerCommittee
	default:
		return ReviewerPanel
	}
}
