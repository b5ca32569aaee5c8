package services

import (
	"errors"

	"gorm.io/gorm"

	"thesis-tracker-api/models"
)

// Scope is the affiliation filter of a reviewing actor. Whichever fields
// are populated restrict student queries; an empty scope matches no rows.
type Scope struct {
	Program    *string
	Department *string
	College    *string
}

// Empty reports whether no affiliation column is populated. Empty scopes
// fail closed: a misconfigured actor sees nothing rather than everything.
func (s Scope) Empty() bool {
	return s.Program == nil && s.Department == nil && s.College == nil
}

// Apply returns a gorm scope restricting a query over users to students
// under the actor's jurisdiction. Populated columns combine with OR: any
// one affiliation match suffices.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if s.Empty() {
		return db.Where("1 = 0")
	}

	var cond *gorm.DB
	add := func(next *gorm.DB) {
		if cond == nil {
			cond = next
		} else {
			cond = cond.Or(next)
		}
	}
	if s.Program != nil {
		add(db.Session(&gorm.Session{NewDB: true}).Where("users.program = ?", *s.Program))
	}
	if s.Department != nil {
		add(db.Session(&gorm.Session{NewDB: true}).Where("users.department = ?", *s.Department))
	}
	if s.College != nil {
		add(db.Session(&gorm.Session{NewDB: true}).Where("users.college = ?", *s.College))
	}
	return db.Where(cond)
}

// ResolveScope loads the actor's declared affiliation. Blank strings are
// treated the same as NULL columns.
func ResolveScope(db *gorm.DB, actorID int) (Scope, error) {
	var actor models.User
	if err := db.Select("user_id, program, department, college").
		Where("user_id = ? AND delete_at IS NULL", actorID).
		First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Scope{}, authorizationErr("actor not found")
		}
		return Scope{}, storageErr("resolve scope", err)
	}

	return Scope{
		Program:    nonEmpty(actor.Program),
		Department: nonEmpty(actor.Department),
		College:    nonEmpty(actor.College),
	}, nil
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
