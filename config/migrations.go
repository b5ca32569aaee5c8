package config

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"thesis-tracker-api/models"
)

// schemaMigration records an applied migration. The runner is invoked once
// at deploy time from cmd/migrate; request-handling code assumes the schema
// is already correct and never probes or alters it.
type schemaMigration struct {
	ID        string    `gorm:"primaryKey;column:id"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

type migration struct {
	id  string
	run func(db *gorm.DB) error
}

var migrations = []migration{
	{
		id: "0001_directory_tables",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.Role{}, &models.User{})
		},
	},
	{
		id: "0002_seed_roles",
		run: func(db *gorm.DB) error {
			now := time.Now()
			roles := []models.Role{
				{RoleID: models.RoleStudent, Role: "student", CreateAt: &now},
				{RoleID: models.RoleFaculty, Role: "faculty", CreateAt: &now},
				{RoleID: models.RoleProgramChair, Role: "program_chair", CreateAt: &now},
				{RoleID: models.RoleDean, Role: "dean", CreateAt: &now},
				{RoleID: models.RoleAdmin, Role: "admin", CreateAt: &now},
			}
			for _, role := range roles {
				if err := db.Where("role_id = ?", role.RoleID).FirstOrCreate(&role).Error; err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		id: "0003_file_uploads",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.FileUpload{})
		},
	},
	{
		id: "0004_submissions_and_reviews",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.Submission{},
				&models.ReviewSlot{},
				&models.DefensePanelMember{},
			)
		},
	},
	{
		id: "0005_endorsement_chains",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.AdviserEndorsement{},
				&models.FinalDefenseEndorsement{},
				&models.NoticeToCommence{},
				&models.HardboundArchive{},
			)
		},
	},
	{
		id: "0006_notifications_and_archive",
		run: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.Notification{}, &models.ArchiveRecord{})
		},
	},
}

// RunMigrations applies pending migrations in order, recording each in
// schema_migrations.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int64
		if err := db.Model(&schemaMigration{}).Where("id = ?", m.id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.id, err)
		}
		if count > 0 {
			continue
		}

		log.Printf("Applying migration %s", m.id)
		if err := m.run(db); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.id, err)
		}
		record := schemaMigration{ID: m.id, AppliedAt: time.Now()}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.id, err)
		}
	}

	return nil
}
