package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/fixpoint-as/repair-api/internal/auth"
	"github.com/fixpoint-as/repair-api/internal/database"
	"github.com/fixpoint-as/repair-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database with the full schema.
// Each call gets its own database, so tests stay isolated.
func SetupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	require.NoError(t, database.AutoMigrate(db), "Failed to migrate test schema")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// CreateTestStaff creates an active staff member with the given role.
func CreateTestStaff(t *testing.T, db *gorm.DB, name string, role domain.StaffRole) *domain.Staff {
	staff := &domain.Staff{
		AuthID:      fmt.Sprintf("auth-%s", uuid.New().String()),
		DisplayName: name,
		Email:       fmt.Sprintf("%s@example.com", uuid.New().String()),
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, db.Create(staff).Error)
	return staff
}

// CreateTestLead creates a lead in the given status.
func CreateTestLead(t *testing.T, db *gorm.DB, customerName string, status domain.LeadStatus) *domain.Lead {
	lead := &domain.Lead{
		CustomerName:  customerName,
		CustomerPhone: "91234567",
		DeviceType:    domain.DeviceTypePhone,
		DeviceModel:   "iPhone 14",
		ReportedIssue: "cracked screen",
		QuotedAmount:  1500,
		Status:        status,
		Source:        domain.LeadSourceWalkIn,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// StaffContext returns a context carrying an authenticated staff member.
func StaffContext(staffID uuid.UUID, role domain.StaffRole) context.Context {
	return StaffContextFrom(context.Background(), staffID, role)
}

// StaffContextFrom attaches an authenticated staff member to an existing
// context, keeping whatever values it already carries.
func StaffContextFrom(ctx context.Context, staffID uuid.UUID, role domain.StaffRole) context.Context {
	staffCtx := &auth.StaffContext{
		StaffID:     staffID,
		AuthID:      "auth-test",
		DisplayName: "Test Staff",
		Email:       "staff@example.com",
		Role:        role,
	}
	return auth.WithStaffContext(ctx, staffCtx)
}
