package database

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/servicehub/marketplace/shared/models"
	"gorm.io/gorm"
)

func TestAutoMigrateAndUniqueViolation(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	first := &models.Account{ID: "acc-1", Username: "alice", PasswordHash: "x", Role: models.RoleCustomer}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	second := &models.Account{ID: "acc-2", Username: "alice", PasswordHash: "x", Role: models.RoleCustomer}
	err = db.Create(second).Error
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"pq 23505", &pq.Error{Code: "23505"}, true},
		{"pq other", &pq.Error{Code: "23503"}, false},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
