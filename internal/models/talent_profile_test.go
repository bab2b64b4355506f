package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTalentProfile_Age(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dob := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name string
		dob  *time.Time
		want int
	}{
		{"no birth date", nil, -1},
		{"birthday passed", dob(2000, 1, 5), 26},
		{"birthday today", dob(2000, 3, 10), 26},
		{"birthday tomorrow", dob(2000, 3, 11), 25},
		{"leap day", dob(2004, 2, 29), 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := TalentProfile{DateOfBirth: tt.dob}
			assert.Equal(t, tt.want, p.Age(now))
		})
	}
}

func TestTalentProfile_IsPublic(t *testing.T) {
	now := time.Now()
	assert.True(t, (&TalentProfile{}).IsPublic())
	assert.False(t, (&TalentProfile{IsHidden: true}).IsPublic())
	assert.False(t, (&TalentProfile{DeletedAt: &now}).IsPublic())
}

func TestRoles(t *testing.T) {
	assert.True(t, ValidRole(RoleSuperAdmin))
	assert.False(t, ValidRole("owner"))
	assert.True(t, IsAdminRole(RoleAdmin))
	assert.False(t, IsAdminRole(RoleUser))
	assert.True(t, ValidCategory("dancer"))
	assert.False(t, ValidCategory("juggler"))
	assert.True(t, ValidFieldType(FieldTypeDropdown))
	assert.False(t, ValidFieldType("date"))
}
