package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleOnAssigned(t *testing.T) {
	assert.Equal(t, RoleTenant, RoleOnAssigned(RoleApplicant))
	assert.Equal(t, RoleTenant, RoleOnAssigned(RoleTenant), "re-onboarding keeps tenant")
	assert.Equal(t, RoleOwner, RoleOnAssigned(RoleOwner), "owners are never reclassified")
	assert.Equal(t, RoleAdmin, RoleOnAssigned(RoleAdmin))
}

func TestRoleOnRemoved(t *testing.T) {
	assert.Equal(t, RoleApplicant, RoleOnRemoved(RoleTenant))
	assert.Equal(t, RoleApplicant, RoleOnRemoved(RoleApplicant))
	assert.Equal(t, RoleOwner, RoleOnRemoved(RoleOwner))
	assert.Equal(t, RoleAdmin, RoleOnRemoved(RoleAdmin))
}

func TestOnboardingCanDecide(t *testing.T) {
	assert.True(t, OnboardingCanDecide(OnboardingPending))
	assert.False(t, OnboardingCanDecide(OnboardingApproved))
	assert.False(t, OnboardingCanDecide(OnboardingRejected))
}
