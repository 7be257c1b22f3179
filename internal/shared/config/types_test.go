package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveLockTTL(t *testing.T) {
	tests := []struct {
		name         string
		provisioning ProvisioningConfig
		controlPlane ControlPlaneConfig
		want         time.Duration
	}{
		{
			name:         "configured TTL covers the longest step",
			provisioning: ProvisioningConfig{LockTTLSeconds: 300},
			controlPlane: ControlPlaneConfig{TimeoutSeconds: 30},
			want:         300 * time.Second,
		},
		{
			name:         "short TTL is raised to two calls plus margin",
			provisioning: ProvisioningConfig{LockTTLSeconds: 20},
			controlPlane: ControlPlaneConfig{TimeoutSeconds: 60},
			want:         150 * time.Second,
		},
		{
			name:         "defaults",
			provisioning: ProvisioningConfig{},
			controlPlane: ControlPlaneConfig{},
			want:         2 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provisioning.EffectiveLockTTL(&tt.controlPlane))
		})
	}
}
