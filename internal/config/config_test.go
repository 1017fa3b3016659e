package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 600*time.Second, cfg.ResultInterval)
	assert.Equal(t, 336*time.Hour, cfg.ReferralMaturation)
	assert.Equal(t, 0.20, cfg.ReferralRate)
	assert.Equal(t, 50.0, cfg.PayoutThresholdUSD)
}

func TestLoadOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("PORT", "9000")
	os.Setenv("RECONCILE_INTERVAL", "10s")
	os.Setenv("REFERRAL_RATE", "0.25")
	os.Setenv("STORAGE_TYPE", "s3")
	defer os.Clearenv()

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 0.25, cfg.ReferralRate)
	assert.Equal(t, "s3", cfg.Storage.Type)
}

func TestGetEnvFloatInvalid(t *testing.T) {
	os.Setenv("REFERRAL_RATE", "not-a-number")
	defer os.Unsetenv("REFERRAL_RATE")

	cfg := Load()

	assert.Equal(t, 0.20, cfg.ReferralRate)
}
