package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	channelvo "github.com/hatchery-inc/hatchery/internal/domain/channel/valueobjects"
	subvo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/vault"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
	"github.com/hatchery-inc/hatchery/internal/shared/utils"
)

type fakeCredentialRepo struct {
	credentials []*channel.ChannelCredential
	listCalls   int
}

func (r *fakeCredentialRepo) Create(ctx context.Context, c *channel.ChannelCredential) error {
	r.credentials = append(r.credentials, c)
	return nil
}

func (r *fakeCredentialRepo) Update(ctx context.Context, c *channel.ChannelCredential) error {
	return nil
}

func (r *fakeCredentialRepo) ListActiveBySubscription(ctx context.Context, subscriptionID uint) ([]*channel.ChannelCredential, error) {
	r.listCalls++
	return r.credentials, nil
}

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New("composer-test-secret", vault.AlgorithmAES256GCM)
	require.NoError(t, err)
	return v
}

func sealCredential(t *testing.T, v *vault.Vault, ct channelvo.ChannelType, plain map[string]any) *channel.ChannelCredential {
	t.Helper()
	blob, err := v.Encrypt(plain)
	require.NoError(t, err)
	c, err := channel.NewChannelCredential(1, ct, blob)
	require.NoError(t, err)
	return c
}

var composeCreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func composeInput(tier subvo.PlanTier, creds []*channel.ChannelCredential) ComposeInput {
	return ComposeInput{
		SubscriptionID: 1,
		PlanTier:       tier,
		OwnerID:        42,
		InstanceName:   "hatch-pro-1",
		CreatedAt:      composeCreatedAt,
		Credentials:    creds,
	}
}

func TestCompose_SystemAndChannelVariables(t *testing.T) {
	v := newTestVault(t)
	composer := NewEnvironmentComposer(&fakeCredentialRepo{}, v, logger.NewNopLogger())

	creds := []*channel.ChannelCredential{
		sealCredential(t, v, channelvo.ChannelTelegram, map[string]any{"token": "tg-token"}),
		sealCredential(t, v, channelvo.ChannelFeishu, map[string]any{"appId": "cli_a1", "secret": "fs-secret"}),
	}

	env, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierPro, creds))
	require.NoError(t, err)

	assert.Equal(t, "production", env[EnvExecutionMode])
	assert.Equal(t, "hatch-pro-1", env[EnvInstanceName])
	assert.Equal(t, "42", env[EnvOwnerID])
	assert.Equal(t, "1", env[EnvSubscriptionID])
	assert.Equal(t, "pro", env[EnvPlanTier])
	assert.Equal(t, "2026-03-01T12:00:00Z", env[EnvInstanceCreatedAt])
	assert.Equal(t, "5", env[EnvMaxChannels])
	assert.Equal(t, "10000", env[EnvMaxFeatureQuota])
	assert.Equal(t, "10240", env[EnvStorageQuotaMB])

	assert.Equal(t, "cli_a1", env["FEISHU_APP_ID"])
	assert.Equal(t, "fs-secret", env["FEISHU_SECRET"])
	assert.NotContains(t, env, "FEISHU_ENCRYPT_KEY")
	assert.Equal(t, "tg-token", env["TELEGRAM_TOKEN"])
	assert.Equal(t, "feishu,telegram", env[EnvEnabledChannels])

	var feishu map[string]string
	require.NoError(t, json.Unmarshal([]byte(env["FEISHU_CONFIG"]), &feishu))
	assert.Equal(t, map[string]string{"appId": "cli_a1", "secret": "fs-secret"}, feishu)
}

func TestCompose_Deterministic(t *testing.T) {
	v := newTestVault(t)
	composer := NewEnvironmentComposer(&fakeCredentialRepo{}, v, logger.NewNopLogger())
	creds := []*channel.ChannelCredential{
		sealCredential(t, v, channelvo.ChannelWeCom, map[string]any{"corpId": "c", "agentId": 1000002, "secret": "s"}),
		sealCredential(t, v, channelvo.ChannelDingTalk, map[string]any{"appKey": "k", "secret": "s"}),
	}

	first, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierEnterprise, creds))
	require.NoError(t, err)
	second, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierEnterprise, creds))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "1000002", first["WECOM_AGENT_ID"])
	assert.Equal(t, "unlimited", first[EnvMaxChannels])
	assert.Equal(t, "dingtalk,wecom", first[EnvEnabledChannels])
}

func TestCompose_MissingFieldsAbortsWithoutOutput(t *testing.T) {
	v := newTestVault(t)
	composer := NewEnvironmentComposer(&fakeCredentialRepo{}, v, logger.NewNopLogger())
	creds := []*channel.ChannelCredential{
		sealCredential(t, v, channelvo.ChannelFeishu, map[string]any{"appId": "cli_a1"}),
	}

	env, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierPro, creds))

	assert.Nil(t, env)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, channelvo.ChannelFeishu, cfgErr.Channel)
	assert.Equal(t, []string{"secret"}, cfgErr.Missing)
}

func TestCompose_TooManyChannelsForTier(t *testing.T) {
	v := newTestVault(t)
	composer := NewEnvironmentComposer(&fakeCredentialRepo{}, v, logger.NewNopLogger())
	creds := []*channel.ChannelCredential{
		sealCredential(t, v, channelvo.ChannelTelegram, map[string]any{"token": "t"}),
		sealCredential(t, v, channelvo.ChannelDingTalk, map[string]any{"appKey": "k", "secret": "s"}),
	}

	_, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierBasic, creds))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "allows 1 channel")
}

func TestCompose_CryptoErrorAborts(t *testing.T) {
	v := newTestVault(t)
	other, err := vault.New("a-different-secret", vault.AlgorithmAES256GCM)
	require.NoError(t, err)
	composer := NewEnvironmentComposer(&fakeCredentialRepo{}, v, logger.NewNopLogger())

	creds := []*channel.ChannelCredential{
		sealCredential(t, other, channelvo.ChannelTelegram, map[string]any{"token": "t"}),
	}

	_, err = composer.Compose(context.Background(), composeInput(subvo.PlanTierPro, creds))

	var cryptoErr *vault.CryptoError
	assert.True(t, errors.As(err, &cryptoErr))
	assert.True(t, errors.Is(err, vault.ErrDecryptionFailed))
}

func TestCompose_LoadsCredentialsWhenNotSupplied(t *testing.T) {
	v := newTestVault(t)
	repo := &fakeCredentialRepo{}
	repo.credentials = []*channel.ChannelCredential{
		sealCredential(t, v, channelvo.ChannelTelegram, map[string]any{"token": "t"}),
	}
	composer := NewEnvironmentComposer(repo, v, logger.NewNopLogger())

	env, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierBasic, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, "telegram", env[EnvEnabledChannels])

	// an explicit empty list is not reloaded
	env, err = composer.Compose(context.Background(), composeInput(subvo.PlanTierBasic, []*channel.ChannelCredential{}))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, "", env[EnvEnabledChannels])
}

func TestCompose_RedactedSnapshotHoldsNoSecrets(t *testing.T) {
	v := newTestVault(t)
	composer := NewEnvironmentComposer(&fakeCredentialRepo{}, v, logger.NewNopLogger())

	secrets := []string{"fs-SUPERSECRET", "fs-verify", "fs-encrypt", "dt-secret", "wc-secret", "wc-token", "wc-aes", "tg-token", "tg-hook"}
	creds := []*channel.ChannelCredential{
		sealCredential(t, v, channelvo.ChannelFeishu, map[string]any{
			"appId": "cli_a1", "secret": "fs-SUPERSECRET", "verificationToken": "fs-verify", "encryptKey": "fs-encrypt",
		}),
		sealCredential(t, v, channelvo.ChannelDingTalk, map[string]any{"appKey": "dt-app", "secret": "dt-secret"}),
		sealCredential(t, v, channelvo.ChannelWeCom, map[string]any{
			"corpId": "corp", "agentId": "1000", "secret": "wc-secret", "token": "wc-token", "aesKey": "wc-aes",
		}),
		sealCredential(t, v, channelvo.ChannelTelegram, map[string]any{"token": "tg-token", "webhookSecret": "tg-hook"}),
	}

	env, err := composer.Compose(context.Background(), composeInput(subvo.PlanTierPro, creds))
	require.NoError(t, err)
	require.Contains(t, env["FEISHU_CONFIG"], "fs-SUPERSECRET")

	snapshot := utils.RedactVariables(env)
	for key, value := range snapshot {
		for _, secret := range secrets {
			assert.False(t, strings.Contains(value, secret), "%s leaks %s", key, secret)
		}
	}
	assert.Equal(t, utils.RedactedValue, snapshot["FEISHU_CONFIG"])
	assert.Equal(t, "cli_a1", snapshot["FEISHU_APP_ID"])
}
