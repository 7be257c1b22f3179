package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	channelvo "github.com/hatchery-inc/hatchery/internal/domain/channel/valueobjects"
	subvo "github.com/hatchery-inc/hatchery/internal/domain/subscription/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// CredentialDecryptor opens an encrypted channel credential.
type CredentialDecryptor interface {
	Decrypt(blob channelvo.EncryptedBlob) (map[string]any, error)
}

// ConfigurationError reports a channel setup the tier or the channel schema
// does not accept. It is never retried.
type ConfigurationError struct {
	Channel channelvo.ChannelType
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("channel %s is missing required fields: %s", e.Channel, strings.Join(e.Missing, ", "))
	case e.Channel != "":
		return fmt.Sprintf("channel %s: %s", e.Channel, e.Reason)
	default:
		return e.Reason
	}
}

// ComposeInput describes the tenant an environment is built for. When
// Credentials is nil the active credentials of the subscription are loaded.
type ComposeInput struct {
	SubscriptionID uint
	PlanTier       subvo.PlanTier
	OwnerID        uint
	InstanceName   string
	CreatedAt      time.Time
	Credentials    []*channel.ChannelCredential
}

const (
	EnvExecutionMode     = "EXECUTION_MODE"
	EnvInstanceName      = "INSTANCE_NAME"
	EnvOwnerID           = "OWNER_ID"
	EnvSubscriptionID    = "SUBSCRIPTION_ID"
	EnvPlanTier          = "PLAN_TIER"
	EnvInstanceCreatedAt = "INSTANCE_CREATED_AT"
	EnvMaxChannels       = "MAX_CHANNELS"
	EnvMaxFeatureQuota   = "MAX_FEATURE_QUOTA"
	EnvStorageQuotaMB    = "STORAGE_QUOTA_MB"
	EnvEnabledChannels   = "ENABLED_CHANNELS"

	executionModeProduction = "production"
	unlimitedValue          = "unlimited"
)

// EnvironmentComposer builds the variable set of a tenant deployment from
// the subscription and its decrypted channel credentials.
type EnvironmentComposer struct {
	credentialRepo channel.ChannelCredentialRepository
	decryptor      CredentialDecryptor
	logger         logger.Interface
}

func NewEnvironmentComposer(
	credentialRepo channel.ChannelCredentialRepository,
	decryptor CredentialDecryptor,
	logger logger.Interface,
) *EnvironmentComposer {
	return &EnvironmentComposer{
		credentialRepo: credentialRepo,
		decryptor:      decryptor,
		logger:         logger,
	}
}

// Compose returns the environment for in. All channels are decoded and
// validated before anything is emitted, so a single bad channel yields no
// partial environment.
func (c *EnvironmentComposer) Compose(ctx context.Context, in ComposeInput) (map[string]string, error) {
	if !in.PlanTier.IsValid() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown plan tier %q", in.PlanTier)}
	}

	credentials := in.Credentials
	if credentials == nil {
		loaded, err := c.credentialRepo.ListActiveBySubscription(ctx, in.SubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load channel credentials: %w", err)
		}
		credentials = loaded
	}

	configs, err := c.decodeChannels(credentials)
	if err != nil {
		return nil, err
	}

	if limit, unbounded := in.PlanTier.ChannelLimit(); !unbounded && len(configs) > limit {
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("plan %s allows %d channel(s), %d configured", in.PlanTier, limit, len(configs)),
		}
	}

	limits := in.PlanTier.Limits()
	env := map[string]string{
		EnvExecutionMode:     executionModeProduction,
		EnvInstanceName:      in.InstanceName,
		EnvOwnerID:           strconv.FormatUint(uint64(in.OwnerID), 10),
		EnvSubscriptionID:    strconv.FormatUint(uint64(in.SubscriptionID), 10),
		EnvPlanTier:          in.PlanTier.String(),
		EnvInstanceCreatedAt: in.CreatedAt.UTC().Format(time.RFC3339),
		EnvMaxChannels:       formatLimit(limits.MaxChannels),
		EnvMaxFeatureQuota:   formatLimit(limits.FeatureQuota),
		EnvStorageQuotaMB:    formatLimit(limits.StorageQuotaMB),
	}

	enabled := make([]string, 0, len(configs))
	for _, cfg := range configs {
		prefix := cfg.Type().EnvPrefix()

		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s config: %w", cfg.Type(), err)
		}
		env[prefix+"_CONFIG"] = string(raw)

		for _, f := range channelvo.Fields(cfg) {
			env[prefix+"_"+channelvo.EnvName(f.Name)] = f.Value
		}
		enabled = append(enabled, cfg.Type().String())
	}
	sort.Strings(enabled)
	env[EnvEnabledChannels] = strings.Join(enabled, ",")

	c.logger.Debugw("environment composed",
		"subscription_id", in.SubscriptionID,
		"channels", enabled,
		"variables", len(env))

	return env, nil
}

func (c *EnvironmentComposer) decodeChannels(credentials []*channel.ChannelCredential) ([]channelvo.ChannelConfig, error) {
	seen := make(map[channelvo.ChannelType]bool, len(credentials))
	configs := make([]channelvo.ChannelConfig, 0, len(credentials))

	for _, cred := range credentials {
		if !cred.IsActive() {
			continue
		}
		t := cred.ChannelType()
		if seen[t] {
			return nil, &ConfigurationError{Channel: t, Reason: "configured more than once"}
		}
		seen[t] = true

		plain, err := c.decryptor.Decrypt(cred.Blob())
		if err != nil {
			c.logger.Errorw("failed to decrypt channel credential", "credential_id", cred.ID(), "channel", t, "error", err)
			return nil, err
		}

		cfg, err := channelvo.DecodeChannelConfig(t, plain)
		if err != nil {
			var missing *channelvo.MissingFieldsError
			if errors.As(err, &missing) {
				return nil, &ConfigurationError{Channel: t, Missing: missing.Missing}
			}
			return nil, &ConfigurationError{Channel: t, Reason: err.Error()}
		}
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].Type() < configs[j].Type() })
	return configs, nil
}

func formatLimit(v int) string {
	if v == subvo.Unlimited {
		return unlimitedValue
	}
	return strconv.Itoa(v)
}
