package valueobjects

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ChannelConfig is the decrypted, validated configuration of one messaging channel.
type ChannelConfig interface {
	Type() ChannelType
}

type FeishuConfig struct {
	AppID             string `json:"appId" mapstructure:"appId" validate:"required"`
	Secret            string `json:"secret" mapstructure:"secret" validate:"required"`
	VerificationToken string `json:"verificationToken,omitempty" mapstructure:"verificationToken"`
	EncryptKey        string `json:"encryptKey,omitempty" mapstructure:"encryptKey"`
}

func (FeishuConfig) Type() ChannelType { return ChannelFeishu }

type DingTalkConfig struct {
	AppKey    string `json:"appKey" mapstructure:"appKey" validate:"required"`
	Secret    string `json:"secret" mapstructure:"secret" validate:"required"`
	RobotCode string `json:"robotCode,omitempty" mapstructure:"robotCode"`
}

func (DingTalkConfig) Type() ChannelType { return ChannelDingTalk }

type WeComConfig struct {
	CorpID  string `json:"corpId" mapstructure:"corpId" validate:"required"`
	AgentID string `json:"agentId" mapstructure:"agentId" validate:"required"`
	Secret  string `json:"secret" mapstructure:"secret" validate:"required"`
	Token   string `json:"token,omitempty" mapstructure:"token"`
	AESKey  string `json:"aesKey,omitempty" mapstructure:"aesKey"`
}

func (WeComConfig) Type() ChannelType { return ChannelWeCom }

type TelegramConfig struct {
	Token         string `json:"token" mapstructure:"token" validate:"required"`
	WebhookSecret string `json:"webhookSecret,omitempty" mapstructure:"webhookSecret"`
}

func (TelegramConfig) Type() ChannelType { return ChannelTelegram }

// MissingFieldsError lists required fields absent from a channel configuration.
type MissingFieldsError struct {
	Channel ChannelType
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("channel %s is missing required fields: %s", e.Channel, strings.Join(e.Missing, ", "))
}

var ErrUnsupportedChannel = errors.New("unsupported channel type")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// DecodeChannelConfig turns a decrypted credential map into its typed variant
// and validates the required fields. Unknown keys are ignored and scalar
// values are coerced to strings.
func DecodeChannelConfig(t ChannelType, raw map[string]any) (ChannelConfig, error) {
	var target ChannelConfig
	switch t {
	case ChannelFeishu:
		target = &FeishuConfig{}
	case ChannelDingTalk:
		target = &DingTalkConfig{}
	case ChannelWeCom:
		target = &WeComConfig{}
	case ChannelTelegram:
		target = &TelegramConfig{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, t)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", t, err)
	}

	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return nil, &MissingFieldsError{Channel: t, Missing: missing}
		}
		return nil, err
	}

	return reflect.ValueOf(target).Elem().Interface().(ChannelConfig), nil
}

// ConfigField is one named value of a channel configuration.
type ConfigField struct {
	Name  string
	Value string
}

// Fields lists the non-empty fields of cfg in declaration order, keyed by
// their JSON name.
func Fields(cfg ChannelConfig) []ConfigField {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	fields := make([]ConfigField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		value := v.Field(i).String()
		if value == "" {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		fields = append(fields, ConfigField{Name: name, Value: value})
	}
	return fields
}

// EnvName converts a camelCase field name to UPPER_SNAKE, e.g. "appId" -> "APP_ID".
func EnvName(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
