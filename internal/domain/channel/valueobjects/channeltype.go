package valueobjects

import (
	"fmt"
	"strings"
)

type ChannelType string

const (
	ChannelFeishu   ChannelType = "feishu"
	ChannelDingTalk ChannelType = "dingtalk"
	ChannelWeCom    ChannelType = "wecom"
	ChannelTelegram ChannelType = "telegram"
)

var validChannelTypes = map[ChannelType]bool{
	ChannelFeishu:   true,
	ChannelDingTalk: true,
	ChannelWeCom:    true,
	ChannelTelegram: true,
}

func ParseChannelType(s string) (ChannelType, error) {
	t := ChannelType(strings.ToLower(strings.TrimSpace(s)))
	if !validChannelTypes[t] {
		return "", fmt.Errorf("unsupported channel type: %q", s)
	}
	return t, nil
}

func (t ChannelType) String() string {
	return string(t)
}

func (t ChannelType) IsValid() bool {
	return validChannelTypes[t]
}

// EnvPrefix is the upper-case prefix of the channel's environment variables.
func (t ChannelType) EnvPrefix() string {
	return strings.ToUpper(string(t))
}
