package channel

import (
	"fmt"
	"time"

	vo "github.com/hatchery-inc/hatchery/internal/domain/channel/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/id"
)

// ChannelCredential is an encrypted messaging-channel configuration attached
// to a subscription. Plaintext never leaves the vault and composer.
type ChannelCredential struct {
	id             uint
	sid            string
	subscriptionID uint
	channelType    vo.ChannelType
	blob           vo.EncryptedBlob
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

func NewChannelCredential(subscriptionID uint, channelType vo.ChannelType, blob vo.EncryptedBlob) (*ChannelCredential, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if !channelType.IsValid() {
		return nil, fmt.Errorf("%w: %s", vo.ErrUnsupportedChannel, channelType)
	}
	if blob.IsZero() {
		return nil, fmt.Errorf("encrypted blob is required")
	}

	sid, err := id.NewCredentialID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential ID: %w", err)
	}

	now := time.Now().UTC()
	return &ChannelCredential{
		sid:            sid,
		subscriptionID: subscriptionID,
		channelType:    channelType,
		blob:           blob,
		isActive:       true,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

type ChannelCredentialReconstructParams struct {
	ID             uint
	SID            string
	SubscriptionID uint
	ChannelType    vo.ChannelType
	Blob           vo.EncryptedBlob
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ReconstructChannelCredential(p ChannelCredentialReconstructParams) (*ChannelCredential, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("credential ID cannot be zero")
	}
	if !p.ChannelType.IsValid() {
		return nil, fmt.Errorf("%w: %s", vo.ErrUnsupportedChannel, p.ChannelType)
	}

	return &ChannelCredential{
		id:             p.ID,
		sid:            p.SID,
		subscriptionID: p.SubscriptionID,
		channelType:    p.ChannelType,
		blob:           p.Blob,
		isActive:       p.IsActive,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (c *ChannelCredential) ID() uint {
	return c.id
}

func (c *ChannelCredential) SID() string {
	return c.sid
}

func (c *ChannelCredential) SubscriptionID() uint {
	return c.subscriptionID
}

func (c *ChannelCredential) ChannelType() vo.ChannelType {
	return c.channelType
}

func (c *ChannelCredential) Blob() vo.EncryptedBlob {
	return c.blob
}

func (c *ChannelCredential) IsActive() bool {
	return c.isActive
}

func (c *ChannelCredential) CreatedAt() time.Time {
	return c.createdAt
}

func (c *ChannelCredential) UpdatedAt() time.Time {
	return c.updatedAt
}

// SetID sets the credential ID (only for persistence layer use)
func (c *ChannelCredential) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("credential ID is already set")
	}
	c.id = id
	return nil
}

// Rotate replaces the stored ciphertext, e.g. after the tenant edits the channel.
func (c *ChannelCredential) Rotate(blob vo.EncryptedBlob) error {
	if blob.IsZero() {
		return fmt.Errorf("encrypted blob is required")
	}
	c.blob = blob
	c.updatedAt = time.Now().UTC()
	return nil
}

func (c *ChannelCredential) Deactivate() {
	if !c.isActive {
		return
	}
	c.isActive = false
	c.updatedAt = time.Now().UTC()
}
