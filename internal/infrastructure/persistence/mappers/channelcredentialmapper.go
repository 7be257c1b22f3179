package mappers

import (
	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	vo "github.com/hatchery-inc/hatchery/internal/domain/channel/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/persistence/models"
)

func ChannelCredentialToModel(c *channel.ChannelCredential) *models.ChannelCredentialModel {
	blob := c.Blob()
	return &models.ChannelCredentialModel{
		ID:             c.ID(),
		SID:            c.SID(),
		SubscriptionID: c.SubscriptionID(),
		ChannelType:    c.ChannelType().String(),
		IV:             blob.IV,
		Ciphertext:     blob.Ciphertext,
		AlgorithmID:    blob.AlgorithmID,
		IsActive:       c.IsActive(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}

func ChannelCredentialToDomain(m *models.ChannelCredentialModel) (*channel.ChannelCredential, error) {
	return channel.ReconstructChannelCredential(channel.ChannelCredentialReconstructParams{
		ID:             m.ID,
		SID:            m.SID,
		SubscriptionID: m.SubscriptionID,
		ChannelType:    vo.ChannelType(m.ChannelType),
		Blob: vo.EncryptedBlob{
			IV:          m.IV,
			Ciphertext:  m.Ciphertext,
			AlgorithmID: m.AlgorithmID,
		},
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	})
}
