package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatchery-inc/hatchery/internal/domain/channel"
	vo "github.com/hatchery-inc/hatchery/internal/domain/channel/valueobjects"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

func TestChannelCredentialRepository_ListActive(t *testing.T) {
	repo := NewChannelCredentialRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()
	blob := vo.EncryptedBlob{IV: "aXY=", Ciphertext: "Y3Q=", AlgorithmID: "aes-256-gcm"}

	tg, err := channel.NewChannelCredential(1, vo.ChannelTelegram, blob)
	require.NoError(t, err)
	fs, err := channel.NewChannelCredential(1, vo.ChannelFeishu, blob)
	require.NoError(t, err)
	other, err := channel.NewChannelCredential(2, vo.ChannelWeCom, blob)
	require.NoError(t, err)
	for _, c := range []*channel.ChannelCredential{tg, fs, other} {
		require.NoError(t, repo.Create(ctx, c))
	}

	tg.Deactivate()
	require.NoError(t, repo.Update(ctx, tg))

	list, err := repo.ListActiveBySubscription(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vo.ChannelFeishu, list[0].ChannelType())
	assert.Equal(t, blob, list[0].Blob())
}
