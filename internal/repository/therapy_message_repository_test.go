package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/model"
	"mindhaven/internal/testutil"
)

func TestTherapyMessageRepository(t *testing.T) {
	repo := NewTherapyMessageRepository(testutil.NewDB(t))
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &model.TherapyMessage{
			UserID:    1,
			Role:      model.RoleUser,
			Content:   fmt.Sprintf("m%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &model.TherapyMessage{UserID: 2, Role: model.RoleUser, Content: "other", CreatedAt: base}))

	all, err := repo.ListByUserID(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "m0", all[0].Content)

	recent, err := repo.ListRecentByUserID(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "m3", recent[0].Content)
	assert.Equal(t, "m4", recent[1].Content)

	require.NoError(t, repo.DeleteByUserID(ctx, 1))
	all, err = repo.ListByUserID(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, all)

	others, err := repo.ListByUserID(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
