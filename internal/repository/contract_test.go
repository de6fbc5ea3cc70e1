package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/customer-sync/internal/model"
	"github.com/unclebandit/customer-sync/internal/repository"
)

// runCustomerCacheContract checks the behaviour every cache backend shares.
// reopen must return a repository over the same underlying storage.
func runCustomerCacheContract(t *testing.T, repo repository.CustomerRepositoryInterface, reopen func() repository.CustomerRepositoryInterface) {
	ctx := context.Background()
	require.NoError(t, repo.Open(ctx, 1))

	t.Run("empty cache", func(t *testing.T) {
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		c, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("upsert overwrites by id", func(t *testing.T) {
		n, err := repo.UpsertAll(ctx, []model.Customer{
			{ID: 2, Name: "Bob", Email: "bob@example.com"},
			{ID: 1, Name: "Alice", Mobile: "0700"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = repo.UpsertAll(ctx, []model.Customer{{ID: 2, Name: "Bobby", CgID: "cg-2"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, model.Customer{ID: 2, Name: "Bobby", CgID: "cg-2"}, *got)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 1, all[0].ID)
		assert.Equal(t, 2, all[1].ID)
	})

	t.Run("repeated upsert is idempotent", func(t *testing.T) {
		c := model.Customer{ID: 3, Name: "Carol"}
		_, err := repo.UpsertAll(ctx, []model.Customer{c})
		require.NoError(t, err)
		_, err = repo.UpsertAll(ctx, []model.Customer{c})
		require.NoError(t, err)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("same schema version keeps data", func(t *testing.T) {
		again := reopen()
		require.NoError(t, again.Open(ctx, 1))

		all, err := again.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("schema mismatch rebuilds", func(t *testing.T) {
		again := reopen()
		require.NoError(t, again.Open(ctx, 2))

		all, err := again.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		n, err := again.UpsertAll(ctx, []model.Customer{{ID: 9, Name: "Ivy"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
