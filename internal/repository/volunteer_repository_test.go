package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FGuerriero/get-volunteers-backend/internal/db"
	svcErr "github.com/FGuerriero/get-volunteers-backend/internal/errors"
	"github.com/FGuerriero/get-volunteers-backend/internal/repository"
)

func strPtr(s string) *string { return &s }

func TestVolunteerCreateAndGet(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	v := &db.Volunteer{Name: "Alice", Email: "alice@test.com", Password: "x", Skills: "Gardening", Active: true}
	require.NoError(t, repo.Create(ctx, v))
	require.NotZero(t, v.ID)

	got, err := repo.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "Gardening", got.Skills)

	byEmail, err := repo.GetByEmail(ctx, "alice@test.com")
	require.NoError(t, err)
	assert.Equal(t, v.ID, byEmail.ID)
}

func TestVolunteerDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	seedVolunteer(t, gdb, "Alice", "alice@test.com")

	err := repo.Create(ctx, &db.Volunteer{Name: "Imposter", Email: "alice@test.com", Password: "x"})
	assert.True(t, svcErr.IsDuplicate(err))
}

func TestVolunteerGetMissing(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	_, err := repo.Get(ctx, 12345)
	assert.True(t, svcErr.IsNotFound(err))
}

func TestVolunteerList(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	seedVolunteer(t, gdb, "Alice", "alice@test.com")
	seedVolunteer(t, gdb, "Bob", "bob@test.com")

	volunteers, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, volunteers, 2)
	assert.Equal(t, "Alice", volunteers[0].Name)
}

func TestVolunteerUpdateMergesOnlySetFields(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	v := seedVolunteer(t, gdb, "Alice", "alice@test.com")

	updated, err := repo.Update(ctx, v.ID, repository.VolunteerUpdate{
		Skills:    strPtr("Gardening, Teaching"),
		Interests: strPtr("Environment"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Gardening, Teaching", updated.Skills)
	assert.Equal(t, "Environment", updated.Interests)
	// untouched fields keep their values
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "alice@test.com", updated.Email)
}

func TestVolunteerUpdateNoChanges(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	v := seedVolunteer(t, gdb, "Alice", "alice@test.com")

	updated, err := repo.Update(ctx, v.ID, repository.VolunteerUpdate{})
	require.NoError(t, err)
	assert.Equal(t, v.ID, updated.ID)
}

func TestVolunteerDeleteCascadesMatches(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	volunteers := repository.NewVolunteerRepository(gdb)
	matches := repository.NewMatchRepository(gdb)

	v := seedVolunteer(t, gdb, "Alice", "alice@test.com")
	n := seedNeed(t, gdb, "Garden Cleanup", v.ID)

	_, err := matches.Create(ctx, v.ID, n.ID, "fit")
	require.NoError(t, err)

	require.NoError(t, volunteers.Delete(ctx, v.ID))

	_, err = volunteers.Get(ctx, v.ID)
	assert.True(t, svcErr.IsNotFound(err))

	left, err := matches.ListByVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestVolunteerDeleteMissing(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewVolunteerRepository(gdb)

	err := repo.Delete(ctx, 999)
	assert.True(t, svcErr.IsNotFound(err))
}
