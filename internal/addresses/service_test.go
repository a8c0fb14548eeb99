package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/database/dbtest"
	"github.com/example/sunik/internal/models"
)

func validInput(name string) Input {
	return Input{
		FullName:    name,
		Phone:       "081234567890",
		StreetName:  "Jalan Merdeka No. 10",
		Landmark:    "Near the mosque",
		AddressType: models.AddressHome,
		Province:    "Jawa Barat",
		City:        "Bandung",
		PostalCode:  "40111",
		Location:    LocationInput{Lat: -6.9, Lng: 107.6, Address: "Jl. Merdeka"},
	}
}

func primaries(items []models.SavedAddress) int {
	n := 0
	for _, it := range items {
		if it.IsPrimary {
			n++
		}
	}
	return n
}

func TestAddFirstAddressBecomesPrimary(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Add(ctx, user, validInput("Alice Home"))
	require.NoError(t, err)
	second, err := svc.Add(ctx, user, validInput("Alice Office"))
	require.NoError(t, err)

	assert.True(t, first.IsPrimary)
	assert.False(t, second.IsPrimary)
	assert.Equal(t, -6.9, first.Location.Data().Lat)
}

func TestSetPrimaryKeepsExactlyOne(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	_, err := svc.Add(ctx, user, validInput("One"))
	require.NoError(t, err)
	second, err := svc.Add(ctx, user, validInput("Two"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, validInput("Three"))
	require.NoError(t, err)

	_, err = svc.SetPrimary(ctx, user, second.ID)
	require.NoError(t, err)

	items, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 1, primaries(items))
	assert.Equal(t, second.ID, items[0].ID, "primary is listed first")

	primary, err := svc.Primary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)
}

func TestSetPrimaryDoesNotTouchOtherUsers(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	_, err := svc.Add(ctx, alice, validInput("Alice"))
	require.NoError(t, err)
	bobs, err := svc.Add(ctx, bob, validInput("Bobby"))
	require.NoError(t, err)

	_, err = svc.SetPrimary(ctx, alice, bobs.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	primary, err := svc.Primary(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", primary.FullName)
}

func TestDeletePrimaryLeavesNone(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	first, err := svc.Add(ctx, user, validInput("One"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, validInput("Two"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user, first.ID))

	_, err = svc.Primary(ctx, user)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	items, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDeleteUnknownAddress(t *testing.T) {
	svc := NewService(dbtest.Open(t))

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())

	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestAddValidatesFields(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	in := validInput("Al")
	in.StreetName = "short"
	in.AddressType = "castle"

	_, err := svc.Add(context.Background(), uuid.New(), in)

	typed := apperrors.As(err)
	require.NotNil(t, typed)
	details := typed.Details().(map[string]string)
	assert.Contains(t, details, "full_name")
	assert.Contains(t, details, "street_name")
	assert.Contains(t, details, "address_type")
}

func TestUpdateKeepsPrimaryFlag(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	addr, err := svc.Add(ctx, user, validInput("One"))
	require.NoError(t, err)

	in := validInput("One Renamed")
	updated, err := svc.Update(ctx, user, addr.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "One Renamed", updated.FullName)
	assert.True(t, updated.IsPrimary)
}
