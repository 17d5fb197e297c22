package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/storage"
)

func backends(t *testing.T) map[string]storage.Store {
	t.Helper()

	sqliteStore, err := storage.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "hostprompt.db"))
	require.NoError(t, err)
	t.Cleanup(sqliteStore.Close)

	return map[string]storage.Store{
		"memory": storage.NewInMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func seedProperty(t *testing.T, s storage.Store, owner string) storage.Property {
	t.Helper()
	p, err := s.CreateProperty(context.Background(), storage.Property{
		OwnerID:       owner,
		Name:          " Seaside Cottage ",
		Location:      "Cannon Beach, OR",
		Bedrooms:      2,
		Bathrooms:     1.5,
		Amenities:     []string{"hot tub", " ", "fire pit"},
		SavedHashtags: []string{"#beachhouse", "sunset views", "BeachHouse"},
	})
	require.NoError(t, err)
	return p
}

func TestPropertyLifecycle(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := seedProperty(t, s, "owner-1")

			assert.NotEmpty(t, p.ID)
			assert.Equal(t, "Seaside Cottage", p.Name)
			assert.Equal(t, storage.StatusActive, p.Status)
			assert.Equal(t, []string{"hot tub", "fire pit"}, p.Amenities)
			assert.Equal(t, []string{"beachhouse", "sunsetviews"}, p.SavedHashtags)

			got, err := s.GetProperty(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, p.Name, got.Name)
			assert.Equal(t, 1.5, got.Bathrooms)
			assert.Empty(t, got.Photos)

			got.HostSignature = "Maya & Theo"
			got.UseBrandVoiceDefault = true
			updated, err := s.UpdateProperty(ctx, got)
			require.NoError(t, err)
			assert.Equal(t, "Maya & Theo", updated.HostSignature)
			assert.True(t, updated.UseBrandVoiceDefault)
			assert.Equal(t, "owner-1", updated.OwnerID)

			voiced, err := s.UpdateBrandVoice(ctx, p.ID, "Laid Back", "Like texting a friend")
			require.NoError(t, err)
			assert.Equal(t, "Laid Back", voiced.BrandVoice)
			assert.Equal(t, "Like texting a friend", voiced.BrandVoiceSummary)

			seedProperty(t, s, "owner-2")
			mine, err := s.ListProperties(ctx, "owner-1")
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, p.ID, mine[0].ID)

			require.NoError(t, s.DeleteProperty(ctx, p.ID))
			_, err = s.GetProperty(ctx, p.ID)
			assert.ErrorIs(t, err, storage.ErrNotFound)
			assert.ErrorIs(t, s.DeleteProperty(ctx, p.ID), storage.ErrNotFound)
		})
	}
}

func TestPhotosKeepSinglePrimary(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := seedProperty(t, s, "owner-1")

			first, err := s.AddPhoto(ctx, p.ID, storage.Photo{URL: "https://cdn/1.jpg", Name: "deck"})
			require.NoError(t, err)
			assert.True(t, first.IsPrimary)

			second, err := s.AddPhoto(ctx, p.ID, storage.Photo{URL: "https://cdn/2.jpg", Name: "kitchen"})
			require.NoError(t, err)
			assert.False(t, second.IsPrimary)
			assert.Greater(t, second.Position, first.Position)

			third, err := s.AddPhoto(ctx, p.ID, storage.Photo{URL: "https://cdn/3.jpg", IsPrimary: true})
			require.NoError(t, err)
			assert.True(t, third.IsPrimary)

			require.NoError(t, s.SetPrimaryPhoto(ctx, p.ID, second.ID))
			got, err := s.GetProperty(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, got.Photos, 3)
			assertOnePrimary(t, got, second.ID)

			require.NoError(t, s.DeletePhoto(ctx, p.ID, second.ID))
			got, err = s.GetProperty(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, got.Photos, 2)
			assertOnePrimary(t, got, first.ID)

			assert.ErrorIs(t, s.SetPrimaryPhoto(ctx, p.ID, "missing"), storage.ErrNotFound)
			assert.ErrorIs(t, s.DeletePhoto(ctx, p.ID, "missing"), storage.ErrNotFound)
			_, err = s.AddPhoto(ctx, "missing", storage.Photo{URL: "x"})
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func assertOnePrimary(t *testing.T, p storage.Property, wantID string) {
	t.Helper()
	count := 0
	for _, photo := range p.Photos {
		if photo.IsPrimary {
			count++
			assert.Equal(t, wantID, photo.ID)
		}
	}
	assert.Equal(t, 1, count)
}

func TestSaveContentDuplicateGuard(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := seedProperty(t, s, "owner-1")

			input := storage.SavedContent{
				OwnerID:         "owner-1",
				PropertyID:      p.ID,
				ContentType:     storage.ContentSocialCaption,
				Title:           "Sunset on the deck",
				Content:         "Golden hour from the deck.\n\n#beachhouse #sunsetviews ",
				Keywords:        []string{"beachhouse", "sunsetviews"},
				CTAEnhancements: storage.CTAEnhancements{Urgency: true},
			}
			first, created, err := s.SaveContent(ctx, input)
			require.NoError(t, err)
			assert.True(t, created)

			second, created, err := s.SaveContent(ctx, input)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, first.Keywords, second.Keywords)
			assert.True(t, second.CTAEnhancements.Urgency)

			listed, err := s.ListContent(ctx, storage.ContentFilter{PropertyID: p.ID})
			require.NoError(t, err)
			assert.Len(t, listed, 1)

			input.Title = "Another title"
			_, created, err = s.SaveContent(ctx, input)
			require.NoError(t, err)
			assert.True(t, created)

			listed, err = s.ListContent(ctx, storage.ContentFilter{OwnerID: "owner-1"})
			require.NoError(t, err)
			assert.Len(t, listed, 2)

			none, err := s.ListContent(ctx, storage.ContentFilter{OwnerID: "owner-2"})
			require.NoError(t, err)
			assert.Empty(t, none)

			require.NoError(t, s.DeleteContent(ctx, first.ID))
			_, err = s.GetContent(ctx, first.ID)
			assert.ErrorIs(t, err, storage.ErrNotFound)

			_, _, err = s.SaveContent(ctx, storage.SavedContent{PropertyID: "missing", Content: "x"})
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestUsers(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u, err := s.CreateUser(ctx, storage.User{Email: " Host@Example.com ", PasswordHash: "hash"})
			require.NoError(t, err)
			assert.Equal(t, "host@example.com", u.Email)

			_, err = s.CreateUser(ctx, storage.User{Email: "host@example.com", PasswordHash: "other"})
			assert.ErrorIs(t, err, storage.ErrUserExists)

			byEmail, err := s.GetUserByEmail(ctx, "HOST@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, byEmail.ID)

			byID, err := s.GetUserByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "hash", byID.PasswordHash)

			_, err = s.GetUserByID(ctx, "missing")
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestNormalizeHashtags(t *testing.T) {
	got := storage.NormalizeHashtags([]string{"#Cabin Life", "##cabinlife", "", "  #  ", "lake"})
	assert.Equal(t, []string{"CabinLife", "lake"}, got)
}

func TestContentTypeHelpers(t *testing.T) {
	assert.True(t, storage.ContentSocialCaption.Valid())
	assert.False(t, storage.ContentBookingGapSpecial.Valid())
	assert.False(t, storage.ContentType("poem").Valid())
	assert.True(t, storage.ContentHouseRules.GuestFacing())
	assert.False(t, storage.ContentListingDescription.GuestFacing())
	assert.Equal(t, "Welcome Message", storage.ContentWelcomeMessage.Label())
}

func TestNewStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := storage.NewStore(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &storage.InMemoryStore{}, mem)

	lite, err := storage.NewStore(ctx, "sqlite:"+filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer lite.Close()
	assert.IsType(t, &storage.SQLiteStore{}, lite)

	_, err = storage.NewStore(ctx, "mysql://nope")
	assert.Error(t, err)
}
