package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Joellzt/movie-cards/internal/config"
	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := InitSQLite(":memory:")
	require.NoError(t, err)

	// :memory: 每个连接是独立的库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	repos := NewRepositories(db)
	t.Cleanup(func() { _ = repos.Close(context.Background()) })
	return repos
}

func savedRecord(userID string, movieID int, savedAt time.Time) *model.SavedMovieRecord {
	return &model.SavedMovieRecord{
		MovieID:     movieID,
		MovieTitle:  "Movie",
		MoviePoster: "https://image.tmdb.org/t/p/w500/p.jpg",
		ReleaseDate: "2024-01-01",
		VoteAverage: 7.5,
		SavedAt:     model.TimestampFromTime(savedAt),
		UserID:      userID,
	}
}

func reviewRecord(userID string, movieID int, createdAt time.Time) *model.ReviewRecord {
	return &model.ReviewRecord{
		MovieID:    movieID,
		MovieTitle: "Movie",
		Rating:     8,
		Review:     "una gran película",
		CreatedAt:  model.TimestampFromTime(createdAt),
		UserID:     userID,
		UserName:   "ana",
	}
}

// 以下测试会跑在 gorm(sqlite) 以及设置了 MONGO_TEST_URI 时的 MongoDB 上
func backends(t *testing.T) map[string]*Repositories {
	t.Helper()
	out := map[string]*Repositories{"sqlite": setupTestRepos(t)}
	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		repos, err := NewMongoRepositories(context.Background(), uri, "movie_cards_test_"+time.Now().Format("150405.000000"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = repos.Close(context.Background()) })
		out["mongo"] = repos
	}
	return out
}

func TestSavedMovie_CreateExistsDelete(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := repos.SavedMovie

			id, err := store.Create(ctx, savedRecord("u1", 550, time.Now()))
			require.NoError(t, err)
			assert.NotEmpty(t, id)

			ok, err := store.ExistsByUserAndMovie(ctx, "u1", 550)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.ExistsByUserAndMovie(ctx, "u2", 550)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Delete(ctx, id))
			ok, err = store.ExistsByUserAndMovie(ctx, "u1", 550)
			require.NoError(t, err)
			assert.False(t, ok)

			// 删除不存在的记录不报错
			assert.NoError(t, store.Delete(ctx, id))
		})
	}
}

func TestSavedMovie_ListByUserOrdersBySavedAtDesc(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

			for i, movieID := range []int{1, 2, 3} {
				_, err := repos.SavedMovie.Create(ctx, savedRecord("u1", movieID, base.Add(time.Duration(i)*time.Hour)))
				require.NoError(t, err)
			}
			_, err := repos.SavedMovie.Create(ctx, savedRecord("u2", 9, base))
			require.NoError(t, err)

			list, err := repos.SavedMovie.ListByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, 3, list[0].MovieID)
			assert.Equal(t, 2, list[1].MovieID)
			assert.Equal(t, 1, list[2].MovieID)
			assert.Equal(t, model.TimestampFromTime(base.Add(2*time.Hour)), list[0].SavedAt)
		})
	}
}

func TestSavedMovie_FindByUserAndMovieReturnsDuplicates(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := repos.SavedMovie.Create(ctx, savedRecord("u1", 7, time.Now()))
			require.NoError(t, err)
			_, err = repos.SavedMovie.Create(ctx, savedRecord("u1", 7, time.Now()))
			require.NoError(t, err)

			found, err := repos.SavedMovie.FindByUserAndMovie(ctx, "u1", 7)
			require.NoError(t, err)
			assert.Len(t, found, 2)
		})
	}
}

func TestReview_UpdateAndList(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

			id, err := repos.Review.Create(ctx, reviewRecord("u1", 42, base))
			require.NoError(t, err)
			_, err = repos.Review.Create(ctx, reviewRecord("u2", 42, base.Add(time.Hour)))
			require.NoError(t, err)
			_, err = repos.Review.Create(ctx, reviewRecord("u1", 43, base.Add(2*time.Hour)))
			require.NoError(t, err)

			updatedAt := model.TimestampFromTime(base.Add(3 * time.Hour))
			require.NoError(t, repos.Review.Update(ctx, id, ReviewPatch{Rating: 3, Review: "cambié de opinión", UpdatedAt: updatedAt}))

			mine, err := repos.Review.FindByUserAndMovie(ctx, "u1", 42)
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, 3, mine[0].Rating)
			assert.Equal(t, "cambié de opinión", mine[0].Review)
			assert.Equal(t, updatedAt, mine[0].UpdatedAt)
			assert.Equal(t, model.TimestampFromTime(base), mine[0].CreatedAt)

			byMovie, err := repos.Review.ListByMovie(ctx, 42)
			require.NoError(t, err)
			assert.Len(t, byMovie, 2)

			byUser, err := repos.Review.ListByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, byUser, 2)
			assert.Equal(t, 43, byUser[0].MovieID)
			assert.Equal(t, 42, byUser[1].MovieID)

			require.NoError(t, repos.Review.Delete(ctx, id))
			mine, err = repos.Review.FindByUserAndMovie(ctx, "u1", 42)
			require.NoError(t, err)
			assert.Empty(t, mine)
		})
	}
}

func TestReview_UpdateMissing(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := repos.Review.Update(context.Background(), "65f000000000000000000000", ReviewPatch{Rating: 5, Review: "x"})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestUser_CreateFindCheckPassword(t *testing.T) {
	for name, repos := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			user, err := repos.User.Create(ctx, "Ana@Example.com", "ana", "secret123")
			require.NoError(t, err)
			assert.Equal(t, "ana@example.com", user.Email)

			found, err := repos.User.FindByEmail(ctx, "ANA@example.com")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, user.ID, found.ID)
			assert.True(t, repos.User.CheckPassword(found, "secret123"))
			assert.False(t, repos.User.CheckPassword(found, "wrong"))

			byID, err := repos.User.FindByID(ctx, user.ID)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, "ana", byID.Username)

			missing, err := repos.User.FindByEmail(ctx, "nobody@example.com")
			require.NoError(t, err)
			assert.Nil(t, missing)

			_, err = repos.User.Create(ctx, "ana@example.com", "ana2", "secret123")
			assert.ErrorIs(t, err, ErrDuplicate)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repos, err := Open(ctx, config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "cards.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close(ctx) })

	_, err = repos.SavedMovie.Create(ctx, savedRecord("u1", 1, time.Now()))
	require.NoError(t, err)

	_, err = Open(ctx, config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}
