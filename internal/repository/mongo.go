package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joellzt/movie-cards/internal/model"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// 集合名
const (
	CollectionSavedMovies = "savedMovies"
	CollectionReviews     = "movieReviews"
	CollectionUsers       = "users"
)

// NewMongoRepositories 基于 MongoDB 创建仓库集合
func NewMongoRepositories(ctx context.Context, uri, dbName string) (*Repositories, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("无法连接 MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB ping 失败: %w", err)
	}

	db := client.Database(dbName)
	if err := ensureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Repositories{
		SavedMovie: &MongoSavedMovieRepository{coll: db.Collection(CollectionSavedMovies)},
		Review:     &MongoReviewRepository{coll: db.Collection(CollectionReviews)},
		User:       &MongoUserRepository{coll: db.Collection(CollectionUsers)},
		close:      client.Disconnect,
	}, nil
}

// ensureMongoIndexes 普通索引；(userId, movieId) 不设唯一约束
func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	userMovie := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "movieId", Value: 1}}}

	if _, err := db.Collection(CollectionSavedMovies).Indexes().CreateMany(ctx, []mongo.IndexModel{
		userMovie,
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "savedAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("创建 savedMovies 索引失败: %w", err)
	}
	if _, err := db.Collection(CollectionReviews).Indexes().CreateMany(ctx, []mongo.IndexModel{
		userMovie,
		{Keys: bson.D{{Key: "movieId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("创建 movieReviews 索引失败: %w", err)
	}
	if _, err := db.Collection(CollectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("创建 users 索引失败: %w", err)
	}
	return nil
}

func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// ==================== savedMovies ====================

type mongoSavedMovie struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	MovieID     int           `bson:"movieId"`
	MovieTitle  string        `bson:"movieTitle"`
	MoviePoster string        `bson:"moviePoster"`
	Overview    string        `bson:"overview"`
	ReleaseDate string        `bson:"releaseDate"`
	VoteAverage float64       `bson:"voteAverage"`
	SavedAt     bson.DateTime `bson:"savedAt"`
	UserID      string        `bson:"userId"`
}

func (d *mongoSavedMovie) record() *model.SavedMovieRecord {
	return &model.SavedMovieRecord{
		ID:          d.ID.Hex(),
		MovieID:     d.MovieID,
		MovieTitle:  d.MovieTitle,
		MoviePoster: d.MoviePoster,
		Overview:    d.Overview,
		ReleaseDate: d.ReleaseDate,
		VoteAverage: d.VoteAverage,
		SavedAt:     model.Timestamp(d.SavedAt),
		UserID:      d.UserID,
	}
}

type MongoSavedMovieRepository struct {
	coll *mongo.Collection
}

func (r *MongoSavedMovieRepository) Create(ctx context.Context, rec *model.SavedMovieRecord) (string, error) {
	doc := mongoSavedMovie{
		ID:          bson.NewObjectID(),
		MovieID:     rec.MovieID,
		MovieTitle:  rec.MovieTitle,
		MoviePoster: rec.MoviePoster,
		Overview:    rec.Overview,
		ReleaseDate: rec.ReleaseDate,
		VoteAverage: rec.VoteAverage,
		SavedAt:     bson.DateTime(rec.SavedAt),
		UserID:      rec.UserID,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	rec.ID = doc.ID.Hex()
	return rec.ID, nil
}

func (r *MongoSavedMovieRepository) ExistsByUserAndMovie(ctx context.Context, userID string, movieID int) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "movieId", Value: movieID}, {Key: "userId", Value: userID}})
	return n > 0, err
}

func (r *MongoSavedMovieRepository) FindByUserAndMovie(ctx context.Context, userID string, movieID int) ([]*model.SavedMovieRecord, error) {
	return r.find(ctx, bson.D{{Key: "movieId", Value: movieID}, {Key: "userId", Value: userID}}, nil)
}

func (r *MongoSavedMovieRepository) ListByUser(ctx context.Context, userID string) ([]*model.SavedMovieRecord, error) {
	return r.find(ctx, bson.D{{Key: "userId", Value: userID}}, bson.D{{Key: "savedAt", Value: -1}})
}

func (r *MongoSavedMovieRepository) find(ctx context.Context, filter, sort bson.D) ([]*model.SavedMovieRecord, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoSavedMovie
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]*model.SavedMovieRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].record())
	}
	return records, nil
}

func (r *MongoSavedMovieRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	_, err = r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return err
}

// ==================== movieReviews ====================

type mongoReview struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	MovieID     int           `bson:"movieId"`
	MovieTitle  string        `bson:"movieTitle"`
	MoviePoster string        `bson:"moviePoster"`
	Rating      int           `bson:"rating"`
	Review      string        `bson:"review"`
	CreatedAt   bson.DateTime `bson:"createdAt"`
	UpdatedAt   bson.DateTime `bson:"updatedAt,omitempty"`
	UserID      string        `bson:"userId"`
	UserName    string        `bson:"userName"`
}

func (d *mongoReview) record() *model.ReviewRecord {
	return &model.ReviewRecord{
		ID:          d.ID.Hex(),
		MovieID:     d.MovieID,
		MovieTitle:  d.MovieTitle,
		MoviePoster: d.MoviePoster,
		Rating:      d.Rating,
		Review:      d.Review,
		CreatedAt:   model.Timestamp(d.CreatedAt),
		UpdatedAt:   model.Timestamp(d.UpdatedAt),
		UserID:      d.UserID,
		UserName:    d.UserName,
	}
}

type MongoReviewRepository struct {
	coll *mongo.Collection
}

func (r *MongoReviewRepository) Create(ctx context.Context, rec *model.ReviewRecord) (string, error) {
	doc := mongoReview{
		ID:          bson.NewObjectID(),
		MovieID:     rec.MovieID,
		MovieTitle:  rec.MovieTitle,
		MoviePoster: rec.MoviePoster,
		Rating:      rec.Rating,
		Review:      rec.Review,
		CreatedAt:   bson.DateTime(rec.CreatedAt),
		UpdatedAt:   bson.DateTime(rec.UpdatedAt),
		UserID:      rec.UserID,
		UserName:    rec.UserName,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	rec.ID = doc.ID.Hex()
	return rec.ID, nil
}

func (r *MongoReviewRepository) FindByUserAndMovie(ctx context.Context, userID string, movieID int) ([]*model.ReviewRecord, error) {
	return r.find(ctx, bson.D{{Key: "movieId", Value: movieID}, {Key: "userId", Value: userID}}, nil)
}

func (r *MongoReviewRepository) ListByMovie(ctx context.Context, movieID int) ([]*model.ReviewRecord, error) {
	return r.find(ctx, bson.D{{Key: "movieId", Value: movieID}}, nil)
}

func (r *MongoReviewRepository) ListByUser(ctx context.Context, userID string) ([]*model.ReviewRecord, error) {
	return r.find(ctx, bson.D{{Key: "userId", Value: userID}}, bson.D{{Key: "createdAt", Value: -1}})
}

func (r *MongoReviewRepository) find(ctx context.Context, filter, sort bson.D) ([]*model.ReviewRecord, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoReview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]*model.ReviewRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].record())
	}
	return records, nil
}

func (r *MongoReviewRepository) Update(ctx context.Context, id string, patch ReviewPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: bson.D{
		{Key: "rating", Value: patch.Rating},
		{Key: "review", Value: patch.Review},
		{Key: "updatedAt", Value: bson.DateTime(patch.UpdatedAt)},
	}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return nil
	}
	_, err = r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return err
}

// ==================== users ====================

type mongoUser struct {
	ID           string        `bson:"_id"`
	Email        string        `bson:"email"`
	Username     string        `bson:"username"`
	PasswordHash string        `bson:"passwordHash"`
	CreatedAt    bson.DateTime `bson:"createdAt"`
}

type MongoUserRepository struct {
	coll *mongo.Collection
}

func (r *MongoUserRepository) Create(ctx context.Context, email, username, password string) (*model.User, error) {
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(email),
		Username:  username,
		CreatedAt: time.Now(),
	}
	if err := setPassword(user, password); err != nil {
		return nil, err
	}

	_, err := r.coll.InsertOne(ctx, mongoUser{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    bson.NewDateTimeFromTime(user.CreatedAt),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	var doc mongoUser
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:           doc.ID,
		Email:        doc.Email,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.Time(),
	}, nil
}

func (r *MongoUserRepository) CheckPassword(user *model.User, password string) bool {
	return checkPassword(user, password)
}
