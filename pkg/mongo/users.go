package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// userDocument omits an empty email so the partial unique index on email
// only covers accounts that set one.
type userDocument struct {
	ID              bson.ObjectID `bson:"_id"`
	Phone           string        `bson:"phone"`
	Email           string        `bson:"email,omitempty"`
	FullName        string        `bson:"full_name,omitempty"`
	PasswordHash    string        `bson:"password_hash,omitempty"`
	IsActive        bool          `bson:"is_active"`
	IsPhoneVerified bool          `bson:"is_phone_verified"`
	Roles           []string      `bson:"roles"`
	CreatedAt       time.Time     `bson:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at"`
}

func newUserDocument(u *models.User, id bson.ObjectID) *userDocument {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return &userDocument{
		ID:              id,
		Phone:           u.Phone,
		Email:           u.Email,
		FullName:        u.FullName,
		PasswordHash:    u.PasswordHash,
		IsActive:        u.IsActive,
		IsPhoneVerified: u.IsPhoneVerified,
		Roles:           roles,
		CreatedAt:       u.CreatedAt.UTC(),
		UpdatedAt:       u.UpdatedAt.UTC(),
	}
}

func (d *userDocument) model() *models.User {
	roles := d.Roles
	if roles == nil {
		roles = []string{}
	}
	return &models.User{
		ID:              d.ID.Hex(),
		Phone:           d.Phone,
		Email:           d.Email,
		FullName:        d.FullName,
		PasswordHash:    d.PasswordHash,
		IsActive:        d.IsActive,
		IsPhoneVerified: d.IsPhoneVerified,
		Roles:           roles,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type UserStore struct {
	store *Store
}

func NewUserStore(store *Store) *UserStore {
	return &UserStore{store: store}
}

func (s *UserStore) collection() *mongo.Collection {
	return s.store.Collection(UsersCollection)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *UserStore) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "phone", Value: phone}})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	if err := s.collection().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.model(), nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	doc := newUserDocument(u, bson.NewObjectID())
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

// Update rewrites the mutable profile fields. Roles change only through
// AddRole.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	oid, err := objectID(u.ID)
	if err != nil {
		return err
	}
	set := bson.D{
		{Key: "full_name", Value: u.FullName},
		{Key: "password_hash", Value: u.PasswordHash},
		{Key: "is_active", Value: u.IsActive},
		{Key: "is_phone_verified", Value: u.IsPhoneVerified},
		{Key: "updated_at", Value: u.UpdatedAt.UTC()},
	}
	update := bson.D{}
	if u.Email != "" {
		set = append(set, bson.E{Key: "email", Value: u.Email})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "email", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	res, err := s.collection().UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *UserStore) AddRole(ctx context.Context, userID, role string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	res, err := s.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "roles", Value: role}}}},
	)
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
