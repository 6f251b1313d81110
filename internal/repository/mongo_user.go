package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopworks/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements domain.UserRepository
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	coll := db.Collection("users")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Unique indexes on email and firebase_uid.
	// firebase_uid is sparse: pre-provisioned ERP accounts may not be linked yet.
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "firebase_uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})

	return &MongoUserRepository{
		collection: coll,
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.UserAccount) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	objID := primitive.NewObjectID()
	user.ID = objID.Hex()

	doc := bson.M{
		"_id":           objID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
		"erp_user":      user.ErpUser,
		"branch_access": user.BranchAccess,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}

	if user.FirebaseUID != "" {
		doc["firebase_uid"] = user.FirebaseUID
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}

	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return mapBsonToUser(raw), nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return mapBsonToUser(raw), nil
}

func (r *MongoUserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.UserAccount, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"firebase_uid": uid}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by uid: %w", err)
	}
	return mapBsonToUser(raw), nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user *domain.UserAccount) error {
	objID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}

	user.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":          user.Name,
			"email":         user.Email,
			"role":          user.Role,
			"erp_user":      user.ErpUser,
			"branch_access": user.BranchAccess,
			"updated_at":    user.UpdatedAt,
		},
	}

	if user.FirebaseUID != "" {
		update["$set"].(bson.M)["firebase_uid"] = user.FirebaseUID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{
			"role":       role,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) GetAll(ctx context.Context) ([]*domain.UserAccount, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeUsers(ctx, cursor)
}

func (r *MongoUserRepository) GetByRole(ctx context.Context, role domain.Role) ([]*domain.UserAccount, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"role": role})
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeUsers(ctx, cursor)
}

func (r *MongoUserRepository) CountAll(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func decodeUsers(ctx context.Context, cursor *mongo.Cursor) ([]*domain.UserAccount, error) {
	var users []*domain.UserAccount
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, mapBsonToUser(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return users, nil
}

// mapBsonToUser converts a raw document into a UserAccount, tolerating
// documents written before a field existed.
func mapBsonToUser(raw bson.M) *domain.UserAccount {
	user := &domain.UserAccount{}

	if objID, ok := raw["_id"].(primitive.ObjectID); ok {
		user.ID = objID.Hex()
	}
	if v, ok := raw["firebase_uid"].(string); ok {
		user.FirebaseUID = v
	}
	if v, ok := raw["email"].(string); ok {
		user.Email = v
	}
	if v, ok := raw["name"].(string); ok {
		user.Name = v
	}
	if v, ok := raw["role"].(string); ok {
		user.Role = domain.Role(v)
	}
	if v, ok := raw["erp_user"].(bool); ok {
		user.ErpUser = v
	}
	if m, ok := raw["branch_access"].(bson.M); ok {
		user.BranchAccess = make(map[string]bool, len(m))
		for branch, allowed := range m {
			if b, ok := allowed.(bool); ok {
				user.BranchAccess[branch] = b
			}
		}
	}
	if v, ok := raw["created_at"].(primitive.DateTime); ok {
		user.CreatedAt = v.Time()
	}
	if v, ok := raw["updated_at"].(primitive.DateTime); ok {
		user.UpdatedAt = v.Time()
	}

	return user
}
