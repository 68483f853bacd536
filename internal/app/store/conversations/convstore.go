// internal/app/store/conversations/convstore.go
package convstore

import (
	"context"
	"errors"
	"time"

	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the conversations and messages collections.
type Store struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

// New creates a new conversation store.
func New(db *mongo.Database) *Store {
	return &Store{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// EnsureIndexes creates the lookup indexes for listings and shares.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	convIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_conversations_owner"),
		},
		{
			Keys:    bson.D{{Key: "shared_with_group_ids", Value: 1}},
			Options: options.Index().SetName("idx_conversations_shares"),
		},
	}
	if _, err := s.conversations.Indexes().CreateMany(ctx, convIndexes); err != nil {
		return err
	}
	_, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("idx_messages_conversation"),
	})
	return err
}

// Create inserts a new conversation owned by ownerID.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, title string) (models.Conversation, error) {
	now := time.Now().UTC()
	c := models.Conversation{
		ID:        primitive.NewObjectID(),
		Title:     title,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.conversations.InsertOne(ctx, c); err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

// GetByID fetches one conversation. Visibility is the caller's check;
// the store does not hide documents.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Conversation, error) {
	var c models.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Conversation{}, outcome.ErrNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

// ListOwned returns the conversations owned by userID, newest first.
func (s *Store) ListOwned(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	return s.find(ctx, bson.M{"owner_id": userID})
}

// ListSharedWith returns conversations shared into any of the given
// groups, excluding those the user owns. A conversation both owned and
// shared back through a group appears once, in the owned list only.
func (s *Store) ListSharedWith(ctx context.Context, userID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]models.Conversation, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{
		"shared_with_group_ids": bson.M{"$in": groupIDs},
		"owner_id":              bson.M{"$ne": userID},
	})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Conversation, error) {
	cur, err := s.conversations.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rename retitles a conversation.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, title string) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		"title":      title,
		"updated_at": time.Now().UTC(),
	}})
}

// Share adds groups to the conversation's share set. Already-present
// groups are absorbed, so re-sharing is idempotent.
func (s *Store) Share(ctx context.Context, id primitive.ObjectID, groupIDs []primitive.ObjectID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	return s.updateOne(ctx, id, bson.M{
		"$addToSet": bson.M{"shared_with_group_ids": bson.M{"$each": groupIDs}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// Unshare removes groups from the conversation's share set. Groups not
// in the set are ignored.
func (s *Store) Unshare(ctx context.Context, id primitive.ObjectID, groupIDs []primitive.ObjectID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	return s.updateOne(ctx, id, bson.M{
		"$pullAll": bson.M{"shared_with_group_ids": groupIDs},
		"$set":     bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveGroupFromAll pulls a deleted group out of every conversation's
// share set.
func (s *Store) RemoveGroupFromAll(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := s.conversations.UpdateMany(ctx,
		bson.M{"shared_with_group_ids": groupID},
		bson.M{"$pull": bson.M{"shared_with_group_ids": groupID}})
	return err
}

// SetFolder moves a conversation into a folder, or out of any folder
// when folderID is nil.
func (s *Store) SetFolder(ctx context.Context, id primitive.ObjectID, folderID *primitive.ObjectID) error {
	update := bson.M{"updated_at": time.Now().UTC()}
	if folderID == nil {
		return s.updateOne(ctx, id, bson.M{
			"$unset": bson.M{"folder_id": ""},
			"$set":   update,
		})
	}
	update["folder_id"] = *folderID
	return s.updateOne(ctx, id, bson.M{"$set": update})
}

// ClearFolderRefs detaches every conversation from a deleted folder.
// The conversations themselves survive.
func (s *Store) ClearFolderRefs(ctx context.Context, folderID primitive.ObjectID) error {
	_, err := s.conversations.UpdateMany(ctx,
		bson.M{"folder_id": folderID},
		bson.M{"$unset": bson.M{"folder_id": ""}})
	return err
}

// Delete removes a conversation and its messages.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.conversations.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return outcome.ErrNotFound
	}
	_, err = s.messages.DeleteMany(ctx, bson.M{"conversation_id": id})
	return err
}

// DeleteByOwner removes all of a user's conversations and their
// messages, as part of account deletion.
func (s *Store) DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) error {
	ids, err := s.conversations.Distinct(ctx, "_id", bson.M{"owner_id": ownerID})
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.messages.DeleteMany(ctx, bson.M{"conversation_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	_, err = s.conversations.DeleteMany(ctx, bson.M{"owner_id": ownerID})
	return err
}

// AppendMessage adds a message and bumps the conversation's count and
// activity time.
func (s *Store) AppendMessage(ctx context.Context, conversationID primitive.ObjectID, sender, content string) (models.Message, error) {
	m := models.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	err := s.updateOne(ctx, conversationID, bson.M{
		"$inc": bson.M{"message_count": 1},
		"$set": bson.M{"updated_at": m.CreatedAt},
	})
	if err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// ListMessages returns a conversation's messages oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	cur, err := s.messages.Find(ctx, bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.conversations.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return outcome.ErrNotFound
	}
	return nil
}
