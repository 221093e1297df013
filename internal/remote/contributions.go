package remote

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kata-app/kata-backend/internal/models"
)

const contributionsCollection = "contributions"

// ListFilter narrows ListContributions by at most one server-side equality
// predicate. When both fields are set the owner predicate wins and type
// narrowing is left to the client-side pipeline.
type ListFilter struct {
	OwnerUID string
	Type     string
}

func (f *ListFilter) query() bson.M {
	if f == nil {
		return bson.M{}
	}
	if f.OwnerUID != "" {
		return bson.M{"user_id": f.OwnerUID}
	}
	if f.Type != "" {
		return bson.M{"type": f.Type}
	}
	return bson.M{}
}

// ListContributions fetches contribution records, optionally narrowed by one
// equality predicate. All further narrowing happens client-side.
func (g *Gateway) ListContributions(ctx context.Context, filter *ListFilter) ([]models.Contribution, error) {
	cursor, err := g.db.Collection(contributionsCollection).Find(ctx, filter.query())
	if err != nil {
		return nil, WrapError(KindRemote, "failed to list contributions", err)
	}
	defer cursor.Close(ctx)

	var items []models.Contribution
	if err := cursor.All(ctx, &items); err != nil {
		return nil, WrapError(KindRemote, "failed to decode contributions", err)
	}
	return items, nil
}

// GetContribution loads a single record by its hex id.
func (g *Gateway) GetContribution(ctx context.Context, id string) (*models.Contribution, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, NewError(KindNotFound, "contribution not found")
	}

	var c models.Contribution
	err = g.db.Collection(contributionsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, NewError(KindNotFound, "contribution not found")
	} else if err != nil {
		return nil, WrapError(KindRemote, "failed to load contribution", err)
	}
	return &c, nil
}

// CreateContribution assigns id and creation timestamp, zeroes the like
// state and inserts the record. Returns the new id.
func (g *Gateway) CreateContribution(ctx context.Context, c *models.Contribution) (string, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	c.Likes = 0
	c.LikedBy = []string{}

	if _, err := g.db.Collection(contributionsCollection).InsertOne(ctx, c); err != nil {
		return "", WrapError(KindRemote, "failed to create contribution", err)
	}
	return c.ID.Hex(), nil
}

// ApplyLikeDelta increments or decrements the like count and mutates the
// liked-by membership in one document update. The backend performs the
// arithmetic ($inc), so concurrent toggles from different clients cannot lose
// updates, and a single-document update is applied atomically, which keeps
// likes == len(liked_by) for every observer.
func (g *Gateway) ApplyLikeDelta(ctx context.Context, id, uid string, like bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return NewError(KindNotFound, "contribution not found")
	}

	update := bson.M{
		"$inc":      bson.M{"likes": 1},
		"$addToSet": bson.M{"liked_by": uid},
	}
	if !like {
		update = bson.M{
			"$inc":  bson.M{"likes": -1},
			"$pull": bson.M{"liked_by": uid},
		}
	}

	res, err := g.db.Collection(contributionsCollection).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return WrapError(KindRemote, "failed to update like status", err)
	}
	if res.MatchedCount == 0 {
		return NewError(KindNotFound, "contribution not found")
	}
	return nil
}
