package docstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"regexp"

	"github.com/xavierca1/door-leads/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const LeadsCollection = "leads"

var _ entity.LeadRepository = (*LeadRepository)(nil)

// LeadRepository stores each lead as one document keyed by its id.
type LeadRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewLeadRepository(client *mongo.Client, database string) *LeadRepository {
	return &LeadRepository{
		client: client,
		coll:   client.Database(database).Collection(LeadsCollection),
	}
}

// EnsureIndexes creates the indexes the dashboard queries rely on.
func (r *LeadRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
	})
	if err != nil {
		return wrap("create indexes", err)
	}
	return nil
}

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	if _, err := r.coll.InsertOne(ctx, lead); err != nil {
		return wrap("insert lead", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	var lead entity.Lead
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&lead)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, wrap("find lead", err)
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: lead.ID}}, lead)
	if err != nil {
		return wrap("replace lead", err)
	}
	if res.MatchedCount == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrap("delete lead", err)
	}
	if res.DeletedCount == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// Find streams matching documents from a cursor; the cursor is closed when the
// caller stops ranging.
func (r *LeadRepository) Find(ctx context.Context, filters entity.LeadFilters) iter.Seq2[*entity.Lead, error] {
	return func(yield func(*entity.Lead, error) bool) {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})

		cur, err := r.coll.Find(ctx, filterDocument(filters), opts)
		if err != nil {
			yield(nil, wrap("find leads", err))
			return
		}
		defer cur.Close(context.WithoutCancel(ctx))

		for cur.Next(ctx) {
			var lead entity.Lead
			if err := cur.Decode(&lead); err != nil {
				yield(nil, fmt.Errorf("decode lead: %w", err))
				return
			}
			if !yield(&lead, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, wrap("iterate leads", err))
		}
	}
}

func (r *LeadRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func filterDocument(f entity.LeadFilters) bson.D {
	doc := bson.D{}
	if f.Status != "" {
		doc = append(doc, bson.E{Key: "status", Value: f.Status})
	}
	if f.Source != "" {
		doc = append(doc, bson.E{Key: "source", Value: f.Source})
	}
	if f.Timeline != "" {
		doc = append(doc, bson.E{Key: "timeline", Value: f.Timeline})
	}
	if f.ShowOnlyNonConverted {
		doc = append(doc, bson.E{Key: "hasQuote", Value: false})
	}
	if f.Search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		doc = append(doc, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "email", Value: re}},
			bson.D{{Key: "phone", Value: re}},
			bson.D{{Key: "phoneE164", Value: re}},
		}})
	}
	return doc
}

// wrap marks connectivity failures as ErrStoreUnavailable so the store
// adapter reports them as transient.
func wrap(op string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
