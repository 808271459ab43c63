// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"icp_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionEnrichmentPayloads = "enrichment_payloads"

// EnrichmentAdapter implements out.EnrichmentProvider over the collection the
// data-provider ingestion pipeline writes to. The pipeline may append several
// snapshots per prospect; this adapter only ever reads the newest one.
type EnrichmentAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewEnrichmentAdapter creates a new MongoDB enrichment adapter.
func NewEnrichmentAdapter(db *mongo.Database) *EnrichmentAdapter {
	collection := db.Collection(collectionEnrichmentPayloads)
	return &EnrichmentAdapter{
		db:         db,
		collection: collection,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *EnrichmentAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// Latest-per-prospect lookups sort on fetched_at descending.
			Keys: bson.D{{Key: "prospect_id", Value: 1}, {Key: "fetched_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "fetched_at", Value: 1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

// payloadDocument represents the MongoDB document structure.
type payloadDocument struct {
	ProspectID int64            `bson:"prospect_id"`
	FetchedAt  time.Time        `bson:"fetched_at"`
	Personal   personalDocument `bson:"personal"`
	Company    companyDocument  `bson:"company"`
}

type personalDocument struct {
	Title     string             `bson:"title"`
	Industry  string             `bson:"industry"`
	Summary   string             `bson:"summary"`
	Location  *locationDocument  `bson:"location,omitempty"`
	Skills    []string           `bson:"skills,omitempty"`
	Positions []positionDocument `bson:"positions,omitempty"`
	Education []string           `bson:"education,omitempty"`
}

type companyDocument struct {
	Name        string            `bson:"name"`
	Location    *locationDocument `bson:"location,omitempty"`
	StaffCount  *int              `bson:"staff_count,omitempty"`
	Description string            `bson:"description"`
}

type locationDocument struct {
	City    string `bson:"city"`
	Region  string `bson:"region"`
	Country string `bson:"country"`
}

type positionDocument struct {
	Title       string `bson:"title"`
	Description string `bson:"description"`
	StartYear   int    `bson:"start_year"`
	EndYear     int    `bson:"end_year"`
}

func (d *payloadDocument) toEntity() *out.EnrichmentPayload {
	payload := &out.EnrichmentPayload{
		ProspectID: d.ProspectID,
		FetchedAt:  d.FetchedAt,
		Personal: out.PersonalSection{
			Title:     d.Personal.Title,
			Industry:  d.Personal.Industry,
			Summary:   d.Personal.Summary,
			Location:  toLocation(d.Personal.Location),
			Skills:    d.Personal.Skills,
			Education: d.Personal.Education,
		},
		Company: out.CompanySection{
			Name:        d.Company.Name,
			Location:    toLocation(d.Company.Location),
			StaffCount:  d.Company.StaffCount,
			Description: d.Company.Description,
		},
	}
	for _, pos := range d.Personal.Positions {
		payload.Personal.Positions = append(payload.Personal.Positions, out.PayloadPosition{
			Title:       pos.Title,
			Description: pos.Description,
			StartYear:   pos.StartYear,
			EndYear:     pos.EndYear,
		})
	}
	return payload
}

func toLocation(d *locationDocument) *out.PayloadLocation {
	if d == nil {
		return nil
	}
	return &out.PayloadLocation{
		City:    d.City,
		Region:  d.Region,
		Country: d.Country,
	}
}

// =============================================================================
// Operations
// =============================================================================

// GetLatestPayload retrieves the most recent payload for a prospect.
// Returns nil when none exists.
func (a *EnrichmentAdapter) GetLatestPayload(ctx context.Context, prospectID int64) (*out.EnrichmentPayload, error) {
	var doc payloadDocument
	filter := bson.M{"prospect_id": prospectID}
	opts := options.FindOne().SetSort(bson.D{{Key: "fetched_at", Value: -1}})

	err := a.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get enrichment payload: %w", err)
	}

	return doc.toEntity(), nil
}

// GetLatestPayloads batch-fetches the most recent payload per prospect using
// a sort + group pipeline. Prospects without a payload are simply absent from
// the result map.
func (a *EnrichmentAdapter) GetLatestPayloads(ctx context.Context, prospectIDs []int64) (map[int64]*out.EnrichmentPayload, error) {
	if len(prospectIDs) == 0 {
		return make(map[int64]*out.EnrichmentPayload), nil
	}

	pipeline := []bson.M{
		{"$match": bson.M{"prospect_id": bson.M{"$in": prospectIDs}}},
		{"$sort": bson.M{"prospect_id": 1, "fetched_at": -1}},
		{"$group": bson.M{
			"_id":    "$prospect_id",
			"latest": bson.M{"$first": "$$ROOT"},
		}},
		{"$replaceRoot": bson.M{"newRoot": "$latest"}},
	}

	cursor, err := a.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get enrichment payloads: %w", err)
	}
	defer cursor.Close(ctx)

	result := make(map[int64]*out.EnrichmentPayload, len(prospectIDs))
	for cursor.Next(ctx) {
		var doc payloadDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode enrichment payload: %w", err)
		}
		result[doc.ProspectID] = doc.toEntity()
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enrichment payloads: %w", err)
	}

	return result, nil
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.EnrichmentProvider = (*EnrichmentAdapter)(nil)
