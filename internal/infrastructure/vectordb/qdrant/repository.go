// Package qdrant provides a ProfileIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
)

// profileNamespace seeds the deterministic point ids, so re-indexing a
// character overwrites its previous vector.
var profileNamespace = uuid.MustParse("6f1d3c2a-8b7e-4f5a-9c1d-2e3f4a5b6c7d")

// Repository implements the ProfileIndex interface using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	apiKey     string
	conn       *grpc.ClientConn
}

var _ ports.ProfileIndex = (*Repository)(nil)

// NewRepository creates a new Qdrant repository. An API key switches the
// connection to TLS, as Qdrant Cloud requires.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	creds := insecure.NewCredentials()
	if cfg.APIKey != "" {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *Repository) withAuth(ctx context.Context) context.Context {
	if r.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", r.apiKey)
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	ctx = r.withAuth(ctx)

	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// Upsert stores or replaces profile vectors.
func (r *Repository) Upsert(ctx context.Context, vectors []ports.ProfileVector) error {
	if len(vectors) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(vectors))
	for _, v := range vectors {
		points = append(points, profileToPoint(v))
	}

	_, err := r.points.Upsert(r.withAuth(ctx), &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// Search returns the profiles of a network closest to the vector.
func (r *Repository) Search(ctx context.Context, network string, vector []float32, limit int) ([]ports.ProfileMatch, error) {
	resp, err := r.points.Search(r.withAuth(ctx), &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter:         networkFilter(network),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	return scoredPointsToMatches(resp.Result), nil
}

// DeleteNetwork removes every profile of a network.
func (r *Repository) DeleteNetwork(ctx context.Context, network string) error {
	_, err := r.points.Delete(r.withAuth(ctx), &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: networkFilter(network),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting points by network: %w", err)
	}

	return nil
}

// pointID derives a stable point id from the network and character id.
func pointID(network, characterID string) string {
	return uuid.NewSHA1(profileNamespace, []byte(network+"/"+characterID)).String()
}

func profileToPoint(v ports.ProfileVector) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: pointID(v.Network, v.CharacterID),
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: v.Vector,
				},
			},
		},
		Payload: map[string]*pb.Value{
			"network":      {Kind: &pb.Value_StringValue{StringValue: v.Network}},
			"character_id": {Kind: &pb.Value_StringValue{StringValue: v.CharacterID}},
			"name":         {Kind: &pb.Value_StringValue{StringValue: v.Name}},
		},
	}
}

func networkFilter(network string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "network",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{
								Keyword: network,
							},
						},
					},
				},
			},
		},
	}
}

// scoredPointsToMatches converts scored points to profile matches.
func scoredPointsToMatches(points []*pb.ScoredPoint) []ports.ProfileMatch {
	matches := make([]ports.ProfileMatch, 0, len(points))
	for _, point := range points {
		matches = append(matches, ports.ProfileMatch{
			CharacterID: getStringValue(point.Payload, "character_id"),
			Name:        getStringValue(point.Payload, "name"),
			Score:       point.Score,
		})
	}
	return matches
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
