package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/logging"
)

const (
	// narrationBatchSize is the number of actions sent per narrator call.
	narrationBatchSize = 8
	// narrationConcurrency caps concurrent narrator calls.
	narrationConcurrency = 3
)

// NarratedAction pairs a treatment action with prose for the writer.
type NarratedAction struct {
	Action    TreatmentAction `json:"action"`
	Narrative string          `json:"narrative"`
}

// NarrationService turns treatment actions into writer-facing prose.
type NarrationService struct {
	narrator ports.Narrator
	logger   *slog.Logger
}

// NewNarrationService creates a new NarrationService.
func NewNarrationService(narrator ports.Narrator) *NarrationService {
	return &NarrationService{
		narrator: narrator,
		logger:   logging.New("narration"),
	}
}

// Narrate narrates the first limit prioritized actions (all when limit <= 0).
// Output order matches the action order.
func (s *NarrationService) Narrate(ctx context.Context, n *entities.Network, recs *Recommendations, limit int) ([]NarratedAction, error) {
	if n == nil || recs == nil {
		return nil, entities.NewValidationError("narration", "", "network and recommendations are required")
	}

	actions := recs.PrioritizedActions
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	if len(actions) == 0 {
		return nil, nil
	}

	requests := make([]ports.NarrationRequest, len(actions))
	for i, a := range actions {
		requests[i] = ports.NarrationRequest{
			Network:     n.Name(),
			ActionID:    a.ID,
			Category:    a.Category,
			Description: a.Description,
			Context:     actionContext(n, a),
		}
	}

	paragraphs := make([]string, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(narrationConcurrency)
	for start := 0; start < len(requests); start += narrationBatchSize {
		end := min(start+narrationBatchSize, len(requests))
		g.Go(func() error {
			out, err := s.narrator.Narrate(gctx, requests[start:end])
			if err != nil {
				return fmt.Errorf("narrating actions %d-%d: %w", start+1, end, err)
			}
			if len(out) != end-start {
				return fmt.Errorf("narrator returned %d paragraphs for %d actions", len(out), end-start)
			}
			copy(paragraphs[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]NarratedAction, len(actions))
	for i, a := range actions {
		result[i] = NarratedAction{Action: a, Narrative: paragraphs[i]}
	}
	s.logger.Debug("actions narrated", "network", n.Name(), "count", len(result))
	return result, nil
}

// actionContext describes the action's target for the narrator.
func actionContext(n *entities.Network, a TreatmentAction) string {
	switch a.Target.Type {
	case EntityCharacter:
		c, err := n.Character(a.Target.ID)
		if err != nil {
			return ""
		}
		parts := []string{c.ProfileText()}
		if neighbors, err := n.Neighbors(c.ID); err == nil && len(neighbors) > 0 {
			parts = append(parts, "connected to: "+strings.Join(namesFor(n, neighbors), ", "))
		}
		return strings.Join(parts, "\n")
	case EntityConflict:
		c, err := n.Conflict(a.Target.ID)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s (%s, %s, phase %s) between %s", c.Name, c.Subject, c.Scope, c.Phase,
			strings.Join(namesFor(n, c.InvolvedCharacters), ", "))
	case EntityRelationship:
		r, err := n.Relationship(a.Target.ID)
		if err != nil {
			return ""
		}
		names := namesFor(n, []string{r.Source, r.Target})
		return fmt.Sprintf("%s %s %s (%s, strength %d)", names[0], r.Type, names[1], r.Nature, r.Strength)
	}
	return ""
}

func namesFor(n *entities.Network, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if c, err := n.Character(id); err == nil {
			out[i] = c.Name
		}
	}
	return out
}
