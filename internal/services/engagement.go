package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/metrics"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
)

// EngagementService computes read-time counts and viewer flags for batches
// of posts and comments. Each aggregate is one grouped query per batch.
//
// A failed lookup never fails the caller: the affected counts stay zero and
// the items are marked partial.
type EngagementService struct {
	store   *repository.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewEngagementService(store *repository.Store, logger *logger.Logger, metrics *metrics.Metrics) *EngagementService {
	return &EngagementService{store: store, logger: logger, metrics: metrics}
}

// Enrich wraps posts for annotation.
func Enrich(posts []*models.Post) []*models.EnrichedPost {
	enriched := make([]*models.EnrichedPost, 0, len(posts))
	for _, p := range posts {
		enriched = append(enriched, &models.EnrichedPost{Post: *p})
	}
	return enriched
}

// AnnotatePosts fills Engagement on every post in place. isReposted is true
// when any of reposters reposted the post; reposters defaults to the viewer.
// An anonymous viewer (uuid.Nil) gets false for both viewer flags.
func (s *EngagementService) AnnotatePosts(ctx context.Context, posts []*models.EnrichedPost, viewerID uuid.UUID, reposters []uuid.UUID) {
	if len(posts) == 0 {
		return
	}
	ids := uniquePostIDs(posts)
	partial := false

	likeCounts, err := s.store.Likes.CountByTargets(ctx, models.TargetPost, ids)
	if err != nil {
		partial = s.degrade(ctx, "like_count", err)
	}

	nestedCounts, err := s.store.Posts.CountByParentIDs(ctx, ids)
	if err != nil {
		partial = s.degrade(ctx, "nested_count", err)
	}

	repostCounts, err := s.store.Reposts.CountByPostIDs(ctx, ids)
	if err != nil {
		partial = s.degrade(ctx, "repost_count", err)
	}

	var liked, reposted map[uuid.UUID]bool
	if viewerID != uuid.Nil {
		liked, err = s.store.Likes.LikedSet(ctx, viewerID, models.TargetPost, ids)
		if err != nil {
			partial = s.degrade(ctx, "is_liked", err)
		}

		if len(reposters) == 0 {
			reposters = []uuid.UUID{viewerID}
		}
		reposted, err = s.store.Reposts.RepostedSet(ctx, reposters, ids)
		if err != nil {
			partial = s.degrade(ctx, "is_reposted", err)
		}
	}

	for _, p := range posts {
		p.Engagement = models.Engagement{
			LikeCount:   likeCounts[p.ID],
			IsLiked:     liked[p.ID],
			NestedCount: nestedCounts[p.ID],
			IsNested:    nestedCounts[p.ID] > 0,
			RepostCount: repostCounts[p.ID],
			IsReposted:  reposted[p.ID],
			Partial:     partial,
		}
	}
}

// AnnotatePost is AnnotatePosts for a single post outside the feed.
func (s *EngagementService) AnnotatePost(ctx context.Context, post *models.Post, viewerID uuid.UUID) *models.EnrichedPost {
	enriched := &models.EnrichedPost{Post: *post}
	s.AnnotatePosts(ctx, []*models.EnrichedPost{enriched}, viewerID, nil)
	return enriched
}

// AnnotateComments computes like counts per kind (comment or reply),
// the viewer's like flag and the number of direct replies.
func (s *EngagementService) AnnotateComments(ctx context.Context, comments []*models.Comment, viewerID uuid.UUID) []*models.EnrichedComment {
	enriched := make([]*models.EnrichedComment, 0, len(comments))
	if len(comments) == 0 {
		return enriched
	}

	byKind := make(map[models.TargetType][]uuid.UUID)
	allIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		byKind[c.Kind()] = append(byKind[c.Kind()], c.ID)
		allIDs = append(allIDs, c.ID)
	}

	partial := false
	likeCounts := make(map[models.Target]int64)
	liked := make(map[models.Target]bool)
	for kind, ids := range byKind {
		counts, err := s.store.Likes.CountByTargets(ctx, kind, ids)
		if err != nil {
			partial = s.degrade(ctx, "comment_like_count", err)
		}
		for id, n := range counts {
			likeCounts[models.Target{Type: kind, ID: id}] = n
		}

		if viewerID == uuid.Nil {
			continue
		}
		set, err := s.store.Likes.LikedSet(ctx, viewerID, kind, ids)
		if err != nil {
			partial = s.degrade(ctx, "comment_is_liked", err)
		}
		for id := range set {
			liked[models.Target{Type: kind, ID: id}] = true
		}
	}

	replyCounts, err := s.store.Comments.CountByParentIDs(ctx, allIDs)
	if err != nil {
		partial = s.degrade(ctx, "reply_count", err)
	}

	for _, c := range comments {
		key := models.Target{Type: c.Kind(), ID: c.ID}
		enriched = append(enriched, &models.EnrichedComment{
			Comment:    *c,
			LikeCount:  likeCounts[key],
			IsLiked:    liked[key],
			ReplyCount: replyCounts[c.ID],
			Partial:    partial,
		})
	}
	return enriched
}

func (s *EngagementService) degrade(ctx context.Context, aggregate string, err error) bool {
	s.metrics.RecordEngagementError(ctx, aggregate)
	s.logger.WithError(err).WithField("aggregate", aggregate).Warn("Engagement lookup failed, returning partial counts")
	return true
}

func uniquePostIDs(posts []*models.EnrichedPost) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(posts))
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		if !seen[p.ID] {
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}
	}
	return ids
}
