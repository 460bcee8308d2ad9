package services

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
)

// FeedService merges posts and reposts into one reverse-chronological,
// offset-paginated list.
//
// Reads are not a snapshot: follows, posts and reposts are fetched in
// separate queries and concurrent writes between them may show up in any
// combination. Offset pagination may skip or repeat items when writes land
// between page requests.
type FeedService struct {
	store      *repository.Store
	engagement *EngagementService
	config     config.FeedConfig
	logger     *logger.Logger
}

func NewFeedService(store *repository.Store, engagement *EngagementService, cfg config.FeedConfig, logger *logger.Logger) *FeedService {
	return &FeedService{
		store:      store,
		engagement: engagement,
		config:     cfg,
		logger:     logger,
	}
}

type FeedResponse struct {
	Items  []*models.FeedItem `json:"items"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

// GetFeed returns the viewer's feed: posts and reposts by the viewer and by
// everyone the viewer follows. isReposted is true when anyone in that
// audience reposted the post.
func (s *FeedService) GetFeed(ctx context.Context, viewerID string, offset, limit int) (*FeedResponse, error) {
	viewer, err := parseID(viewerID, "viewer")
	if err != nil {
		return nil, err
	}
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}

	// 受众集合：自己 + 关注的人
	following, err := s.store.Follows.GetFollowingIDs(ctx, viewer)
	if err != nil {
		return nil, apperrors.Internal("failed to load feed", err)
	}
	audience := make([]uuid.UUID, 0, len(following)+1)
	audience = append(audience, viewer)
	audience = append(audience, following...)

	items, err := s.assemble(ctx, audience, viewer, audience, page)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"viewer_id": viewer,
		"audience":  len(audience),
		"items":     len(items),
	}).Debug("Feed assembled")

	return &FeedResponse{Items: items, Offset: page.Offset, Limit: page.Limit}, nil
}

// GetUserTimeline returns one user's posts and reposts, enriched for the
// viewer. viewerID may be empty for anonymous requests.
func (s *FeedService) GetUserTimeline(ctx context.Context, username, viewerID string, offset, limit int) (*FeedResponse, error) {
	viewer, err := parseViewerID(viewerID)
	if err != nil {
		return nil, err
	}
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	var reposters []uuid.UUID
	if viewer != uuid.Nil {
		reposters = []uuid.UUID{viewer}
	}

	items, err := s.assemble(ctx, []uuid.UUID{user.ID}, viewer, reposters, page)
	if err != nil {
		return nil, err
	}
	return &FeedResponse{Items: items, Offset: page.Offset, Limit: page.Limit}, nil
}

// assemble fetches the newest offset+limit posts and reposts by authors,
// merges them by effective time, slices the page and annotates only the
// page.
func (s *FeedService) assemble(ctx context.Context, authors []uuid.UUID, viewer uuid.UUID, reposters []uuid.UUID, page Page) ([]*models.FeedItem, error) {
	posts, err := s.store.Posts.GetByAuthorIDs(ctx, authors, page.Window())
	if err != nil {
		return nil, apperrors.Internal("failed to load posts", err)
	}
	reposts, err := s.store.Reposts.GetByUserIDs(ctx, authors, page.Window())
	if err != nil {
		return nil, apperrors.Internal("failed to load reposts", err)
	}

	items := mergeFeed(posts, reposts)
	items = paginate(items, page)

	toAnnotate := make([]*models.EnrichedPost, 0, len(items))
	for _, item := range items {
		if item.Kind == models.FeedItemRepost {
			toAnnotate = append(toAnnotate, item.OriginalPost)
		} else {
			toAnnotate = append(toAnnotate, item.EnrichedPost)
		}
	}
	s.engagement.AnnotatePosts(ctx, toAnnotate, viewer, reposters)

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTimeout, "request timed out", err)
	}
	return items, nil
}

// mergeFeed orders posts and reposts together by effective time descending,
// breaking ties by id descending.
func mergeFeed(posts []*models.Post, reposts []*models.Repost) []*models.FeedItem {
	items := make([]*models.FeedItem, 0, len(posts)+len(reposts))
	for _, p := range posts {
		items = append(items, &models.FeedItem{
			Kind:         models.FeedItemPost,
			EnrichedPost: &models.EnrichedPost{Post: *p},
		})
	}
	for _, r := range reposts {
		if r.OriginalPost == nil {
			continue
		}
		item := &models.FeedItem{
			Kind:          models.FeedItemRepost,
			RepostID:      &r.ID,
			RepostedAt:    &r.CreatedAt,
			RepostComment: r.Comment,
			OriginalPost:  &models.EnrichedPost{Post: *r.OriginalPost},
		}
		if r.User != nil {
			summary := r.User.Summary()
			item.RepostedBy = &summary
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].EffectiveAt(), items[j].EffectiveAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		a, b := items[i].ItemID(), items[j].ItemID()
		return bytes.Compare(a[:], b[:]) > 0
	})
	return items
}

func paginate(items []*models.FeedItem, page Page) []*models.FeedItem {
	if page.Offset >= len(items) {
		return []*models.FeedItem{}
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}
