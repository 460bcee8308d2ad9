package models

import (
	"time"

	"github.com/google/uuid"
)

// Engagement holds the read-time aggregates for one item. Partial is set when
// some lookup failed and the zeros are not authoritative.
type Engagement struct {
	LikeCount   int64 `json:"like_count"`
	IsLiked     bool  `json:"is_liked"`
	NestedCount int64 `json:"nested_count"`
	IsNested    bool  `json:"is_nested"`
	RepostCount int64 `json:"repost_count"`
	IsReposted  bool  `json:"is_reposted"`
	Partial     bool  `json:"engagement_partial,omitempty"`
}

type EnrichedPost struct {
	Post
	Engagement
}

type EnrichedComment struct {
	Comment
	LikeCount  int64 `json:"like_count"`
	IsLiked    bool  `json:"is_liked"`
	ReplyCount int64 `json:"reply_count"`
	Partial    bool  `json:"engagement_partial,omitempty"`
}

type FeedItemKind string

const (
	FeedItemPost   FeedItemKind = "post"
	FeedItemRepost FeedItemKind = "repost"
)

// FeedItem is a direct post (EnrichedPost flattened) or a repost wrapping its
// original.
type FeedItem struct {
	Kind FeedItemKind `json:"kind"`
	*EnrichedPost

	RepostID      *uuid.UUID    `json:"repost_id,omitempty"`
	RepostedBy    *UserSummary  `json:"reposted_by,omitempty"`
	RepostedAt    *time.Time    `json:"reposted_at,omitempty"`
	RepostComment string        `json:"repost_comment,omitempty"`
	OriginalPost  *EnrichedPost `json:"original_post,omitempty"`
}

// EffectiveAt is the ordering key: the repost time for reposts, the post
// time otherwise.
func (f *FeedItem) EffectiveAt() time.Time {
	if f.Kind == FeedItemRepost && f.RepostedAt != nil {
		return *f.RepostedAt
	}
	if f.EnrichedPost != nil {
		return f.EnrichedPost.CreatedAt
	}
	return time.Time{}
}

// ItemID is the repost id for reposts and the post id otherwise.
func (f *FeedItem) ItemID() uuid.UUID {
	if f.Kind == FeedItemRepost && f.RepostID != nil {
		return *f.RepostID
	}
	if f.EnrichedPost != nil {
		return f.EnrichedPost.ID
	}
	return uuid.Nil
}
