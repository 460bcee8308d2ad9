package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

type UserService struct {
	store  *repository.Store
	cache  *UserCache
	events *EventPublisher
	config config.FeedConfig
	logger *logger.Logger
}

func NewUserService(store *repository.Store, cache *UserCache, events *EventPublisher, cfg config.FeedConfig, logger *logger.Logger) *UserService {
	return &UserService{
		store:  store,
		cache:  cache,
		events: events,
		config: cfg,
		logger: logger,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Username string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
}

// LoginRequest accepts either a username or an email in Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=50"`
	Avatar *string `json:"avatar" binding:"omitempty,max=512"`
	Bio    *string `json:"bio" binding:"omitempty,max=500"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// DefaultSuggestions is how many users Suggest returns when no limit is given.
const DefaultSuggestions = 5

type FollowAction string

const (
	ActionFollowed   FollowAction = "followed"
	ActionUnfollowed FollowAction = "unfollowed"
)

// FollowResult carries the target's follower count and the actor's
// following count after the toggle.
type FollowResult struct {
	Action         FollowAction `json:"action"`
	FollowerCount  int64        `json:"follower_count"`
	FollowingCount int64        `json:"following_count"`
}

var errEdgeExists = errors.New("edge already exists")

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	username := normalizeUsername(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 检查用户名是否已存在
	existingUser, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Internal("failed to check username", err)
	}
	if existingUser != nil {
		return nil, apperrors.Conflict("username already exists")
	}

	// 检查邮箱是否已存在
	existingUser, err = s.store.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal("failed to check email", err)
	}
	if existingUser != nil {
		return nil, apperrors.Conflict("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
		IsActive: true,
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperrors.Conflict("username or email already exists")
		}
		return nil, apperrors.Internal("failed to create user", err)
	}

	s.events.Publish(ctx, user.ID.String(), queue.EventUserCreated, queue.UserEventData{
		UserID:   user.ID.String(),
		Username: user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	login := strings.ToLower(strings.TrimSpace(req.Login))

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.Users.GetByEmail(ctx, login)
	} else {
		user, err = s.store.Users.GetByUsername(ctx, login)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("user account is inactive")
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

// GetByID serves from the user cache and fills it on a miss.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	if user, ok := s.cache.Get(ctx, id); ok {
		return user, nil
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	s.cache.Set(ctx, user)
	return user, nil
}

// Authenticate resolves the caller of an authenticated request. Deleted and
// inactive accounts are rejected even while their tokens are unexpired.
func (s *UserService) Authenticate(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound, apperrors.KindValidation:
			return nil, apperrors.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("user account is inactive")
	}
	return user, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID string, req *UpdatePasswordRequest) error {
	id, err := parseID(userID, "user")
	if err != nil {
		return err
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return apperrors.NotFound("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return apperrors.Validation("invalid old password")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	if err := s.store.Users.UpdatePassword(ctx, id, string(hashedPassword)); err != nil {
		return apperrors.Internal("failed to update password", err)
	}
	s.cache.Invalidate(ctx, id)

	s.logger.WithField("user_id", id).Info("Password updated successfully")
	return nil
}

// UpdateRole sets another user's role; the actor must be an admin.
func (s *UserService) UpdateRole(ctx context.Context, actorID, userID string, req *UpdateRoleRequest) (*models.User, error) {
	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	switch req.Role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return nil, apperrors.Validation("unknown role %q", req.Role)
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	if err := s.store.Users.UpdateRole(ctx, id, req.Role); err != nil {
		return nil, apperrors.Internal("failed to update user role", err)
	}
	user.Role = req.Role
	s.cache.Invalidate(ctx, id)

	s.events.Publish(ctx, id.String(), queue.EventUserUpdated, queue.UserEventData{
		UserID:   id.String(),
		Username: user.Username,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"role":    req.Role,
	}).Info("User role updated")
	return user, nil
}

// Suggest samples users the viewer is not following yet.
func (s *UserService) Suggest(ctx context.Context, viewerID string, limit int) ([]models.UserSummary, error) {
	viewer, err := parseID(viewerID, "user")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSuggestions
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	users, err := s.store.Users.Suggest(ctx, viewer, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to suggest users", err)
	}
	return s.summaries(ctx, users, viewer)
}

// GetProfile returns a user by username with the viewer's follow status.
func (s *UserService) GetProfile(ctx context.Context, username, viewerID string) (*models.UserProfile, error) {
	viewer, err := parseViewerID(viewerID)
	if err != nil {
		return nil, err
	}
	user, err := s.getByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user}
	profile.Email = ""
	if viewer != uuid.Nil && viewer != user.ID {
		profile.IsFollowing, err = s.store.Follows.IsFollowing(ctx, viewer, user.ID)
		if err != nil {
			return nil, apperrors.Internal("failed to check follow status", err)
		}
	}
	return profile, nil
}

func (s *UserService) Update(ctx context.Context, userID string, req *UpdateUserRequest) (*models.User, error) {
	id, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	// 更新字段
	fields := make(map[string]interface{})
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		fields["name"] = user.Name
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
		fields["avatar"] = user.Avatar
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
		fields["bio"] = user.Bio
	}

	if err := s.store.Users.UpdateProfile(ctx, id, fields); err != nil {
		return nil, apperrors.Internal("failed to update user", err)
	}
	s.cache.Invalidate(ctx, id)

	s.events.Publish(ctx, id.String(), queue.EventUserUpdated, queue.UserEventData{
		UserID:   id.String(),
		Username: user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User updated successfully")
	return user, nil
}

// ToggleFollow follows targetID if followerID does not follow it yet and
// unfollows otherwise. The edge and both counters change in one transaction.
func (s *UserService) ToggleFollow(ctx context.Context, followerID, targetID string) (*FollowResult, error) {
	follower, err := parseID(followerID, "user")
	if err != nil {
		return nil, err
	}
	target, err := parseID(targetID, "user")
	if err != nil {
		return nil, err
	}
	if follower == target {
		return nil, apperrors.Conflict("cannot follow yourself")
	}

	for _, id := range []uuid.UUID{follower, target} {
		user, err := s.store.Users.GetByID(ctx, id)
		if err != nil {
			return nil, apperrors.Internal("failed to get user", err)
		}
		if user == nil {
			return nil, apperrors.NotFound("user not found")
		}
	}

	var action FollowAction
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		// 已关注则取消关注
		removed, err := tx.Follows.Delete(ctx, follower, target)
		if err != nil {
			return err
		}
		delta := int64(1)
		action = ActionFollowed
		if removed {
			delta = -1
			action = ActionUnfollowed
		} else if err := tx.Follows.Create(ctx, &models.Follow{FollowerID: follower, FollowingID: target}); err != nil {
			if repository.IsDuplicateKey(err) {
				return errEdgeExists
			}
			return err
		}

		if err := tx.Users.UpdateFollowerCount(ctx, target, delta); err != nil {
			return err
		}
		return tx.Users.UpdateFollowingCount(ctx, follower, delta)
	})
	switch {
	case errors.Is(err, errEdgeExists):
		// A concurrent request created the edge first; the outcome is the same.
		action = ActionFollowed
	case err != nil:
		return nil, apperrors.Internal("failed to toggle follow", err)
	}

	s.cache.Invalidate(ctx, follower, target)

	result := &FollowResult{Action: action}
	if result.FollowerCount, _, err = s.store.Users.Counts(ctx, target); err != nil {
		return nil, apperrors.Internal("failed to read follower count", err)
	}
	if _, result.FollowingCount, err = s.store.Users.Counts(ctx, follower); err != nil {
		return nil, apperrors.Internal("failed to read following count", err)
	}

	eventType := queue.EventFollowCreated
	if action == ActionUnfollowed {
		eventType = queue.EventFollowDeleted
	}
	s.events.Publish(ctx, follower.String(), eventType, queue.FollowEventData{
		FollowerID:  follower.String(),
		FollowingID: target.String(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  follower,
		"following_id": target,
		"action":       action,
	}).Info("Follow toggled")

	return result, nil
}

func (s *UserService) GetFollowers(ctx context.Context, username, viewerID string, offset, limit int) ([]models.UserSummary, error) {
	return s.listConnections(ctx, username, viewerID, offset, limit, s.store.Follows.GetFollowers)
}

func (s *UserService) GetFollowing(ctx context.Context, username, viewerID string, offset, limit int) ([]models.UserSummary, error) {
	return s.listConnections(ctx, username, viewerID, offset, limit, s.store.Follows.GetFollowing)
}

func (s *UserService) listConnections(
	ctx context.Context,
	username, viewerID string,
	offset, limit int,
	list func(context.Context, uuid.UUID, int, int) ([]*models.User, error),
) ([]models.UserSummary, error) {
	viewer, err := parseViewerID(viewerID)
	if err != nil {
		return nil, err
	}
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}
	user, err := s.getByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	users, err := list(ctx, user.ID, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}
	return s.summaries(ctx, users, viewer)
}

// Search matches username or name and flags the users the viewer follows.
func (s *UserService) Search(ctx context.Context, query, viewerID string, offset, limit int) ([]models.UserSummary, error) {
	viewer, err := parseViewerID(viewerID)
	if err != nil {
		return nil, err
	}
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}

	users, err := s.store.Users.Search(ctx, strings.TrimSpace(query), page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to search users", err)
	}
	return s.summaries(ctx, users, viewer)
}

// Delete soft-deletes a user on behalf of an admin and removes what hangs
// off the account: follow edges (with the counterparties' counters), likes,
// reposts, posts and comments.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	actor, err := parseID(actorID, "actor")
	if err != nil {
		return err
	}
	id, err := parseID(userID, "user")
	if err != nil {
		return err
	}

	if _, err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return apperrors.NotFound("user not found")
	}

	var touched []uuid.UUID
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		edges, err := tx.Follows.EdgesOf(ctx, id)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if edge.FollowerID == id {
				err = tx.Users.UpdateFollowerCount(ctx, edge.FollowingID, -1)
				touched = append(touched, edge.FollowingID)
			} else {
				err = tx.Users.UpdateFollowingCount(ctx, edge.FollowerID, -1)
				touched = append(touched, edge.FollowerID)
			}
			if err != nil {
				return err
			}
		}
		if err := tx.Follows.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Likes.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Reposts.DeleteByUser(ctx, id); err != nil {
			return err
		}

		postIDs, err := tx.Posts.IDsByUser(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Likes.DeleteByTargets(ctx, models.TargetPost, postIDs); err != nil {
			return err
		}
		if err := tx.Reposts.DeleteByPostIDs(ctx, postIDs); err != nil {
			return err
		}
		if err := tx.Posts.DeleteByUser(ctx, id); err != nil {
			return err
		}

		// 用户的评论连同其下的回复，以及其帖子下的全部评论
		roots, err := tx.Comments.IDsByUser(ctx, id)
		if err != nil {
			return err
		}
		onPosts, err := tx.Comments.IDsByPostIDs(ctx, postIDs)
		if err != nil {
			return err
		}
		commentIDs, err := tx.Comments.Threads(ctx, append(roots, onPosts...))
		if err != nil {
			return err
		}
		for _, kind := range []models.TargetType{models.TargetComment, models.TargetReply} {
			if err := tx.Likes.DeleteByTargets(ctx, kind, commentIDs); err != nil {
				return err
			}
		}
		if err := tx.Comments.DeleteByIDs(ctx, commentIDs); err != nil {
			return err
		}

		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		return apperrors.Internal("failed to delete user", err)
	}

	s.cache.Invalidate(ctx, append(touched, id)...)

	s.events.Publish(ctx, id.String(), queue.EventUserDeleted, queue.UserEventData{
		UserID:   id.String(),
		Username: user.Username,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":  id,
		"admin_id": actor,
	}).Info("User deleted")
	return nil
}

// requireAdmin checks the stored role, not the token's claim.
func (s *UserService) requireAdmin(ctx context.Context, actorID string) (*models.User, error) {
	actor, err := parseID(actorID, "actor")
	if err != nil {
		return nil, err
	}
	admin, err := s.store.Users.GetByID(ctx, actor)
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if admin == nil || !admin.IsAdmin() {
		return nil, apperrors.Forbidden("admin role required")
	}
	return admin, nil
}

func (s *UserService) getByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

func (s *UserService) summaries(ctx context.Context, users []*models.User, viewer uuid.UUID) ([]models.UserSummary, error) {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	following, err := s.store.Follows.FollowingSet(ctx, viewer, ids)
	if err != nil {
		return nil, apperrors.Internal("failed to check follow status", err)
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summary := u.Summary()
		summary.IsFollowing = following[u.ID]
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
