package handler

import (
	"context"

	"github.com/hitoshi/teamit/internal/auth"
	"github.com/hitoshi/teamit/internal/board"
	"github.com/hitoshi/teamit/internal/comment"
	"github.com/hitoshi/teamit/internal/draft"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/profile"
	"github.com/hitoshi/teamit/internal/project"
	"github.com/hitoshi/teamit/internal/repository"
	"github.com/hitoshi/teamit/internal/scrap"
)

// UserNameResolverAdapter はUserRepositoryをUserNameResolverに適合させるアダプタ。
type UserNameResolverAdapter struct {
	userRepo repository.UserRepository
}

// NewUserNameResolverAdapter はUserNameResolverAdapterを生成する。
func NewUserNameResolverAdapter(userRepo repository.UserRepository) *UserNameResolverAdapter {
	return &UserNameResolverAdapter{userRepo: userRepo}
}

// ResolveName はユーザーIDから表示名を解決する。
func (a *UserNameResolverAdapter) ResolveName(ctx context.Context, userID string) (string, error) {
	user, err := a.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", model.NewUserNotFoundError()
	}
	return user.Name, nil
}

// --- compile-time interface checks ---

var _ UserNameResolver = (*UserNameResolverAdapter)(nil)
var _ AuthServiceInterface = (*auth.Service)(nil)
var _ BoardServiceInterface = (*board.Service)(nil)
var _ CommentServiceInterface = (*comment.Service)(nil)
var _ ScrapServiceInterface = (*scrap.Service)(nil)
var _ ProjectServiceInterface = (*project.Service)(nil)
var _ ProfileServiceInterface = (*profile.Service)(nil)
var _ DraftRepositoryInterface = (*draft.Repository)(nil)
var _ DraftSlotInterface = (*draft.SlotCache)(nil)
