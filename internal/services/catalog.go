package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type CatalogCategory struct {
	*types.Category
	VideoCount int                `json:"video_count"`
	Children   []*CatalogCategory `json:"children,omitempty"`
}

type VideoWithProgress struct {
	*types.Video
	ProgressPercent float64 `json:"progress_percent"`
	LastPosition    float64 `json:"last_position"`
}

type CategoryDetail struct {
	Category *types.Category      `json:"category"`
	Children []*CatalogCategory   `json:"children"`
	Videos   []*VideoWithProgress `json:"videos"`
}

type Dashboard struct {
	Categories     []*CatalogCategory   `json:"categories"`
	RecentVideos   []*VideoWithProgress `json:"recent_videos"`
	InProgress     []*VideoWithProgress `json:"in_progress"`
	CompletedCount int                  `json:"completed_count"`
}

type CatalogService interface {
	Catalog(ctx context.Context, rc *ctxutil.RequestContext) ([]*CatalogCategory, error)
	VisibleCategories(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Category, error)
	CategoryDetail(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (*CategoryDetail, error)
	Dashboard(ctx context.Context, rc *ctxutil.RequestContext) (*Dashboard, error)
	VisibleVideo(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) (*types.Video, error)
}

type catalogService struct {
	categoryRepo repos.CategoryRepo
	videoRepo    repos.VideoRepo
	progressRepo repos.ProgressRepo
	access       AccessService
	log          *logger.Logger
}

func NewCatalogService(
	categoryRepo repos.CategoryRepo,
	videoRepo repos.VideoRepo,
	progressRepo repos.ProgressRepo,
	access AccessService,
	baseLog *logger.Logger,
) CatalogService {
	serviceLog := baseLog.With("service", "CatalogService")
	return &catalogService{
		categoryRepo: categoryRepo,
		videoRepo:    videoRepo,
		progressRepo: progressRepo,
		access:       access,
		log:          serviceLog,
	}
}

// Catalog assembles the category tree a user may browse. The allow-list is
// resolved once; a restricted parent hides its whole subtree regardless of
// the children's own rows.
func (s *catalogService) Catalog(ctx context.Context, rc *ctxutil.RequestContext) ([]*CatalogCategory, error) {
	categories, err := s.categoryRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	access, err := s.access.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}

	counts, err := s.videoCounts(ctx)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]*types.Category)
	var roots []*types.Category
	for _, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}

	var out []*CatalogCategory
	for _, root := range roots {
		if !access.CanView(rc, root.ID) {
			continue
		}
		node := &CatalogCategory{Category: root, VideoCount: counts[root.ID]}
		for _, child := range byParent[root.ID] {
			if !access.CanView(rc, child.ID) {
				continue
			}
			childNode := &CatalogCategory{Category: child, VideoCount: counts[child.ID]}
			node.VideoCount += childNode.VideoCount
			node.Children = append(node.Children, childNode)
		}
		out = append(out, node)
	}
	if out == nil {
		out = []*CatalogCategory{}
	}
	return out, nil
}

// VisibleCategories is the flat list behind category pickers. The same
// parent rule as Catalog applies: a hidden parent hides its children.
func (s *catalogService) VisibleCategories(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Category, error) {
	categories, err := s.categoryRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	access, err := s.access.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}

	out := []*types.Category{}
	for _, c := range categories {
		if !access.CanView(rc, c.ID) {
			continue
		}
		if c.ParentID != nil && !access.CanView(rc, *c.ParentID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *catalogService) videoCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	videos, err := s.videoRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int)
	for _, v := range videos {
		if v.CategoryID != nil {
			counts[*v.CategoryID]++
		}
	}
	return counts, nil
}

func (s *catalogService) CategoryDetail(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (*CategoryDetail, error) {
	category, err := s.categoryRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: category", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	access, err := s.access.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !s.subtreeVisible(ctx, rc, access, category) {
		return nil, fmt.Errorf("%w: category is not available for your industry", ErrForbidden)
	}

	counts, err := s.videoCounts(ctx)
	if err != nil {
		return nil, err
	}
	children, err := s.categoryRepo.ListChildren(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	var visibleChildren []*CatalogCategory
	for _, child := range children {
		if access.CanView(rc, child.ID) {
			visibleChildren = append(visibleChildren, &CatalogCategory{Category: child, VideoCount: counts[child.ID]})
		}
	}
	if visibleChildren == nil {
		visibleChildren = []*CatalogCategory{}
	}

	videos, err := s.videoRepo.ListByCategory(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	withProgress, err := s.attachProgress(ctx, rc, videos)
	if err != nil {
		return nil, err
	}

	return &CategoryDetail{
		Category: category,
		Children: visibleChildren,
		Videos:   withProgress,
	}, nil
}

// subtreeVisible walks up to the root so a child of a restricted parent is
// hidden even when the child itself carries no rows.
func (s *catalogService) subtreeVisible(ctx context.Context, rc *ctxutil.RequestContext, access *CategoryAccess, category *types.Category) bool {
	if !access.CanView(rc, category.ID) {
		return false
	}
	if category.ParentID == nil {
		return true
	}
	parent, err := s.categoryRepo.GetByID(ctx, nil, *category.ParentID)
	if err != nil {
		return false
	}
	return access.CanView(rc, parent.ID)
}

func (s *catalogService) attachProgress(ctx context.Context, rc *ctxutil.RequestContext, videos []*types.Video) ([]*VideoWithProgress, error) {
	rows, err := s.progressRepo.ListByUser(ctx, nil, rc.UserID)
	if err != nil {
		return nil, err
	}
	byVideo := make(map[uuid.UUID]*types.Progress, len(rows))
	for _, p := range rows {
		byVideo[p.VideoID] = p
	}
	out := make([]*VideoWithProgress, 0, len(videos))
	for _, v := range videos {
		vp := &VideoWithProgress{Video: v}
		if p, ok := byVideo[v.ID]; ok {
			vp.ProgressPercent = p.ProgressPercent
			vp.LastPosition = p.LastPosition
		}
		out = append(out, vp)
	}
	return out, nil
}

func (s *catalogService) Dashboard(ctx context.Context, rc *ctxutil.RequestContext) (*Dashboard, error) {
	categories, err := s.Catalog(ctx, rc)
	if err != nil {
		return nil, err
	}

	visible := make(map[uuid.UUID]bool)
	for _, root := range categories {
		visible[root.ID] = true
		for _, child := range root.Children {
			visible[child.ID] = true
		}
	}

	videos, err := s.videoRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	var visibleVideos []*types.Video
	for _, v := range videos {
		if v.CategoryID == nil || visible[*v.CategoryID] {
			visibleVideos = append(visibleVideos, v)
		}
	}

	const recentLimit = 6
	recent := visibleVideos
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	recentWithProgress, err := s.attachProgress(ctx, rc, recent)
	if err != nil {
		return nil, err
	}

	allWithProgress, err := s.attachProgress(ctx, rc, visibleVideos)
	if err != nil {
		return nil, err
	}
	var inProgress []*VideoWithProgress
	completed := 0
	for _, vp := range allWithProgress {
		switch {
		case vp.ProgressPercent >= 100:
			completed++
		case vp.ProgressPercent > 0:
			inProgress = append(inProgress, vp)
		}
	}
	if inProgress == nil {
		inProgress = []*VideoWithProgress{}
	}

	return &Dashboard{
		Categories:     categories,
		RecentVideos:   recentWithProgress,
		InProgress:     inProgress,
		CompletedCount: completed,
	}, nil
}

// VisibleVideo returns the video when the caller's industry may see its
// category. Streaming and Q&A go through this gate.
func (s *catalogService) VisibleVideo(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) (*types.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, nil, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: video", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if video.CategoryID == nil {
		return video, nil
	}
	category, err := s.categoryRepo.GetByID(ctx, nil, *video.CategoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return video, nil
	}
	if err != nil {
		return nil, err
	}
	access, err := s.access.Resolve(ctx, nil)
	if err != nil {
		return nil, err
	}
	if !s.subtreeVisible(ctx, rc, access, category) {
		return nil, fmt.Errorf("%w: video is not available for your industry", ErrForbidden)
	}
	return video, nil
}
