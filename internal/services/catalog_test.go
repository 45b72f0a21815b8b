package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

func newCatalogService(gdb *gorm.DB) CatalogService {
	log := logger.NewNop()
	categoryRepo := repos.NewCategoryRepo(gdb, log)
	return NewCatalogService(
		categoryRepo,
		repos.NewVideoRepo(gdb, log),
		repos.NewProgressRepo(gdb, log),
		NewAccessService(categoryRepo, log),
		log,
	)
}

func categoryNames(categories []*CatalogCategory) map[string]bool {
	names := map[string]bool{}
	for _, c := range categories {
		names[c.Name] = true
	}
	return names
}

func TestCatalogFiltersByIndustry(t *testing.T) {
	gdb := testDB(t)
	svc := newCatalogService(gdb)
	ctx := context.Background()

	hotel := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	retail := rcFor(seededUser(t, gdb, "shop_sato"))

	hotelCats, err := svc.Catalog(ctx, hotel)
	if err != nil {
		t.Fatalf("Catalog(hotel): %v", err)
	}
	names := categoryNames(hotelCats)
	if !names["宿泊業向けAI活用"] {
		t.Fatal("hotel user should see the accommodation track")
	}
	if names["小売業向けAI活用"] {
		t.Fatal("hotel user should not see the retail track")
	}
	if !names["基礎編"] {
		t.Fatal("public categories should always be visible")
	}

	retailCats, err := svc.Catalog(ctx, retail)
	if err != nil {
		t.Fatalf("Catalog(retail): %v", err)
	}
	names = categoryNames(retailCats)
	if names["宿泊業向けAI活用"] || !names["小売業向けAI活用"] {
		t.Fatalf("retail visibility wrong: %v", names)
	}
}

func TestCatalogSuperAdminSeesEverything(t *testing.T) {
	gdb := testDB(t)
	svc := newCatalogService(gdb)

	categories, err := svc.Catalog(context.Background(), superRC(t, gdb))
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	names := categoryNames(categories)
	for _, want := range []string{"宿泊業向けAI活用", "小売業向けAI活用", "医療業向けAI活用", "基礎編"} {
		if !names[want] {
			t.Fatalf("super admin missing %q", want)
		}
	}
}

func TestCategoryDetailHiddenSubtree(t *testing.T) {
	gdb := testDB(t)
	svc := newCatalogService(gdb)
	ctx := context.Background()
	retail := rcFor(seededUser(t, gdb, "shop_sato"))

	// A child of the accommodation track carries no access rows of its own,
	// yet the restricted parent hides it.
	child := seededCategory(t, gdb, "予約管理の効率化")
	if _, err := svc.CategoryDetail(ctx, retail, child.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}

	public := seededCategory(t, gdb, "基礎編")
	detail, err := svc.CategoryDetail(ctx, retail, public.ID)
	if err != nil {
		t.Fatalf("CategoryDetail(public): %v", err)
	}
	if len(detail.Children) == 0 {
		t.Fatal("public root should list its children")
	}
}

func TestVisibleVideoGating(t *testing.T) {
	gdb := testDB(t)
	svc := newCatalogService(gdb)
	ctx := context.Background()

	hotelCat := seededCategory(t, gdb, "宿泊業向けAI活用")
	restricted := createVideo(t, gdb, "ホテル向け研修", "hotel-training", &hotelCat.ID)
	open := createVideo(t, gdb, "全社向け研修", "open-training", nil)

	hotel := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	retail := rcFor(seededUser(t, gdb, "shop_sato"))

	if _, err := svc.VisibleVideo(ctx, hotel, restricted.ID); err != nil {
		t.Fatalf("hotel user should see own-industry video: %v", err)
	}
	if _, err := svc.VisibleVideo(ctx, retail, restricted.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden for retail user, got %v", err)
	}
	if _, err := svc.VisibleVideo(ctx, retail, open.ID); err != nil {
		t.Fatalf("uncategorized video should be visible: %v", err)
	}
}

func TestVisibleCategoriesFlatList(t *testing.T) {
	gdb := testDB(t)
	svc := newCatalogService(gdb)
	ctx := context.Background()

	suzuki := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	categories, err := svc.VisibleCategories(ctx, suzuki)
	if err != nil {
		t.Fatalf("VisibleCategories: %v", err)
	}
	names := map[string]bool{}
	for _, c := range categories {
		names[c.Name] = true
	}
	for _, want := range []string{"基礎編", "宿泊業向けAI活用", "予約管理の効率化"} {
		if !names[want] {
			t.Fatalf("hotel user missing %q: %v", want, names)
		}
	}
	if names["小売業向けAI活用"] {
		t.Fatalf("hotel user sees retail category: %v", names)
	}

	sato := rcFor(seededUser(t, gdb, "shop_sato"))
	categories, err = svc.VisibleCategories(ctx, sato)
	if err != nil {
		t.Fatalf("VisibleCategories: %v", err)
	}
	for _, c := range categories {
		if c.Name == "宿泊業向けAI活用" || c.Name == "予約管理の効率化" {
			t.Fatalf("retail user sees hotel category %q", c.Name)
		}
	}
}
