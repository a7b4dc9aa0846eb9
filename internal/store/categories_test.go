package store

import (
	"context"
	"errors"
	"testing"

	"github.com/volatiletech/null"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestCreateAndListCategories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateCategory(ctx, database, "Watches", "Wrist and pocket"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	CreateCategory(ctx, database, "Art", "")

	categories, err := ListCategories(ctx, database)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "Art" {
		t.Errorf("expected categories ordered by name, got %q first", categories[0].Name)
	}

	if _, err := CreateCategory(ctx, database, "Art", ""); err == nil {
		t.Error("expected error for duplicate category name")
	}
}

func TestGetCategoryMissing(t *testing.T) {
	database := db.NewTestDB(t)

	c, err := GetCategory(context.Background(), database, 42)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if c != nil {
		t.Error("expected nil for missing category")
	}
}

func TestDeleteCategoryKeepsItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seller, _ := CreateUser(ctx, database, "seller", "hash", model.RoleSeller)
	cat, _ := CreateCategory(ctx, database, "Coins", "")
	item, _ := CreateItem(ctx, database, model.Item{
		Name:       "Denarius",
		CategoryID: null.Int64From(cat.ID),
		SellerID:   seller.ID,
	})

	if err := DeleteCategory(ctx, database, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got == nil {
		t.Fatal("expected item to survive category deletion")
	}
	if got.CategoryID.Valid || got.Category != nil {
		t.Errorf("expected item without category, got %+v", got.CategoryID)
	}

	if err := DeleteCategory(ctx, database, cat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteCategoryClearsItemsOnPooledConnections(t *testing.T) {
	database := db.NewTestFileDB(t)
	ctx := context.Background()

	seller, _ := CreateUser(ctx, database, "seller", "hash", model.RoleSeller)
	cat, _ := CreateCategory(ctx, database, "Stamps", "")
	item, err := CreateItem(ctx, database, model.Item{
		Name:       "Penny Black",
		CategoryID: null.Int64From(cat.ID),
		SellerID:   seller.ID,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	// Keep one connection busy so the delete runs on a fresh one.
	held, err := database.Connx(ctx)
	if err != nil {
		t.Fatalf("Connx: %v", err)
	}
	defer held.Close()

	if err := DeleteCategory(ctx, database, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.CategoryID.Valid {
		t.Errorf("expected category_id cleared, got %d", got.CategoryID.Int64)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateCategory(ctx, database, "Maps", ""); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	_, err := CreateCategory(ctx, database, "Maps", "again")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}
