package snapshot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"recipebox/internal/blob"
	"recipebox/internal/core"
)

func seededStore(t *testing.T) *core.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := core.NewMemoryStore(core.NewDefaultRulesEngine())
	svc := core.NewService(store)
	for _, name := range []string{"Zoe", "Ada"} {
		if _, err := svc.AddAuthor(ctx, name, strings.ToLower(name)+"@x.io"); err != nil {
			t.Fatalf("add author: %v", err)
		}
	}
	for _, name := range []string{"Salt", "Flour", "Water"} {
		if _, err := svc.AddIngredient(ctx, name); err != nil {
			t.Fatalf("add ingredient: %v", err)
		}
	}
	if _, err := svc.AddRecipe(ctx, "Bread", "crusty", "Ada", []string{"Flour", "Water", "Salt"}); err != nil {
		t.Fatalf("add recipe: %v", err)
	}
	if _, err := svc.AddRecipe(ctx, "Brine", "", "Zoe", []string{"Water", "Salt"}); err != nil {
		t.Fatalf("add recipe: %v", err)
	}
	return store
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := seededStore(t)
	blobs := blob.NewMemory()
	fixed := time.Date(2024, 3, 9, 7, 0, 0, 0, time.UTC)
	exporter := NewExporter(source, blobs, WithClock(core.ClockFunc(func() time.Time { return fixed })))

	rec, err := exporter.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(rec.Key, KeyPrefix) || !strings.HasSuffix(rec.Key, ".json") {
		t.Fatalf("unexpected key %q", rec.Key)
	}
	if rec.Recipes != 2 || rec.Authors != 2 || rec.Ingredients != 3 || rec.SizeBytes == 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	info, err := blobs.Head(ctx, rec.Key)
	if err != nil || info.ContentType != ContentType || info.Metadata["recipes"] != "2" {
		t.Fatalf("unexpected blob info %+v %v", info, err)
	}

	target := core.NewMemoryStore(core.NewDefaultRulesEngine())
	doc, err := NewExporter(target, blobs).Import(ctx, rec.Key)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !doc.ExportedAt.Equal(fixed) {
		t.Fatalf("expected exported_at %v, got %v", fixed, doc.ExportedAt)
	}

	want, got := source.ExportState(), target.ExportState()
	if len(got.Authors) != 2 || got.Authors[0].Name != "Zoe" || got.Authors[1].Email != "ada@x.io" {
		t.Fatalf("author order not preserved: %+v", got.Authors)
	}
	if len(got.Ingredients) != 3 || got.Ingredients[0].Name != "Salt" || got.Ingredients[2].Name != "Water" {
		t.Fatalf("ingredient order not preserved: %+v", got.Ingredients)
	}
	if len(got.Recipes) != len(want.Recipes) {
		t.Fatalf("expected %d recipes, got %d", len(want.Recipes), len(got.Recipes))
	}
	for i := range want.Recipes {
		w, g := want.Recipes[i], got.Recipes[i]
		if w.Title != g.Title || w.Author != g.Author || !w.Date.Equal(g.Date) || strings.Join(w.Ingredients, ",") != strings.Join(g.Ingredients, ",") {
			t.Fatalf("recipe %d differs: want %+v got %+v", i, w, g)
		}
	}
}

func TestExportKeysAreUniqueAndListed(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	exporter := NewExporter(seededStore(t), blobs)
	first, err := exporter.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := exporter.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if first.Key == second.Key {
		t.Fatalf("expected distinct keys")
	}
	if _, err := blobs.Put(ctx, "unrelated.json", strings.NewReader("{}"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	infos, err := exporter.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != first.Key || infos[1].Key != second.Key {
		t.Fatalf("expected snapshots in creation order, got %+v", infos)
	}
}

func TestExportFailureIsReported(t *testing.T) {
	var logs bytes.Buffer
	exporter := NewExporter(seededStore(t), blob.NewMemory(),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	exporter.newID = func() (uuid.UUID, error) { return uuid.UUID{}, errors.New("entropy exhausted") }
	if _, err := exporter.Export(context.Background()); err == nil || !strings.Contains(err.Error(), "entropy") {
		t.Fatalf("expected id failure, got %v", err)
	}

	fixed := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	exporter.newID = func() (uuid.UUID, error) { return fixed, nil }
	if _, err := exporter.Export(context.Background()); err != nil {
		t.Fatalf("first export: %v", err)
	}
	if _, err := exporter.Export(context.Background()); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("expected key collision, got %v", err)
	}
	if !strings.Contains(logs.String(), "snapshot export failed") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	exporter := NewExporter(core.NewMemoryStore(nil), blobs)
	if _, err := exporter.Load(ctx, KeyPrefix+"missing.json"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := blobs.Put(ctx, KeyPrefix+"v2.json", strings.NewReader(`{"version":2,"recipes":[],"authors":[],"ingredients":[]}`), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := exporter.Import(ctx, KeyPrefix+"v2.json"); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version, got %v", err)
	}

	if _, err := blobs.Put(ctx, KeyPrefix+"junk.json", strings.NewReader(`{"version":1,"extra":true}`), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := exporter.Load(ctx, KeyPrefix+"junk.json"); err == nil {
		t.Fatalf("expected unknown fields to be rejected")
	}
}

func TestImportDropsDanglingRecipes(t *testing.T) {
	doc := `{"version":1,"exported_at":"2024-01-01T00:00:00Z",
		"authors":[{"name":"Ada","email":""}],
		"ingredients":[{"name":"Flour"}],
		"recipes":[
			{"title":"Bread","description":"","date":"2024-01-01T00:00:00Z","author":"Ada","ingredients":["Flour"]},
			{"title":"Ghost","description":"","date":"2024-01-01T00:00:00Z","author":"Nobody","ingredients":[]}
		]}`
	ctx := context.Background()
	blobs := blob.NewMemory()
	if _, err := blobs.Put(ctx, KeyPrefix+"hand.json", strings.NewReader(doc), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	store := core.NewMemoryStore(core.NewDefaultRulesEngine())
	loaded, err := NewExporter(store, blobs).Import(ctx, KeyPrefix+"hand.json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(loaded.Recipes) != 2 {
		t.Fatalf("document should be returned as stored, got %+v", loaded.Recipes)
	}
	if recipes := store.ListRecipes(); len(recipes) != 1 || recipes[0].Title != "Bread" {
		t.Fatalf("expected dangling recipe to be dropped, got %+v", recipes)
	}
}

func TestURLDelegatesToDriver(t *testing.T) {
	exporter := NewExporter(core.NewMemoryStore(nil), blob.NewMemory())
	if _, err := exporter.URL(context.Background(), KeyPrefix+"x.json", time.Minute); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}
