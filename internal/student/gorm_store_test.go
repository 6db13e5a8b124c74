//go:build cgo

package student

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestGormStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st, err := NewGormStore(EngineSQLite, filepath.Join(t.TempDir(), "students.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if _, err := st.Create(ctx, Record{FullName: "  "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank name: err = %v", err)
	}
	ada, err := st.Create(ctx, Record{FullName: "Ada Lovelace", Department: "Computer Science", Extra: map[string]any{"pet": "cat"}})
	if err != nil {
		t.Fatal(err)
	}
	if ada.ID == "" || ada.CreatedAt.IsZero() {
		t.Fatalf("identity not assigned: %+v", ada)
	}
	if _, err := st.Create(ctx, Record{FullName: "Alan Turing"}); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: err = %v", err)
	}
	got, err := st.Get(ctx, ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FullName != "Ada Lovelace" || got.Extra["pet"] != "cat" || got.CardImageURL != nil {
		t.Fatalf("round trip = %+v", got)
	}

	got, err = st.SetFeatured(ctx, ada.ID, true)
	if err != nil || !got.Featured {
		t.Fatalf("SetFeatured = %+v, %v", got, err)
	}
	featured, err := st.ListFeatured(ctx)
	if err != nil || len(featured) != 1 || featured[0].ID != ada.ID {
		t.Fatalf("ListFeatured = %+v, %v", featured, err)
	}
	if _, err := st.SetFeatured(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetFeatured missing: err = %v", err)
	}

	url := "https://cdn.example.com/cards/ada.png"
	got, err = st.AttachCard(ctx, ada.ID, url)
	if err != nil || got.CardImageURL == nil || *got.CardImageURL != url {
		t.Fatalf("AttachCard = %+v, %v", got.CardImageURL, err)
	}
	if _, err := st.AttachCard(ctx, "missing", url); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AttachCard missing: err = %v", err)
	}

	all, err := st.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List = %d, %v", len(all), err)
	}
	if err := st.Delete(ctx, ada.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, ada.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: err = %v", err)
	}
}
