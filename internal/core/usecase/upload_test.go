package usecase

import (
	"context"
	"testing"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

func TestUploadStagesAndPublishes(t *testing.T) {
	store := newStoreFake()
	repo := newRepoFake()
	queue := &queueFake{}
	uploader := NewUploader(NewIntake(&extractorFake{text: "text"}), repo, store, queue)

	raw := []byte("purchase agreement draft")
	doc, err := uploader.Upload(context.Background(), "agreement.txt", "text/plain", raw)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if _, ok := store.objects[StagingPrefix+doc.ID]; !ok {
		t.Fatal("raw bytes not staged")
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Fatal("document row not created")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("published = %v", queue.published)
	}
}

func TestUploadDuplicateContentIsIdempotent(t *testing.T) {
	store := newStoreFake()
	repo := newRepoFake()
	queue := &queueFake{}
	uploader := NewUploader(NewIntake(&extractorFake{text: "text"}), repo, store, queue)

	raw := []byte("the same bytes twice")
	first, err := uploader.Upload(context.Background(), "a.txt", "text/plain", raw)
	if err != nil {
		t.Fatalf("first Upload() error = %v", err)
	}
	second, err := uploader.Upload(context.Background(), "b.txt", "text/plain", raw)
	if err != nil {
		t.Fatalf("second Upload() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if store.puts != 1 {
		t.Fatalf("staging writes = %d, want 1", store.puts)
	}
}

func TestUploadRejectsBadInputBeforeAnySideEffect(t *testing.T) {
	store := newStoreFake()
	repo := newRepoFake()
	queue := &queueFake{}
	uploader := NewUploader(NewIntake(&extractorFake{}), repo, store, queue)

	_, err := uploader.Upload(context.Background(), "x.png", "image/png", []byte{1, 2, 3})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if store.puts != 0 || len(repo.docs) != 0 || len(queue.published) != 0 {
		t.Fatal("rejected upload must leave no side effects")
	}
}
