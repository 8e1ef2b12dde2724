package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/mmk-sweeper/internal/core"
	"github.com/target/mmk-sweeper/internal/domain/model"
)

// PageFetcher reads one page of a job index.
type PageFetcher[T any] func(ctx context.Context, offset, limit int) ([]model.JobEntry[T], error)

// PageDeleteParams configures one paginated deletion pass over a job category.
type PageDeleteParams[T any] struct {
	Category model.JobCategory
	Fetch    PageFetcher[T]
	// ShouldDelete receives a nil payload when the store no longer has one.
	ShouldDelete func(payload *T) (bool, error)
	// OnSkip is called once for every entry that is examined and left in place.
	OnSkip    func(ctx context.Context, jobID string, payload *T)
	BatchSize int
	Logger    *slog.Logger
}

// PageDeleteResult reports what one pass did.
type PageDeleteResult struct {
	Deleted int
	Skipped int
	Pages   int
}

// PageDelete walks a job index page by page and deletes every entry the predicate
// selects. Each page is staged in a single store transaction and committed once.
//
// Deleting an entry shrinks the index, so the cursor only advances past entries that
// were kept. A page shorter than the batch size ends the walk. Entries whose commit
// fails are not counted and the error is returned; pages committed earlier stay deleted.
// ctx is checked before every fetch.
func PageDelete[T any](ctx context.Context, store core.TxBeginner, p PageDeleteParams[T]) (PageDeleteResult, error) {
	var res PageDeleteResult
	if p.BatchSize < 1 {
		return res, core.ErrInvalidBatchSize
	}
	if p.Fetch == nil || p.ShouldDelete == nil {
		return res, fmt.Errorf("page delete %s: fetch and predicate are required", p.Category)
	}

	offset := 0
	limit := p.BatchSize
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		page, err := p.Fetch(ctx, offset, limit)
		if err != nil {
			return res, fmt.Errorf("fetch %s page at offset %d: %w", p.Category, offset, err)
		}
		if len(page) == 0 {
			return res, nil
		}
		res.Pages++

		deleted, skipped, err := deletePage(ctx, store, p, page)
		if err != nil {
			return res, err
		}
		res.Deleted += deleted
		res.Skipped += skipped
		offset += skipped

		if p.Logger != nil {
			p.Logger.DebugContext(ctx, "page processed",
				"category", p.Category,
				"page", res.Pages,
				"size", len(page),
				"deleted", deleted,
				"skipped", skipped,
				"offset", offset,
			)
		}

		if len(page) < limit {
			return res, nil
		}
	}
}

// deletePage stages deletions for one page in a single transaction and commits it.
func deletePage[T any](
	ctx context.Context,
	store core.TxBeginner,
	p PageDeleteParams[T],
	page []model.JobEntry[T],
) (deleted, skipped int, err error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin %s page transaction: %w", p.Category, err)
	}
	defer func() { _ = tx.Rollback() }()

	staged := 0
	for _, entry := range page {
		ok, err := p.ShouldDelete(entry.Payload)
		if err != nil {
			return 0, 0, fmt.Errorf("evaluate %s job %s: %w", p.Category, entry.ID, err)
		}
		if !ok {
			if p.OnSkip != nil {
				p.OnSkip(ctx, entry.ID, entry.Payload)
			}
			skipped++
			continue
		}
		tx.MarkDeleted(entry.ID)
		tx.RemoveFromIndex(p.Category, entry.ID)
		tx.ExpireJob(entry.ID, 0)
		staged++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit %s page: %w", p.Category, err)
	}
	return staged, skipped, nil
}
