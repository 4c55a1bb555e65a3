package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bgatm/replay-engine/internal/storage"
	"github.com/bgatm/replay-engine/pkg/parser"
	pkgqueue "github.com/bgatm/replay-engine/pkg/queue"
)

// ParseProcessor turns stored raw match documents into reconstructed
// replays. It owns no goroutines; the worker drives it one job at a time.
type ParseProcessor struct {
	storage  storage.Storage
	registry *storage.Registry
	parser   *parser.Parser
	log      *slog.Logger
}

// NewParseProcessor creates a processor over the given storage and registry.
// The registry may be nil, in which case parse completion is not recorded.
func NewParseProcessor(s storage.Storage, registry *storage.Registry, log *slog.Logger) *ParseProcessor {
	return &ParseProcessor{
		storage:  s,
		registry: registry,
		parser:   parser.New(),
		log:      log,
	}
}

// ProcessParse loads the raw document for a job's table, reconstructs the
// replay, and persists the result.
func (p *ParseProcessor) ProcessParse(ctx context.Context, job *pkgqueue.Job) error {
	raw, err := p.storage.LoadRawDocument(ctx, job.TableID, job.Perspective)
	if err != nil {
		return fmt.Errorf("failed to load raw document: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("no raw document stored for table %s perspective %s", job.TableID, job.Perspective)
	}

	// The table page is optional. Without it the replay simply has no
	// ELO data.
	table, err := p.storage.LoadTablePage(ctx, job.TableID, job.Perspective)
	if err != nil {
		p.log.Warn("Failed to load table page, continuing without ELO data",
			"error", err, "table_id", job.TableID)
		table = nil
	}

	g, err := p.parser.ParseWithTable(string(raw), string(table), job.TableID)
	if err != nil {
		return fmt.Errorf("failed to reconstruct replay: %w", err)
	}
	g.PlayerPerspective = job.Perspective

	if len(g.Metadata.ParseWarnings) > 0 {
		p.log.Warn("Replay reconstructed with warnings",
			"table_id", job.TableID,
			"warnings", len(g.Metadata.ParseWarnings),
		)
	}

	if err := p.storage.SaveReplay(ctx, g); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	if p.registry != nil {
		if err := p.registry.MarkParsed(ctx, job.TableID, job.Perspective); err != nil {
			return fmt.Errorf("failed to mark table parsed: %w", err)
		}
	}

	p.log.Info("Replay saved",
		"table_id", job.TableID,
		"perspective", job.Perspective,
		"moves", g.Metadata.TotalMoves,
	)
	return nil
}
