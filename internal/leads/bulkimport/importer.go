package bulkimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"leadbroker_backend/internal/events"
	"leadbroker_backend/internal/leads/domain"
	"leadbroker_backend/platform/logger"
)

// Context identifies who is importing and how the created leads are sourced.
type Context struct {
	AgencyID  *uuid.UUID
	CreatedBy *uuid.UUID
	Source    domain.Source
}

// RowError reports one failed row. Row numbering is 1-based with the header
// counted as row 1, so the first data row is row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result is the outcome of one import call. The import itself never fails
// atomically, so callers can always render a partial-success report.
type Result struct {
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
	Errors       []RowError `json:"errors"`
}

// LeadCreator is the single-lead creation path. It runs routing internally,
// so a returned error means the lead itself could not be created.
type LeadCreator interface {
	CreateFromImport(ctx context.Context, rec Record, ic Context) error
}

// Archiver stores the raw upload for later audit. Failures are logged and
// never affect the import result.
type Archiver interface {
	ArchiveImport(ctx context.Context, raw string, agencyID *uuid.UUID) (string, error)
}

// Importer drives Parse, header validation, and per-row lead creation.
type Importer struct {
	creator LeadCreator
	archive Archiver
	bus     events.Bus
	log     *logger.Logger
}

// NewImporter wires the orchestrator. archive may be nil when no object store
// is configured.
func NewImporter(creator LeadCreator, archive Archiver, bus events.Bus, log *logger.Logger) *Importer {
	return &Importer{creator: creator, archive: archive, bus: bus, log: log}
}

// Import processes the raw CSV text row by row, strictly sequentially. A row
// that fails validation or creation is counted and skipped; already created
// leads are never rolled back.
func (im *Importer) Import(ctx context.Context, raw string, ic Context) Result {
	rows := Parse(raw)
	if len(rows) == 0 {
		return Result{}
	}

	header, missing := ParseHeader(rows[0])
	if len(missing) > 0 {
		return Result{
			ErrorCount: len(rows) - 1,
			Errors: []RowError{{
				Row:     1,
				Message: "missing required columns: " + strings.Join(missing, ", "),
			}},
		}
	}

	var res Result
	for i, row := range rows[1:] {
		rowNum := i + 2

		rec, err := ValidateRow(header, row)
		if err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if err := im.creator.CreateFromImport(ctx, rec, ic); err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("create lead: %v", err)})
			continue
		}
		res.SuccessCount++
	}

	im.archiveUpload(ctx, raw, ic)
	im.bus.Publish(ctx, events.LeadImported{
		BaseEvent:    events.NewBaseEvent(),
		AgencyID:     ic.AgencyID,
		SuccessCount: res.SuccessCount,
		ErrorCount:   res.ErrorCount,
	})
	return res
}

func (im *Importer) archiveUpload(ctx context.Context, raw string, ic Context) {
	if im.archive == nil {
		return
	}
	key, err := im.archive.ArchiveImport(ctx, raw, ic.AgencyID)
	if err != nil {
		im.log.Warn("import_archive_failed", "error", err.Error())
		return
	}
	im.log.Info("import_archived", "object_key", key)
}
