// Package importer runs batches of statement files through extraction,
// parsing and the merge into the ledger.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/extractor"
	"github.com/italogmoura/ControleGastosDomesticos/internal/jsonmap"
	"github.com/italogmoura/ControleGastosDomesticos/internal/ledger"
	"github.com/italogmoura/ControleGastosDomesticos/internal/logger"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/parser"
)

// Kind is the format of an input file.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindJSON Kind = "json"
)

// File is one input of a batch.
type File struct {
	Name string
	Data []byte
}

// FileResult reports what happened to one file.
type FileResult struct {
	Name         string                 `json:"name"`
	Kind         Kind                   `json:"kind,omitempty"`
	Issuer       models.Issuer          `json:"issuer,omitempty"`
	Pages        int                    `json:"pages,omitempty"`
	Transactions int                    `json:"transactions"`
	Skipped      int                    `json:"skipped,omitempty"`
	Strategies   []string               `json:"strategies,omitempty"`
	Lines        []string               `json:"lines,omitempty"` // reconstructed lines, debug only
	Code         models.ImportErrorCode `json:"code,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Failed reports whether the file contributed nothing because of an error.
func (r *FileResult) Failed() bool { return r.Error != "" }

// BatchResult reports a whole batch.
type BatchResult struct {
	ID    string             `json:"id"`
	Files []FileResult       `json:"files"`
	Merge ledger.MergeResult `json:"merge"`
	Total int                `json:"total"` // collection size after the batch
}

// Failures counts failed files.
func (b *BatchResult) Failures() int {
	n := 0
	for i := range b.Files {
		if b.Files[i].Failed() {
			n++
		}
	}
	return n
}

// Options tune an Importer.
type Options struct {
	RowTolerance float64
	Now          func() time.Time
	Debug        bool // keep reconstructed lines in results
}

// Importer wires the pipeline. Batches run one file at a time.
type Importer struct {
	parser  *parser.Parser
	mapper  *jsonmap.Mapper
	ledger  *ledger.Collection
	learner ledger.Learner
	opts    Options
}

func New(cat *categorizer.Categorizer, coll *ledger.Collection, learner ledger.Learner, opts Options) *Importer {
	if opts.RowTolerance <= 0 {
		opts.RowTolerance = extractor.DefaultRowTolerance
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{
		parser:  parser.New(cat),
		mapper:  jsonmap.New(cat, opts.Now),
		ledger:  coll,
		learner: learner,
		opts:    opts,
	}
}

// ImportBatch parses every file in order and merges each file's drafts
// before moving to the next, so later files win on id collisions. A file
// that fails is reported and skipped; the batch itself never fails. Progress
// is logged to the context logger.
func (im *Importer) ImportBatch(ctx context.Context, files []File) *BatchResult {
	res := &BatchResult{ID: uuid.NewString()}
	log := logger.FromContext(ctx).With().Str("batch", res.ID).Logger()

	for _, f := range files {
		flog := logger.WithFields(log, map[string]interface{}{"file": f.Name})
		drafts, fr := im.Parse(ctx, f)
		if fr.Failed() {
			flog.Warn().Str("code", string(fr.Code)).Msg(fr.Error)
			res.Files = append(res.Files, fr)
			continue
		}

		m := im.ledger.Merge(drafts, im.learner)
		res.Merge.Added += m.Added
		res.Merge.Updated += m.Updated
		res.Files = append(res.Files, fr)

		ev := flog.Info().Str("kind", string(fr.Kind)).Str("issuer", string(fr.Issuer)).
			Int("transactions", fr.Transactions).Int("added", m.Added)
		if fr.Pages > 0 {
			ev = ev.Int("pages", fr.Pages)
		}
		ev.Msg("File imported")
	}

	res.Total = im.ledger.Len()
	log.Info().Int("files", len(files)).Int("failed", res.Failures()).Int("total", res.Total).Msg("Batch complete")
	return res
}

// ImportPaths reads files from disk and imports them as one batch. Files
// that cannot be read are reported with READ_FAILED.
func (im *Importer) ImportPaths(ctx context.Context, paths []string) *BatchResult {
	var files []File
	var unreadable []FileResult
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			ie := &models.ImportError{Code: models.ErrReadFailed, Source: filepath.Base(p), Message: "cannot read file", Cause: err}
			unreadable = append(unreadable, failure(filepath.Base(p), ie))
			continue
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	res := im.ImportBatch(ctx, files)
	res.Files = append(res.Files, unreadable...)
	return res
}

// Parse turns one file into drafts without touching the ledger.
func (im *Importer) Parse(ctx context.Context, f File) ([]models.Transaction, FileResult) {
	kind, err := DetectKind(f.Name, f.Data)
	if err != nil {
		return nil, failure(f.Name, err)
	}
	switch kind {
	case KindJSON:
		return im.parseJSON(f)
	default:
		return im.parsePDF(ctx, f)
	}
}

func (im *Importer) parsePDF(ctx context.Context, f File) ([]models.Transaction, FileResult) {
	doc, err := extractor.Extract(ctx, f.Data)
	if err != nil {
		return nil, failure(f.Name, err)
	}

	lines := doc.Lines(im.opts.RowTolerance)
	issuer := parser.Detect(doc.FullText, f.Name)
	info := im.parser.ParseStatement(f.Name, parser.Input{
		Lines:  lines,
		Text:   doc.FullText,
		Issuer: issuer,
		Now:    im.opts.Now(),
	})

	fr := FileResult{
		Name:         f.Name,
		Kind:         KindPDF,
		Issuer:       issuer,
		Pages:        doc.PageCount,
		Transactions: len(info.Transactions),
		Strategies:   im.parser.Strategies(issuer),
	}
	if im.opts.Debug {
		fr.Lines = lines
	}
	return info.Transactions, fr
}

func (im *Importer) parseJSON(f File) ([]models.Transaction, FileResult) {
	res, err := im.mapper.Map(f.Data)
	if err != nil {
		return nil, failure(f.Name, err)
	}
	fr := FileResult{Name: f.Name, Kind: KindJSON, Skipped: res.Skipped}
	if len(res.Statements) > 0 {
		fr.Issuer = res.Statements[0].Issuer
	}
	txns := res.Transactions()
	fr.Transactions = len(txns)
	return txns, fr
}

// DetectKind decides the format from the extension, then from the content.
func DetectKind(name string, data []byte) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".json":
		return KindJSON, nil
	}
	trimmed := bytes.TrimLeft(data, "\x00\t\r\n \xef\xbb\xbf")
	switch {
	case bytes.HasPrefix(trimmed, []byte("%PDF")):
		return KindPDF, nil
	case bytes.HasPrefix(trimmed, []byte("{")):
		return KindJSON, nil
	}
	return "", models.NewImportError(models.ErrUnsupportedType,
		fmt.Sprintf("unsupported file type %q", filepath.Ext(name)), nil)
}

func failure(name string, err error) FileResult {
	code := models.ImportErrorCodeOf(err)
	if code == "" {
		code = models.ErrReadFailed
	}
	return FileResult{Name: name, Code: code, Error: err.Error()}
}
