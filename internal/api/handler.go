package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/italogmoura/ControleGastosDomesticos/internal/importer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/ledger"
	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
	"github.com/italogmoura/ControleGastosDomesticos/internal/writer"
)

const version = "1.0.0"

// maxUpload bounds a single multipart upload.
const maxUpload = 32 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// TransactionsResponse is the body of GET /api/transactions.
type TransactionsResponse struct {
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
}

// SplitRequest is the body of POST /api/transactions/:id/split.
type SplitRequest struct {
	Label string `json:"label"`
}

// SplitResponse returns the confirmed transaction and the rule it updated.
type SplitResponse struct {
	Transaction models.Transaction `json:"transaction"`
	Rule        rules.Rule         `json:"rule"`
}

// Handler holds the application state served over HTTP.
type Handler struct {
	Importer *importer.Importer
	Ledger   *ledger.Collection
	Rules    *rules.Engine
	Ratio    float64
	Log      zerolog.Logger
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/import", h.HandleImport)
	api.Get("/transactions", h.HandleTransactions)
	api.Post("/transactions/:id/split", h.HandleSplit)
	api.Get("/export.csv", h.HandleExportCSV)
	api.Get("/rules", h.HandleExportRules)
	api.Post("/rules", h.HandleImportRules)
	api.Delete("/rules", h.HandleResetRules)
	api.Get("/summary", h.HandleSummary)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "ok",
		"engine":       "fiber",
		"version":      version,
		"transactions": h.Ledger.Len(),
		"rules":        h.Rules.Len(),
		"persistence":  h.Rules.Status(),
	})
}

// HandleImport accepts one or more PDF or JSON statements in the multipart
// field "file". Files that fail are reported in the result; the request
// fails only when nothing could be imported.
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	files := make([]importer.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUpload {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds the upload limit", fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Failed to read %s", fh.Filename))
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Failed to read %s", fh.Filename))
		}
		files = append(files, importer.File{Name: fh.Filename, Data: data})
	}

	res := h.Importer.ImportBatch(c.UserContext(), files)
	status := fiber.StatusOK
	if res.Failures() == len(res.Files) {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(res)
}

func (h *Handler) HandleTransactions(c *fiber.Ctx) error {
	q, err := parseQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	txns := h.Ledger.Query(q)
	if txns == nil {
		txns = []models.Transaction{}
	}
	return c.JSON(TransactionsResponse{Count: len(txns), Transactions: txns})
}

// HandleSplit confirms a split label. Ids contain slashes, so clients send
// them path-escaped.
func (h *Handler) HandleSplit(c *fiber.Ctx) error {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed transaction id")
	}
	var req SplitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected JSON body {\"label\": \"Geral\"|\"Exclusiva\"}")
	}
	label, err := models.ParseLabel(req.Label)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	txn, err := h.Ledger.Confirm(id, label, h.Rules)
	if errors.Is(err, ledger.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	rule, _ := h.Rules.Rule(txn.NormalizedDescription)
	return c.JSON(SplitResponse{Transaction: txn, Rule: rule})
}

// HandleExportCSV exports the filtered listing, expenses before payments.
func (h *Handler) HandleExportCSV(c *fiber.Ctx) error {
	q, err := parseQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var buf bytes.Buffer
	w := &writer.CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, h.Ledger.Query(q)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="transacoes.csv"`)
	return c.Send(buf.Bytes())
}

func (h *Handler) HandleExportRules(c *fiber.Ctx) error {
	data, err := h.Rules.Export()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(data)
}

// HandleImportRules merges an uploaded rules document, in the current or
// the legacy shape, and refreshes suggestions.
func (h *Handler) HandleImportRules(c *fiber.Ctx) error {
	report, err := h.Rules.Import(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	h.Ledger.RefreshSuggestions(h.Rules)
	h.Log.Info().Int("rules", report.Rules).Int("migrated", report.Migrated).Int("skipped", report.Skipped).Msg("Rules imported")
	return c.JSON(report)
}

// HandleResetRules drops all learned rules. With ?all=true the transaction
// collection is cleared as well.
func (h *Handler) HandleResetRules(c *fiber.Ctx) error {
	h.Rules.Reset()
	if c.QueryBool("all") {
		h.Ledger.Reset()
	}
	h.Ledger.RefreshSuggestions(h.Rules)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	q, err := parseQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(ledger.Summarize(h.Ledger.Query(q), h.Ratio))
}

// parseQuery reads listing filters: issuer, q, category, label, from, to
// (YYYY-MM-DD), sort and dir=desc.
func parseQuery(c *fiber.Ctx) (ledger.Query, error) {
	q := ledger.Query{
		Issuer:   models.Issuer(c.Query("issuer")),
		Text:     c.Query("q"),
		Category: models.Category(c.Query("category")),
		SortBy:   c.Query("sort"),
		Desc:     strings.EqualFold(c.Query("dir"), "desc"),
	}
	if l := c.Query("label"); l != "" {
		label, err := models.ParseLabel(l)
		if err != nil {
			return q, err
		}
		q.Label = label
	}
	for _, p := range []struct {
		key string
		dst *time.Time
		end bool
	}{{"from", &q.From, false}, {"to", &q.To, true}} {
		v := c.Query(p.key)
		if v == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", p.key, v)
		}
		if p.end {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*p.dst = t
	}
	return q, nil
}
