package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// Header is the column row of an export.
var Header = []string{
	"Data", "Banco/Cartão", "Descrição", "Categoria", "Divisão",
	"Valor R$", "Valor USD", "Cotação", "Taxas", "Parcelamento", "Observações",
}

// CSVWriter writes transactions as semicolon-separated values with decimal
// commas.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, txns); err != nil {
		return err
	}
	return f.Close()
}

// Write writes expenses first and payments/credits after them, each group in
// the given order.
func (w *CSVWriter) Write(out io.Writer, txns []models.Transaction) error {
	cw := csv.NewWriter(out)
	cw.Comma = ';'

	if w.IncludeHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, payments := range []bool{false, true} {
		for i := range txns {
			t := &txns[i]
			if t.IsPaymentOrCredit() != payments {
				continue
			}
			if err := cw.Write(row(t)); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func row(t *models.Transaction) []string {
	return []string{
		t.DisplayDate(),
		string(t.Issuer),
		t.Description,
		string(t.Category),
		string(t.Split.Label),
		normalize.FormatValue(t.AmountLocal),
		normalize.FormatOptionalValue(t.AmountForeign),
		t.ExchangeRate,
		t.Fees,
		t.Installment,
		t.Notes,
	}
}
