package jsonmap

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
)

// Amount accepts a JSON number or a locale-formatted string ("1.234,56").
// Null and empty strings leave it unset.
type Amount struct {
	Value decimal.Decimal
	Set   bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*a = Amount{}
			return nil
		}
		*a = Amount{Value: normalize.ParseValue(s), Set: true}
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	*a = Amount{Value: d, Set: true}
	return nil
}

// Text accepts a JSON string or number and keeps it as printed text. Numbers
// keep every decimal place and use a decimal comma.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return err
		}
		*t = Text(strings.Replace(d.String(), ".", ",", 1))
	}
	return nil
}
