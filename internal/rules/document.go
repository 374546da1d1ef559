package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/italogmoura/ControleGastosDomesticos/internal/models"
)

// DocumentVersion is written to every exported rules document.
const DocumentVersion = 2

// Document is the exchange format for rules:
//
//	{"version": 2, "exportedAt": "...",
//	 "regras": {"netflix": {"divisao": "Geral", "counts": {"Geral": 3, "Exclusiva": 1}, "lastUpdated": "..."}},
//	 "decisoes": {"<transaction id>": "Geral"}}
type Document struct {
	Version    int                     `json:"version"`
	ExportedAt time.Time               `json:"exportedAt"`
	Regras     map[string]entry        `json:"regras"`
	Decisoes   map[string]models.Label `json:"decisoes,omitempty"`
}

type entry struct {
	Divisao     models.Label `json:"divisao"`
	Counts      voteCounts   `json:"counts"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

type voteCounts struct {
	Geral     int `json:"Geral"`
	Exclusiva int `json:"Exclusiva"`
}

// rawEntry accepts both the current shape and the legacy {divisao, score}.
type rawEntry struct {
	Divisao     string          `json:"divisao"`
	Counts      *rawCounts      `json:"counts"`
	Score       *float64        `json:"score"`
	LastUpdated json.RawMessage `json:"lastUpdated"`
}

type rawCounts struct {
	Geral     float64 `json:"Geral"`
	Exclusiva float64 `json:"Exclusiva"`
}

// DecodeReport summarizes a decode.
type DecodeReport struct {
	Rules    int `json:"rules"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// Encode renders a snapshot as a rules document.
func Encode(s *Snapshot, at time.Time) ([]byte, error) {
	doc := Document{
		Version:    DocumentVersion,
		ExportedAt: at.UTC(),
		Regras:     make(map[string]entry, len(s.Rules)),
	}
	for key, r := range s.Rules {
		doc.Regras[key] = entry{
			Divisao:     r.Label,
			Counts:      voteCounts{Geral: r.Counts[models.LabelShared], Exclusiva: r.Counts[models.LabelExclusive]},
			LastUpdated: r.LastUpdated.UTC(),
		}
	}
	if len(s.Decisions) > 0 {
		doc.Decisoes = s.Decisions
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a rules document. Besides the current shape it accepts a
// bare map of legacy {divisao, score} entries, with or without the "regras"
// wrapper. Malformed entries are skipped without failing the decode.
func Decode(data []byte, now time.Time) (*Snapshot, DecodeReport, error) {
	var report DecodeReport

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, report, fmt.Errorf("decode rules document: %w", err)
	}

	entries := top
	var decisions map[string]json.RawMessage
	if raw, ok := top["regras"]; ok {
		entries = nil
		if err := json.Unmarshal(raw, &entries); err != nil && !isNull(raw) {
			return nil, report, fmt.Errorf("decode regras: %w", err)
		}
		if raw, ok := top["decisoes"]; ok && !isNull(raw) {
			if err := json.Unmarshal(raw, &decisions); err != nil {
				return nil, report, fmt.Errorf("decode decisoes: %w", err)
			}
		}
	}

	snap := NewSnapshot()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		r, migrated, ok := decodeEntry(entries[key], now)
		if !ok || key == "" {
			report.Skipped++
			continue
		}
		if migrated {
			report.Migrated++
		}
		snap.Rules[key] = r
	}
	report.Rules = len(snap.Rules)

	for id, raw := range decisions {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if l, err := models.ParseLabel(s); err == nil && id != "" {
			snap.Decisions[id] = l
		}
	}
	return snap, report, nil
}

func decodeEntry(raw json.RawMessage, now time.Time) (Rule, bool, bool) {
	var e rawEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Rule{}, false, false
	}
	label, labelErr := models.ParseLabel(e.Divisao)

	r := newRule()
	migrated := false
	switch {
	case e.Counts != nil:
		r.Counts[models.LabelShared] = votes(e.Counts.Geral)
		r.Counts[models.LabelExclusive] = votes(e.Counts.Exclusiva)
		if labelErr != nil {
			label = models.DefaultLabel
		}
	case labelErr != nil:
		return Rule{}, false, false
	case e.Score != nil:
		r.Counts[label] = votes(*e.Score)
		migrated = true
	default:
		r.Counts[label] = 1
		migrated = true
	}
	for _, l := range models.Labels {
		if _, ok := r.Counts[l]; !ok {
			r.Counts[l] = 0
		}
	}
	r.resolve(label)

	r.LastUpdated = now
	if len(e.LastUpdated) > 0 && !isNull(e.LastUpdated) {
		var t time.Time
		if err := json.Unmarshal(e.LastUpdated, &t); err == nil {
			r.LastUpdated = t
		}
	}
	return r.clone(), migrated, true
}

func votes(f float64) int {
	if f < 0 {
		return 0
	}
	return int(f)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
