package domain

import (
	"strings"
	"time"
)

// SourceKind tags which kind of source produced the active dataset.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceFile
	SourceRemote
)

var sourceKindLabels = map[SourceKind]string{
	SourceNone:   "none",
	SourceFile:   "file",
	SourceRemote: "remote",
}

var sourceKindCodes = map[string]SourceKind{
	"none":   SourceNone,
	"file":   SourceFile,
	"remote": SourceRemote,
}

// String returns the label used in persisted state and API payloads.
func (k SourceKind) String() string {
	if label, ok := sourceKindLabels[k]; ok {
		return label
	}

	return "none"
}

// ParseSourceKind returns the kind for a label (case-insensitive).
func ParseSourceKind(label string) (SourceKind, bool) {
	kind, ok := sourceKindCodes[strings.ToLower(strings.TrimSpace(label))]

	return kind, ok
}

// Dataset is the immutable product of one successful ingestion.
type Dataset struct {
	ID         string      `json:"id"`
	FileName   string      `json:"fileName"`
	IngestedAt time.Time   `json:"ingestedAt"`
	Aggregates *Aggregates `json:"aggregates"`
	DateRange  DateRange   `json:"dateRange"`
}

// ActiveSource is the dataset currently driving every report view. File and
// remote datasets are mutually exclusive; the zero value has no data.
type ActiveSource struct {
	kind    SourceKind
	dataset *Dataset
}

func NoSource() ActiveSource {
	return ActiveSource{kind: SourceNone}
}

func FileSource(ds *Dataset) ActiveSource {
	return ActiveSource{kind: SourceFile, dataset: ds}
}

func RemoteSource(ds *Dataset) ActiveSource {
	return ActiveSource{kind: SourceRemote, dataset: ds}
}

// NewActiveSource builds a source from a decoded tag. A nil dataset always
// yields no source.
func NewActiveSource(kind SourceKind, ds *Dataset) ActiveSource {
	if ds == nil || kind == SourceNone {
		return NoSource()
	}
	return ActiveSource{kind: kind, dataset: ds}
}

func (s ActiveSource) Kind() SourceKind { return s.kind }

// Dataset returns the active dataset and false when there is none.
func (s ActiveSource) Dataset() (*Dataset, bool) {
	if s.kind == SourceNone || s.dataset == nil {
		return nil, false
	}
	return s.dataset, true
}
