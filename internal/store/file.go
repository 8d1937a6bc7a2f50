package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"railmap/internal/railmap"
)

// Document is the on-disk layout of a map data file.
type Document struct {
	Stations    []railmap.StationRecord        `json:"stations" yaml:"stations" toml:"stations"`
	Connections []railmap.ConnectionRecord     `json:"connections" yaml:"connections" toml:"connections"`
	Routes      map[string][]railmap.RouteStep `json:"routes" yaml:"routes" toml:"routes"`
}

// File reads a .yaml, .yml, .toml or .json map document. The file is read
// afresh on every Load so edits are picked up.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Version is derived from the file's size and modification time.
func (f *File) Version(ctx context.Context) (string, error) {
	fi, err := os.Stat(f.path)
	if err != nil {
		return "", fmt.Errorf("stat map file: %w", err)
	}
	return fmt.Sprintf("%d-%d", fi.ModTime().UnixNano(), fi.Size()), nil
}

func (f *File) Load(ctx context.Context) (Snapshot, error) {
	version, err := f.Version(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	doc, err := f.read()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Version: version, Stations: doc.Stations, Connections: doc.Connections}, nil
}

func (f *File) Route(ctx context.Context, id string) ([]railmap.RouteStep, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	steps, ok := doc.Routes[id]
	if !ok || len(steps) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, id)
	}
	return steps, nil
}

func (f *File) Routes(ctx context.Context) ([]RouteSummary, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make([]RouteSummary, 0, len(doc.Routes))
	for id, steps := range doc.Routes {
		out = append(out, RouteSummary{ID: id, Steps: len(steps)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *File) Close() error { return nil }

func (f *File) read() (Document, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return Document{}, fmt.Errorf("read map file: %w", err)
	}
	return DecodeDocument(filepath.Ext(f.path), b)
}

// DecodeDocument parses b according to the file extension ext.
func DecodeDocument(ext string, b []byte) (Document, error) {
	var doc Document
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &doc)
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(b)).Decode(&doc)
	case ".json":
		err = json.Unmarshal(b, &doc)
	default:
		return Document{}, fmt.Errorf("unsupported map file extension %q", ext)
	}
	if err != nil {
		return Document{}, fmt.Errorf("decode map file: %w", err)
	}
	return doc, nil
}
