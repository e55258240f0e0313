package descriptor

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind tells a Loader how to read a Source.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source is where a descriptor document lives.
type Source interface {
	Kind() SourceKind
	Location() string
}

type location struct {
	kind SourceKind
	at   string
}

func (l location) Kind() SourceKind { return l.kind }
func (l location) Location() string { return l.at }
func (l location) String() string   { return string(l.kind) + ":" + l.at }

func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, at: filepath.Clean(path)}
}

// SourceFromFS names a file inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, at: name}
}

// SourceFromURL panics on a malformed URL; use ParseSource for user input.
func SourceFromURL(raw string) Source {
	src, err := parseURL(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// ParseSource reads a flag or config value: http and https URLs become URL
// sources, anything else a file path.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("descriptor: source is required")
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return parseURL(raw)
	}
	return SourceFromFile(raw), nil
}

func parseURL(raw string) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("descriptor: invalid URL %q", raw)
	}
	return location{kind: SourceKindURL, at: raw}, nil
}
