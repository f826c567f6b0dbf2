// Package blocks is the document model read aloud by speakblock: ordered
// text blocks, each carrying its own speech settings.
package blocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// ErrBlockNotFound is returned when no block has the requested id.
var ErrBlockNotFound = errors.New("block not found")

// Storage drivers.
const (
	DriverYAML   = "yaml"
	DriverSQLite = "sqlite"
)

// Props is the opaque speech configuration persisted with a block.
type Props struct {
	Lang string  `json:"lang,omitempty" yaml:"lang,omitempty"`
	Rate float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
}

// Block is a unit of document text.
type Block struct {
	ID        string    `yaml:"id"`
	Type      string    `yaml:"type"`
	Content   string    `yaml:"content"`
	Props     Props     `yaml:"props,omitempty"`
	Position  float64   `yaml:"position"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Title returns the first line of the block, for listings.
func (b Block) Title() string {
	line, _, _ := strings.Cut(strings.TrimSpace(b.Content), "\n")
	return line
}

// Store reads and writes blocks.
type Store interface {
	List(ctx context.Context) ([]Block, error)
	Get(ctx context.Context, id string) (Block, error)
	Add(ctx context.Context, content string, props Props) (Block, error)
	SetProps(ctx context.Context, id string, props Props) error
	Close() error
}

// Config selects and locates the store.
type Config struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Watch  bool   `yaml:"watch"`
}

// Open opens the store described by cfg.
func Open(cfg Config) (Store, error) {
	path, err := homedir.Expand(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding document path: %w", err)
	}

	switch strings.ToLower(cfg.Driver) {
	case DriverYAML, "":
		fs, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		if cfg.Watch {
			if err := fs.Watch(); err != nil {
				_ = fs.Close()
				return nil, err
			}
		}
		return fs, nil
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown document driver %q", cfg.Driver)
	}
}

func nextPosition(blocks []Block) float64 {
	var max float64
	for _, b := range blocks {
		if b.Position > max {
			max = b.Position
		}
	}
	return max + 1
}
