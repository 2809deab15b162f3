package lode

import (
	"context"
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/scanwatch/types"
)

// Config configures a Reporter.
type Config struct {
	// Dataset is the Lode dataset ID (default "scanwatch").
	Dataset string
}

func (c Config) dataset() string {
	if c.Dataset == "" {
		return DefaultDataset
	}
	return c.Dataset
}

// Reporter writes session reports.
type Reporter struct {
	dataset lode.Dataset
	name    string
}

// NewDataset opens the report dataset over factory.
// The write and read paths share layout and codec.
func NewDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, wrapStorage(OpInit, dataset, err)
	}
	return ds, nil
}

// NewReporter creates a Reporter over a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewReporter(cfg Config, factory lode.StoreFactory) (*Reporter, error) {
	ds, err := NewDataset(cfg.dataset(), factory)
	if err != nil {
		return nil, err
	}
	return &Reporter{dataset: ds, name: cfg.dataset()}, nil
}

// WriteSession persists one session report.
func (r *Reporter) WriteSession(ctx context.Context, rep SessionReport) error {
	if rep.SessionID == "" {
		return errors.New("session report requires a session ID")
	}
	if rep.SourceID == "" {
		return errors.New("session report requires a source ID")
	}

	record := rep.toRecord(types.Version)
	if _, err := r.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return wrapStorage(OpWrite, fmt.Sprintf("%s/session/%s", r.name, rep.SessionID), err)
	}
	return nil
}

// Dataset exposes the underlying dataset for reads.
func (r *Reporter) Dataset() lode.Dataset {
	return r.dataset
}
