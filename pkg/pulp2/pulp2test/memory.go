// Package pulp2test provides an in-memory pulp2.Source for tests.
package pulp2test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goosemania/pulp-2to3-migrate/pkg/pulp2"
)

type MemorySource struct {
	mu     sync.Mutex
	rpms   map[string]pulp2.RPM
	errata map[string]pulp2.Errata
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		rpms:   make(map[string]pulp2.RPM),
		errata: make(map[string]pulp2.Errata),
	}
}

func (m *MemorySource) AddRPM(rpms ...pulp2.RPM) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rpm := range rpms {
		rpm.ContentTypeID = pulp2.RPMTypeID
		m.rpms[rpm.ID] = rpm
	}
}

func (m *MemorySource) AddErrata(errata ...pulp2.Errata) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, erratum := range errata {
		erratum.ContentTypeID = pulp2.ErratumTypeID
		m.errata[erratum.ID] = erratum
	}
}

func (m *MemorySource) units(typeID string, since int64) ([]pulp2.FileContentUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var units []pulp2.FileContentUnit

	switch typeID {
	case pulp2.RPMTypeID:
		for _, rpm := range m.rpms {
			units = append(units, rpm.FileContentUnit)
		}
	case pulp2.ErratumTypeID:
		for _, erratum := range m.errata {
			units = append(units, pulp2.FileContentUnit{ContentUnit: erratum.ContentUnit})
		}
	default:
		return nil, fmt.Errorf("%w: %q", pulp2.ErrUnknownContentType, typeID)
	}

	filtered := units[:0]
	for _, unit := range units {
		if unit.LastUpdated >= since {
			filtered = append(filtered, unit)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].LastUpdated == filtered[j].LastUpdated {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].LastUpdated < filtered[j].LastUpdated
	})

	return filtered, nil
}

func (m *MemorySource) Count(_ context.Context, typeID string, since int64) (int64, error) {
	units, err := m.units(typeID, since)
	if err != nil {
		return 0, err
	}

	return int64(len(units)), nil
}

func (m *MemorySource) Units(
	ctx context.Context, typeID string, since int64, batchSize int, fn func([]pulp2.FileContentUnit) error,
) error {
	units, err := m.units(typeID, since)
	if err != nil {
		return err
	}

	for start := 0; start < len(units); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+batchSize, len(units))
		if err := fn(units[start:end]); err != nil {
			return err
		}
	}

	return nil
}

func (m *MemorySource) RPMs(_ context.Context, ids []string) ([]pulp2.RPM, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]pulp2.RPM, 0, len(ids))
	for _, id := range ids {
		if rpm, ok := m.rpms[id]; ok {
			out = append(out, rpm)
		}
	}

	return out, nil
}

func (m *MemorySource) Errata(_ context.Context, ids []string) ([]pulp2.Errata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]pulp2.Errata, 0, len(ids))
	for _, id := range ids {
		if erratum, ok := m.errata[id]; ok {
			out = append(out, erratum)
		}
	}

	return out, nil
}
