package registry

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/todmy/doc-checker/pkg/models"
)

var preindexedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultCollections returns the two pre-indexed collections
func DefaultCollections() []models.Collection {
	return []models.Collection{
		preindexed("vs-1", "Projektová dokumentácia", "Hlavná projektová dokumentácia stavby", "vs_697e524aef9c819182db0e8bbfc98456", "doc-1-default"),
		preindexed("vs-2", "Stavebné povolenie", "Dokumenty stavebného povolenia a rozhodnutia", "vs_697e529683e081919d31a8ab7a2bc02a", "doc-2-default"),
	}
}

func preindexed(id, name, description, vectorStoreID, docID string) models.Collection {
	return models.Collection{
		ID:            id,
		Name:          name,
		Description:   description,
		VectorStoreID: vectorStoreID,
		Documents: []models.Document{{
			ID:         docID,
			Name:       name + " (predindexovaný)",
			UploadedAt: preindexedAt,
			Status:     models.DocumentReady,
			Enabled:    true,
		}},
		IsDefault: true,
		Enabled:   true,
	}
}

// Seed adds every collection that is not registered yet
func Seed(ctx context.Context, s Store, collections []models.Collection) error {
	for i := range collections {
		c := collections[i]
		_, err := s.Get(ctx, c.ID)
		if err == nil {
			continue
		}
		if !eris.Is(err, ErrNotFound) {
			return err
		}
		if err := s.AddCollection(ctx, &c); err != nil {
			return eris.Wrapf(err, "registry: seed %s", c.ID)
		}
	}
	return nil
}
