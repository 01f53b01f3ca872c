package imagesource

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"brandcraft/pkg/domain"
)

// ObjectPutter is the slice of the object store the sourcer needs.
type ObjectPutter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Sourcer searches, downloads, and persists a background image, returning its
// storage key. It satisfies the adaptation engine's ImageSourcer.
type Sourcer struct {
	client *Client
	store  ObjectPutter
}

func NewSourcer(client *Client, store ObjectPutter) *Sourcer {
	return &Sourcer{client: client, store: store}
}

func (s *Sourcer) Source(ctx context.Context, orgID, query string, spec domain.ImageSpec) (string, error) {
	candidates, err := s.client.Search(ctx, orgID, query, spec)
	if err != nil {
		return "", err
	}
	chosen := candidates[0]
	for _, c := range candidates {
		if !c.Premium {
			chosen = c
			break
		}
	}

	data, err := s.client.Fetch(ctx, orgID, chosen.ID)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("images/%s/%s.%s", orgID, chosen.ID, spec.Format)
	contentType := "image/" + spec.Format
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}
