// Package objectstore provides a NATS-based implementation of the ObjectStore
// interface used for durable audio delivery.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const headerContentType = "Content-Type"

// NatsObjectStore stores audio artifacts in a NATS JetStream object bucket
// and derives public URLs for stored keys.
type NatsObjectStore struct {
	bucket        string
	store         nats.ObjectStore
	publicBaseURL string
}

// New creates and initializes a new NatsObjectStore. The bucket is created
// on first use; an existing bucket is bound to. publicBaseURL optionally
// names a CDN or reverse-proxy prefix preferred over the store's default URL
// pattern.
func New(jetstreamContext nats.JetStreamContext, bucketName, publicBaseURL string) (*NatsObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Audio artifact storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		bucket:        bucketName,
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Upload saves an object under key, tagging its content type so consumers
// can serve it with the right MIME type.
func (n *NatsObjectStore) Upload(_ context.Context, key, contentType string, data []byte) error {
	reader := bytes.NewReader(data)

	meta := &nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nats.Header{headerContentType: []string{contentType}},
		Metadata:    nil,
		Opts:        nil,
	}

	_, err := n.store.Put(meta, reader)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// Download retrieves an object from the store.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// PublicURL derives the externally reachable URL for a stored key. A
// configured public base (CDN, reverse proxy) is preferred; otherwise the
// store's own addressing scheme is used.
func (n *NatsObjectStore) PublicURL(key string) string {
	if n.publicBaseURL != "" {
		return n.publicBaseURL + "/" + key
	}

	return fmt.Sprintf("nats-obj://%s/%s", n.bucket, key)
}
