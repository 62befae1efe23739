// Package artifacts is the content-addressed artifact registry spec §4.G
// describes: a size-capped store keyed by blake3(data), optionally indexed
// by the DealCommitment it backs, with a request/response backfill
// protocol so one replica can recover artifacts it is missing from a peer
// without ever trusting the peer's claimed hash.
//
// Grounded on the teacher's internal/state.State for the "single mutex-
// guarded map, JSON-friendly value" storage shape, generalized to a
// content-addressed rather than account-addressed keyspace; the
// commitment→hashes index is backed by
// github.com/hashicorp/golang-lru/v2 (named in the pack's
// AKJUS-bsc-erigon and apps/cosmos go.mod files) so a long-lived registry
// cannot grow its index unboundedly even though the underlying artifact
// store is capped separately by total/per-artifact size.
package artifacts

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sasha-s/go-deadlock"
	"lukechampine.com/blake3"
)

// Metadata is the descriptive half of an ArtifactRegistry entry, spec
// §2's `{ created_at, creator, artifact_type, size_bytes, commitment_hash? }`.
type Metadata struct {
	CreatedAt      uint64
	Creator        [32]byte
	ArtifactType   uint8
	SizeBytes      uint64
	CommitmentHash *[32]byte
}

type entry struct {
	data     []byte
	metadata Metadata
}

// ArtifactTooLargeError is returned when a single artifact exceeds the
// registry's per-artifact size cap.
type ArtifactTooLargeError struct{ Size, Max uint64 }

func (e *ArtifactTooLargeError) Error() string {
	return fmt.Sprintf("artifacts: artifact size %d exceeds per-artifact cap %d", e.Size, e.Max)
}

// RegistryFullError is returned when storing an artifact would exceed the
// registry's total size cap.
type RegistryFullError struct{ Would, Max uint64 }

func (e *RegistryFullError) Error() string {
	return fmt.Sprintf("artifacts: storing would grow registry to %d, exceeding cap %d", e.Would, e.Max)
}

// HashMismatchError is returned by Get when the stored bytes no longer
// hash to the key they are filed under (corruption), and by backfill
// processing when a peer's claimed hash does not match the data it sent.
type HashMismatchError struct{ Claimed, Actual [32]byte }

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("artifacts: hash mismatch: claimed %x, actual %x", e.Claimed, e.Actual)
}

type NotFoundError struct{ Hash [32]byte }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifacts: no artifact stored for hash %x", e.Hash)
}

// Registry is the store itself: single-writer, safe for concurrent reads,
// per spec §5's resource-sharing rule.
type Registry struct {
	mu               deadlock.Mutex
	maxArtifactBytes uint64
	maxTotalBytes    uint64
	totalBytes       uint64
	byHash           map[[32]byte]*entry
	commitmentIndex  *lru.Cache[[32]byte, [][32]byte]
}

// NewRegistry constructs an empty registry with the given per-artifact and
// total size caps, and a commitment-index capacity (entries, not bytes).
func NewRegistry(maxArtifactBytes, maxTotalBytes uint64, commitmentIndexCapacity int) (*Registry, error) {
	idx, err := lru.New[[32]byte, [][32]byte](commitmentIndexCapacity)
	if err != nil {
		return nil, fmt.Errorf("artifacts: new commitment index: %w", err)
	}
	return &Registry{
		maxArtifactBytes: maxArtifactBytes,
		maxTotalBytes:    maxTotalBytes,
		byHash:           map[[32]byte]*entry{},
		commitmentIndex:  idx,
	}, nil
}

func hashOf(data []byte) [32]byte { return blake3.Sum256(data) }

// Store writes data under blake3(data), returning that hash. A second
// Store of identical bytes is a no-op and returns the existing hash
// (spec §4.G's "if present and overwrite disabled, return the existing
// hash" idempotence rule).
func (r *Registry) Store(data []byte, artifactType uint8, creator [32]byte, createdAt uint64) ([32]byte, error) {
	return r.store(data, artifactType, creator, createdAt, nil)
}

// StoreForCommitment is Store plus indexing the resulting hash under
// commitmentHash, so GetByCommitment can later enumerate every artifact a
// DealCommitment referenced.
func (r *Registry) StoreForCommitment(data []byte, artifactType uint8, creator [32]byte, createdAt uint64, commitmentHash [32]byte) ([32]byte, error) {
	return r.store(data, artifactType, creator, createdAt, &commitmentHash)
}

func (r *Registry) store(data []byte, artifactType uint8, creator [32]byte, createdAt uint64, commitmentHash *[32]byte) ([32]byte, error) {
	hash := hashOf(data)
	size := uint64(len(data))

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byHash[hash]; ok {
		if commitmentHash != nil {
			r.indexCommitmentLocked(*commitmentHash, hash)
		}
		_ = existing
		return hash, nil
	}
	if size > r.maxArtifactBytes {
		return [32]byte{}, &ArtifactTooLargeError{Size: size, Max: r.maxArtifactBytes}
	}
	if r.totalBytes+size > r.maxTotalBytes {
		return [32]byte{}, &RegistryFullError{Would: r.totalBytes + size, Max: r.maxTotalBytes}
	}

	r.byHash[hash] = &entry{
		data: append([]byte(nil), data...),
		metadata: Metadata{
			CreatedAt:      createdAt,
			Creator:        creator,
			ArtifactType:   artifactType,
			SizeBytes:      size,
			CommitmentHash: commitmentHash,
		},
	}
	r.totalBytes += size
	if commitmentHash != nil {
		r.indexCommitmentLocked(*commitmentHash, hash)
	}
	return hash, nil
}

func (r *Registry) indexCommitmentLocked(commitmentHash, artifactHash [32]byte) {
	hashes, _ := r.commitmentIndex.Get(commitmentHash)
	for _, h := range hashes {
		if h == artifactHash {
			return
		}
	}
	r.commitmentIndex.Add(commitmentHash, append(hashes, artifactHash))
}

// Get returns the stored bytes and metadata for hash, re-verifying
// blake3(stored) == hash on every read so silent corruption is never
// served to a caller.
func (r *Registry) Get(hash [32]byte) ([]byte, Metadata, error) {
	r.mu.Lock()
	e, ok := r.byHash[hash]
	r.mu.Unlock()
	if !ok {
		return nil, Metadata{}, &NotFoundError{Hash: hash}
	}
	if actual := hashOf(e.data); actual != hash {
		return nil, Metadata{}, &HashMismatchError{Claimed: hash, Actual: actual}
	}
	return append([]byte(nil), e.data...), e.metadata, nil
}

// Contains reports whether hash is stored, without verifying integrity.
func (r *Registry) Contains(hash [32]byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byHash[hash]
	return ok
}

// Remove deletes hash's entry, if present.
func (r *Registry) Remove(hash [32]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byHash[hash]; ok {
		r.totalBytes -= e.metadata.SizeBytes
		delete(r.byHash, hash)
	}
}

// GetByCommitment returns every artifact hash indexed under
// commitmentHash, in the order they were first stored.
func (r *Registry) GetByCommitment(commitmentHash [32]byte) [][32]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	hashes, _ := r.commitmentIndex.Get(commitmentHash)
	return append([][32]byte(nil), hashes...)
}
