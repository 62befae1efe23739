package artifacts

// ArtifactRequest asks a peer for a set of hashes this replica is missing.
type ArtifactRequest struct {
	Hashes [][32]byte
}

// FoundArtifact is one hash the responder had on hand.
type FoundArtifact struct {
	Hash [32]byte
	Data []byte
}

// ArtifactResponse answers an ArtifactRequest: every hash the responder
// had is in Found; every hash it didn't is echoed back in Missing so the
// requester knows not to wait on it from this peer.
type ArtifactResponse struct {
	Found   []FoundArtifact
	Missing [][32]byte
}

// FindMissing returns the subset of hashes this registry does not
// currently hold, preserving input order.
func (r *Registry) FindMissing(hashes [][32]byte) [][32]byte {
	var missing [][32]byte
	for _, h := range hashes {
		if !r.Contains(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// HandleArtifactRequest answers a peer's request for hashes, never
// trusting its own store blindly: a corrupted local entry is treated the
// same as a miss rather than served as if it were good data.
func (r *Registry) HandleArtifactRequest(req ArtifactRequest) ArtifactResponse {
	resp := ArtifactResponse{}
	for _, h := range req.Hashes {
		data, _, err := r.Get(h)
		if err != nil {
			resp.Missing = append(resp.Missing, h)
			continue
		}
		resp.Found = append(resp.Found, FoundArtifact{Hash: h, Data: data})
	}
	return resp
}

// BackfillOutcomeKind classifies what happened to one artifact in a
// backfill response during ProcessBackfillResponse.
type BackfillOutcomeKind uint8

const (
	BackfillStored BackfillOutcomeKind = iota
	BackfillAlreadyPresent
	BackfillHashMismatch
	BackfillStorageFailed
)

type BackfillOutcome struct {
	Hash   [32]byte
	Kind   BackfillOutcomeKind
	Reason string // populated only for BackfillStorageFailed
}

// BackfillResult tallies every artifact a backfill response contained, per
// spec §4.G's per-hash bookkeeping: corrupted payloads never displace good
// data, and duplicate stores of data already present are no-ops.
type BackfillResult struct {
	Outcomes []BackfillOutcome
}

func (r BackfillResult) CountStored() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == BackfillStored {
			n++
		}
	}
	return n
}

// ProcessBackfillResponse stores every artifact in resp.Found whose data
// actually hashes to the claimed hash, skipping anything already present
// and rejecting (without storing) anything that doesn't match.
func (r *Registry) ProcessBackfillResponse(resp ArtifactResponse, ts uint64, artifactType uint8, creator [32]byte) BackfillResult {
	var result BackfillResult
	for _, f := range resp.Found {
		actual := hashOf(f.Data)
		if actual != f.Hash {
			result.Outcomes = append(result.Outcomes, BackfillOutcome{Hash: f.Hash, Kind: BackfillHashMismatch})
			continue
		}
		if r.Contains(f.Hash) {
			result.Outcomes = append(result.Outcomes, BackfillOutcome{Hash: f.Hash, Kind: BackfillAlreadyPresent})
			continue
		}
		if _, err := r.Store(f.Data, artifactType, creator, ts); err != nil {
			result.Outcomes = append(result.Outcomes, BackfillOutcome{Hash: f.Hash, Kind: BackfillStorageFailed, Reason: err.Error()})
			continue
		}
		result.Outcomes = append(result.Outcomes, BackfillOutcome{Hash: f.Hash, Kind: BackfillStored})
	}
	return result
}
