package domain

// AutoUpdateLabel marks a container as eligible for auto-update. Any
// truthy value qualifies; the value itself (e.g. "registry") is
// surfaced but not interpreted.
const AutoUpdateLabel = "io.containers.autoupdate"

// AutoUpdateCandidate is a container eligible for auto-update, derived
// by filtering the live container list. Not persisted; recomputed on
// each check.
type AutoUpdateCandidate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	ImageID string `json:"imageId"`
	Running bool   `json:"running"`
	Policy  string `json:"autoUpdatePolicy"`
}

// UpdateCheckResult is the per-container outcome of a digest
// comparison. HasUpdate is true only when both digests were resolved
// and differ; an undeterminable comparison is never reported as an
// update.
type UpdateCheckResult struct {
	Name           string `json:"name"`
	Image          string `json:"image"`
	Running        bool   `json:"running"`
	CurrentImageID string `json:"currentImageId"`
	HasUpdate      bool   `json:"hasUpdate"`
	CurrentDigest  string `json:"currentDigest,omitempty"`
	RemoteDigest   string `json:"remoteDigest,omitempty"`
	Error          string `json:"error,omitempty"`
}

// UpdateResult is the per-container outcome of an update attempt.
// CreateCommand is populated as soon as it has been captured, so a
// failed update still hands the caller everything needed to recreate
// the container manually.
type UpdateResult struct {
	Success       bool     `json:"success"`
	Name          string   `json:"name"`
	CreateCommand []string `json:"createCommand,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// BatchResult aggregates a sequential batch update run.
type BatchResult struct {
	Successes []UpdateResult `json:"successes"`
	Failures  []UpdateResult `json:"failures"`
	Total     int            `json:"total"`
}
