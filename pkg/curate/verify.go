package curate

import (
	"crypto/sha256"
	"embed"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io/fs"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/chem"
)

// engineSource is the code that decides how steps are ordered and applied. It
// is part of every source hash.
//
//go:embed step.go order.go engine.go workflow.go
var engineSource embed.FS

// TrustState is the verification outcome attached to a workflow.
type TrustState int

const (
	// Unverified is the state of a workflow file being read.
	Unverified TrustState = iota
	// Trusted workflows were built in process or passed a safe load.
	Trusted
	// Untrusted workflows were loaded without checks. The state is final.
	Untrusted
	// Rejected workflows failed a safe load and are never returned.
	Rejected
)

func (s TrustState) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case Trusted:
		return "trusted"
	case Untrusted:
		return "untrusted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// DependencyVersions returns the versions recorded in, and checked against,
// workflow files.
func DependencyVersions() map[string]string {
	return map[string]string{
		"chem":   chem.Version,
		"curate": Version,
	}
}

type fieldHasher struct {
	h hash.Hash
}

func newFieldHasher() *fieldHasher {
	return &fieldHasher{h: sha256.New()}
}

// field writes data prefixed by its length so adjacent fields cannot run into
// each other.
func (f *fieldHasher) field(data []byte) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(data)))
	f.h.Write(size[:])
	f.h.Write(data)
}

func (f *fieldHasher) sum() string {
	return hex.EncodeToString(f.h.Sum(nil))
}

// WorkflowHash digests the ordered (name, parameters) list of steps.
func WorkflowHash(steps []Step) string {
	f := newFieldHasher()
	f.field([]byte("workflow/v1"))
	for _, s := range steps {
		f.field([]byte(s.Name()))
		f.field([]byte(s.Params().Canonical()))
	}
	return f.sum()
}

// SourceHash digests the engine source and the source of every distinct step
// used, sorted by step name.
func SourceHash(catalog *Catalog, steps []Step) (string, error) {
	f := newFieldHasher()
	f.field([]byte("source/v1"))
	files, err := fs.Glob(engineSource, "*.go")
	if err != nil {
		return "", errors.Wrap(err, "unable to list engine source")
	}
	sort.Strings(files)
	for _, name := range files {
		data, err := engineSource.ReadFile(name)
		if err != nil {
			return "", errors.Wrapf(err, "unable to read engine source %s", name)
		}
		f.field([]byte(name))
		f.field(data)
	}
	seen := make(map[string]struct{}, len(steps))
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		if _, ok := seen[s.Name()]; !ok {
			seen[s.Name()] = struct{}{}
			names = append(names, s.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		src, err := catalog.Source(name)
		if err != nil {
			return "", err
		}
		f.field([]byte(name))
		f.field(src)
	}
	return f.sum(), nil
}

func formatVersions(v map[string]string) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + v[k]
	}
	return strings.Join(parts, ",")
}

// verify compares what a file records with what the current code computes.
// Configuration is checked first, then implementation, then dependencies.
func verify(recorded, current fileDigest) error {
	if recorded.workflowHash != current.workflowHash {
		return &VerificationError{Category: CategoryConfiguration, Expected: recorded.workflowHash, Actual: current.workflowHash}
	}
	if recorded.sourceHash != current.sourceHash {
		return &VerificationError{Category: CategoryImplementation, Expected: recorded.sourceHash, Actual: current.sourceHash}
	}
	if want, got := formatVersions(recorded.versions), formatVersions(current.versions); want != got {
		return &VerificationError{Category: CategoryDependency, Expected: want, Actual: got}
	}
	return nil
}

type fileDigest struct {
	workflowHash string
	sourceHash   string
	versions     map[string]string
}
