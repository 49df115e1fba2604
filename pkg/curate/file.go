package curate

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-curate/pkg/curate/model"
)

// workflowFile is the on-disk form of a workflow. It must never be edited by
// hand: any change to the steps invalidates workflow_hash.
type workflowFile struct {
	Name               string            `yaml:"name,omitempty"`
	Description        string            `yaml:"description,omitempty"`
	WorkflowHash       string            `yaml:"workflow_hash"`
	SourceRepoURL      string            `yaml:"source_repo_url"`
	SourceHash         string            `yaml:"source_hash"`
	DependencyVersions map[string]string `yaml:"dependency_versions"`
	Steps              []fileStep        `yaml:"steps"`
	NumSteps           int               `yaml:"num_steps"`
}

type fileStep struct {
	ClassName  string         `yaml:"class_name"`
	InitParams map[string]any `yaml:"init_params,omitempty"`
}

// Save writes w as YAML. Untrusted workflows and workflows holding steps that
// cannot be rebuilt from a file are refused.
func (w *Workflow) Save(out io.Writer) error {
	if w.trust == Untrusted {
		return ErrUntrustedSave
	}
	f := workflowFile{
		Name:               w.name,
		Description:        w.description,
		WorkflowHash:       w.workflowHash,
		SourceRepoURL:      w.repoURL,
		SourceHash:         w.sourceHash,
		DependencyVersions: w.DependencyVersions(),
		Steps:              make([]fileStep, len(w.steps)),
		NumSteps:           len(w.steps),
	}
	for i, s := range w.steps {
		if !w.catalog.Loadable(s.Name()) {
			return errors.Wrap(ErrNotSerializable, s.Name())
		}
		params := s.Params()
		if len(params) == 0 {
			params = nil
		}
		f.Steps[i] = fileStep{ClassName: s.Name(), InitParams: params}
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return errors.Wrap(err, "unable to encode workflow")
	}
	return errors.Wrap(enc.Close(), "unable to flush workflow")
}

// SaveFile writes w to path. The file is replaced atomically while holding an
// exclusive lock on path.lock.
func (w *Workflow) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := w.Save(&buf); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrapf(err, "unable to lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "unable to create temporary file for %s", path)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "unable to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "unable to close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "unable to move workflow to %s", path)
	}
	w.logger.Debug("workflow saved", slog.String("path", path), slog.String("workflow_hash", w.workflowHash))
	return nil
}

// Load reads a workflow written by Save. By default the file is verified: its
// workflow hash, source hash and dependency versions must match what the
// current code computes, otherwise a *VerificationError is returned. With the
// Unsafe option nothing is compared and the workflow is Untrusted.
func Load(r io.Reader, catalog *Catalog, opts ...Option) (*Workflow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read workflow")
	}
	return decode(data, "", catalog, newSettings(opts))
}

// LoadFile is Load for a file, read under a shared lock on path.lock.
func LoadFile(path string, catalog *Catalog, opts ...Option) (*Workflow, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, errors.Wrapf(err, "unable to lock %s", path)
	}
	data, err := os.ReadFile(path)
	_ = lock.Unlock()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	return decode(data, path, catalog, newSettings(opts))
}

func decode(data []byte, path string, catalog *Catalog, s *settings) (*Workflow, error) {
	malformed := func(reason string, err error) error {
		return &MalformedError{Path: path, Reason: reason, Err: err}
	}
	if catalog == nil {
		return nil, errors.New("catalog must be set")
	}

	var f workflowFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, malformed("invalid yaml", err)
	}
	switch {
	case f.WorkflowHash == "":
		return nil, malformed("workflow_hash is missing", nil)
	case f.SourceHash == "":
		return nil, malformed("source_hash is missing", nil)
	case f.DependencyVersions == nil:
		return nil, malformed("dependency_versions is missing", nil)
	case f.NumSteps != len(f.Steps):
		return nil, malformed("num_steps does not match the step list", nil)
	}

	steps := make([]Step, len(f.Steps))
	for i, fs := range f.Steps {
		if fs.ClassName == "" {
			return nil, malformed("step without class_name", nil)
		}
		step, err := catalog.Build(fs.ClassName, model.Params(fs.InitParams))
		if err != nil {
			return nil, malformed("unable to rebuild step "+fs.ClassName, err)
		}
		steps[i] = step
	}

	if s.name == "" {
		s.name = f.Name
	}
	if s.description == "" {
		s.description = f.Description
	}
	if f.SourceRepoURL != "" {
		s.repoURL = f.SourceRepoURL
	}
	w, err := build(catalog, steps, s)
	if err != nil {
		return nil, malformed("invalid step list", err)
	}

	if s.unsafe {
		w.trust = Untrusted
		w.logger.Warn("workflow loaded without verification, results will be marked untrusted",
			slog.String("path", path),
			slog.String("workflow_hash", w.workflowHash),
		)
		w.logWarnings()
		return w, nil
	}

	recorded := fileDigest{workflowHash: f.WorkflowHash, sourceHash: f.SourceHash, versions: f.DependencyVersions}
	current := fileDigest{workflowHash: w.workflowHash, sourceHash: w.sourceHash, versions: w.versions}
	if err := verify(recorded, current); err != nil {
		w.trust = Rejected
		w.logger.Error("workflow rejected", slog.String("path", path), slog.Any("error", err))
		return nil, err
	}
	w.trust = Trusted
	w.logWarnings()
	return w, nil
}
