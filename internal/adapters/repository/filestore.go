package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	leaguePrefix = "league_"
	cupPrefix    = "cup_"
	fileExt      = ".json"
	lockExt      = ".lock"
)

// FileStore keeps one indented JSON array per competition in a directory:
// league_<name>.json for leagues, cup_<name>.json for cups, <journal>.json
// for raw record journals. Writes hold an in-process mutex and an advisory
// lock on <file>.lock, so separate processes sharing the directory
// serialize too.
type FileStore struct {
	dir   string
	perm  os.FileMode
	log   logger.Logger
	locks keyedMutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrUnwritable, dir, err)
	}
	return &FileStore{dir: dir, perm: o.filePerm, log: o.logger.Named("filestore")}, nil
}

// Path returns the file holding competition's history. An existing cup
// file is used when no league file exists; otherwise kind decides.
func (s *FileStore) Path(competition string, kind model.Kind) string {
	safe := SafeName(competition)
	league := filepath.Join(s.dir, leaguePrefix+safe+fileExt)
	cup := filepath.Join(s.dir, cupPrefix+safe+fileExt)
	if exists(league) {
		return league
	}
	if exists(cup) || kind == model.KindCup {
		return cup
	}
	return league
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadAll implements Store.ReadAll.
func (s *FileStore) ReadAll(ctx context.Context, competition string) ([]model.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "filestore.ReadAll", trace.WithAttributes(attribute.String("competition", competition)))
	defer span.End()

	name, err := normalizeName(competition)
	if err != nil {
		return nil, err
	}
	history, err := s.read(s.Path(name, model.KindLeague))
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		s.log.Warn(ctx, "history read failed", logger.String("competition", name), logger.Error(err))
		return nil, err
	}
	return history, nil
}

func (s *FileStore) read(path string) ([]model.Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, filepath.Base(path), err)
	}
	history, err := model.DecodeHistory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, filepath.Base(path), err)
	}
	return history, nil
}

// Append implements Store.Append. A corrupt history is left untouched and
// the append is refused.
func (s *FileStore) Append(ctx context.Context, competition string, snap model.Snapshot) error {
	ctx, span := tracer.Start(ctx, "filestore.Append", trace.WithAttributes(attribute.String("competition", competition)))
	defer span.End()

	name, err := normalizeName(competition)
	if err != nil {
		return err
	}
	path := s.Path(name, snap.Kind)
	unlock, err := s.lock(path)
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		return err
	}
	defer unlock()

	history, err := s.read(path)
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		s.log.Warn(ctx, "append refused", logger.String("competition", name), logger.Error(err))
		return err
	}
	if err := s.write(path, append(history, snap)); err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		return err
	}
	metrics.RecordSnapshotAppended(name)
	s.log.Debug(ctx, "snapshot appended",
		logger.String("competition", name),
		logger.String("season", snap.Season),
		logger.String("round", snap.Round),
		logger.Int("history", len(history)+1),
	)
	return nil
}

// Replace implements Store.Replace.
func (s *FileStore) Replace(ctx context.Context, competition string, history []model.Snapshot) error {
	ctx, span := tracer.Start(ctx, "filestore.Replace", trace.WithAttributes(
		attribute.String("competition", competition),
		attribute.Int("snapshots", len(history)),
	))
	defer span.End()

	name, err := normalizeName(competition)
	if err != nil {
		return err
	}
	kind := model.KindLeague
	if len(history) > 0 {
		kind = history[0].Kind
	}
	path := s.Path(name, kind)
	unlock, err := s.lock(path)
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		return err
	}
	defer unlock()

	if err := s.write(path, history); err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		return err
	}
	s.log.Info(ctx, "history replaced", logger.String("competition", name), logger.Int("snapshots", len(history)))
	return nil
}

// lock takes the in-process mutex for path, then the file lock beside it.
func (s *FileStore) lock(path string) (func(), error) {
	unlock := s.locks.lock(path)
	fl := flock.New(path + lockExt)
	if err := fl.Lock(); err != nil {
		unlock()
		return nil, fmt.Errorf("%w: lock %s: %w", ErrUnwritable, filepath.Base(path), err)
	}
	return func() {
		_ = fl.Unlock()
		unlock()
	}, nil
}

// write replaces path atomically: temp file in the same directory, fsync,
// rename.
func (s *FileStore) write(path string, history []model.Snapshot) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	data, err := model.EncodeHistory(history)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return s.writeFile(path, data)
}

func (s *FileStore) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnwritable, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %w", ErrUnwritable, filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %w", ErrUnwritable, filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %w", ErrUnwritable, filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %w", ErrUnwritable, filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: rename %s: %w", ErrUnwritable, filepath.Base(path), err)
	}
	return nil
}

// Competitions implements Store.Competitions. Names are recovered from file
// names with underscores read as spaces.
func (s *FileStore) Competitions(ctx context.Context) ([]string, error) {
	_, span := tracer.Start(ctx, "filestore.Competitions")
	defer span.End()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, fileExt) {
			continue
		}
		stem := strings.TrimSuffix(n, fileExt)
		switch {
		case strings.HasPrefix(stem, leaguePrefix):
			stem = strings.TrimPrefix(stem, leaguePrefix)
		case strings.HasPrefix(stem, cupPrefix):
			stem = strings.TrimPrefix(stem, cupPrefix)
		default:
			continue
		}
		name := strings.ReplaceAll(stem, "_", " ")
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// AppendRecord implements Store.AppendRecord. A journal that cannot be
// parsed is left untouched and the record refused.
func (s *FileStore) AppendRecord(ctx context.Context, journal string, raw json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "filestore.AppendRecord", trace.WithAttributes(attribute.String("journal", journal)))
	defer span.End()

	name, err := normalizeName(journal)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, SafeName(name)+fileExt)
	unlock, err := s.lock(path)
	if err != nil {
		span.RecordError(err)
		metrics.RecordStoreError(errorKind(err))
		return err
	}
	defer unlock()

	records := []json.RawMessage{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, filepath.Base(path), err)
	case len(strings.TrimSpace(string(data))) > 0:
		if err := json.Unmarshal(data, &records); err != nil {
			metrics.RecordStoreError("corrupt")
			return fmt.Errorf("%w: %s: %w", ErrCorruptStore, filepath.Base(path), err)
		}
	}
	records = append(records, raw)
	out, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := s.writeFile(path, out); err != nil {
		metrics.RecordStoreError(errorKind(err))
		return err
	}
	metrics.RecordRecordAppended(name)
	s.log.Debug(ctx, "record appended", logger.String("journal", name), logger.Int("records", len(records)))
	return nil
}

// Close implements Store.Close.
func (s *FileStore) Close() error { return nil }
