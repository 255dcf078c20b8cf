// pattern: Imperative Shell

// Package linkreg is a directory-backed registry of canonical paths.
//
// Each entry is a single symlink inside the registry root: the link's name is
// the entry Key and its target is the registered path. Entries are placed by
// renaming a fully-formed temporary link over the final name and removed with
// a single unlink, so a reader never observes a partial entry. Mutations take
// a per-entry file lock; enumeration takes no locks at all.
package linkreg

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"envtrack/internal/canonical"
	"envtrack/internal/logging"
)

const (
	lockDirName  = ".locks"
	lockSuffix   = ".lock"
	tmpPrefix    = ".tmp-"
	staleTempAge = 10 * time.Minute
)

// ErrIO marks failures to access the registry root or an entry on disk.
var ErrIO = errors.New("registry I/O error")

// RegistrationError is returned when a new entry cannot be persisted.
type RegistrationError struct {
	Path canonical.Path
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s: %v", e.Path, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Entry is a single registered path.
type Entry struct {
	Key  Key
	Path canonical.Path
}

// Registry is a handle on a registry root. It holds no state besides its
// configuration, so any number of processes may share one root.
type Registry struct {
	root       string
	logger     *logging.ScopedLogger
	pruneStale bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for skipped and pruned entries.
func WithLogger(logger *logging.ScopedLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPruneStale makes enumeration delete entries whose target no longer
// exists instead of only skipping them.
func WithPruneStale(prune bool) Option {
	return func(r *Registry) {
		r.pruneStale = prune
	}
}

// Open opens the registry rooted at root, creating the directory if needed.
func Open(root string, opts ...Option) (*Registry, error) {
	r := &Registry{
		root:   root,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if root == "" {
		return nil, fmt.Errorf("open registry: empty root: %w", ErrIO)
	}
	if err := os.MkdirAll(filepath.Join(root, lockDirName), 0755); err != nil {
		return nil, fmt.Errorf("open registry %s: %w: %w", root, ErrIO, err)
	}

	return r, nil
}

// Root returns the registry directory.
func (r *Registry) Root() string {
	return r.root
}

func (r *Registry) entryPath(key Key) string {
	return filepath.Join(r.root, string(key))
}

// entryLock is a held per-entry lock.
type entryLock struct {
	fl *flock.Flock
}

func (l *entryLock) unlock() {
	_ = l.fl.Unlock()
}

// discard deletes the lock file and then releases it. Waiters blocked on the
// deleted file notice the swap in lockEntry and retry on a fresh file.
func (l *entryLock) discard() {
	_ = os.Remove(l.fl.Path())
	l.unlock()
}

func (r *Registry) lockPath(key Key) string {
	return filepath.Join(r.root, lockDirName, string(key)+lockSuffix)
}

// lockEntry takes the exclusive lock for a single entry. A lock file removed
// while we waited on it no longer guards anything, so the lock is retaken on
// whatever file is now at the path.
func (r *Registry) lockEntry(key Key) (*entryLock, error) {
	lockDir := filepath.Join(r.root, lockDirName)
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("lock entry %s: %w", key, err)
	}

	path := r.lockPath(key)
	for {
		fl := flock.New(path)
		if err := fl.Lock(); err != nil {
			return nil, fmt.Errorf("lock entry %s: %w", key, err)
		}
		if sameLockFile(fl) {
			return &entryLock{fl: fl}, nil
		}
		_ = fl.Unlock()
	}
}

// sameLockFile reports whether the file fl holds is still the one at its path.
func sameLockFile(fl *flock.Flock) bool {
	held, err := fl.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(fl.Path())
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

// Register records p and returns its key. Registering a path that is already
// present returns the existing key and writes nothing.
func (r *Registry) Register(p canonical.Path) (Key, error) {
	if !filepath.IsAbs(string(p)) {
		return "", &RegistrationError{Path: p, Err: errors.New("path is not absolute")}
	}

	key := KeyFor(p)
	lock, err := r.lockEntry(key)
	if err != nil {
		return "", &RegistrationError{Path: p, Err: err}
	}
	defer lock.unlock()

	final := r.entryPath(key)
	if target, err := os.Readlink(final); err == nil && target == string(p) {
		r.logger.Debug("environment already registered", "key", key, "path", p)
		return key, nil
	}

	tmp := filepath.Join(r.root, tmpPrefix+string(key)+"-"+uuid.NewString())
	if err := os.Symlink(string(p), tmp); err != nil {
		return "", &RegistrationError{Path: p, Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", &RegistrationError{Path: p, Err: err}
	}

	r.logger.Info("registered environment", "key", key, "path", p)
	return key, nil
}

// Unregister removes the entry for key. A key with no entry, including one
// removed concurrently by another process, is not an error.
func (r *Registry) Unregister(key Key) error {
	if _, err := ParseKey(string(key)); err != nil {
		return nil
	}

	lock, err := r.lockEntry(key)
	if err != nil {
		return fmt.Errorf("unregister %s: %w: %w", key, ErrIO, err)
	}

	if err := os.Remove(r.entryPath(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			lock.discard()
			return nil
		}
		lock.unlock()
		return fmt.Errorf("unregister %s: %w: %w", key, ErrIO, err)
	}
	lock.discard()

	r.logger.Info("unregistered environment", "key", key)
	return nil
}

// readBatch is how many directory entries TryIter reads at a time.
const readBatch = 64

// TryIter opens the root and returns a sequence of its live entries. Failure
// to open the root is returned here; malformed or dangling entries are
// skipped as the sequence is consumed. The directory is read in batches and
// closed when ranging ends, so the sequence can be ranged over once; call
// TryIter again for a fresh view of the disk.
func (r *Registry) TryIter() (iter.Seq[Entry], error) {
	dir, err := os.Open(r.root)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w: %w", r.root, ErrIO, err)
	}
	if info, err := dir.Stat(); err != nil || !info.IsDir() {
		_ = dir.Close()
		if err == nil {
			err = errors.New("not a directory")
		}
		return nil, fmt.Errorf("read registry %s: %w: %w", r.root, ErrIO, err)
	}

	consumed := false
	return func(yield func(Entry) bool) {
		if consumed {
			return
		}
		consumed = true
		defer func() { _ = dir.Close() }()

		for {
			batch, err := dir.ReadDir(readBatch)
			for _, de := range batch {
				entry, ok := r.decode(de.Name())
				if !ok {
					continue
				}
				if !yield(entry) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					r.logger.Warn("registry listing ended early", "root", r.root, "error", err)
				}
				return
			}
		}
	}, nil
}

// Entries collects TryIter into a slice.
func (r *Registry) Entries() ([]Entry, error) {
	seq, err := r.TryIter()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for e := range seq {
		entries = append(entries, e)
	}
	return entries, nil
}

// decode turns one directory entry into an Entry, or reports false if the
// entry should be skipped.
func (r *Registry) decode(name string) (Entry, bool) {
	if strings.HasPrefix(name, ".") {
		return Entry{}, false
	}

	key, err := ParseKey(name)
	if err != nil {
		r.logger.Debug("skipping foreign file in registry", "name", name)
		return Entry{}, false
	}

	target, err := os.Readlink(r.entryPath(key))
	if err != nil {
		r.logger.Debug("skipping unreadable entry", "key", key, "error", err)
		return Entry{}, false
	}
	if KeyFor(canonical.Path(target)) != key {
		r.logger.Debug("skipping entry with mismatched key", "key", key, "target", target)
		return Entry{}, false
	}

	stale, err := staleTarget(target)
	if err != nil {
		r.logger.Debug("skipping unresolvable entry", "key", key, "target", target, "error", err)
		return Entry{}, false
	}
	if stale {
		r.logger.Debug("skipping stale entry", "key", key, "target", target)
		if r.pruneStale {
			if _, err := r.pruneEntry(key); err != nil {
				r.logger.Warn("failed to prune stale entry", "key", key, "error", err)
			}
		}
		return Entry{}, false
	}

	return Entry{Key: key, Path: canonical.Path(target)}, true
}

// staleTarget reports whether a link target no longer names a directory in
// its canonical form: the path is gone, or a symlink now sits somewhere along
// it. Other resolution failures are returned and leave the entry alone.
func staleTarget(target string) (bool, error) {
	resolved, err := canonical.Resolve(target)
	if errors.Is(err, canonical.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return resolved != canonical.Path(target), nil
}

// pruneEntry removes key if its target is still stale once the entry lock
// is held. A concurrent re-registration wins over the prune.
func (r *Registry) pruneEntry(key Key) (bool, error) {
	lock, err := r.lockEntry(key)
	if err != nil {
		return false, err
	}

	target, err := os.Readlink(r.entryPath(key))
	if err != nil {
		lock.unlock()
		return false, nil
	}
	if stale, err := staleTarget(target); err != nil || !stale {
		lock.unlock()
		return false, nil
	}

	if err := os.Remove(r.entryPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		lock.unlock()
		return false, err
	}
	lock.discard()

	r.logger.Info("pruned stale entry", "key", key, "path", target)
	return true, nil
}

// Prune removes every stale entry, temporary links abandoned by interrupted
// registrations, and lock files left for entries that no longer exist. It
// returns how many entries were removed; temporaries and lock files are not
// counted.
func (r *Registry) Prune() (int, error) {
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		return 0, fmt.Errorf("read registry %s: %w: %w", r.root, ErrIO, err)
	}

	removed := 0
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, tmpPrefix) {
			r.removeAbandonedTemp(name)
			continue
		}

		key, err := ParseKey(name)
		if err != nil {
			continue
		}
		target, err := os.Readlink(r.entryPath(key))
		if err != nil {
			continue
		}
		if stale, err := staleTarget(target); err != nil || !stale {
			continue
		}

		ok, err := r.pruneEntry(key)
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w: %w", key, ErrIO, err)
		}
		if ok {
			removed++
		}
	}

	r.removeOrphanLocks()
	return removed, nil
}

// removeOrphanLocks deletes lock files whose entry is absent. A lock that is
// held right now belongs to an operation in flight and is left alone.
func (r *Registry) removeOrphanLocks() {
	lockEntries, err := os.ReadDir(filepath.Join(r.root, lockDirName))
	if err != nil {
		return
	}

	for _, de := range lockEntries {
		key, err := ParseKey(strings.TrimSuffix(de.Name(), lockSuffix))
		if err != nil || !strings.HasSuffix(de.Name(), lockSuffix) {
			continue
		}
		if _, err := os.Lstat(r.entryPath(key)); !errors.Is(err, fs.ErrNotExist) {
			continue
		}

		fl := flock.New(r.lockPath(key))
		locked, err := fl.TryLock()
		if err != nil || !locked {
			continue
		}
		if !sameLockFile(fl) {
			_ = fl.Unlock()
			continue
		}
		lock := &entryLock{fl: fl}
		if _, err := os.Lstat(r.entryPath(key)); errors.Is(err, fs.ErrNotExist) {
			lock.discard()
			r.logger.Debug("removed orphan lock file", "key", key)
			continue
		}
		lock.unlock()
	}
}

func (r *Registry) removeAbandonedTemp(name string) {
	p := filepath.Join(r.root, name)
	info, err := os.Lstat(p)
	if err != nil || time.Since(info.ModTime()) < staleTempAge {
		return
	}
	if err := os.Remove(p); err == nil {
		r.logger.Debug("removed abandoned temporary link", "name", name)
	}
}
