package device

import (
	"fmt"
	"io/fs"
	"maps"
	"regexp"
	"slices"
	"strconv"

	log "github.com/sirupsen/logrus"
)

var reCoreName = regexp.MustCompile(`(?i)^[0-9a-f]{6}\.core$`)

// CoreName is the file name of the core dump of a process.
func CoreName(pid int) string {
	return fmt.Sprintf("%06x.core", pid)
}

// CoreStore holds the section images of processes that terminated with a
// non-zero exit code. With a Dir set, each core is also written through to
// it as it is stored.
type CoreStore struct {
	Dir   CreateFS
	Cores map[int][]uint8
}

// Store records the core dump of a process.
func (cs *CoreStore) Store(pid int, blob []uint8) (err error) {
	if cs.Cores == nil {
		cs.Cores = make(map[int][]uint8)
	}
	cs.Cores[pid] = slices.Clone(blob)

	log.WithField("pid", pid).Infof("core: %d bytes stored", len(blob))

	if cs.Dir != nil {
		err = cs.write(cs.Dir, pid)
	}

	return
}

// Load returns a stored core dump.
func (cs *CoreStore) Load(pid int) (blob []uint8, err error) {
	blob, ok := cs.Cores[pid]
	if !ok {
		err = ErrCoreMissing
	}
	return
}

// Pids lists the processes with a stored core, in ascending order.
func (cs *CoreStore) Pids() []int {
	return slices.Sorted(maps.Keys(cs.Cores))
}

func (cs *CoreStore) write(filesys CreateFS, pid int) (err error) {
	file, err := filesys.Create(CoreName(pid))
	if err != nil {
		return
	}

	_, err = file.Write(cs.Cores[pid])
	cerr := file.Close()
	if err == nil {
		err = cerr
	}
	return
}

// Marshal writes every stored core to a file system, one XXXXXX.core file
// per process.
func (cs *CoreStore) Marshal(filesys CreateFS) (err error) {
	err = filesys.Mkdir(".", 0755)
	if err != nil {
		return
	}

	for _, pid := range cs.Pids() {
		err = cs.write(filesys, pid)
		if err != nil {
			return
		}
	}

	return
}

// Unmarshal loads core dumps from a file system by scanning for files
// matching the pattern XXXXXX.core (6 hex digits).
func (cs *CoreStore) Unmarshal(filesys fs.FS) (err error) {
	return fs.WalkDir(filesys, ".", func(path string, d fs.DirEntry, err_in error) (err error) {
		if err_in != nil {
			return err_in
		}
		if d.IsDir() {
			if path != "." {
				return fs.SkipDir
			}
			return
		}
		name := d.Name()
		if !reCoreName.MatchString(name) {
			return
		}
		pid, err := strconv.ParseUint(name[:6], 16, 24)
		if err != nil {
			return
		}

		blob, err := fs.ReadFile(filesys, path)
		if err != nil {
			return
		}

		if cs.Cores == nil {
			cs.Cores = make(map[int][]uint8)
		}
		cs.Cores[int(pid)] = blob

		return
	})
}
