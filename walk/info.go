// info.go - minimal per-entry stat information
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package walk

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// Info is a deliberately small stat record: just enough for the
// walker's own filtering (type, mount-point and symlink-loop
// detection) and for the DirEntry Filter's stdout-identity check
// (Dev/Ino) in package search. It is not a general-purpose,
// marshalable file-metadata type.
type Info struct {
	Ino  uint64
	Dev  uint64
	Rdev uint64
	Siz  int64
	Mod  fs.FileMode

	Mtim time.Time

	name string
}

// Name returns the path this Info was stat'd from.
func (i *Info) Name() string { return i.name }

// Mode returns the file mode bits, including type bits.
func (i *Info) Mode() fs.FileMode { return i.Mod }

// Size returns the file size in bytes.
func (i *Info) Size() int64 { return i.Siz }

// IsDir reports whether this entry is a directory.
func (i *Info) IsDir() bool { return i.Mod.IsDir() }

// IsRegular reports whether this entry is a regular file.
func (i *Info) IsRegular() bool { return i.Mod.IsRegular() }

// Lstatm is like Lstat but fills caller-supplied memory, avoiding an
// allocation per directory entry on the hot path.
func Lstatm(nm string, fi *Info) error {
	return statm(nm, fi, true)
}

// Statm is like Stat but fills caller-supplied memory.
func Statm(nm string, fi *Info) error {
	return statm(nm, fi, false)
}

func statm(nm string, fi *Info, lstat bool) error {
	var st unix.Stat_t
	var err error

	if lstat {
		err = unix.Lstat(nm, &st)
	} else {
		err = unix.Stat(nm, &st)
	}
	if err != nil {
		return err
	}

	fi.Ino = st.Ino
	fi.Dev = uint64(st.Dev)
	fi.Rdev = uint64(st.Rdev)
	fi.Siz = st.Size
	fi.Mod = unixModeToFsMode(st.Mode)
	fi.Mtim = time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
	fi.name = nm
	return nil
}

func unixModeToFsMode(m uint32) fs.FileMode {
	mode := fs.FileMode(m & 0777)
	switch m & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= fs.ModeDir
	case unix.S_IFLNK:
		mode |= fs.ModeSymlink
	case unix.S_IFCHR:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFBLK:
		mode |= fs.ModeDevice
	case unix.S_IFIFO:
		mode |= fs.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= fs.ModeSocket
	}
	return mode
}
