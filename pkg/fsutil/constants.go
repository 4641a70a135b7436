package fsutil

// File and directory permission constants used for everything inkwell writes
// below its storage root.
const (
	FileModeDefault = 0o644 // -rw-r--r--: catalog snapshot, config
	FileModeSecure  = 0o640 // -rw-r-----: name cache, downloaded fonts

	DirModeDefault = 0o755 // drwxr-xr-x
	DirModeSecure  = 0o750 // drwxr-x---: storage root and fonts directory
)
