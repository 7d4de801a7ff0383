package core

import "os"

// fileExists reports whether path names an existing file, distinguishing
// "does not exist" (ok=false, err=nil) from a real stat failure.
func fileExists(path string) (ok bool, err error) {
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		return true, nil
	case os.IsNotExist(statErr):
		return false, nil
	default:
		return false, statErr
	}
}
