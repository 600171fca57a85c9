//go:build !unix

package phpfile

import "os"

func canRead(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

func canWrite(path string, dir bool) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if dir {
		return info.IsDir() && info.Mode().Perm()&0o200 != 0
	}
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	file.Close()
	return true
}
