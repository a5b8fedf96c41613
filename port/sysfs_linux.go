//go:build linux

package port

import (
	"os"
	"path/filepath"
	"strings"
)

const sysfsRoot = "/sys/class/tty"

func manufacturer(path string) string {
	return manufacturerFrom(sysfsRoot, filepath.Base(path))
}

// manufacturerFrom reads the USB manufacturer string for a tty device. CDC
// ACM ports sit on a USB interface whose parent is the device; usb-serial
// converters add one more level.
func manufacturerFrom(root, name string) string {
	device, err := filepath.EvalSymlinks(filepath.Join(root, name, "device"))
	if err != nil {
		return ""
	}
	for _, dir := range []string{filepath.Dir(device), filepath.Dir(filepath.Dir(device))} {
		data, err := os.ReadFile(filepath.Join(dir, "manufacturer"))
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}
