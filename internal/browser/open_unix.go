//go:build !windows

package browser

import (
	"os/exec"
	"runtime"
)

func open(url string) error {
	tool := "xdg-open"
	if runtime.GOOS == "darwin" {
		tool = "open"
	}
	// #nosec G204
	return exec.Command(tool, url).Start()
}
