package keys

import (
	"os/exec"
	"runtime"
)

// PoolURL is the Uniswap explorer page for a pool address.
const PoolURL = "https://app.uniswap.org/explore/pools/ethereum/"

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
