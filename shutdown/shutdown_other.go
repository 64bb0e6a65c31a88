//go:build !windows

package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}

// NotifyReload delivers SIGHUP, used to reload settings in place.
func NotifyReload(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGHUP)
}
