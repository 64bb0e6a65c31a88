//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

// NotifyReload is a no-op; there is no SIGHUP equivalent here.
func NotifyReload(ch chan os.Signal) {}
