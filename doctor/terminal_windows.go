//go:build windows

package doctor

import (
	"fmt"
	"os"
	"os/signal"
)

// The console never enters raw mode on Windows; nothing to restore.
func resetTerminal() {}

func setupInterruptHandler() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}
