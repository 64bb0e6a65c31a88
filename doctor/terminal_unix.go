//go:build !windows

package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// resetTerminal undoes raw mode left behind by the hotkey check, so
// the y/n prompts echo again.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}

func setupInterruptHandler() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}
