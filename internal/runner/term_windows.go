package runner

import "golang.org/x/sys/windows"

// Console output processing survives raw mode on Windows.
func restoreOutputNewlines(fd int) {}

func interruptSelf() {
	_ = windows.GenerateConsoleCtrlEvent(windows.CTRL_C_EVENT, 0)
}
