//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package runner

import "golang.org/x/sys/unix"

// restoreOutputNewlines turns OPOST back on after term.MakeRaw so the
// progress line and log output keep their \n to \r\n translation.
func restoreOutputNewlines(fd int) {
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return
	}
	t.Oflag |= unix.OPOST
	_ = unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}

// interruptSelf delivers SIGINT to this process so the signal context
// cancels the run.
func interruptSelf() {
	_ = unix.Kill(unix.Getpid(), unix.SIGINT)
}
