package uart

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

func openFile(device string, baud int) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(device, unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, err
	}
	if err = setRaw(int(f.Fd()), baud); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// setRaw configures 8N1 raw mode with arbitrary baud via termios2.
// Not a tty (pipe, regular file) is accepted as is.
func setRaw(fd int, baud int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err == unix.ENOTTY {
		return nil
	}
	if err != nil {
		return os.NewSyscallError("TCGETS2", err)
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | unix.BOTHER
	t.Ispeed = uint32(baud)
	t.Ospeed = uint32(baud)
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err = unix.IoctlSetTermios(fd, unix.TCSETS2, t); err != nil {
		return os.NewSyscallError("TCSETS2", err)
	}
	return nil
}
