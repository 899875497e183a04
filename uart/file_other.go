//go:build !linux

package uart

import (
	"io"

	"github.com/juju/errors"
)

func openFile(device string, baud int) (io.ReadWriteCloser, error) {
	return nil, errors.NotSupportedf("uart driver=file on this OS, use driver=serial")
}
