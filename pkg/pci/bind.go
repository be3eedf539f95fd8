package pci

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/pkg/ixyerr"
)

func driverPath(driverName string) string {
	return fmt.Sprintf("/sys/bus/pci/drivers/%s", driverName)
}

// IsBound reports whether this device currently shows up under its
// configured kernel driver's sysfs directory.
func (d *Device) IsBound() bool {
	_, err := os.Stat(fmt.Sprintf("%s/%s", driverPath(d.driverName), d.address))
	return err == nil
}

// Unbind detaches this device from its kernel driver, if bound, by
// writing the device address to the driver's "unbind" file. It is a
// no-op if the device is not currently bound.
func (d *Device) Unbind() error {
	if !d.IsBound() {
		return nil
	}
	return writeDriverCommand(driverPath(d.driverName)+"/unbind", d.address)
}

// Bind attaches this device to its configured kernel driver by writing
// the device address to the driver's "bind" file.
func (d *Device) Bind() error {
	if d.IsBound() {
		return nil
	}
	return writeDriverCommand(driverPath(d.driverName)+"/bind", d.address)
}

func writeDriverCommand(path, address string) error {
	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return ixyerr.FromErrno(err, "open "+path)
	}
	defer unix.Close(fd)

	if _, err := unix.Write(fd, []byte(address)); err != nil {
		return ixyerr.FromErrno(err, "write "+path)
	}
	return nil
}
