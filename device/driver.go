package device

import (
	"io"

	"helios/kernel"
)

// Driver is an interface implemented by all device drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverInit initializes the device. Drivers log through the supplied
	// io.Writer in conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}
