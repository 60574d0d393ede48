// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the grid presence input.
type Reader interface {
	// Read returns true when mains power is present.
	// The raw value is inverted unless the reader was built active-high:
	// with an optocoupler pulling the line low, raw active = grid OFF.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the BCM pin the grid optocoupler is wired to.
const DefaultPin = 26

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"
