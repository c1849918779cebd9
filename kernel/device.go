package kernel

import (
	"slices"

	sosio "github.com/ezrec/sos/io"
)

// DeviceInfo is the kernel's record of a registered device, and of the
// processes that have it open.
type DeviceInfo struct {
	ID       int
	Device   sosio.Device
	OpenedBy []*ProcessControlBlock
}

// Unused returns true if no process has the device open.
func (info *DeviceInfo) Unused() bool {
	return len(info.OpenedBy) == 0
}

// IsOpenedBy returns true if the process has the device open.
func (info *DeviceInfo) IsOpenedBy(pcb *ProcessControlBlock) bool {
	return slices.Contains(info.OpenedBy, pcb)
}

// AddOpener records the process as having the device open.
func (info *DeviceInfo) AddOpener(pcb *ProcessControlBlock) {
	if !info.IsOpenedBy(pcb) {
		info.OpenedBy = append(info.OpenedBy, pcb)
	}
}

// RemoveOpener forgets the process, returning true if it had the device open.
func (info *DeviceInfo) RemoveOpener(pcb *ProcessControlBlock) bool {
	n := slices.Index(info.OpenedBy, pcb)
	if n < 0 {
		return false
	}
	info.OpenedBy = slices.Delete(info.OpenedBy, n, n+1)
	return true
}
