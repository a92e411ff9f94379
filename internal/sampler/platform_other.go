//go:build !darwin

package sampler

// PlatformProbe returns nil: foreground sampling is only supported on macOS.
func PlatformProbe() Probe {
	return nil
}
