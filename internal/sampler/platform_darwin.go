//go:build darwin

package sampler

// PlatformProbe returns the probe for the running platform.
func PlatformProbe() Probe {
	return NewOSAScriptProbe()
}
