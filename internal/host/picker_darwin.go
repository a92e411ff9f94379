//go:build darwin

package host

// PlatformPicker returns the save dialog of the running platform.
func PlatformPicker(fallbackDir string) Picker {
	return NewOSAScriptPicker()
}
