//go:build !darwin

package host

// PlatformPicker returns a picker that saves into fallbackDir; there is no
// save dialog on this platform.
func PlatformPicker(fallbackDir string) Picker {
	return DirPicker{Dir: fallbackDir}
}
