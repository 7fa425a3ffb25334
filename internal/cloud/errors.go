package cloud

import "errors"

// Domain errors for the cloud package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, cloud.ErrAuthentication) {
//	    // credentials are wrong or the re-login failed
//	}
var (
	// ErrAuthentication is returned when credentials are missing, the
	// server answers 401, or a bounded re-login attempt fails.
	ErrAuthentication = errors.New("cloud: authentication failed")

	// ErrCloud is returned for any other transport or server failure
	// once the single re-login retry has been exhausted.
	ErrCloud = errors.New("cloud: request failed")

	// ErrDeviceNotFound is returned when a device id is unknown after
	// the registry has been populated.
	ErrDeviceNotFound = errors.New("cloud: device not found")

	// ErrInvalidSetting is returned when a settings value fails
	// client-side validation. No network call is made.
	ErrInvalidSetting = errors.New("cloud: invalid setting value")

	// ErrSettingRejected is returned when the server rejects a
	// settings update that passed client-side validation.
	ErrSettingRejected = errors.New("cloud: settings update rejected")
)
