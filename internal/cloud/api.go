package cloud

// REST paths relative to the configured base URL.
// The path shapes are a fixed external contract.
const (
	loginPath   = "login/"
	usersMePath = "users/me/"
	devicesPath = "devices/"
)

// Headers attached to every request against the primary API host.
const (
	headerAppID    = "x-nightbell-app-id"
	headerClientID = "x-nightbell-client-id"
)

// Wire field names used across sub-resource payloads.
const (
	fieldID          = "id"
	fieldType        = "type"
	fieldACL         = "acl"
	fieldName        = "name"
	fieldStatus      = "status"
	fieldLocation    = "location"
	fieldLocationLat = "lat"
	fieldLocationLng = "lng"
	fieldUser        = "user"
	fieldURL         = "url"
	fieldCreatedAt   = "createdAt"
	fieldEvent       = "event"
	fieldMediaURL    = "media"
	fieldCheckIn     = "checkedInAt"
	fieldWifiLink    = "wifiLink"
	fieldWifiSSID    = "essid"
	fieldAccessToken = "access_token"
)

// Sub-resource names used as keys in the cache record.
const (
	resourceSummary  = "summary"
	resourceAvatar   = "avatar"
	resourceInfo     = "info"
	resourceSettings = "settings"
	resourceEvents   = "events"
)

// Media kinds cached in memory per device.
const (
	mediaAvatar   = "avatar"
	mediaActivity = "activity"
)

func (s *Session) loginURL() string {
	return s.baseURL + loginPath
}

func (s *Session) usersMeURL() string {
	return s.baseURL + usersMePath
}

func (s *Session) devicesURL() string {
	return s.baseURL + devicesPath
}

func (s *Session) deviceURL(deviceID string) string {
	return s.devicesURL() + deviceID + "/"
}

func (s *Session) deviceAvatarURL(deviceID string) string {
	return s.deviceURL(deviceID) + "avatar/"
}

func (s *Session) deviceInfoURL(deviceID string) string {
	return s.deviceURL(deviceID) + "info/"
}

func (s *Session) deviceSettingsURL(deviceID string) string {
	return s.deviceURL(deviceID) + "settings/"
}

func (s *Session) deviceActivitiesURL(deviceID string) string {
	return s.deviceURL(deviceID) + "activities/"
}

func (s *Session) activityURL(deviceID, activityID string) string {
	return s.deviceActivitiesURL(deviceID) + activityID + "/"
}

func (s *Session) activityVideoURL(deviceID, activityID string) string {
	return s.activityURL(deviceID, activityID) + "video/"
}
