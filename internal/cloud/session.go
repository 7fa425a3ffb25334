package cloud

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nightbell/nightbell-core/internal/cache"
	"github.com/nightbell/nightbell-core/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Session.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives activities fetched from the cloud for local
// persistence. Implemented by the history repository.
type Recorder interface {
	RecordActivities(ctx context.Context, deviceID string, events []Event) error
}

// Session is the authenticated connection to the device cloud.
//
// It owns the cache record, the HTTP client, and the registry of
// Device instances keyed by device id. A Session is created once per
// client instance and drives all cloud traffic for its devices.
//
// Thread Safety:
//   - Public methods are safe for concurrent use. The registry and
//     the cache record have their own locks; each Device serialises
//     its own updates.
type Session struct {
	cfg     config.CloudConfig
	baseURL string
	apiHost string
	http    *http.Client
	store   *cache.Store
	logger  Logger
	history Recorder

	// record is the durable cache state. recordMu guards both the
	// in-memory mutations and the save that follows each one.
	record   *cache.Record
	recordMu sync.Mutex

	// devices is the registry of known devices. order preserves
	// discovery order for listing.
	devices map[string]*Device
	order   []string
	devMu   sync.Mutex

	// user holds the /users/me/ payload fetched during Initialize.
	user map[string]any

	closeOnce sync.Once
}

// New creates a Session for the given cloud configuration.
//
// The session starts with a fresh template cache record; Initialize
// replaces it with the loaded cache. The store may be disabled, in
// which case the client runs with a throwaway identity.
//
// Parameters:
//   - cfg: Cloud account and endpoint configuration
//   - store: Durable cache store (never nil)
//
// Returns:
//   - *Session: Session ready for Initialize
//   - error: If the base URL is invalid
func New(cfg config.CloudConfig, store *cache.Store) (*Session, error) {
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrCloud, cfg.BaseURL)
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Session{
		cfg:     cfg,
		baseURL: base,
		apiHost: parsed.Host,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		logger:  noopLogger{},
		record:  cache.NewRecord(),
		devices: make(map[string]*Device),
	}, nil
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// SetHistory attaches an activity recorder. Activities fetched during
// device refreshes are handed to it; nil disables recording.
func (s *Session) SetHistory(history Recorder) {
	s.history = history
}

// Initialize loads the cache, optionally logs in, fetches the current
// user, and populates the device registry.
//
// Returns the discovered devices in discovery order.
func (s *Session) Initialize(ctx context.Context) ([]*Device, error) {
	record, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	s.recordMu.Lock()
	s.record = record
	s.recordMu.Unlock()

	if s.cfg.AutoLogin && s.cfg.Username != "" && s.cfg.Password != "" {
		if err := s.Login(ctx); err != nil {
			return nil, err
		}
	}

	// Fetch the logged-in user. This also triggers the implicit login
	// when auto-login is off and no token is cached.
	p, err := s.request(ctx, http.MethodGet, s.usersMeURL(), nil)
	if err != nil {
		return nil, err
	}
	if p != nil {
		var user map[string]any
		if err := p.Decode(&user); err != nil {
			return nil, err
		}
		s.user = user
	}

	return s.Devices(ctx, false)
}

// Login authenticates against the cloud and stores the access token.
//
// The cached token is cleared before the attempt, so a stale token is
// never sent on a login call. Missing credentials or a rejected login
// surface as ErrAuthentication. Login itself never retries.
func (s *Session) Login(ctx context.Context) error {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("%w: username and password required", ErrAuthentication)
	}

	if err := s.setAccessToken(""); err != nil {
		return err
	}

	s.recordMu.Lock()
	body := map[string]any{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
		"appId":    s.record.AppID,
		"token":    s.record.Token,
	}
	s.recordMu.Unlock()

	p, err := s.do(ctx, http.MethodPost, s.loginURL(), body, attemptRetry)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: login endpoint unavailable", ErrAuthentication)
	}

	var resp map[string]any
	if err := p.Decode(&resp); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	token := stringField(resp, fieldAccessToken)
	if token == "" {
		return fmt.Errorf("%w: login response missing access token", ErrAuthentication)
	}

	if err := s.setAccessToken(token); err != nil {
		return err
	}

	if settle := time.Duration(s.cfg.LoginSettle) * time.Second; settle > 0 {
		// Give the upstream session store time to see the new token.
		s.logger.Info("login successful, settling", "delay", settle)
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		s.logger.Info("login successful")
	}

	return nil
}

// Logout clears the access token and the device registry.
// There is no server-side logout call; the token simply stops being
// used and expires upstream.
func (s *Session) Logout(ctx context.Context) error {
	_ = ctx
	if s.AccessToken() == "" {
		return nil
	}

	s.devMu.Lock()
	s.devices = make(map[string]*Device)
	s.order = nil
	s.devMu.Unlock()

	return s.setAccessToken("")
}

// Devices returns all known devices in discovery order.
//
// The device list is fetched when the registry is empty or refresh is
// requested. Summaries returned by the cloud are merged into existing
// Device instances rather than replacing them, so sub-resource state
// fetched earlier survives a registry refresh.
func (s *Session) Devices(ctx context.Context, refresh bool) ([]*Device, error) {
	s.devMu.Lock()
	empty := len(s.devices) == 0
	s.devMu.Unlock()

	if refresh || empty {
		s.logger.Info("updating device list")
		p, err := s.request(ctx, http.MethodGet, s.devicesURL(), nil)
		if err != nil {
			return nil, err
		}
		if p != nil {
			var summaries []map[string]any
			if err := p.Decode(&summaries); err != nil {
				return nil, err
			}
			for _, summary := range summaries {
				if err := s.admitDevice(summary); err != nil {
					return nil, err
				}
			}
		}
	}

	s.devMu.Lock()
	defer s.devMu.Unlock()
	devices := make([]*Device, 0, len(s.order))
	for _, id := range s.order {
		devices = append(devices, s.devices[id])
	}
	return devices, nil
}

// Device returns a single device by id.
//
// The registry is populated first if empty. Unknown ids return
// ErrDeviceNotFound. With refresh set, the device's sub-resources are
// updated before returning (skipped when the lookup itself had to
// populate the registry, which already fetched fresh summaries).
func (s *Session) Device(ctx context.Context, deviceID string, refresh bool) (*Device, error) {
	s.devMu.Lock()
	empty := len(s.devices) == 0
	s.devMu.Unlock()

	if empty {
		if _, err := s.Devices(ctx, false); err != nil {
			return nil, err
		}
		refresh = false
	}

	s.devMu.Lock()
	device := s.devices[deviceID]
	s.devMu.Unlock()

	if device == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if refresh {
		if err := device.Update(ctx, UpdateOptions{Refresh: true}); err != nil {
			return nil, err
		}
	}
	return device, nil
}

// RemoveDevice drops a device from the registry and the cache record.
func (s *Session) RemoveDevice(deviceID string) error {
	s.devMu.Lock()
	if _, ok := s.devices[deviceID]; ok {
		delete(s.devices, deviceID)
		for i, id := range s.order {
			if id == deviceID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.devMu.Unlock()

	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	s.record.RemoveDevice(deviceID)
	return s.store.Save(s.record)
}

// admitDevice merges a freshly fetched summary into an existing
// device or constructs a new one seeded from the cache record.
func (s *Session) admitDevice(summary map[string]any) error {
	deviceID := stringField(summary, fieldID)
	if deviceID == "" {
		s.logger.Warn("device summary without id ignored")
		return nil
	}

	s.devMu.Lock()
	existing := s.devices[deviceID]
	s.devMu.Unlock()

	if existing != nil {
		return existing.mergeSummary(summary)
	}

	device := newDevice(s, deviceID, summary)
	s.devMu.Lock()
	s.devices[deviceID] = device
	s.order = append(s.order, deviceID)
	s.devMu.Unlock()

	s.logger.Debug("device discovered", "device_id", deviceID, "acl", string(device.ACL()))
	return s.cacheDevice(deviceID, device.cacheSnapshot())
}

// UserID returns the logged-in user's id, or "" before Initialize.
func (s *Session) UserID() string {
	return stringField(s.user, fieldID)
}

// UserFirstName returns the logged-in user's first name.
func (s *Session) UserFirstName() string {
	return stringField(s.user, "firstName")
}

// UserLastName returns the logged-in user's last name.
func (s *Session) UserLastName() string {
	return stringField(s.user, "lastName")
}

// AccessToken returns the cached access token ("" = unauthenticated).
func (s *Session) AccessToken() string {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	return s.record.AccessToken
}

// setAccessToken stores the token and persists the cache.
func (s *Session) setAccessToken(token string) error {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	s.record.AccessToken = token
	return s.store.Save(s.record)
}

// cacheDevice merges a device's partial sub-trees into the cache
// record and persists it.
func (s *Session) cacheDevice(deviceID string, partial map[string]any) error {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	s.record.MergeDevice(deviceID, partial)
	return s.store.Save(s.record)
}

// cachedDevice returns the cached sub-trees for a device, or nil.
func (s *Session) cachedDevice(deviceID string) map[string]any {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()
	return s.record.Device(deviceID)
}

// Close releases the underlying HTTP connections. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.http.CloseIdleConnections()
		s.logger.Debug("session closed")
	})
}
