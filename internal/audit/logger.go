package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// EventType represents the type of audit event
type EventType string

const (
	// Profile events
	EventProfileCreate EventType = "PROFILE_CREATE"
	EventProfileUpdate EventType = "PROFILE_UPDATE"
	EventProfileDelete EventType = "PROFILE_DELETE"
	EventProfileImport EventType = "PROFILE_IMPORT"
	EventProfileExport EventType = "PROFILE_EXPORT"
	EventProfileApply  EventType = "PROFILE_APPLY"

	// System events
	EventStartup      EventType = "STARTUP"
	EventShutdown     EventType = "SHUTDOWN"
	EventError        EventType = "ERROR"
	EventConfigChange EventType = "CONFIG_CHANGE"
)

// Severity represents the severity level of an audit event
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Severity  Severity       `json:"severity"`
	Source    string         `json:"source"`
	User      string         `json:"user,omitempty"`
	Kind      types.Kind     `json:"kind,omitempty"`
	Profile   string         `json:"profile,omitempty"`
	Adapter   string         `json:"adapter,omitempty"`
	Action    string         `json:"action"`
	Result    string         `json:"result"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Recorder is what commands use to leave an audit trail
type Recorder interface {
	LogProfileOperation(op EventType, kind types.Kind, profile string, err error, details map[string]any)
	LogApply(profile, adapter string, err error, details map[string]any)
	LogError(source string, err error, details map[string]any)
	Close() error
}

var (
	_ Recorder = (*Logger)(nil)
	_ Recorder = NopRecorder{}
)

// NopRecorder discards every event (used when auditing is disabled)
type NopRecorder struct{}

func (NopRecorder) LogProfileOperation(EventType, types.Kind, string, error, map[string]any) {}
func (NopRecorder) LogApply(string, string, error, map[string]any)                           {}
func (NopRecorder) LogError(string, error, map[string]any)                                   {}
func (NopRecorder) Close() error                                                             { return nil }

// Logger writes audit events as JSON lines from a background worker
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	filepath  string
	maxSize   int64
	maxAge    time.Duration
	user      string
	encoder   *json.Encoder
	eventChan chan *AuditEvent
	flushChan chan chan struct{}
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// Config represents logger configuration
type Config struct {
	FilePath string
	MaxSize  int64         // Maximum file size in bytes before rotation
	MaxAge   time.Duration // Rotated files older than this are removed
}

// NewLogger creates a new audit logger
func NewLogger(config Config) (*Logger, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("audit log path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 - path comes from application config
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	logger := &Logger{
		file:      file,
		filepath:  config.FilePath,
		maxSize:   config.MaxSize,
		maxAge:    config.MaxAge,
		user:      currentUser(),
		encoder:   json.NewEncoder(file),
		eventChan: make(chan *AuditEvent, 100),
		flushChan: make(chan chan struct{}),
		stopChan:  make(chan struct{}),
	}

	logger.wg.Add(1)
	go logger.worker()

	logger.LogSystem(EventStartup, "Audit logger started", nil)

	return logger, nil
}

// Path returns the active log file
func (l *Logger) Path() string {
	return l.filepath
}

// Log queues an audit event
func (l *Logger) Log(event *AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.User == "" {
		event.User = l.user
	}
	event.Details = sanitize(event.Details)

	select {
	case l.eventChan <- event:
	case <-time.After(time.Second):
		fmt.Fprintf(os.Stderr, "Failed to log audit event: timeout\n")
	}
}

// LogProfileOperation records a change to (or export of) a stored profile
func (l *Logger) LogProfileOperation(op EventType, kind types.Kind, profile string, err error, details map[string]any) {
	event := &AuditEvent{
		Type:     op,
		Severity: SeverityInfo,
		Source:   "store",
		Kind:     kind,
		Profile:  profile,
		Action:   strings.ToLower(strings.TrimPrefix(string(op), "PROFILE_")),
		Result:   ResultSuccess,
		Details:  details,
	}
	if err != nil {
		event.Severity = SeverityError
		event.Result = ResultFailed
		event.Error = err.Error()
	}
	l.Log(event)
}

// LogApply records an attempt to push a network profile onto an adapter
func (l *Logger) LogApply(profile, adapter string, err error, details map[string]any) {
	event := &AuditEvent{
		Type:     EventProfileApply,
		Severity: SeverityWarning,
		Source:   "netcfg",
		Kind:     types.KindNetwork,
		Profile:  profile,
		Adapter:  adapter,
		Action:   "apply",
		Result:   ResultSuccess,
		Details:  details,
	}
	if err != nil {
		event.Severity = SeverityError
		event.Result = ResultFailed
		event.Error = err.Error()
	}
	l.Log(event)
}

// LogError logs an error event
func (l *Logger) LogError(source string, err error, details map[string]any) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.Log(&AuditEvent{
		Type:     EventError,
		Severity: SeverityError,
		Source:   source,
		Action:   "error",
		Result:   "ERROR",
		Error:    msg,
		Details:  details,
	})
}

// LogSystem logs a system event
func (l *Logger) LogSystem(eventType EventType, message string, details map[string]any) {
	l.Log(&AuditEvent{
		Type:     eventType,
		Severity: SeverityInfo,
		Source:   "system",
		Action:   strings.ToLower(string(eventType)),
		Result:   message,
		Details:  details,
	})
}

// Flush blocks until every event queued before the call has been written
func (l *Logger) Flush() {
	done := make(chan struct{})
	select {
	case l.flushChan <- done:
		<-done
	case <-l.stopChan:
	}
}

// worker processes audit events in the background
func (l *Logger) worker() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case event := <-l.eventChan:
			l.writeEvent(event)

		case done := <-l.flushChan:
			l.drain()
			close(done)

		case <-ticker.C:
			l.performMaintenance()

		case <-l.stopChan:
			l.drain()
			return
		}
	}
}

// drain writes whatever is buffered without blocking
func (l *Logger) drain() {
	for {
		select {
		case event := <-l.eventChan:
			l.writeEvent(event)
		default:
			return
		}
	}
}

// writeEvent writes an event to the log file
func (l *Logger) writeEvent(event *AuditEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.encoder.Encode(event); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit event: %v\n", err)
	}

	if l.maxSize > 0 {
		if info, err := l.file.Stat(); err == nil && info.Size() > l.maxSize {
			l.rotate()
		}
	}
}

// rotate moves the current file aside with a timestamp suffix. Callers
// must hold l.mu.
func (l *Logger) rotate() {
	_ = l.file.Close()

	timestamp := time.Now().Format("20060102-150405.000000000")
	rotatedPath := fmt.Sprintf("%s.%s", l.filepath, timestamp)
	_ = os.Rename(l.filepath, rotatedPath)

	file, err := os.OpenFile(l.filepath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 - path comes from application config
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open new audit log file: %v\n", err)
		return
	}

	l.file = file
	l.encoder = json.NewEncoder(file)
}

// performMaintenance removes rotated files older than maxAge
func (l *Logger) performMaintenance() {
	if l.maxAge <= 0 {
		return
	}

	dir := filepath.Dir(l.filepath)
	prefix := filepath.Base(l.filepath) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-l.maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}

// Close logs shutdown, flushes pending events and closes the file
func (l *Logger) Close() error {
	l.LogSystem(EventShutdown, "Audit logger shutting down", nil)

	close(l.stopChan)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Query represents an audit log query
type Query struct {
	StartTime  time.Time
	EndTime    time.Time
	EventTypes []EventType
	Severities []Severity
	Kind       types.Kind
	Profile    string
	Limit      int
}

func (q Query) matches(event *AuditEvent) bool {
	if !q.StartTime.IsZero() && event.Timestamp.Before(q.StartTime) {
		return false
	}
	if !q.EndTime.IsZero() && event.Timestamp.After(q.EndTime) {
		return false
	}
	if len(q.EventTypes) > 0 && !slices.Contains(q.EventTypes, event.Type) {
		return false
	}
	if len(q.Severities) > 0 && !slices.Contains(q.Severities, event.Severity) {
		return false
	}
	if q.Kind != "" && event.Kind != q.Kind {
		return false
	}
	if q.Profile != "" && !types.SameName(event.Profile, q.Profile) {
		return false
	}
	return true
}

// Search scans the active log file for matching events, oldest first
func (l *Logger) Search(query Query) ([]*AuditEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var events []*AuditEvent
	decoder := json.NewDecoder(file)
	for {
		var event AuditEvent
		if err := decoder.Decode(&event); err != nil {
			break
		}
		if !query.matches(&event) {
			continue
		}

		events = append(events, &event)
		if query.Limit > 0 && len(events) >= query.Limit {
			break
		}
	}

	return events, nil
}

// sanitize drops detail entries whose key looks like it carries a secret
func sanitize(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	clean := make(map[string]any, len(details))
	for k, v := range details {
		if !isSensitiveKey(k) {
			clean[k] = v
		}
	}
	return clean
}

// isSensitiveKey checks if a key contains sensitive information
func isSensitiveKey(key string) bool {
	sensitiveKeys := []string{
		"password", "secret", "token", "auth", "credential", "passphrase",
	}

	keyLower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	return false
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
