package monitor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"phoenix/pkg/logx"
)

// Sender delivers one alert message to the owner. The transport layer
// provides the implementation.
type Sender func(text string) error

// AlertManager rate-limits alerts per status class so a stuck-critical
// service does not flood the chat.
type AlertManager struct {
	send     Sender
	cooldown time.Duration
	logger   *logx.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// NewAlertManager creates an alert manager with the given per-class cooldown.
func NewAlertManager(send Sender, cooldown time.Duration) *AlertManager {
	return &AlertManager{
		send:      send,
		cooldown:  cooldown,
		logger:    logx.NewLogger("alerts"),
		now:       func() time.Time { return time.Now().UTC() },
		lastAlert: make(map[string]time.Time),
	}
}

// allowed reports whether the class is out of cooldown, recording the send
// time when it is.
func (a *AlertManager) allowed(class string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if last, ok := a.lastAlert[class]; ok && now.Sub(last) < a.cooldown {
		return false
	}
	a.lastAlert[class] = now
	return true
}

// StatusAlert sends a degraded-status notification, cooled down per overall
// status so warning and critical alert independently.
func (a *AlertManager) StatusAlert(report *Report) {
	if !a.allowed(string(report.Overall)) {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Omni-Agent status: %s\n\n", strings.ToUpper(string(report.Overall)))
	if len(report.Issues) > 0 {
		b.WriteString("Issues:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}
	fmt.Fprintf(&b, "\nChecked at %s", report.Timestamp.Format("2006-01-02 15:04:05"))

	if err := a.send(b.String()); err != nil {
		a.logger.Error("failed to send status alert: %v", err)
	}
}

// AutoFixAlert reports an auto-remediation attempt. Fix reports share one
// cooldown class.
func (a *AlertManager) AutoFixAlert(issue string, result FixResult) {
	if !a.allowed("auto_fix") {
		return
	}

	var b strings.Builder
	b.WriteString("Auto-fix attempted\n\n")
	fmt.Fprintf(&b, "Issue: %s\n", issue)
	if result.Success {
		fmt.Fprintf(&b, "Fixed: %s", result.Message)
	} else {
		fmt.Fprintf(&b, "Failed: %s", result.Message)
	}

	if err := a.send(b.String()); err != nil {
		a.logger.Error("failed to send auto-fix alert: %v", err)
	}
}
