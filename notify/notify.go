// Package notify forwards job events to a local companion process over a Unix domain socket.
package notify

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

// NotifyWriteChunkSize is the chunk size when writing payload to Unix socket (avoid large single write).
const NotifyWriteChunkSize = 32 * 1024 // 32KB

// MaxNotifyFiles is the maximum number of part names included in one payload
const MaxNotifyFiles = 20

// UnixSocketTimeout is the timeout for Unix socket operations
const UnixSocketTimeout = 3 * time.Second

var ErrDisabled = errors.New("notify socket not configured")

// Notifier sends length-prefixed JSON messages to a listener on SocketPath.
// The zero value and a nil Notifier are disabled.
type Notifier struct {
	SocketPath string
	Timeout    time.Duration
}

func New(socketPath string) *Notifier {
	return &Notifier{SocketPath: socketPath, Timeout: UnixSocketTimeout}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.SocketPath != ""
}

// Send writes one notification and waits for the listener's reply.
func (n *Notifier) Send(notification *types.Notification) error {
	if !n.Enabled() {
		return ErrDisabled
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = UnixSocketTimeout
	}

	// Check if socket file exists
	if _, err := os.Stat(n.SocketPath); os.IsNotExist(err) {
		return fmt.Errorf("unix socket not found: %s", n.SocketPath)
	}

	payload, err := sonic.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to serialize notification data: %v", err)
	}
	// Reject payload over 32KB
	if len(payload) > NotifyWriteChunkSize {
		return fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), NotifyWriteChunkSize)
	}

	conn, err := net.DialTimeout("unix", n.SocketPath, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to Unix socket %s: %v", n.SocketPath, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close Unix socket connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		tool.DefaultLogger.Errorf("Failed to set deadline: %v", err)
	}

	// Send length prefix (4 bytes, little-endian uint32) then payload
	lengthBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthBuf, uint32(len(payload)))
	if _, err := conn.Write(lengthBuf); err != nil {
		return fmt.Errorf("failed to write length to Unix socket: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload to Unix socket: %v", err)
	}

	buf := make([]byte, 4096)
	read, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read response from Unix socket: %v", err)
	}
	if read > 0 {
		var response map[string]any
		if err := sonic.Unmarshal(buf[:read], &response); err != nil {
			tool.DefaultLogger.Debugf("Unix socket response (raw): %s", string(buf[:read]))
		} else if errMsg, ok := response["error"].(string); ok && errMsg != "" {
			return fmt.Errorf("server returned error: %s", errMsg)
		}
	}

	tool.DefaultLogger.Debugf("[UnixSocket] Notification sent: %s - %s", notification.Type, notification.Key)
	return nil
}

// JobFinished is a tracker observer: completed and failed jobs are forwarded in the background.
func (n *Notifier) JobFinished(p types.JobProgress) {
	if !n.Enabled() || !p.Status.IsFinished() {
		return
	}
	notification := &types.Notification{
		Key:      p.Key,
		Progress: p.Rounded(),
		Status:   p.Status,
	}
	if p.Status == types.JobStatusCompleted {
		notification.Type = types.NotifyTypeCompleted
		notification.Title = "Split Completed"
		notification.Message = fmt.Sprintf("%s is ready to download", p.Key)
	} else {
		notification.Type = types.NotifyTypeFailed
		notification.Title = "Split Failed"
		notification.Message = fmt.Sprintf("Splitting %s failed at %.2f%%", p.Key, p.Rounded())
	}
	n.sendAsync(notification)
}

// FolderCollected announces that every part of folder has been downloaded and the folder removed.
func (n *Notifier) FolderCollected(folder string, parts []string) {
	if !n.Enabled() {
		return
	}
	data := map[string]any{"folder": folder, "totalFiles": len(parts)}
	if len(parts) > MaxNotifyFiles {
		parts = parts[:MaxNotifyFiles]
	}
	data["files"] = parts
	n.sendAsync(&types.Notification{
		Type:     types.NotifyTypeCollected,
		Key:      folder,
		Progress: 100,
		Status:   types.JobStatusCompleted,
		Title:    "Download Finished",
		Message:  fmt.Sprintf("All parts of %s were downloaded", folder),
		Data:     data,
	})
}

func (n *Notifier) sendAsync(notification *types.Notification) {
	// Send notification asynchronously to avoid blocking the caller
	go func() {
		if err := n.Send(notification); err != nil {
			tool.DefaultLogger.Warnf("[Notify] Failed to send %s: %v", notification.Type, err)
		}
	}()
}
