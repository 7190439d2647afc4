package notifyhub

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moyoez/video-splitter-go/tool"
	"github.com/moyoez/video-splitter-go/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // progress is keyed by an unguessable stored name
	},
}

// HandleProgressWS upgrades the request to WebSocket and subscribes it to the job named by :filename.
// The current state is sent right after the upgrade so late subscribers are not left at zero.
func HandleProgressWS(hub *Hub, current func(key string) types.JobProgress) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("filename")
		if !tool.IsPlainName(key) {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid filename"))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			tool.DefaultLogger.Debugf("[NotifyHub] Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		sub := hub.Register(key, conn)
		defer hub.Unregister(key, sub)

		if current != nil {
			if payload, err := sonic.Marshal(NotificationFor(current(key))); err == nil {
				_ = sub.write(payload)
			}
		}

		// Read loop to detect client close and keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}
}
