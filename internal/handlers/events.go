package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// StreamEvents pushes committed change events to the client over SSE. Topics
// are selected with ?topics=cq_schedule,liberty_requests; no filter means all.
func (e *Env) StreamEvents(c *gin.Context) {
	var topics []string
	if raw := c.Query("topics"); raw != "" {
		topics = strings.Split(raw, ",")
	}

	events, unsubscribe := e.Hub.Subscribe(topics...)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Topic, payload)
			c.Writer.Flush()
		}
	}
}
