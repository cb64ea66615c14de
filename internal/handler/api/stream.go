package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FraudSight/internal/domain/models"
	xhttp "FraudSight/pkg/http"
	"FraudSight/pkg/logger"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamFrame is one message pushed over the progress websocket.
type streamFrame struct {
	JobID         string           `json:"job_id"`
	Status        models.JobStatus `json:"status"`
	Progress      int              `json:"progress"`
	StatusMessage string           `json:"status_message"`
}

// streamJob upgrades the connection and pushes progress frames until
// the job reaches a terminal state or the client goes away.
func (h *TrainingEchoHandler) streamJob(c echo.Context) error {
	jobID := c.Param("id")
	job, err := h.orch.Status(c.Request().Context(), jobID)
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Subscribe before the snapshot so no update falls in between.
	updates, unsubscribe := h.orch.Subscribe(jobID)
	defer unsubscribe()

	if err := h.writeFrame(conn, frameFromJob(job)); err != nil {
		return nil
	}
	if job.Status.Terminal() {
		return nil
	}

	// Drain client reads so close frames and disconnects are noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				// Stream ends with the final job record.
				if final, err := h.orch.Status(c.Request().Context(), jobID); err == nil {
					_ = h.writeFrame(conn, frameFromJob(final))
				}
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(streamWriteTimeout))
				return nil
			}
			current, err := h.orch.Status(c.Request().Context(), jobID)
			if err != nil {
				return nil
			}
			frame := frameFromJob(current)
			frame.Progress = u.Progress
			frame.StatusMessage = u.Message
			if err := h.writeFrame(conn, frame); err != nil {
				return nil
			}
		case <-clientGone:
			return nil
		}
	}
}

func (h *TrainingEchoHandler) writeFrame(conn *websocket.Conn, frame streamFrame) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		h.log.Debug("stream write failed",
			logger.String("job_id", frame.JobID),
			logger.Error(err))
		return err
	}
	return nil
}

func frameFromJob(job *models.TrainingJob) streamFrame {
	return streamFrame{
		JobID:         job.JobID,
		Status:        job.Status,
		Progress:      job.Progress,
		StatusMessage: job.StatusMessage,
	}
}
