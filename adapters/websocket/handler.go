package websocket

import (
	"github.com/labstack/echo/v4"
)

// SubjectKey is the echo context key holding the authenticated subject.
const SubjectKey = "subject"

// Handler upgrades GET /ws and blocks until the client disconnects.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	subject, _ := c.Get(SubjectKey).(string)
	client := NewClient(conn, subject)
	s.hub.Register(client)
	client.Run()

	<-client.Context().Done()
	s.hub.Unregister(client)
	return nil
}
