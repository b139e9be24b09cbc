package email

import "log"

// ConsoleService logs messages instead of sending them. Used in development
// and tests.
type ConsoleService struct {
	subjPrefix string
}

var _ Service = (*ConsoleService)(nil)

func NewConsoleService(appName string) *ConsoleService {
	return &ConsoleService{subjPrefix: "[" + appName + "] "}
}

func (s *ConsoleService) SendMessages(messages ...*Message) {
	for _, msg := range messages {
		if !msg.HasRecipients() || !msg.HasContent() {
			continue
		}
		for _, to := range msg.To {
			log.Printf("email (console): to=%s subject=%q\n%s", to.Address, s.subjPrefix+msg.Subject, msg.TextContent)
		}
	}
}
